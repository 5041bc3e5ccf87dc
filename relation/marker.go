package relation

import "github.com/kolibri-data/relation/capability"

// Marker annotates a target relation without changing its semantics
// (spec §3): Materialization (caches a payload), Transfer (crosses an
// engine boundary), or Select (certifies a SQL-engine canonical
// subtree, spec §4.3).
type Marker struct {
	base
	kind    capability.MarkerKind
	target  Relation
	payload PayloadSlot
}

func (*Marker) isRelation() {}

func (m *Marker) Kind() capability.MarkerKind { return m.kind }
func (m *Marker) Target() Relation            { return m.target }

func (m *Marker) payloadSlot() *PayloadSlot { return &m.payload }

func (m *Marker) Hash() uint64 {
	h := fnvSeed
	h = fnvString(h, "Marker")
	h = fnvString(h, m.kind.String())
	h = fnvString(h, m.engine.Name())
	h = fnvUint64Val(h, m.target.Hash())
	return h
}

func (m *Marker) Equal(other Relation) bool {
	o, ok := other.(*Marker)
	if !ok {
		return false
	}
	return m.kind == o.kind && m.engine.Name() == o.engine.Name() && m.target.Equal(o.target)
}
