package relation

import (
	"github.com/kolibri-data/relation/capability"
	"github.com/kolibri-data/relation/column"
)

// Leaf is engine-resident base data (spec §3).
type Leaf struct {
	base
	name    string
	payload PayloadSlot
}

// NewLeaf constructs a Leaf relation. payload may be nil; the caller
// (typically the processor bridging a Transfer, spec §4.5) attaches one
// later via AttachPayload.
func NewLeaf(name string, engine capability.Engine, columns column.Set, unique bool, payload Payload) *Leaf {
	l := &Leaf{
		base: base{
			engine:  engine,
			columns: columns,
			unique:  unique,
			minRows: 0,
			maxRows: Unbounded,
		},
		name: name,
	}
	if payload != nil {
		l.payload.Attach(payload)
	}
	return l
}

func (l *Leaf) Name() string { return l.name }

func (l *Leaf) payloadSlot() *PayloadSlot { return &l.payload }

func (*Leaf) isRelation() {}

func (l *Leaf) Hash() uint64 {
	h := fnvSeed
	h = fnvString(h, "Leaf")
	h = fnvString(h, l.name)
	h = fnvString(h, l.engine.Name())
	h = fnvUint64Val(h, l.columns.Hash())
	h = fnvBool(h, l.unique)
	return h
}

func (l *Leaf) Equal(other Relation) bool {
	o, ok := other.(*Leaf)
	if !ok {
		return false
	}
	return l.name == o.name &&
		l.engine.Name() == o.engine.Name() &&
		l.columns.Equal(o.columns) &&
		l.unique == o.unique
}
