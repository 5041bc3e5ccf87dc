package relation

import (
	"sync/atomic"

	"github.com/kolibri-data/relation/capability"
)

// PayloadSlot is the single-assignment mutable slot spec §3 invariant 4
// and §5 describe: attachment compare-and-swaps from empty to a value,
// and readers observe either "empty" or a fully initialized payload,
// never a half-written one. Only Leaf and Marker relations embed one.
type PayloadSlot struct {
	p atomic.Pointer[Payload]
}

// Load returns the attached payload, if any.
func (s *PayloadSlot) Load() (Payload, bool) {
	if s == nil {
		return nil, false
	}
	v := s.p.Load()
	if v == nil {
		return nil, false
	}
	return *v, true
}

// Attach assigns payload if the slot is empty. If another goroutine won
// the race, or the slot was already attached, Attach discards the given
// value and returns the previously-attached one instead — the "first
// assignment wins, concurrent losers discard their computed payload"
// rule of spec §5, verified by scenario S7.
func (s *PayloadSlot) Attach(payload Payload) Payload {
	if s.p.CompareAndSwap(nil, &payload) {
		return payload
	}
	return *s.p.Load()
}

// PayloadBearer is implemented by the relation kinds allowed to carry a
// payload (spec invariant 4: only leaves and markers).
type PayloadBearer interface {
	Relation
	payloadSlot() *PayloadSlot
}

// AttachPayload attaches payload to r, which must be a Leaf or a
// Materialization Marker (spec invariant 4). It returns the payload
// that ends up attached, which may not be the one passed in if another
// caller already attached one.
func AttachPayload(r Relation, payload Payload) (Payload, error) {
	bearer, ok := r.(PayloadBearer)
	if !ok {
		return nil, &InvariantError{Msg: "payload can only be attached to a Leaf or a Materialization marker"}
	}
	if m, ok := r.(*Marker); ok && m.Kind() != capability.Materialization {
		return nil, &InvariantError{Msg: "payload can only be attached to a Materialization marker, not " + m.Kind().String()}
	}
	return bearer.payloadSlot().Attach(payload), nil
}

// LoadPayload returns the payload attached to r, if r is a payload
// bearer with one attached.
func LoadPayload(r Relation) (Payload, bool) {
	bearer, ok := r.(PayloadBearer)
	if !ok {
		return nil, false
	}
	return bearer.payloadSlot().Load()
}
