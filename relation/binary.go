package relation

import (
	"github.com/kolibri-data/relation/capability"
	"github.com/kolibri-data/relation/expression"
)

// Binary is a relation formed by combining two operand relations that
// share an engine (spec §3, invariant 2).
type Binary struct {
	base
	op        capability.BinaryOpKind
	lhs, rhs  Relation
	predicate expression.Predicate // Join only; nil means a natural/equi join on common columns
}

func (*Binary) isRelation() {}

func (b *Binary) Op() capability.BinaryOpKind { return b.op }
func (b *Binary) LHS() Relation               { return b.lhs }
func (b *Binary) RHS() Relation               { return b.rhs }

// Predicate returns the Join predicate, if any was supplied beyond the
// implicit equi-join on common columns.
func (b *Binary) Predicate() (expression.Predicate, bool) {
	return b.predicate, b.predicate != nil
}

func (b *Binary) Hash() uint64 {
	h := fnvSeed
	h = fnvString(h, "Binary")
	h = fnvString(h, b.op.String())
	h = fnvUint64Val(h, b.lhs.Hash())
	h = fnvUint64Val(h, b.rhs.Hash())
	if b.predicate != nil {
		h = fnvString(h, b.predicate.String())
	}
	return h
}

func (b *Binary) Equal(other Relation) bool {
	o, ok := other.(*Binary)
	if !ok || o.op != b.op || !b.lhs.Equal(o.lhs) || !b.rhs.Equal(o.rhs) {
		return false
	}
	if (b.predicate == nil) != (o.predicate == nil) {
		return false
	}
	if b.predicate != nil && !b.predicate.Equal(o.predicate) {
		return false
	}
	return true
}
