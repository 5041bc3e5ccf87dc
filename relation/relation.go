// Package relation implements the immutable relational-algebra
// expression tree from spec §3: Leaf, Unary, Binary, and Marker
// relations, built exclusively through factories that enforce the
// column-propagation and engine-consistency invariants of spec §4.1.
//
// Grounded on the teacher's evaluate/query.rowsOp (a small closed
// interface implemented by a handful of concrete operator structs) and
// sql.TableType's column/uniqueness accessors.
package relation

import (
	"math"

	"github.com/kolibri-data/relation/capability"
	"github.com/kolibri-data/relation/column"
)

// Unbounded marks a MaxRows bound with no known finite cap.
const Unbounded = math.MaxInt64

// Relation is an immutable node in the expression tree: a Leaf, Unary,
// Binary, or Marker (spec §3).
type Relation interface {
	// Engine identifies the backend this relation's payload, if any,
	// belongs to (or would belong to, once executed).
	Engine() capability.Engine

	// Columns is the set of tags this relation's rows carry. It is a
	// deterministic function of kind and operands (spec invariant 1).
	Columns() column.Set

	// Unique reports whether rows are guaranteed distinct. It is
	// conservative: it never reports true for rows that may repeat
	// (spec invariant 3).
	Unique() bool

	// MinRows and MaxRows bound the relation's row count; MaxRows may
	// be relation.Unbounded.
	MinRows() int64
	MaxRows() int64

	// Hash is a stable structural hash (spec invariant 6).
	Hash() uint64

	// Equal reports structural equality up to payload identity (spec
	// invariant 6).
	Equal(other Relation) bool

	isRelation()
}

// base carries the fields common to every relation kind.
type base struct {
	engine  capability.Engine
	columns column.Set
	unique  bool
	minRows int64
	maxRows int64
}

func (b *base) Engine() capability.Engine { return b.engine }
func (b *base) Columns() column.Set       { return b.columns }
func (b *base) Unique() bool              { return b.unique }
func (b *base) MinRows() int64            { return b.minRows }
func (b *base) MaxRows() int64            { return b.maxRows }
