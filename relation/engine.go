package relation

import "github.com/kolibri-data/relation/column"

// Payload is the opaque, engine-specific execution result attached to a
// Leaf or a Materialization Marker (spec §3, invariant 4). Its concrete
// shape is owned by the engine package that produced it: an
// iterengine.RowIterable, a sqlengine.Executable, or a caller-supplied
// value for a source Leaf.
type Payload = any

// CustomUnaryOp is an engine-specific unary operation applied via
// ApplyCustomUnary (spec §4.2), for operations the closed UnaryOpKind
// vocabulary does not cover.
type CustomUnaryOp interface {
	// Name identifies the operation for hashing, equality, and Explain
	// output.
	Name() string
	// Columns computes the result column set given the target relation
	// the operation is applied to.
	Columns(target Relation) column.Set
	// PreservesUniqueness reports whether the operation is guaranteed
	// not to introduce duplicate rows when applied to a unique target.
	PreservesUniqueness() bool
}
