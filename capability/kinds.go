// Package capability defines the closed operation-kind enumerations
// shared by expression, relation, and engine, plus the Capabilities and
// Engine-identity interfaces relation factories consult at construction
// time. It sits below both expression and relation in the import graph
// so neither has to depend on the other for these shared vocabulary
// types.
package capability

// UnaryOpKind enumerates the built-in unary operations (spec §3, §4.1),
// plus Custom for engine-specific extensions dispatched through
// Engine.ApplyCustomUnary (spec §4.2; the Go rendering of the original
// implementation's subclassable RowFilter/Reordering operations).
type UnaryOpKind int

const (
	Calculation UnaryOpKind = iota
	Deduplication
	Identity
	Projection
	Selection
	Slice
	Sort
	Custom
)

func (k UnaryOpKind) String() string {
	switch k {
	case Calculation:
		return "Calculation"
	case Deduplication:
		return "Deduplication"
	case Identity:
		return "Identity"
	case Projection:
		return "Projection"
	case Selection:
		return "Selection"
	case Slice:
		return "Slice"
	case Sort:
		return "Sort"
	case Custom:
		return "Custom"
	default:
		return "UnaryOpKind(?)"
	}
}

// BinaryOpKind enumerates the built-in binary operations (spec §3, §4.1).
type BinaryOpKind int

const (
	Join BinaryOpKind = iota
	Chain
)

func (k BinaryOpKind) String() string {
	switch k {
	case Join:
		return "Join"
	case Chain:
		return "Chain"
	default:
		return "BinaryOpKind(?)"
	}
}

// MarkerKind enumerates the marker relation variants (spec §3).
type MarkerKind int

const (
	Materialization MarkerKind = iota
	Transfer
	Select
)

func (k MarkerKind) String() string {
	switch k {
	case Materialization:
		return "Materialization"
	case Transfer:
		return "Transfer"
	case Select:
		return "Select"
	default:
		return "MarkerKind(?)"
	}
}

// ContainerKind enumerates the ColumnContainer variants (spec §3).
type ContainerKind int

const (
	Sequence ContainerKind = iota
	Range
)

func (k ContainerKind) String() string {
	switch k {
	case Sequence:
		return "Sequence"
	case Range:
		return "Range"
	default:
		return "ContainerKind(?)"
	}
}
