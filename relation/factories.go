package relation

import (
	"github.com/kolibri-data/relation/capability"
	"github.com/kolibri-data/relation/column"
	"github.com/kolibri-data/relation/expression"
)

// checkEngineSupport rejects constructing an operation the target's
// engine has not advertised support for (SPEC_FULL §9: capability
// checks happen at construction, not only at Conform).
func checkEngineSupport(eng capability.Engine, op capability.UnaryOpKind) error {
	if !eng.Capabilities().SupportsUnary(op) {
		return &EngineError{Engine: eng.Name(), Op: op.String()}
	}
	return nil
}

// Calculation extends target with a new column named tag, computed by
// expr. Requires expr.Columns() ⊆ target.Columns() and tag ∉
// target.Columns() (spec §4.1).
func Calculation(target Relation, tag column.Tag, expr expression.Scalar) (Relation, error) {
	if err := checkEngineSupport(target.Engine(), capability.Calculation); err != nil {
		return nil, err
	}
	if !expr.SupportedBy(target.Engine().Capabilities()) {
		return nil, &EngineError{Engine: target.Engine().Name(), Op: "expression " + expr.String()}
	}
	if !expr.Columns().Subset(target.Columns()) {
		return nil, &ColumnError{Op: "Calculation", Msg: "expression reads columns not in target: " + expr.Columns().String()}
	}
	if target.Columns().Contains(tag) {
		return nil, &ColumnError{Op: "Calculation", Msg: "column already present: " + tag.QualifiedName()}
	}
	return &Unary{
		base: base{
			engine:  target.Engine(),
			columns: target.Columns().With(tag),
			unique:  target.Unique(),
			minRows: target.MinRows(),
			maxRows: target.MaxRows(),
		},
		op:     capability.Calculation,
		target: target,
		calc:   &CalculationParams{Tag: tag, Expr: expr},
	}, nil
}

// Projection restricts target to keep, a subset of target.Columns()
// (spec §4.1). Uniqueness is lost unless the projection retains every
// column (a no-op projection).
func Projection(target Relation, keep column.Set) (Relation, error) {
	if err := checkEngineSupport(target.Engine(), capability.Projection); err != nil {
		return nil, err
	}
	if !keep.Subset(target.Columns()) {
		return nil, &ColumnError{Op: "Projection", Msg: "kept columns not a subset of target: " + keep.String()}
	}
	unique := target.Unique() && keep.Equal(target.Columns())
	return &Unary{
		base: base{
			engine:  target.Engine(),
			columns: keep,
			unique:  unique,
			minRows: target.MinRows(),
			maxRows: target.MaxRows(),
		},
		op:     capability.Projection,
		target: target,
		proj:   &ProjectionParams{Keep: keep},
	}, nil
}

// Selection filters target by pred, whose columns must be a subset of
// target.Columns() (spec §4.1). Columns and uniqueness are unchanged.
func Selection(target Relation, pred expression.Predicate) (Relation, error) {
	if err := checkEngineSupport(target.Engine(), capability.Selection); err != nil {
		return nil, err
	}
	if !pred.SupportedBy(target.Engine().Capabilities()) {
		return nil, &EngineError{Engine: target.Engine().Name(), Op: "predicate " + pred.String()}
	}
	if !pred.Columns().Subset(target.Columns()) {
		return nil, &ColumnError{Op: "Selection", Msg: "predicate reads columns not in target: " + pred.Columns().String()}
	}
	return &Unary{
		base: base{
			engine:  target.Engine(),
			columns: target.Columns(),
			unique:  target.Unique(),
			minRows: 0,
			maxRows: target.MaxRows(),
		},
		op:     capability.Selection,
		target: target,
		sel:    &SelectionParams{Predicate: pred},
	}, nil
}

// Slice keeps rows in [start, stop) of target, with 0 <= start <= stop
// (stop may be relation.Unbounded). Columns and uniqueness are
// unchanged (spec §4.1).
func Slice(target Relation, start, stop int64) (Relation, error) {
	if err := checkEngineSupport(target.Engine(), capability.Slice); err != nil {
		return nil, err
	}
	if start < 0 || stop < start {
		return nil, &InvariantError{Msg: "Slice requires 0 <= start <= stop"}
	}
	max := minRows(target.MaxRows(), stop-start)
	if stop == Unbounded {
		max = target.MaxRows()
	}
	min := int64(0)
	if target.MinRows() > start {
		min = minRows(target.MinRows(), stop) - start
	}
	if min < 0 {
		min = 0
	}
	return &Unary{
		base: base{
			engine:  target.Engine(),
			columns: target.Columns(),
			unique:  target.Unique(),
			minRows: min,
			maxRows: max,
		},
		op:     capability.Slice,
		target: target,
		slice:  &SliceParams{Start: start, Stop: stop},
	}, nil
}

// Sort orders target by keys, whose expression columns must be a
// subset of target.Columns() (spec §4.1). Columns and uniqueness are
// unchanged; whether ordering survives execution is engine-specific
// (spec §4.4, §4.5).
func Sort(target Relation, keys []SortKey) (Relation, error) {
	if err := checkEngineSupport(target.Engine(), capability.Sort); err != nil {
		return nil, err
	}
	for _, k := range keys {
		if !k.Expr.SupportedBy(target.Engine().Capabilities()) {
			return nil, &EngineError{Engine: target.Engine().Name(), Op: "sort key " + k.Expr.String()}
		}
		if !k.Expr.Columns().Subset(target.Columns()) {
			return nil, &ColumnError{Op: "Sort", Msg: "sort key reads columns not in target: " + k.Expr.Columns().String()}
		}
	}
	return &Unary{
		base: base{
			engine:  target.Engine(),
			columns: target.Columns(),
			unique:  target.Unique(),
			minRows: target.MinRows(),
			maxRows: target.MaxRows(),
		},
		op:     capability.Sort,
		target: target,
		sort:   &SortParams{Keys: keys},
	}, nil
}

// Deduplication removes duplicate rows. If target is already known
// unique, or bounded to at most one row, Deduplication is a no-op and
// returns target itself by identity (SPEC_FULL scenario S3, DM-42324).
func Deduplication(target Relation) (Relation, error) {
	if target.Unique() || target.MaxRows() <= 1 {
		return target, nil
	}
	if err := checkEngineSupport(target.Engine(), capability.Deduplication); err != nil {
		return nil, err
	}
	min := int64(1)
	if target.MinRows() < 1 {
		min = target.MinRows()
	}
	return &Unary{
		base: base{
			engine:  target.Engine(),
			columns: target.Columns(),
			unique:  true,
			minRows: min,
			maxRows: target.MaxRows(),
		},
		op:     capability.Deduplication,
		target: target,
	}, nil
}

// ApplyCustomUnary builds a relation from an engine-specific unary
// operation (spec §4.2).
func ApplyCustomUnary(target Relation, op CustomUnaryOp) (Relation, error) {
	if !target.Engine().Capabilities().SupportsUnary(capability.Custom) {
		return nil, &NotImplementedByEngine{Engine: target.Engine().Name(), Op: op.Name()}
	}
	unique := target.Unique() && op.PreservesUniqueness()
	return &Unary{
		base: base{
			engine:  target.Engine(),
			columns: op.Columns(target),
			unique:  unique,
			minRows: 0,
			maxRows: target.MaxRows(),
		},
		op:     capability.Custom,
		target: target,
		custom: op,
	}, nil
}

// Join combines lhs and rhs, which must share an engine (spec §4.1).
// Columns are the union of both sides' columns; predicate may be nil
// for a natural equi-join on the operands' common columns.
func Join(lhs, rhs Relation, predicate expression.Predicate) (Relation, error) {
	if lhs.Engine().Name() != rhs.Engine().Name() {
		return nil, &InvariantError{Msg: "Join operands must share an engine"}
	}
	eng := lhs.Engine()
	if !eng.Capabilities().SupportsBinary(capability.Join) {
		return nil, &EngineError{Engine: eng.Name(), Op: "Join"}
	}
	cols := column.Union(lhs.Columns(), rhs.Columns())
	if predicate != nil {
		if !predicate.SupportedBy(eng.Capabilities()) {
			return nil, &EngineError{Engine: eng.Name(), Op: "join predicate " + predicate.String()}
		}
		if !predicate.Columns().Subset(cols) {
			return nil, &ColumnError{Op: "Join", Msg: "predicate reads columns not in either operand"}
		}
	}
	unique := lhs.Unique() && rhs.Unique()
	return &Binary{
		base: base{
			engine:  eng,
			columns: cols,
			unique:  unique,
			minRows: 0,
			maxRows: mulRows(lhs.MaxRows(), rhs.MaxRows()),
		},
		op:        capability.Join,
		lhs:       lhs,
		rhs:       rhs,
		predicate: predicate,
	}, nil
}

// Chain concatenates lhs and rhs as a multiset union; both operands
// must have identical column sets (spec §4.1). Uniqueness is always
// false.
func Chain(lhs, rhs Relation) (Relation, error) {
	if lhs.Engine().Name() != rhs.Engine().Name() {
		return nil, &InvariantError{Msg: "Chain operands must share an engine"}
	}
	if !lhs.Columns().Equal(rhs.Columns()) {
		return nil, &InvariantError{Msg: "Chain operands must have identical column sets"}
	}
	eng := lhs.Engine()
	if !eng.Capabilities().SupportsBinary(capability.Chain) {
		return nil, &EngineError{Engine: eng.Name(), Op: "Chain"}
	}
	return &Binary{
		base: base{
			engine:  eng,
			columns: lhs.Columns(),
			unique:  false,
			minRows: addRows(lhs.MinRows(), rhs.MinRows()),
			maxRows: addRows(lhs.MaxRows(), rhs.MaxRows()),
		},
		op:  capability.Chain,
		lhs: lhs,
		rhs: rhs,
	}, nil
}

// NewMaterialization wraps target in a Materialization marker, whose
// payload the processor caches on first execution (spec §4.5). The
// marker's engine equals target's; markers never cross an engine on
// their own (that is Transfer's job).
func NewMaterialization(target Relation) Relation {
	return &Marker{
		base: base{
			engine:  target.Engine(),
			columns: target.Columns(),
			unique:  target.Unique(),
			minRows: target.MinRows(),
			maxRows: target.MaxRows(),
		},
		kind:   capability.Materialization,
		target: target,
	}
}

// NewTransfer marks the boundary at which the processor bridges target
// (resident on its own engine) to destEngine (spec §4.5, glossary). The
// two engines must differ (spec invariant 2).
func NewTransfer(target Relation, destEngine capability.Engine) (Relation, error) {
	if target.Engine().Name() == destEngine.Name() {
		return nil, &InvariantError{Msg: "Transfer source and destination engines must differ"}
	}
	return &Marker{
		base: base{
			engine:  destEngine,
			columns: target.Columns(),
			unique:  target.Unique(),
			minRows: target.MinRows(),
			maxRows: target.MaxRows(),
		},
		kind:   capability.Transfer,
		target: target,
	}, nil
}

// NewSelectMarker certifies that target is a single SQL SELECT
// statement in canonical form (spec §4.3). Only sqlengine.Conform
// should call this; it is exported so sqlengine, which cannot import
// relation's unexported constructors, can build one.
func NewSelectMarker(target Relation) Relation {
	return &Marker{
		base: base{
			engine:  target.Engine(),
			columns: target.Columns(),
			unique:  target.Unique(),
			minRows: target.MinRows(),
			maxRows: target.MaxRows(),
		},
		kind:   capability.Select,
		target: target,
	}
}
