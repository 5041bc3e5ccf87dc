package relation

import (
	"github.com/kolibri-data/relation/capability"
	"github.com/kolibri-data/relation/column"
	"github.com/kolibri-data/relation/expression"
)

// CalculationParams holds the added column and its defining expression
// for a Calculation unary op (spec §4.1).
type CalculationParams struct {
	Tag  column.Tag
	Expr expression.Scalar
}

// ProjectionParams holds the retained column set for a Projection.
type ProjectionParams struct {
	Keep column.Set
}

// SelectionParams holds the filter predicate for a Selection.
type SelectionParams struct {
	Predicate expression.Predicate
}

// SliceParams holds the [Start, Stop) row bounds for a Slice.
type SliceParams struct {
	Start, Stop int64
}

// SortKey is one (expression, direction) pair of a Sort.
type SortKey struct {
	Expr      expression.Scalar
	Ascending bool
}

// SortParams holds the ordered sort keys for a Sort.
type SortParams struct {
	Keys []SortKey
}

// Unary is a relation formed by applying a single-operand operation to
// a target relation (spec §3). Its engine always equals the target's
// (spec invariant 2).
type Unary struct {
	base
	op     capability.UnaryOpKind
	target Relation

	calc   *CalculationParams
	proj   *ProjectionParams
	sel    *SelectionParams
	slice  *SliceParams
	sort   *SortParams
	custom CustomUnaryOp
}

func (*Unary) isRelation() {}

func (u *Unary) Op() capability.UnaryOpKind { return u.op }
func (u *Unary) Target() Relation           { return u.target }

func (u *Unary) Calculation() (CalculationParams, bool) {
	if u.calc == nil {
		return CalculationParams{}, false
	}
	return *u.calc, true
}

func (u *Unary) Projection() (ProjectionParams, bool) {
	if u.proj == nil {
		return ProjectionParams{}, false
	}
	return *u.proj, true
}

func (u *Unary) Selection() (SelectionParams, bool) {
	if u.sel == nil {
		return SelectionParams{}, false
	}
	return *u.sel, true
}

func (u *Unary) SliceBounds() (SliceParams, bool) {
	if u.slice == nil {
		return SliceParams{}, false
	}
	return *u.slice, true
}

func (u *Unary) Sort() (SortParams, bool) {
	if u.sort == nil {
		return SortParams{}, false
	}
	return *u.sort, true
}

func (u *Unary) Custom() (CustomUnaryOp, bool) {
	return u.custom, u.custom != nil
}

func (u *Unary) Hash() uint64 {
	h := fnvSeed
	h = fnvString(h, "Unary")
	h = fnvString(h, u.op.String())
	h = fnvUint64Val(h, u.target.Hash())
	switch u.op {
	case capability.Calculation:
		h = fnvString(h, u.calc.Tag.QualifiedName())
		h = fnvString(h, u.calc.Expr.String())
	case capability.Projection:
		h = fnvUint64Val(h, u.proj.Keep.Hash())
	case capability.Selection:
		h = fnvString(h, u.sel.Predicate.String())
	case capability.Slice:
		h = fnvInt64(h, u.slice.Start)
		h = fnvInt64(h, u.slice.Stop)
	case capability.Sort:
		for _, k := range u.sort.Keys {
			h = fnvString(h, k.Expr.String())
			h = fnvBool(h, k.Ascending)
		}
	case capability.Custom:
		h = fnvString(h, u.custom.Name())
	}
	return h
}

func (u *Unary) Equal(other Relation) bool {
	o, ok := other.(*Unary)
	if !ok || o.op != u.op || !u.target.Equal(o.target) {
		return false
	}
	switch u.op {
	case capability.Calculation:
		return u.calc.Tag.Equal(o.calc.Tag) && u.calc.Expr.Equal(o.calc.Expr)
	case capability.Projection:
		return u.proj.Keep.Equal(o.proj.Keep)
	case capability.Selection:
		return u.sel.Predicate.Equal(o.sel.Predicate)
	case capability.Slice:
		return u.slice.Start == o.slice.Start && u.slice.Stop == o.slice.Stop
	case capability.Sort:
		if len(u.sort.Keys) != len(o.sort.Keys) {
			return false
		}
		for i := range u.sort.Keys {
			if u.sort.Keys[i].Ascending != o.sort.Keys[i].Ascending ||
				!u.sort.Keys[i].Expr.Equal(o.sort.Keys[i].Expr) {
				return false
			}
		}
		return true
	case capability.Custom:
		return u.custom.Name() == o.custom.Name()
	default:
		return true
	}
}
