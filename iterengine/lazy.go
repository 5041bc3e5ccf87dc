package iterengine

import (
	"context"
	"fmt"

	"github.com/google/btree"
	"github.com/kolibri-data/relation/column"
	"github.com/kolibri-data/relation/expression"
)

// filterPayload lazily applies a Selection (spec §4.4: filter rows by
// predicate, lazy).
type filterPayload struct {
	src  RowIterable
	pred expression.Predicate
}

func (f filterPayload) Rows(ctx context.Context, yield func(Row) error) error {
	idx := buildMembershipIndex(f.pred)
	return f.src.Rows(ctx, func(r Row) error {
		if evalPredicate(f.pred, r, idx.cursor()) {
			return yield(r)
		}
		return nil
	})
}

// membershipIndex holds one btree.BTree per Sequence container reached
// by a predicate, built once per Rows call rather than once per row.
// membershipCursor walks the same predicate tree in the same order
// during evaluation, so each InContainer node picks up the index built
// for it without needing to identify the node itself.
type membershipIndex struct {
	sets []*btree.BTree
}

func buildMembershipIndex(p expression.Predicate) *membershipIndex {
	idx := &membershipIndex{}
	idx.walk(p)
	return idx
}

func (idx *membershipIndex) walk(p expression.Predicate) {
	switch e := p.(type) {
	case expression.Not:
		idx.walk(e.Operand)
	case expression.And:
		for _, o := range e.Operands {
			idx.walk(o)
		}
	case expression.Or:
		for _, o := range e.Operands {
			idx.walk(o)
		}
	case expression.InContainer:
		if seq, ok := e.Container.(expression.Sequence); ok {
			idx.sets = append(idx.sets, seq.MembershipSet())
		}
	}
}

func (idx *membershipIndex) cursor() *membershipCursor {
	return &membershipCursor{idx: idx}
}

type membershipCursor struct {
	idx *membershipIndex
	pos int
}

func (c *membershipCursor) next() *btree.BTree {
	s := c.idx.sets[c.pos]
	c.pos++
	return s
}

// calcPayload lazily applies a Calculation (spec §4.4: extend each row
// with a computed column, lazy).
type calcPayload struct {
	src  RowIterable
	tag  column.Tag
	expr expression.Scalar
}

func (c calcPayload) Rows(ctx context.Context, yield func(Row) error) error {
	return c.src.Rows(ctx, func(r Row) error {
		return yield(r.With(c.tag, evalScalar(c.expr, r)))
	})
}

// projectPayload lazily applies a Projection (spec §4.4: restrict row
// keys, lazy).
type projectPayload struct {
	src  RowIterable
	keep column.Set
}

func (p projectPayload) Rows(ctx context.Context, yield func(Row) error) error {
	return p.src.Rows(ctx, func(r Row) error {
		return yield(r.Project(p.keep))
	})
}

// chainPayload lazily concatenates two payloads in order (spec §4.4:
// Chain, lazy).
type chainPayload struct {
	lhs, rhs RowIterable
}

func (c chainPayload) Rows(ctx context.Context, yield func(Row) error) error {
	if err := c.lhs.Rows(ctx, yield); err != nil {
		return err
	}
	return c.rhs.Rows(ctx, yield)
}

// evalScalar evaluates a Scalar expression against a row. Function
// evaluation is delegated to a small built-in table; a host wiring
// custom functions provides them through relation.CustomUnaryOp
// instead of extending this switch.
func evalScalar(s expression.Scalar, row Row) any {
	switch e := s.(type) {
	case expression.Literal:
		return e.Value
	case expression.Reference:
		v, _ := row.Get(e.Tag)
		return v
	case expression.Function:
		args := make([]any, len(e.Args))
		for i, a := range e.Args {
			args[i] = evalScalar(a, row)
		}
		return callFunction(e.Name, args)
	default:
		panic(fmt.Sprintf("iterengine: unrecognized scalar %T", s))
	}
}

// evalPredicate evaluates a Predicate expression against a row. cur
// supplies the membership indices buildMembershipIndex precomputed for
// this predicate's InContainer/Sequence nodes, walked in the same order
// they were built in.
func evalPredicate(p expression.Predicate, row Row, cur *membershipCursor) bool {
	switch e := p.(type) {
	case expression.PredicateLiteral:
		return bool(e)
	case expression.PredicateReference:
		v, _ := row.Get(e.Tag)
		b, _ := v.(bool)
		return b
	case expression.PredicateFunction:
		args := make([]any, len(e.Args))
		for i, a := range e.Args {
			args[i] = evalScalar(a, row)
		}
		v := callFunction(e.Name, args)
		b, _ := v.(bool)
		return b
	case expression.Not:
		return !evalPredicate(e.Operand, row, cur)
	case expression.And:
		for _, o := range e.Operands {
			if !evalPredicate(o, row, cur) {
				return false
			}
		}
		return true
	case expression.Or:
		for _, o := range e.Operands {
			if evalPredicate(o, row, cur) {
				return true
			}
		}
		return false
	case expression.InContainer:
		return evalContainerMembership(e, row, cur)
	default:
		panic(fmt.Sprintf("iterengine: unrecognized predicate %T", p))
	}
}

// evalContainerMembership tests InContainer membership. For a Sequence,
// the btree cur.next() hands back covers every int64 literal element
// (see expression.Sequence.MembershipSet); anything else in Elements —
// a non-literal expression, or a literal of another type — still needs
// its own evalScalar comparison, since the index skips those.
func evalContainerMembership(ic expression.InContainer, row Row, cur *membershipCursor) bool {
	v := evalScalar(ic.Scalar, row)
	switch c := ic.Container.(type) {
	case expression.Sequence:
		set := cur.next()
		if iv, ok := toInt64(v); ok && set.Has(expression.MembershipItem(iv)) {
			return true
		}
		for _, el := range c.Elements {
			if lit, ok := el.(expression.Literal); ok {
				if _, ok := lit.Value.(int64); ok {
					continue
				}
			}
			if evalScalar(el, row) == v {
				return true
			}
		}
		return false
	case expression.Range:
		n, ok := toInt64(v)
		return ok && c.Contains(n)
	default:
		panic(fmt.Sprintf("iterengine: unrecognized container %T", ic.Container))
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}
