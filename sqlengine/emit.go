package sqlengine

import (
	"fmt"
	"strings"

	"github.com/kolibri-data/relation/capability"
	"github.com/kolibri-data/relation/column"
	"github.com/kolibri-data/relation/expression"
	"github.com/kolibri-data/relation/relation"
)

// toSQL renders a conformed relation subtree to a single query
// (spec.md:117): a contiguous run of Selection/Calculation/Projection/
// Sort/Slice/Deduplication folds into one SELECT's WHERE, select-list,
// ORDER BY, LIMIT/OFFSET, and DISTINCT clauses instead of one derived
// table per node. Only a Join or Chain base — or a run whose row order
// can't be captured by a single SELECT's clauses, such as Sort applied
// on top of an already-Sliced window — introduces a further, bounded
// level of nesting.
func (e *Engine[L]) toSQL(r relation.Relation, args *[]any) (string, error) {
	q, base, err := e.foldQuery(r)
	if err != nil {
		return "", err
	}
	return e.renderQuery(q, base, args)
}

// query collects the clauses of one flat SELECT, gathered by walking
// down through a contiguous run of foldable unary operations.
type query struct {
	keep     *column.Set
	calc     map[column.Tag]expression.Scalar
	preds    []expression.Predicate
	distinct bool
	sortKeys []relation.SortKey
	hasSlice bool
	slice    relation.SliceParams
}

func (q *query) trivial() bool {
	return len(q.preds) == 0 && len(q.calc) == 0 && q.keep == nil && q.sortKeys == nil && !q.hasSlice
}

// foldQuery walks r downward through Selection/Calculation/Projection/
// Sort/Slice/Deduplication, accumulating their effect into one query,
// and returns the first node it cannot fold further as the query's
// base (a Leaf, a Join, a Chain, or an opaque subtree emitted as a
// nested SELECT).
//
// A second Sort, a second Slice, or a second Projection stops the
// fold rather than silently overwriting the first: those only nest
// when genuinely unavoidable, such as a Sort re-ordering an
// already-bounded window (Sort on top of Slice), which a single
// SELECT's ORDER BY/LIMIT cannot express because SQL always applies
// ORDER BY before LIMIT. A Selection or Deduplication encountered once
// the group's row order has already been fixed by a Sort or Slice
// stops the fold for the same reason: it must run against that fixed
// window, not against the pre-order rows a folded WHERE would see.
func (e *Engine[L]) foldQuery(r relation.Relation) (*query, relation.Relation, error) {
	q := &query{calc: map[column.Tag]expression.Scalar{}}
	for {
		switch n := r.(type) {
		case *relation.Unary:
			sealed := q.sortKeys != nil || q.hasSlice
			switch n.Op() {
			case capability.Selection:
				if sealed {
					return q, r, nil
				}
				p, _ := n.Selection()
				q.preds = append(q.preds, p.Predicate)
				r = n.Target()
				continue

			case capability.Calculation:
				if sealed {
					return q, r, nil
				}
				p, _ := n.Calculation()
				q.calc[p.Tag] = p.Expr
				r = n.Target()
				continue

			case capability.Projection:
				if q.keep != nil {
					return q, r, nil
				}
				p, _ := n.Projection()
				keep := p.Keep
				q.keep = &keep
				r = n.Target()
				continue

			case capability.Sort:
				if q.sortKeys != nil {
					return q, r, nil
				}
				p, _ := n.Sort()
				q.sortKeys = p.Keys
				r = n.Target()
				continue

			case capability.Slice:
				if q.hasSlice || q.sortKeys != nil {
					return q, r, nil
				}
				p, _ := n.SliceBounds()
				q.slice = p
				q.hasSlice = true
				r = n.Target()
				continue

			case capability.Deduplication:
				// A Deduplication nested inside an already-folded
				// Projection dedupes on the pre-projection columns
				// (Projection(Dedup(x)) keeps rows distinct at x's
				// full width, then narrows), which is not the same
				// relation as folding straight into DISTINCT over the
				// outer select-list (that would dedupe on the
				// narrowed columns instead, collapsing rows
				// Projection(Dedup(x)) keeps separate). Sealing here
				// forces it into its own nested subquery instead.
				if sealed || q.keep != nil {
					return q, r, nil
				}
				q.distinct = true
				r = n.Target()
				continue

			default:
				return nil, nil, &relation.NotImplementedByEngine{Engine: e.name, Op: n.Op().String()}
			}

		case *relation.Marker:
			switch n.Kind() {
			case capability.Select, capability.Materialization:
				r = n.Target()
				continue
			default:
				return nil, nil, fmt.Errorf("sqlengine: %s marker must be resolved before emission", n.Kind())
			}

		default:
			return q, r, nil
		}
	}
}

// renderQuery emits q folded on top of base as a single query,
// producing a bare UNION [ALL] of two flat SELECTs when base is a
// Chain and nothing else needs folding (spec.md:117's Chain example),
// and one SELECT with an appropriately nested FROM clause otherwise.
func (e *Engine[L]) renderQuery(q *query, base relation.Relation, args *[]any) (string, error) {
	if bin, ok := base.(*relation.Binary); ok && bin.Op() == capability.Chain && q.trivial() {
		lhs, err := e.toSQL(bin.LHS(), args)
		if err != nil {
			return "", err
		}
		rhs, err := e.toSQL(bin.RHS(), args)
		if err != nil {
			return "", err
		}
		op := "UNION ALL"
		if q.distinct {
			op = "UNION"
		}
		return fmt.Sprintf("(%s) %s (%s)", lhs, op, rhs), nil
	}

	from, baseCols, err := e.renderFrom(base, args)
	if err != nil {
		return "", err
	}

	env := &renderEnv{args: args, calc: q.calc}

	finalCols := baseCols
	if q.keep != nil {
		finalCols = *q.keep
	} else if len(q.calc) > 0 {
		calcCols := make([]column.Tag, 0, len(q.calc))
		for tag := range q.calc {
			calcCols = append(calcCols, tag)
		}
		finalCols = column.Union(baseCols, column.NewSet(calcCols...))
	}

	selectList := make([]string, 0, finalCols.Len())
	for _, tag := range finalCols.Sorted() {
		if expr, ok := q.calc[tag]; ok {
			rendered, err := e.renderScalar(expr, env)
			if err != nil {
				return "", err
			}
			selectList = append(selectList, fmt.Sprintf("%s AS %s", rendered, e.renderColumn(tag)))
			continue
		}
		selectList = append(selectList, e.renderColumn(tag))
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if q.distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(strings.Join(selectList, ", "))
	b.WriteString(" FROM ")
	b.WriteString(from)

	if len(q.preds) > 0 {
		cond, err := e.renderConjunctionOf(q.preds, env)
		if err != nil {
			return "", err
		}
		b.WriteString(" WHERE ")
		b.WriteString(cond)
	}

	if len(q.sortKeys) > 0 {
		keys := make([]string, len(q.sortKeys))
		for i, k := range q.sortKeys {
			expr, err := e.renderScalar(k.Expr, env)
			if err != nil {
				return "", err
			}
			dir := "ASC"
			if !k.Ascending {
				dir = "DESC"
			}
			keys[i] = expr + " " + dir
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(keys, ", "))
	}

	if q.hasSlice {
		b.WriteString(fmt.Sprintf(" OFFSET %d", q.slice.Start))
		if q.slice.Stop != relation.Unbounded {
			b.WriteString(fmt.Sprintf(" LIMIT %d", q.slice.Stop-q.slice.Start))
		}
	}

	return b.String(), nil
}

// renderConjunctionOf ANDs together the predicates a fold group
// collected; a single predicate needs no extra parenthesization.
func (e *Engine[L]) renderConjunctionOf(preds []expression.Predicate, env *renderEnv) (string, error) {
	if len(preds) == 1 {
		return e.renderPredicate(preds[0], env)
	}
	return e.renderConjunction(preds, "AND", env)
}

// renderFrom renders base's FROM-clause text and reports the columns
// it provides.
func (e *Engine[L]) renderFrom(base relation.Relation, args *[]any) (string, column.Set, error) {
	switch n := base.(type) {
	case *relation.Leaf:
		return n.Name(), n.Columns(), nil

	case *relation.Binary:
		switch n.Op() {
		case capability.Chain:
			lhs, err := e.toSQL(n.LHS(), args)
			if err != nil {
				return "", column.Set{}, err
			}
			rhs, err := e.toSQL(n.RHS(), args)
			if err != nil {
				return "", column.Set{}, err
			}
			return fmt.Sprintf("(%s UNION ALL %s) AS t", lhs, rhs), n.LHS().Columns(), nil

		case capability.Join:
			lhs, err := e.renderJoinSide(n.LHS(), "l", args)
			if err != nil {
				return "", column.Set{}, err
			}
			rhs, err := e.renderJoinSide(n.RHS(), "r", args)
			if err != nil {
				return "", column.Set{}, err
			}
			on, err := e.joinCondition(n, args)
			if err != nil {
				return "", column.Set{}, err
			}
			return fmt.Sprintf("%s JOIN %s ON %s", lhs, rhs, on), column.Union(n.LHS().Columns(), n.RHS().Columns()), nil

		default:
			return "", column.Set{}, &relation.NotImplementedByEngine{Engine: e.name, Op: n.Op().String()}
		}

	default:
		nested, err := e.toSQL(base, args)
		if err != nil {
			return "", column.Set{}, err
		}
		return fmt.Sprintf("(%s) AS t", nested), base.Columns(), nil
	}
}

// renderJoinSide renders one operand of a Join, aliased for the join's
// FROM clause. A bare Leaf needs no SELECT wrapper; anything else gets
// its own folded query.
func (e *Engine[L]) renderJoinSide(side relation.Relation, alias string, args *[]any) (string, error) {
	if leaf, ok := side.(*relation.Leaf); ok {
		return fmt.Sprintf("%s AS %s", leaf.Name(), alias), nil
	}
	sql, err := e.toSQL(side, args)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s) AS %s", sql, alias), nil
}

func (e *Engine[L]) joinCondition(n *relation.Binary, args *[]any) (string, error) {
	if pred, ok := n.Predicate(); ok {
		return e.renderPredicate(pred, &renderEnv{args: args, calc: map[column.Tag]expression.Scalar{}})
	}
	common := column.Intersect(n.LHS().Columns(), n.RHS().Columns())
	if common.Len() == 0 {
		return "TRUE", nil
	}
	parts := make([]string, 0, common.Len())
	for _, tag := range common.Sorted() {
		col := e.renderColumn(tag)
		parts = append(parts, fmt.Sprintf("l.%s = r.%s", col, col))
	}
	return strings.Join(parts, " AND "), nil
}

func (e *Engine[L]) renderColumn(tag column.Tag) string {
	return e.ops.Render(e.ops.ColumnFor(tag))
}
