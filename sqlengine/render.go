package sqlengine

import (
	"fmt"
	"strings"

	"github.com/kolibri-data/relation/column"
	"github.com/kolibri-data/relation/expression"
)

// renderEnv threads the positional-argument accumulator and the
// columns this fold group added via Calculation through expression
// rendering. A predicate or sort key that reads a computed column
// inlines its defining expression rather than naming a SELECT-list
// alias, since Postgres cannot see one from WHERE or ORDER BY at the
// same query level.
type renderEnv struct {
	args *[]any
	calc map[column.Tag]expression.Scalar
}

// renderScalar renders s to SQL text, appending any literal values to
// env.args as positional placeholders (lib/pq's $N convention).
func (e *Engine[L]) renderScalar(s expression.Scalar, env *renderEnv) (string, error) {
	switch v := s.(type) {
	case expression.Literal:
		*env.args = append(*env.args, v.Value)
		return fmt.Sprintf("$%d", len(*env.args)), nil

	case expression.Reference:
		return e.renderRef(v.Tag, env)

	case expression.Function:
		parts := make([]string, len(v.Args))
		for i, a := range v.Args {
			rendered, err := e.renderScalar(a, env)
			if err != nil {
				return "", err
			}
			parts[i] = rendered
		}
		return fmt.Sprintf("%s(%s)", strings.ToUpper(v.Name), strings.Join(parts, ", ")), nil

	default:
		return "", fmt.Errorf("sqlengine: unrecognized scalar %T", s)
	}
}

// renderRef resolves a column reference. A tag this fold group defined
// via Calculation inlines its defining expression; any other tag
// renders as a plain column reference.
func (e *Engine[L]) renderRef(tag column.Tag, env *renderEnv) (string, error) {
	if expr, ok := env.calc[tag]; ok {
		return e.renderScalar(expr, env)
	}
	return e.renderColumn(tag), nil
}

// renderPredicate renders p to a SQL boolean expression, per the same
// placeholder convention as renderScalar.
func (e *Engine[L]) renderPredicate(p expression.Predicate, env *renderEnv) (string, error) {
	switch v := p.(type) {
	case expression.PredicateLiteral:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil

	case expression.PredicateReference:
		return e.renderRef(v.Tag, env)

	case expression.PredicateFunction:
		parts := make([]string, len(v.Args))
		for i, a := range v.Args {
			rendered, err := e.renderScalar(a, env)
			if err != nil {
				return "", err
			}
			parts[i] = rendered
		}
		return fmt.Sprintf("%s(%s)", strings.ToUpper(v.Name), strings.Join(parts, ", ")), nil

	case expression.Not:
		inner, err := e.renderPredicate(v.Operand, env)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("NOT (%s)", inner), nil

	case expression.And:
		if len(v.Operands) == 0 {
			return "TRUE", nil
		}
		return e.renderConjunction(v.Operands, "AND", env)

	case expression.Or:
		if len(v.Operands) == 0 {
			return "FALSE", nil
		}
		return e.renderConjunction(v.Operands, "OR", env)

	case expression.InContainer:
		return e.renderInContainer(v, env)

	default:
		return "", fmt.Errorf("sqlengine: unrecognized predicate %T", p)
	}
}

func (e *Engine[L]) renderConjunction(operands []expression.Predicate, joiner string, env *renderEnv) (string, error) {
	parts := make([]string, len(operands))
	for i, o := range operands {
		rendered, err := e.renderPredicate(o, env)
		if err != nil {
			return "", err
		}
		parts[i] = rendered
	}
	return "(" + strings.Join(parts, " "+joiner+" ") + ")", nil
}

func (e *Engine[L]) renderInContainer(ic expression.InContainer, env *renderEnv) (string, error) {
	scalar, err := e.renderScalar(ic.Scalar, env)
	if err != nil {
		return "", err
	}
	switch c := ic.Container.(type) {
	case expression.Sequence:
		elems := make([]string, len(c.Elements))
		for i, el := range c.Elements {
			rendered, err := e.renderScalar(el, env)
			if err != nil {
				return "", err
			}
			elems[i] = rendered
		}
		return fmt.Sprintf("%s IN (%s)", scalar, strings.Join(elems, ", ")), nil

	case expression.Range:
		// Python range semantics (spec §3): v is a member iff it lies
		// in [start, stop) (or (stop, start] for a negative step) and
		// is reachable from start by whole steps.
		*env.args = append(*env.args, c.Start, c.Stop, c.Step)
		startPH, stopPH, stepPH := fmt.Sprintf("$%d", len(*env.args)-2), fmt.Sprintf("$%d", len(*env.args)-1), fmt.Sprintf("$%d", len(*env.args))
		if c.Step > 0 {
			return fmt.Sprintf("(%s >= %s AND %s < %s AND MOD(%s - %s, %s) = 0)",
				scalar, startPH, scalar, stopPH, scalar, startPH, stepPH), nil
		}
		return fmt.Sprintf("(%s <= %s AND %s > %s AND MOD(%s - %s, %s) = 0)",
			scalar, startPH, scalar, stopPH, scalar, startPH, stepPH), nil

	default:
		return "", fmt.Errorf("sqlengine: unrecognized container %T", ic.Container)
	}
}
