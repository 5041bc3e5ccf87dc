package sqlengine

import (
	"github.com/kolibri-data/relation/capability"
	"github.com/kolibri-data/relation/relation"
)

// conform rewrites r to a canonical single-SELECT form (spec §4.3):
// commutation rules run bottom-up to fixpoint, then the result is
// wrapped in a Select marker certifying it is ready for emission.
// Chain/Dedup-over-Chain subtrees end up emitted as UNION/UNION ALL
// (see emit.go) rather than requiring further rewriting here.
//
// A root Materialization is returned as-is rather than wrapped: its
// payload cache is keyed by the Marker's own identity (spec §5), and
// Execute checks that identity directly, so conform must not bury it
// one level inside a freshly built Select marker (that would return a
// different top-level object every call, and toSQL treats a
// Materialization marker the same as a Select marker regardless, so
// no separate wrapping is needed for emission either).
func conform(r relation.Relation) (relation.Relation, error) {
	rewritten, err := rewriteToFixpoint(r)
	if err != nil {
		return nil, err
	}
	if m, ok := rewritten.(*relation.Marker); ok && (m.Kind() == capability.Select || m.Kind() == capability.Materialization) {
		return rewritten, nil
	}
	return relation.NewSelectMarker(rewritten), nil
}

// rewriteToFixpoint applies every rule bottom-up until none fire,
// matching spec §4.3's "normalize child subtrees before considering
// the parent" order (a rule pushing an operation into a Chain branch
// needs the branch already rewritten, or it just reintroduces the same
// shape one level down).
func rewriteToFixpoint(r relation.Relation) (relation.Relation, error) {
	descended, err := descend(r)
	if err != nil {
		return nil, err
	}
	for {
		next, fired, err := applyRules(descended)
		if err != nil {
			return nil, err
		}
		if !fired {
			return descended, nil
		}
		descended, err = rewriteToFixpoint(next)
		if err != nil {
			return nil, err
		}
	}
}

func applyRules(r relation.Relation) (relation.Relation, bool, error) {
	for _, ru := range rules {
		out, fired, err := ru(r)
		if err != nil {
			return nil, false, err
		}
		if fired {
			return out, true, nil
		}
	}
	return r, false, nil
}

// descend rewrites r's children in place, leaving r's own kind
// unchanged; the caller then tries top-level rules against the result.
func descend(r relation.Relation) (relation.Relation, error) {
	switch n := r.(type) {
	case *relation.Leaf:
		return n, nil

	case *relation.Unary:
		target, err := rewriteToFixpoint(n.Target())
		if err != nil {
			return nil, err
		}
		if target == n.Target() {
			return n, nil
		}
		return rebuildUnary(n, target)

	case *relation.Binary:
		lhs, err := rewriteToFixpoint(n.LHS())
		if err != nil {
			return nil, err
		}
		rhs, err := rewriteToFixpoint(n.RHS())
		if err != nil {
			return nil, err
		}
		if lhs == n.LHS() && rhs == n.RHS() {
			return n, nil
		}
		return rebuildBinary(n, lhs, rhs)

	case *relation.Marker:
		target, err := rewriteToFixpoint(n.Target())
		if err != nil {
			return nil, err
		}
		if n.Kind() == capability.Materialization {
			// A Materialization's payload cache is keyed by node
			// identity (spec §5): return n itself, not a rebuilt copy,
			// when its subtree needed no rewriting, so the cache slot
			// survives repeated Conform calls on the same tree.
			if target == n.Target() {
				return n, nil
			}
			return relation.NewMaterialization(target), nil
		}
		return target, nil

	default:
		return r, nil
	}
}

func rebuildUnary(n *relation.Unary, target relation.Relation) (relation.Relation, error) {
	switch n.Op() {
	case capability.Calculation:
		p, _ := n.Calculation()
		return relation.Calculation(target, p.Tag, p.Expr)
	case capability.Projection:
		p, _ := n.Projection()
		return relation.Projection(target, p.Keep)
	case capability.Selection:
		p, _ := n.Selection()
		return relation.Selection(target, p.Predicate)
	case capability.Slice:
		p, _ := n.SliceBounds()
		return relation.Slice(target, p.Start, p.Stop)
	case capability.Sort:
		p, _ := n.Sort()
		return relation.Sort(target, p.Keys)
	case capability.Deduplication:
		return relation.Deduplication(target)
	case capability.Custom:
		op, _ := n.Custom()
		return relation.ApplyCustomUnary(target, op)
	default:
		return target, nil
	}
}

func rebuildBinary(n *relation.Binary, lhs, rhs relation.Relation) (relation.Relation, error) {
	switch n.Op() {
	case capability.Join:
		pred, _ := n.Predicate()
		return relation.Join(lhs, rhs, pred)
	case capability.Chain:
		return relation.Chain(lhs, rhs)
	default:
		return n, nil
	}
}
