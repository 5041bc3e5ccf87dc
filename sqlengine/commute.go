package sqlengine

import (
	"sort"

	"github.com/kolibri-data/relation/capability"
	"github.com/kolibri-data/relation/column"
	"github.com/kolibri-data/relation/relation"
)

// rule rewrites r one step if it matches, reporting whether it fired.
// conform applies every rule to fixpoint, bottom-up, per spec §4.3.
type rule func(r relation.Relation) (relation.Relation, bool, error)

var rules = []rule{
	ruleSelectionIntoChain,
	ruleCalculationIntoChain,
	ruleSelectionCalculationSwap,
	ruleSelectionIntoJoin,
	ruleComposeProjections,
	ruleProjectionDropsCalculation,
	ruleProjectionIntoJoin,
	ruleFlattenChain,
	ruleFlattenJoin,
	ruleDedupBubblesAboveSelection,
}

// ruleSelectionIntoChain implements DM-37504: Selection(p, Chain(a,b))
// -> Chain(Selection(p,a), Selection(p,b)), when p depends on no
// grouping — approximated here as p.Columns() being a subset of both
// branches' columns, which Chain's own invariant guarantees are equal
// (verified explicitly below rather than assumed, per the Open
// Question decision in the design notes). The historical bug was the
// rewriter failing to descend into each Chain branch; this rule
// recurses into both sides explicitly instead of rewriting only the
// Chain node itself.
func ruleSelectionIntoChain(r relation.Relation) (relation.Relation, bool, error) {
	u, ok := r.(*relation.Unary)
	if !ok || u.Op() != capability.Selection {
		return r, false, nil
	}
	bin, ok := u.Target().(*relation.Binary)
	if !ok || bin.Op() != capability.Chain {
		return r, false, nil
	}
	if !bin.LHS().Columns().Equal(bin.RHS().Columns()) {
		return r, false, &relation.InvariantError{Msg: "Chain branches must share columns for Selection to distribute (DM-37504)"}
	}
	sel, _ := u.Selection()
	lhs, err := relation.Selection(bin.LHS(), sel.Predicate)
	if err != nil {
		return r, false, err
	}
	rhs, err := relation.Selection(bin.RHS(), sel.Predicate)
	if err != nil {
		return r, false, err
	}
	out, err := relation.Chain(lhs, rhs)
	if err != nil {
		return r, false, err
	}
	return out, true, nil
}

// ruleCalculationIntoChain implements S2: Calculation(t,e,Chain(a,b))
// -> Chain(Calculation(t,e,a), Calculation(t,e,b)) when e's columns
// are present on both branches (guaranteed by Chain's invariant, and
// checked explicitly below rather than assumed).
func ruleCalculationIntoChain(r relation.Relation) (relation.Relation, bool, error) {
	u, ok := r.(*relation.Unary)
	if !ok || u.Op() != capability.Calculation {
		return r, false, nil
	}
	bin, ok := u.Target().(*relation.Binary)
	if !ok || bin.Op() != capability.Chain {
		return r, false, nil
	}
	if !bin.LHS().Columns().Equal(bin.RHS().Columns()) {
		return r, false, &relation.InvariantError{Msg: "Chain branches must share columns for Calculation to distribute"}
	}
	calc, _ := u.Calculation()
	lhs, err := relation.Calculation(bin.LHS(), calc.Tag, calc.Expr)
	if err != nil {
		return r, false, err
	}
	rhs, err := relation.Calculation(bin.RHS(), calc.Tag, calc.Expr)
	if err != nil {
		return r, false, err
	}
	out, err := relation.Chain(lhs, rhs)
	if err != nil {
		return r, false, err
	}
	return out, true, nil
}

// ruleSelectionCalculationSwap moves Selection closer to the leaves:
// Selection(p, Calculation(t,e,R)) -> Calculation(t,e,Selection(p,R))
// when t is not read by p.
func ruleSelectionCalculationSwap(r relation.Relation) (relation.Relation, bool, error) {
	u, ok := r.(*relation.Unary)
	if !ok || u.Op() != capability.Selection {
		return r, false, nil
	}
	inner, ok := u.Target().(*relation.Unary)
	if !ok || inner.Op() != capability.Calculation {
		return r, false, nil
	}
	sel, _ := u.Selection()
	calc, _ := inner.Calculation()
	if sel.Predicate.Columns().Contains(calc.Tag) {
		return r, false, nil
	}
	pushed, err := relation.Selection(inner.Target(), sel.Predicate)
	if err != nil {
		return r, false, err
	}
	out, err := relation.Calculation(pushed, calc.Tag, calc.Expr)
	if err != nil {
		return r, false, err
	}
	return out, true, nil
}

// ruleComposeProjections merges Projection(S, Projection(T, R)) into
// Projection(S, R), valid because S ⊆ T is required by construction
// (the outer Projection could not otherwise have been built).
func ruleComposeProjections(r relation.Relation) (relation.Relation, bool, error) {
	u, ok := r.(*relation.Unary)
	if !ok || u.Op() != capability.Projection {
		return r, false, nil
	}
	inner, ok := u.Target().(*relation.Unary)
	if !ok || inner.Op() != capability.Projection {
		return r, false, nil
	}
	outer, _ := u.Projection()
	out, err := relation.Projection(inner.Target(), outer.Keep)
	if err != nil {
		return r, false, err
	}
	return out, true, nil
}

// ruleProjectionDropsCalculation drops a Calculation the enclosing
// Projection does not keep: Projection(S, Calculation(t,e,R)) ->
// Projection(S, R) when t ∉ S.
func ruleProjectionDropsCalculation(r relation.Relation) (relation.Relation, bool, error) {
	u, ok := r.(*relation.Unary)
	if !ok || u.Op() != capability.Projection {
		return r, false, nil
	}
	inner, ok := u.Target().(*relation.Unary)
	if !ok || inner.Op() != capability.Calculation {
		return r, false, nil
	}
	proj, _ := u.Projection()
	calc, _ := inner.Calculation()
	if proj.Keep.Contains(calc.Tag) {
		return r, false, nil
	}
	out, err := relation.Projection(inner.Target(), proj.Keep)
	if err != nil {
		return r, false, err
	}
	return out, true, nil
}

// ruleProjectionIntoJoin pushes Projection(S, Join(a,b)) down to
// Join(Projection(S ∩ a.columns ∪ common, a), Projection(S ∩ b.columns
// ∪ common, b)), always retaining the join-key (common) columns so the
// join itself stays well-formed.
func ruleProjectionIntoJoin(r relation.Relation) (relation.Relation, bool, error) {
	u, ok := r.(*relation.Unary)
	if !ok || u.Op() != capability.Projection {
		return r, false, nil
	}
	bin, ok := u.Target().(*relation.Binary)
	if !ok || bin.Op() != capability.Join {
		return r, false, nil
	}
	proj, _ := u.Projection()
	common := column.Intersect(bin.LHS().Columns(), bin.RHS().Columns())
	lKeep := column.Union(column.Intersect(proj.Keep, bin.LHS().Columns()), common)
	rKeep := column.Union(column.Intersect(proj.Keep, bin.RHS().Columns()), common)
	if lKeep.Equal(bin.LHS().Columns()) && rKeep.Equal(bin.RHS().Columns()) {
		return r, false, nil
	}
	lhs, err := relation.Projection(bin.LHS(), lKeep)
	if err != nil {
		return r, false, err
	}
	rhs, err := relation.Projection(bin.RHS(), rKeep)
	if err != nil {
		return r, false, err
	}
	pred, _ := bin.Predicate()
	joined, err := relation.Join(lhs, rhs, pred)
	if err != nil {
		return r, false, err
	}
	out, err := relation.Projection(joined, proj.Keep)
	if err != nil {
		return r, false, err
	}
	return out, true, nil
}

// bubbleSortAndSlice implements S4: pushes an enclosing Projection
// below an interior Sort, widening the pushed-down projection to
// include the sort keys' columns so Sort still has what it needs. When
// the enclosing Projection already kept every column the sort needs,
// this widening is a no-op and Sort ends up outermost; otherwise the
// original Projection stays outermost, since it alone determines the
// final result columns, but now reads through a Sort it can see past.
func bubbleSortAndSlice(r relation.Relation) (relation.Relation, bool, error) {
	u, ok := r.(*relation.Unary)
	if !ok || u.Op() != capability.Projection {
		return r, false, nil
	}
	inner, ok := u.Target().(*relation.Unary)
	if !ok || inner.Op() != capability.Sort {
		return r, false, nil
	}
	proj, _ := u.Projection()
	sortParams, _ := inner.Sort()
	need := proj.Keep
	for _, k := range sortParams.Keys {
		need = column.Union(need, k.Expr.Columns())
	}
	// The Sort already reads only the columns it needs: nothing is left
	// to push below it.
	if need.Equal(inner.Target().Columns()) && !need.Equal(proj.Keep) {
		return r, false, nil
	}
	pushedProj, err := relation.Projection(inner.Target(), need)
	if err != nil {
		return r, false, err
	}
	sorted, err := relation.Sort(pushedProj, sortParams.Keys)
	if err != nil {
		return r, false, err
	}
	if need.Equal(proj.Keep) {
		return sorted, true, nil
	}
	out, err := relation.Projection(sorted, proj.Keep)
	if err != nil {
		return r, false, err
	}
	return out, true, nil
}

func init() {
	rules = append(rules, bubbleSortAndSlice)
}

// canonicalLess orders relations for the tie-break sort spec §4.3
// calls for when a flattened Chain or Join list is rebuilt: relations
// are compared by the total order over their column tags first
// (column.Tag.Less), falling back to Hash when both sides carry the
// same column set, so relations with identical columns still land in
// a stable, deterministic position. Equal relations hash equal by
// invariant, so this never separates two operands that are themselves
// equal.
func canonicalLess(a, b relation.Relation) bool {
	as, bs := a.Columns().Sorted(), b.Columns().Sorted()
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i].Less(bs[i]) {
			return true
		}
		if bs[i].Less(as[i]) {
			return false
		}
	}
	if len(as) != len(bs) {
		return len(as) < len(bs)
	}
	return a.Hash() < b.Hash()
}

func sortRelations(operands []relation.Relation) []relation.Relation {
	sorted := append([]relation.Relation(nil), operands...)
	sort.SliceStable(sorted, func(i, j int) bool { return canonicalLess(sorted[i], sorted[j]) })
	return sorted
}

// flattenChainOperands collects a Chain tree's leaves into a flat
// list, descending only through further Chain nodes: Chain's
// multiset-union semantics (spec §3) mean any nesting of the same
// operands is equivalent, so the list is all that matters from here.
func flattenChainOperands(r relation.Relation) []relation.Relation {
	bin, ok := r.(*relation.Binary)
	if !ok || bin.Op() != capability.Chain {
		return []relation.Relation{r}
	}
	return append(flattenChainOperands(bin.LHS()), flattenChainOperands(bin.RHS())...)
}

func rebuildLeftDeepChain(operands []relation.Relation) (relation.Relation, error) {
	out := operands[0]
	for _, next := range operands[1:] {
		var err error
		out, err = relation.Chain(out, next)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// chainShapeEqual reports whether a and b are the identical Chain tree
// shape: same nesting, same operand at each position. Used to detect
// that ruleFlattenChain has already reached its fixpoint, since Chain
// nodes rebuilt from an already-canonical operand list are not
// pointer-identical to the original tree even when nothing changed.
func chainShapeEqual(a, b relation.Relation) bool {
	ab, aok := a.(*relation.Binary)
	bb, bok := b.(*relation.Binary)
	aChain := aok && ab.Op() == capability.Chain
	bChain := bok && bb.Op() == capability.Chain
	if aChain != bChain {
		return false
	}
	if !aChain {
		return a == b
	}
	return chainShapeEqual(ab.LHS(), bb.LHS()) && chainShapeEqual(ab.RHS(), bb.RHS())
}

// ruleFlattenChain implements spec §4.3's "Chain flattens...; the
// emitter rebuilds a left-deep tree": nested Chain nodes are collected
// into a flat list, sorted by canonicalLess, and rebuilt left-deep, so
// two Chains over the same multiset of branches converge on the same
// tree (and therefore the same hash, spec §4.3/§4.5's "equal relations
// hash equal") regardless of how they were originally nested or
// ordered.
func ruleFlattenChain(r relation.Relation) (relation.Relation, bool, error) {
	bin, ok := r.(*relation.Binary)
	if !ok || bin.Op() != capability.Chain {
		return r, false, nil
	}
	operands := flattenChainOperands(bin)
	if len(operands) < 2 {
		return r, false, nil
	}
	out, err := rebuildLeftDeepChain(sortRelations(operands))
	if err != nil {
		return r, false, err
	}
	if chainShapeEqual(r, out) {
		return r, false, nil
	}
	return out, true, nil
}

// flattenJoinOperands is ruleFlattenChain's counterpart for Join,
// restricted to natural (nil-predicate) joins: an explicit predicate
// is written assuming a specific left/right pairing (e.g. l.a < r.b),
// so a Join carrying one is left as an opaque leaf of the flattening
// rather than merged across.
func flattenJoinOperands(r relation.Relation) []relation.Relation {
	bin, ok := r.(*relation.Binary)
	if !ok || bin.Op() != capability.Join {
		return []relation.Relation{r}
	}
	if _, hasPred := bin.Predicate(); hasPred {
		return []relation.Relation{r}
	}
	return append(flattenJoinOperands(bin.LHS()), flattenJoinOperands(bin.RHS())...)
}

func rebuildLeftDeepJoin(operands []relation.Relation) (relation.Relation, error) {
	out := operands[0]
	for _, next := range operands[1:] {
		var err error
		out, err = relation.Join(out, next, nil)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func naturalJoin(r relation.Relation) (*relation.Binary, bool) {
	bin, ok := r.(*relation.Binary)
	if !ok || bin.Op() != capability.Join {
		return nil, false
	}
	_, hasPred := bin.Predicate()
	return bin, !hasPred
}

// joinShapeEqual is chainShapeEqual's counterpart for the natural-join
// flattening ruleFlattenJoin performs.
func joinShapeEqual(a, b relation.Relation) bool {
	aBin, aNat := naturalJoin(a)
	bBin, bNat := naturalJoin(b)
	if aNat != bNat {
		return false
	}
	if !aNat {
		return a == b
	}
	return joinShapeEqual(aBin.LHS(), bBin.LHS()) && joinShapeEqual(aBin.RHS(), bBin.RHS())
}

// ruleFlattenJoin implements spec §4.3's "Join flattens similarly" for
// natural joins, scoped to nil-predicate Join nodes only (see
// flattenJoinOperands): the join-key columns are recomputed by Join
// itself from whatever operands land adjacent after sorting, so this
// only fires where that recomputation is safe.
func ruleFlattenJoin(r relation.Relation) (relation.Relation, bool, error) {
	bin, natural := naturalJoin(r)
	if !natural {
		return r, false, nil
	}
	operands := flattenJoinOperands(bin)
	if len(operands) < 2 {
		return r, false, nil
	}
	out, err := rebuildLeftDeepJoin(sortRelations(operands))
	if err != nil {
		return r, false, err
	}
	if joinShapeEqual(r, out) {
		return r, false, nil
	}
	return out, true, nil
}

// ruleSelectionIntoJoin implements spec §4.3's "reordering adjacent
// Join, Selection ... nodes": Selection(p, Join(a,b)) pushes p down to
// whichever side alone provides every column p reads, since applying
// the filter before the join only discards rows the join would have
// dropped anyway. A predicate reading columns from both sides stays
// above the Join, since pushing it into just one side would silently
// drop its dependency on the other.
func ruleSelectionIntoJoin(r relation.Relation) (relation.Relation, bool, error) {
	u, ok := r.(*relation.Unary)
	if !ok || u.Op() != capability.Selection {
		return r, false, nil
	}
	bin, ok := u.Target().(*relation.Binary)
	if !ok || bin.Op() != capability.Join {
		return r, false, nil
	}
	sel, _ := u.Selection()
	cols := sel.Predicate.Columns()
	pred, _ := bin.Predicate()
	switch {
	case cols.Subset(bin.LHS().Columns()):
		lhs, err := relation.Selection(bin.LHS(), sel.Predicate)
		if err != nil {
			return r, false, err
		}
		out, err := relation.Join(lhs, bin.RHS(), pred)
		if err != nil {
			return r, false, err
		}
		return out, true, nil

	case cols.Subset(bin.RHS().Columns()):
		rhs, err := relation.Selection(bin.RHS(), sel.Predicate)
		if err != nil {
			return r, false, err
		}
		out, err := relation.Join(bin.LHS(), rhs, pred)
		if err != nil {
			return r, false, err
		}
		return out, true, nil

	default:
		return r, false, nil
	}
}

// ruleDedupBubblesAboveSelection bubbles Deduplication toward the root
// the way bubbleSortAndSlice bubbles Sort: Selection(p, Dedup(x)) ->
// Dedup(Selection(p,x)). Distinctness is a property of the full row,
// unaffected by which rows a later filter keeps, so filtering before
// or after deduplicating produces the same distinct set, and filtering
// first is the cheaper order for an engine that dedupes by hashing
// every row.
func ruleDedupBubblesAboveSelection(r relation.Relation) (relation.Relation, bool, error) {
	u, ok := r.(*relation.Unary)
	if !ok || u.Op() != capability.Selection {
		return r, false, nil
	}
	inner, ok := u.Target().(*relation.Unary)
	if !ok || inner.Op() != capability.Deduplication {
		return r, false, nil
	}
	sel, _ := u.Selection()
	pushed, err := relation.Selection(inner.Target(), sel.Predicate)
	if err != nil {
		return r, false, err
	}
	out, err := relation.Deduplication(pushed)
	if err != nil {
		return r, false, err
	}
	return out, true, nil
}
