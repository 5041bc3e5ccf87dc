package iterengine_test

import (
	"context"
	"testing"

	"github.com/kolibri-data/relation/column"
	"github.com/kolibri-data/relation/expression"
	"github.com/kolibri-data/relation/iterengine"
	"github.com/kolibri-data/relation/relation"
)

func rowsPayload(t *testing.T, rows ...iterengine.Row) *iterengine.SequencePayload {
	t.Helper()
	return iterengine.NewSequencePayload(rows)
}

func row(t *testing.T, tags []column.Tag, values []any) iterengine.Row {
	t.Helper()
	return iterengine.NewRow(tags, values)
}

func collectAll(t *testing.T, ctx context.Context, ri iterengine.RowIterable) []iterengine.Row {
	t.Helper()
	var out []iterengine.Row
	if err := ri.Rows(ctx, func(r iterengine.Row) error {
		out = append(out, r)
		return nil
	}); err != nil {
		t.Fatalf("Rows: %v", err)
	}
	return out
}

func TestSelectionFiltersRows(t *testing.T) {
	ctx := context.Background()
	eng := iterengine.New("iter", iterengine.Config{}, nil)
	a := column.ID("a")
	src := relation.NewLeaf("t", eng, column.NewSet(a), false, rowsPayload(t,
		row(t, []column.Tag{a}, []any{true}),
		row(t, []column.Tag{a}, []any{false}),
	))

	got, err := relation.Selection(src, expression.NewPredicateReference(a))
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	payload, err := eng.Execute(ctx, got)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	rows := collectAll(t, ctx, payload.(iterengine.RowIterable))
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
}

func TestSelectionInContainerSequenceMixedTypes(t *testing.T) {
	ctx := context.Background()
	eng := iterengine.New("iter", iterengine.Config{}, nil)
	a := column.ID("a")
	src := relation.NewLeaf("t", eng, column.NewSet(a), false, rowsPayload(t,
		row(t, []column.Tag{a}, []any{int64(1)}),
		row(t, []column.Tag{a}, []any{int64(2)}),
		row(t, []column.Tag{a}, []any{"three"}),
		row(t, []column.Tag{a}, []any{"four"}),
	))

	// Mixes int64 literals, which Sequence.MembershipSet indexes, with a
	// string literal it skips, so both the indexed path and the linear
	// fallback in evalContainerMembership get exercised.
	seq := expression.NewSequence(
		expression.NewLiteral(int64(1), "int"),
		expression.NewLiteral("three", "string"),
	)
	pred := expression.NewInContainer(expression.NewReference(a), seq)

	got, err := relation.Selection(src, pred)
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	payload, err := eng.Execute(ctx, got)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	rows := collectAll(t, ctx, payload.(iterengine.RowIterable))
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	seen := map[any]bool{}
	for _, r := range rows {
		v, _ := r.Get(a)
		seen[v] = true
	}
	if !seen[int64(1)] || !seen["three"] {
		t.Fatalf("rows = %v, want a=1 and a=\"three\"", rows)
	}
}

func TestCalculationExtendsRows(t *testing.T) {
	ctx := context.Background()
	eng := iterengine.New("iter", iterengine.Config{}, nil)
	a, b := column.ID("a"), column.ID("b")
	src := relation.NewLeaf("t", eng, column.NewSet(a), false, rowsPayload(t,
		row(t, []column.Tag{a}, []any{"x"}),
	))

	got, err := relation.Calculation(src, b, expression.NewFunction("upper", expression.NewReference(a)))
	if err != nil {
		t.Fatalf("Calculation: %v", err)
	}
	payload, err := eng.Execute(ctx, got)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	rows := collectAll(t, ctx, payload.(iterengine.RowIterable))
	v, ok := rows[0].Get(b)
	if !ok || v != "X" {
		t.Fatalf("Get(b) = %v, %v, want X, true", v, ok)
	}
}

func TestDeduplicationRemovesDuplicateRows(t *testing.T) {
	ctx := context.Background()
	eng := iterengine.New("iter", iterengine.Config{}, nil)
	a := column.ID("a")
	src := relation.NewLeaf("t", eng, column.NewSet(a), false, rowsPayload(t,
		row(t, []column.Tag{a}, []any{1}),
		row(t, []column.Tag{a}, []any{1}),
		row(t, []column.Tag{a}, []any{2}),
	))

	got, err := relation.Deduplication(src)
	if err != nil {
		t.Fatalf("Deduplication: %v", err)
	}
	payload, err := eng.Execute(ctx, got)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	rows := collectAll(t, ctx, payload.(iterengine.RowIterable))
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
}

func TestChainConcatenatesInOrder(t *testing.T) {
	ctx := context.Background()
	eng := iterengine.New("iter", iterengine.Config{}, nil)
	a := column.ID("a")
	lhs := relation.NewLeaf("l", eng, column.NewSet(a), false, rowsPayload(t, row(t, []column.Tag{a}, []any{1})))
	rhs := relation.NewLeaf("r", eng, column.NewSet(a), false, rowsPayload(t, row(t, []column.Tag{a}, []any{2})))

	got, err := relation.Chain(lhs, rhs)
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	payload, err := eng.Execute(ctx, got)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	rows := collectAll(t, ctx, payload.(iterengine.RowIterable))
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	first, _ := rows[0].Get(a)
	if first != 1 {
		t.Fatalf("first row a=%v, want 1 (Chain preserves order)", first)
	}
}

func TestJoinConstructionFailsOnIterationEngine(t *testing.T) {
	eng := iterengine.New("iter", iterengine.Config{}, nil)
	a := column.ID("a")
	lhs := relation.NewLeaf("l", eng, column.NewSet(a), false, rowsPayload(t))
	rhs := relation.NewLeaf("r", eng, column.NewSet(a), false, rowsPayload(t))

	_, err := relation.Join(lhs, rhs, nil)
	if _, ok := err.(*relation.EngineError); !ok {
		t.Fatalf("got %T, want *relation.EngineError (iteration engine does not implement Join, spec §4.4)", err)
	}
}

func TestMaterializationCachesAcrossExecutions(t *testing.T) {
	ctx := context.Background()
	eng := iterengine.New("iter", iterengine.Config{}, nil)
	a := column.ID("a")
	src := relation.NewLeaf("t", eng, column.NewSet(a), false, rowsPayload(t, row(t, []column.Tag{a}, []any{1})))

	m := relation.NewMaterialization(src)
	first, err := eng.Execute(ctx, m)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	second, err := eng.Execute(ctx, m)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if first != second {
		t.Fatal("Materialization must return the same payload by identity on the second execution (scenario S5)")
	}
}
