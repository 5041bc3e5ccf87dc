package sqlengine

import (
	"testing"

	"github.com/andreyvit/diff"
	"github.com/kolibri-data/relation/column"
	"github.com/kolibri-data/relation/expression"
	"github.com/kolibri-data/relation/relation"
)

func mustConform(t *testing.T, r relation.Relation) relation.Relation {
	t.Helper()
	got, err := conform(r)
	if err != nil {
		t.Fatalf("conform: %v", err)
	}
	return got
}

func TestEmitLeafSelectsAllColumns(t *testing.T) {
	eng := fakeEngine{name: "sql"}
	a, b := column.ID("a"), column.ID("b")
	leaf := relation.NewLeaf("accounts", eng, column.NewSet(a, b), false, nil)
	e := NewDefaultEngine("sql", nil, nil)

	stmt, err := e.ToExecutable(mustConform(t, leaf))
	if err != nil {
		t.Fatalf("ToExecutable: %v", err)
	}
	want := "SELECT a, b FROM accounts"
	if stmt.SQL != want {
		t.Fatalf("SQL mismatch:\n%s", diff.LineDiff(want, stmt.SQL))
	}
}

func TestEmitSelectionAddsWhereClause(t *testing.T) {
	eng := fakeEngine{name: "sql"}
	a := column.ID("a")
	leaf := relation.NewLeaf("accounts", eng, column.NewSet(a), false, nil)
	tree, err := relation.Selection(leaf, expression.NewPredicateReference(a))
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	e := NewDefaultEngine("sql", nil, nil)

	stmt, err := e.ToExecutable(mustConform(t, tree))
	if err != nil {
		t.Fatalf("ToExecutable: %v", err)
	}
	want := "SELECT a FROM accounts WHERE a"
	if stmt.SQL != want {
		t.Fatalf("SQL mismatch:\n%s", diff.LineDiff(want, stmt.SQL))
	}
}

func TestEmitJoinRendersCommonColumnEquiJoin(t *testing.T) {
	eng := fakeEngine{name: "sql"}
	a, b, c := column.ID("a"), column.ID("b"), column.ID("c")
	lhs := relation.NewLeaf("l", eng, column.NewSet(a, b), false, nil)
	rhs := relation.NewLeaf("r", eng, column.NewSet(a, c), false, nil)
	tree, err := relation.Join(lhs, rhs, nil)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	e := NewDefaultEngine("sql", nil, nil)

	stmt, err := e.ToExecutable(mustConform(t, tree))
	if err != nil {
		t.Fatalf("ToExecutable: %v", err)
	}
	want := "SELECT a, b, c FROM l AS l JOIN r AS r ON l.a = r.a"
	if stmt.SQL != want {
		t.Fatalf("SQL mismatch:\n%s", diff.LineDiff(want, stmt.SQL))
	}
}

func TestEmitChainRendersUnionAll(t *testing.T) {
	eng := fakeEngine{name: "sql"}
	a := column.ID("a")
	lhs := relation.NewLeaf("l", eng, column.NewSet(a), false, nil)
	rhs := relation.NewLeaf("r", eng, column.NewSet(a), false, nil)
	tree, err := relation.Chain(lhs, rhs)
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	e := NewDefaultEngine("sql", nil, nil)

	stmt, err := e.ToExecutable(mustConform(t, tree))
	if err != nil {
		t.Fatalf("ToExecutable: %v", err)
	}
	// ruleFlattenChain canonicalizes Chain's operand order (spec.md:115):
	// with both branches sharing the same columns, the tie-break falls
	// to structural hash, which orders "l" ahead of "r" here.
	want := "(SELECT a FROM l) UNION ALL (SELECT a FROM r)"
	if stmt.SQL != want {
		t.Fatalf("SQL mismatch:\n%s", diff.LineDiff(want, stmt.SQL))
	}
}

// TestEmitDeduplicationThenProjectionFoldsFlat covers Dedup(Projection(x)):
// distinctness applies to the already-narrowed columns, so this folds
// straight into one DISTINCT select-list.
func TestEmitDeduplicationThenProjectionFoldsFlat(t *testing.T) {
	eng := fakeEngine{name: "sql"}
	a, b := column.ID("a"), column.ID("b")
	leaf := relation.NewLeaf("accounts", eng, column.NewSet(a, b), false, nil)
	projected, err := relation.Projection(leaf, column.NewSet(a))
	if err != nil {
		t.Fatalf("Projection: %v", err)
	}
	tree, err := relation.Deduplication(projected)
	if err != nil {
		t.Fatalf("Deduplication: %v", err)
	}
	e := NewDefaultEngine("sql", nil, nil)

	stmt, err := e.ToExecutable(mustConform(t, tree))
	if err != nil {
		t.Fatalf("ToExecutable: %v", err)
	}
	want := "SELECT DISTINCT a FROM accounts"
	if stmt.SQL != want {
		t.Fatalf("SQL mismatch:\n%s", diff.LineDiff(want, stmt.SQL))
	}
}

// TestEmitProjectionThenDeduplicationNestsSubquery covers the reverse
// nesting, Projection(Dedup(x)): rows are deduplicated at x's full
// width before the projection narrows them, which is a different
// relation from deduplicating on the narrowed columns and must not
// fold into the same flat DISTINCT select-list.
func TestEmitProjectionThenDeduplicationNestsSubquery(t *testing.T) {
	eng := fakeEngine{name: "sql"}
	a, b := column.ID("a"), column.ID("b")
	leaf := relation.NewLeaf("accounts", eng, column.NewSet(a, b), false, nil)
	deduped, err := relation.Deduplication(leaf)
	if err != nil {
		t.Fatalf("Deduplication: %v", err)
	}
	tree, err := relation.Projection(deduped, column.NewSet(a))
	if err != nil {
		t.Fatalf("Projection: %v", err)
	}
	e := NewDefaultEngine("sql", nil, nil)

	stmt, err := e.ToExecutable(mustConform(t, tree))
	if err != nil {
		t.Fatalf("ToExecutable: %v", err)
	}
	want := "SELECT a FROM (SELECT DISTINCT a, b FROM accounts) AS t"
	if stmt.SQL != want {
		t.Fatalf("SQL mismatch:\n%s", diff.LineDiff(want, stmt.SQL))
	}
}
