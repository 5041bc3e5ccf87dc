package relation_test

import (
	"testing"

	"github.com/kolibri-data/relation/column"
	"github.com/kolibri-data/relation/expression"
	"github.com/kolibri-data/relation/relation"
)

func newBaseLeaf(name string, eng fakeEngine, cols column.Set, unique bool) *relation.Leaf {
	return relation.NewLeaf(name, eng, cols, unique, nil)
}

func TestCalculationAddsColumnAndPreservesBounds(t *testing.T) {
	eng := newFakeEngine("iter")
	a, b := column.ID("a"), column.ID("b")
	src := newBaseLeaf("t", eng, column.NewSet(a), true)

	got, err := relation.Calculation(src, b, expression.NewFunction("double", expression.NewReference(a)))
	if err != nil {
		t.Fatalf("Calculation: %v", err)
	}
	if !got.Columns().Equal(column.NewSet(a, b)) {
		t.Fatalf("Columns() = %s, want {a, b}", got.Columns())
	}
	if got.Unique() != src.Unique() || got.MinRows() != src.MinRows() || got.MaxRows() != src.MaxRows() {
		t.Fatalf("Calculation must preserve uniqueness and row bounds")
	}
}

func TestCalculationRejectsColumnOutsideTarget(t *testing.T) {
	eng := newFakeEngine("iter")
	a, b, c := column.ID("a"), column.ID("b"), column.ID("c")
	src := newBaseLeaf("t", eng, column.NewSet(a), false)

	_, err := relation.Calculation(src, c, expression.NewReference(b))
	if err == nil {
		t.Fatal("expected ColumnError for expression reading a column outside target")
	}
	if _, ok := err.(*relation.ColumnError); !ok {
		t.Fatalf("got %T, want *relation.ColumnError", err)
	}
}

func TestCalculationRejectsUnsupportedEngine(t *testing.T) {
	eng := restrictedEngine{name: "iter"}
	a := column.ID("a")
	src := relation.NewLeaf("t", eng, column.NewSet(a), false, nil)

	_, err := relation.Calculation(src, column.ID("b"), expression.NewLiteral(1, "int"))
	if _, ok := err.(*relation.EngineError); !ok {
		t.Fatalf("got %T, want *relation.EngineError", err)
	}
}

func TestProjectionLosesUniquenessUnlessFull(t *testing.T) {
	eng := newFakeEngine("iter")
	a, b := column.ID("a"), column.ID("b")
	src := newBaseLeaf("t", eng, column.NewSet(a, b), true)

	partial, err := relation.Projection(src, column.NewSet(a))
	if err != nil {
		t.Fatalf("Projection: %v", err)
	}
	if partial.Unique() {
		t.Fatal("projecting away a column must lose uniqueness")
	}

	full, err := relation.Projection(src, column.NewSet(a, b))
	if err != nil {
		t.Fatalf("Projection: %v", err)
	}
	if !full.Unique() {
		t.Fatal("projecting onto the full column set must preserve uniqueness")
	}
}

func TestProjectionRejectsColumnsOutsideTarget(t *testing.T) {
	eng := newFakeEngine("iter")
	a, b := column.ID("a"), column.ID("b")
	src := newBaseLeaf("t", eng, column.NewSet(a), false)

	_, err := relation.Projection(src, column.NewSet(a, b))
	if _, ok := err.(*relation.ColumnError); !ok {
		t.Fatalf("got %T, want *relation.ColumnError", err)
	}
}

func TestSelectionResetsMinRowsButKeepsUniqueness(t *testing.T) {
	eng := newFakeEngine("iter")
	a := column.ID("a")
	src := newBaseLeaf("t", eng, column.NewSet(a), true)

	got, err := relation.Selection(src, expression.NewPredicateReference(a))
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	if !got.Unique() {
		t.Fatal("Selection must preserve uniqueness")
	}
	if got.MinRows() != 0 {
		t.Fatalf("Selection MinRows() = %d, want 0", got.MinRows())
	}
	if got.MaxRows() != src.MaxRows() {
		t.Fatalf("Selection MaxRows() = %d, want %d", got.MaxRows(), src.MaxRows())
	}
}

func TestDeduplicationOnUniqueRelationIsIdentity(t *testing.T) {
	eng := newFakeEngine("iter")
	a := column.ID("a")
	src := newBaseLeaf("t", eng, column.NewSet(a), true)

	got, err := relation.Deduplication(src)
	if err != nil {
		t.Fatalf("Deduplication: %v", err)
	}
	if got != relation.Relation(src) {
		t.Fatal("Deduplication of an already-unique relation must return the same relation by identity")
	}
}

func TestDeduplicationOnBoundedRelationIsIdentity(t *testing.T) {
	eng := newFakeEngine("iter")
	a := column.ID("a")
	src, err := relation.Slice(newBaseLeaf("t", eng, column.NewSet(a), false), 0, 1)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if src.MaxRows() > 1 {
		t.Fatalf("test setup: Slice(0,1).MaxRows() = %d, want <= 1", src.MaxRows())
	}

	got, err := relation.Deduplication(src)
	if err != nil {
		t.Fatalf("Deduplication: %v", err)
	}
	if got != src {
		t.Fatal("Deduplication of a relation bounded to at most one row must be a no-op (scenario S3)")
	}
}

func TestDeduplicationOnUnboundedNonUniqueRelation(t *testing.T) {
	eng := newFakeEngine("iter")
	a := column.ID("a")
	src := newBaseLeaf("t", eng, column.NewSet(a), false)

	got, err := relation.Deduplication(src)
	if err != nil {
		t.Fatalf("Deduplication: %v", err)
	}
	if !got.Unique() {
		t.Fatal("Deduplication result must be unique")
	}
	if got.MinRows() != 0 {
		t.Fatalf("MinRows() = %d, want 0 (target MinRows was 0)", got.MinRows())
	}
}

func TestSliceComputesBounds(t *testing.T) {
	eng := newFakeEngine("iter")
	a := column.ID("a")
	src := newBaseLeaf("t", eng, column.NewSet(a), false)

	got, err := relation.Slice(src, 5, 10)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if got.MaxRows() != 5 {
		t.Fatalf("MaxRows() = %d, want 5", got.MaxRows())
	}
	if got.MinRows() != 0 {
		t.Fatalf("MinRows() = %d, want 0", got.MinRows())
	}
}

func TestSliceRejectsStopBeforeStart(t *testing.T) {
	eng := newFakeEngine("iter")
	a := column.ID("a")
	src := newBaseLeaf("t", eng, column.NewSet(a), false)

	_, err := relation.Slice(src, 10, 5)
	if _, ok := err.(*relation.InvariantError); !ok {
		t.Fatalf("got %T, want *relation.InvariantError", err)
	}
}

func TestChainRequiresIdenticalColumns(t *testing.T) {
	eng := newFakeEngine("iter")
	a, b := column.ID("a"), column.ID("b")
	lhs := newBaseLeaf("l", eng, column.NewSet(a), false)
	rhs := newBaseLeaf("r", eng, column.NewSet(a, b), false)

	_, err := relation.Chain(lhs, rhs)
	if _, ok := err.(*relation.InvariantError); !ok {
		t.Fatalf("got %T, want *relation.InvariantError", err)
	}
}

func TestChainOfLeavesSumsBoundsAndDropsUniqueness(t *testing.T) {
	eng := newFakeEngine("iter")
	a := column.ID("a")
	lhs := newBaseLeaf("l", eng, column.NewSet(a), true)
	rhs := newBaseLeaf("r", eng, column.NewSet(a), true)

	got, err := relation.Chain(lhs, rhs)
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	if got.Unique() {
		t.Fatal("Chain must never claim uniqueness")
	}
	if got.MinRows() != lhs.MinRows()+rhs.MinRows() {
		t.Fatalf("MinRows() = %d, want %d", got.MinRows(), lhs.MinRows()+rhs.MinRows())
	}
}

func TestJoinRequiresSharedEngine(t *testing.T) {
	a := column.ID("a")
	lhs := newBaseLeaf("l", newFakeEngine("iter"), column.NewSet(a), false)
	rhs := newBaseLeaf("r", newFakeEngine("sql"), column.NewSet(a), false)

	_, err := relation.Join(lhs, rhs, nil)
	if _, ok := err.(*relation.InvariantError); !ok {
		t.Fatalf("got %T, want *relation.InvariantError", err)
	}
}

func TestJoinUnionsColumnsConservativelyTracksUniqueness(t *testing.T) {
	eng := newFakeEngine("iter")
	a, b := column.ID("a"), column.ID("b")
	lhs := newBaseLeaf("l", eng, column.NewSet(a), true)
	rhs := newBaseLeaf("r", eng, column.NewSet(b), false)

	got, err := relation.Join(lhs, rhs, nil)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !got.Columns().Equal(column.NewSet(a, b)) {
		t.Fatalf("Columns() = %s, want {a, b}", got.Columns())
	}
	if got.Unique() {
		t.Fatal("Join must not claim uniqueness when either operand isn't unique")
	}
}

func TestTransferRequiresDifferentEngines(t *testing.T) {
	eng := newFakeEngine("iter")
	a := column.ID("a")
	src := newBaseLeaf("t", eng, column.NewSet(a), false)

	_, err := relation.NewTransfer(src, eng)
	if _, ok := err.(*relation.InvariantError); !ok {
		t.Fatalf("got %T, want *relation.InvariantError", err)
	}
}

func TestMaterializationPreservesRelationShape(t *testing.T) {
	eng := newFakeEngine("iter")
	a := column.ID("a")
	src := newBaseLeaf("t", eng, column.NewSet(a), true)

	m := relation.NewMaterialization(src)
	if !m.Columns().Equal(src.Columns()) || m.Unique() != src.Unique() {
		t.Fatal("Materialization must preserve columns and uniqueness")
	}

	got, err := relation.AttachPayload(m, "payload-1")
	if err != nil {
		t.Fatalf("AttachPayload: %v", err)
	}
	if got != "payload-1" {
		t.Fatalf("AttachPayload returned %v, want payload-1", got)
	}

	// Second attach loses the race deterministically (single goroutine)
	// and must return the first payload, not the new one (scenario S7).
	second, err := relation.AttachPayload(m, "payload-2")
	if err != nil {
		t.Fatalf("AttachPayload: %v", err)
	}
	if second != "payload-1" {
		t.Fatalf("second AttachPayload returned %v, want payload-1 (first assignment wins)", second)
	}
}

func TestAttachPayloadRejectsNonMaterializationMarker(t *testing.T) {
	eng := newFakeEngine("iter")
	a := column.ID("a")
	src := newBaseLeaf("t", eng, column.NewSet(a), false)

	transferred, err := relation.NewTransfer(src, newFakeEngine("sql"))
	if err != nil {
		t.Fatalf("NewTransfer: %v", err)
	}

	if _, err := relation.AttachPayload(transferred, "x"); err == nil {
		t.Fatal("expected AttachPayload to reject a non-Materialization marker")
	}
}
