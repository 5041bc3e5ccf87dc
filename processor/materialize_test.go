package processor_test

import (
	"context"
	"testing"

	"github.com/kolibri-data/relation/column"
	"github.com/kolibri-data/relation/processor"
	"github.com/kolibri-data/relation/relation"
)

// newMaterializingExecute mimics iterengine.Engine's Materialization
// caching (LoadPayload/AttachPayload): a Marker's target is only ever
// computed once, on whichever call finds no cached payload. computed
// counts real leaf computations, distinguishing them from cache hits.
func newMaterializingExecute(computed *int) func(ctx context.Context, r relation.Relation) (relation.Payload, error) {
	var exec func(ctx context.Context, r relation.Relation) (relation.Payload, error)
	exec = func(ctx context.Context, r relation.Relation) (relation.Payload, error) {
		switch n := r.(type) {
		case *relation.Leaf:
			*computed++
			payload, _ := relation.LoadPayload(n)
			return payload, nil
		case *relation.Marker:
			if payload, ok := relation.LoadPayload(n); ok {
				return payload, nil
			}
			inner, err := exec(ctx, n.Target())
			if err != nil {
				return nil, err
			}
			return relation.AttachPayload(n, inner)
		default:
			return nil, nil
		}
	}
	return exec
}

func TestMaterializationExecutesUnderlyingWorkExactlyOnce(t *testing.T) {
	ctx := context.Background()
	var computed int
	eng := newCountingEngine("counting", newMaterializingExecute(&computed))
	a := column.ID("a")
	leaf := relation.NewLeaf("t", eng, column.NewSet(a), false, "leaf-payload")
	m := relation.NewMaterialization(leaf)

	p := processor.New(nil)
	first, err := p.Process(ctx, m)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	second, err := p.Process(ctx, m)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if first != second {
		t.Fatalf("Materialization payload changed identity across processor calls (scenario S5)")
	}
	if computed != 1 {
		t.Fatalf("underlying leaf was computed %d times across two Process calls, want 1 (S5: second call must hit the cache)", computed)
	}
}
