package iterengine

import (
	"context"
	"sync"
)

// GeneratorPayload is a lazy, one-shot RowIterable: a caller-supplied
// producer function invoked exactly once across the payload's
// lifetime. A second call to Rows returns ErrExhausted rather than
// silently yielding nothing, since a source Leaf's payload is meant to
// be executed once per processor pass (spec §4.5's idempotence).
type GeneratorPayload struct {
	produce func(ctx context.Context, yield func(Row) error) error

	mu   sync.Mutex
	used bool
}

// NewGeneratorPayload wraps produce, a function that yields rows to
// its callback exactly once.
func NewGeneratorPayload(produce func(ctx context.Context, yield func(Row) error) error) *GeneratorPayload {
	return &GeneratorPayload{produce: produce}
}

func (g *GeneratorPayload) Rows(ctx context.Context, yield func(Row) error) error {
	g.mu.Lock()
	if g.used {
		g.mu.Unlock()
		return ErrExhausted
	}
	g.used = true
	g.mu.Unlock()
	return g.produce(ctx, yield)
}

// ErrExhausted is returned by GeneratorPayload.Rows on any call after
// the first.
var ErrExhausted = generatorExhaustedError{}

type generatorExhaustedError struct{}

func (generatorExhaustedError) Error() string {
	return "iterengine: generator-backed payload already consumed"
}
