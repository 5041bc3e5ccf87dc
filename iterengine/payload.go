package iterengine

import "context"

// RowIterable is the iteration engine's payload (spec §4.4): a source
// of rows. Rows returns a fresh iteration each call; whether that is
// cheap (a re-readable sequence) or expensive/impossible (a one-shot
// generator) is shape-specific — GeneratorPayload documents the
// one-shot restriction.
type RowIterable interface {
	// Rows yields rows in this payload's order to yield, stopping and
	// returning any error yield returns, or ctx.Err() if ctx is done.
	Rows(ctx context.Context, yield func(Row) error) error
}

// Len reports the row count of iterables that know it up front without
// a full scan (sequence- and mapping-backed payloads, and the spill
// payload). Generator-backed payloads do not implement it.
type Len interface {
	Len() int
}

// collect drains an iterable into a plain slice, used by the operation
// appliers that must gather before proceeding (Dedup, Sort,
// Materialization).
func collect(ctx context.Context, src RowIterable) ([]Row, error) {
	var rows []Row
	err := src.Rows(ctx, func(r Row) error {
		rows = append(rows, r)
		return nil
	})
	return rows, err
}
