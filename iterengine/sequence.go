package iterengine

import "context"

// SequencePayload is a materialized, re-iterable RowIterable backed by
// a Go slice, supporting O(1) slicing (spec §4.4).
type SequencePayload struct {
	rows []Row
}

// NewSequencePayload wraps rows. The slice is not copied; callers must
// not mutate it afterward.
func NewSequencePayload(rows []Row) *SequencePayload {
	return &SequencePayload{rows: rows}
}

func (s *SequencePayload) Rows(ctx context.Context, yield func(Row) error) error {
	for _, r := range s.rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := yield(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *SequencePayload) Len() int { return len(s.rows) }

// Slice returns the O(1) sub-sequence [start, stop), clamped to the
// payload's length.
func (s *SequencePayload) Slice(start, stop int) *SequencePayload {
	if start > len(s.rows) {
		start = len(s.rows)
	}
	if stop > len(s.rows) {
		stop = len(s.rows)
	}
	if stop < start {
		stop = start
	}
	return NewSequencePayload(s.rows[start:stop])
}

// At returns the row at index i.
func (s *SequencePayload) At(i int) Row { return s.rows[i] }
