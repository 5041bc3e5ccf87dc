package iterengine

import "context"

// MappingPayload is a materialized RowIterable keyed by the full row
// (spec §4.4), used to implement Dedup: inserting the same row twice
// is a no-op, and iteration preserves first-insertion order.
type MappingPayload struct {
	order []Row
	seen  map[string]struct{}
}

// NewMappingPayload builds a MappingPayload by deduplicating rows,
// canonicalizing each through structpb so equal rows collide
// regardless of the concrete Go type behind a cell.
func NewMappingPayload(rows []Row) (*MappingPayload, error) {
	m := &MappingPayload{seen: make(map[string]struct{}, len(rows))}
	for _, r := range rows {
		if err := m.insert(r); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *MappingPayload) insert(r Row) error {
	key, err := canonicalKey(r)
	if err != nil {
		return err
	}
	if _, ok := m.seen[key]; ok {
		return nil
	}
	m.seen[key] = struct{}{}
	m.order = append(m.order, r)
	return nil
}

func (m *MappingPayload) Rows(ctx context.Context, yield func(Row) error) error {
	for _, r := range m.order {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := yield(r); err != nil {
			return err
		}
	}
	return nil
}

func (m *MappingPayload) Len() int { return len(m.order) }
