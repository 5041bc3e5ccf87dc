// Package iterengine implements the lazy row-iterator backend of
// spec §4.4: a RowIterable payload in one of four shapes
// (generator-backed, sequence-backed, mapping-backed, and the
// supplemental disk-backed spill payload), plus an Engine applying
// each operation with the laziness the spec's operation table
// prescribes.
//
// Grounded on engine/memrows's in-memory row store iterated through a
// cursor, and engine/util's generic-over-row-type helpers.
package iterengine

import (
	"sort"

	"github.com/kolibri-data/relation/column"
)

// Row is one row of a RowIterable: a mapping from tag to value, sorted
// by Tag order for stable canonicalization.
type Row struct {
	tags   []column.Tag
	values []any
}

// NewRow builds a Row from parallel tags/values slices, sorting by tag
// order so two rows built from the same set/value pairs in different
// orders compare and hash identically.
func NewRow(tags []column.Tag, values []any) Row {
	idx := make([]int, len(tags))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return tags[idx[i]].Less(tags[idx[j]]) })
	r := Row{tags: make([]column.Tag, len(tags)), values: make([]any, len(tags))}
	for pos, i := range idx {
		r.tags[pos] = tags[i]
		r.values[pos] = values[i]
	}
	return r
}

// Get returns the value stored under tag, if present.
func (r Row) Get(tag column.Tag) (any, bool) {
	for i, t := range r.tags {
		if t.Equal(tag) {
			return r.values[i], true
		}
	}
	return nil, false
}

// With returns a new Row extended with (tag, value); tag must not
// already be present.
func (r Row) With(tag column.Tag, value any) Row {
	tags := append(append([]column.Tag{}, r.tags...), tag)
	values := append(append([]any{}, r.values...), value)
	return NewRow(tags, values)
}

// Project returns a new Row restricted to keep's members.
func (r Row) Project(keep column.Set) Row {
	var tags []column.Tag
	var values []any
	for i, t := range r.tags {
		if keep.Contains(t) {
			tags = append(tags, t)
			values = append(values, r.values[i])
		}
	}
	return NewRow(tags, values)
}

// Tags returns the row's tags in canonical order.
func (r Row) Tags() []column.Tag { return r.tags }

// Value returns the value at position i (canonical tag order).
func (r Row) Value(i int) any { return r.values[i] }

// Len returns the number of columns in the row.
func (r Row) Len() int { return len(r.tags) }
