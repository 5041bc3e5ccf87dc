package column

import (
	"sort"
	"strings"

	"github.com/google/btree"
)

// setDegree matches the teacher's engine/rowcols in-memory index degree;
// column sets are small (a handful to a few dozen tags), so a modest
// branching factor keeps the tree shallow without wasting node capacity.
const setDegree = 8

type tagItem struct {
	tag Tag
}

func (a tagItem) Less(than btree.Item) bool {
	b := than.(tagItem)
	return a.tag.Less(b.tag)
}

// Set is an immutable, ordered set of column tags. The order is the
// total order required of Tag, which the SQL engine relies on to
// produce a canonical tie-break when sorting sibling operations
// (spec §4.3). Sets are value-comparable via Equal and hash stably via
// Hash, so they double as the key material relation.Hash needs for
// structural hashing of relations (spec §3, invariant 6).
type Set struct {
	tree *btree.BTree
}

// EmptySet is the set containing no tags.
var EmptySet = Set{}

// NewSet builds a Set from the given tags, de-duplicating by Equal.
func NewSet(tags ...Tag) Set {
	if len(tags) == 0 {
		return EmptySet
	}
	t := btree.New(setDegree)
	for _, tag := range tags {
		t.ReplaceOrInsert(tagItem{tag})
	}
	return Set{tree: t}
}

// Len returns the number of tags in the set.
func (s Set) Len() int {
	if s.tree == nil {
		return 0
	}
	return s.tree.Len()
}

// Contains reports whether tag is a member of s.
func (s Set) Contains(tag Tag) bool {
	if s.tree == nil {
		return false
	}
	return s.tree.Has(tagItem{tag})
}

// Sorted returns the set's members in ascending Tag order.
func (s Set) Sorted() []Tag {
	if s.tree == nil {
		return nil
	}
	out := make([]Tag, 0, s.tree.Len())
	s.tree.Ascend(func(item btree.Item) bool {
		out = append(out, item.(tagItem).tag)
		return true
	})
	return out
}

// Union returns the set of tags in any of sets.
func Union(sets ...Set) Set {
	t := btree.New(setDegree)
	for _, s := range sets {
		if s.tree == nil {
			continue
		}
		s.tree.Ascend(func(item btree.Item) bool {
			t.ReplaceOrInsert(item)
			return true
		})
	}
	if t.Len() == 0 {
		return EmptySet
	}
	return Set{tree: t}
}

// Intersect returns the set of tags present in every argument.
func Intersect(sets ...Set) Set {
	if len(sets) == 0 {
		return EmptySet
	}
	base := sets[0]
	if base.tree == nil {
		return EmptySet
	}
	t := btree.New(setDegree)
	base.tree.Ascend(func(item btree.Item) bool {
		tag := item.(tagItem).tag
		for _, s := range sets[1:] {
			if !s.Contains(tag) {
				return true
			}
		}
		t.ReplaceOrInsert(item)
		return true
	})
	if t.Len() == 0 {
		return EmptySet
	}
	return Set{tree: t}
}

// Subset reports whether every tag in s is also in other.
func (s Set) Subset(other Set) bool {
	if s.tree == nil {
		return true
	}
	ok := true
	s.tree.Ascend(func(item btree.Item) bool {
		if !other.Contains(item.(tagItem).tag) {
			ok = false
			return false
		}
		return true
	})
	return ok
}

// With returns a new set with tag added.
func (s Set) With(tag Tag) Set {
	return Union(s, NewSet(tag))
}

// Equal reports whether s and other contain the same tags.
func (s Set) Equal(other Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	return s.Subset(other)
}

// Hash returns a stable hash of the set's membership, independent of
// insertion order (the set is always iterated in Tag order).
func (s Set) Hash() uint64 {
	var h uint64 = 14695981039346656037
	for _, tag := range s.Sorted() {
		th := tag.Hash()
		for i := 0; i < 8; i++ {
			h ^= (th >> (uint(i) * 8)) & 0xff
			h *= 1099511628211
		}
	}
	return h
}

// String renders the set as a sorted, comma-separated list of qualified
// names, useful for error messages and explain output.
func (s Set) String() string {
	names := make([]string, 0, s.Len())
	for _, tag := range s.Sorted() {
		names = append(names, tag.QualifiedName())
	}
	sort.Strings(names)
	return "{" + strings.Join(names, ", ") + "}"
}
