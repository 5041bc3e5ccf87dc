package expression

import (
	"fmt"
	"strings"

	"github.com/google/btree"
	"github.com/kolibri-data/relation/capability"
	"github.com/kolibri-data/relation/column"
)

// Container is a set of scalar values an InContainer predicate tests
// membership against (spec §3): either an explicit Sequence of scalar
// expressions or a Range of numeric literals.
type Container interface {
	fmt.Stringer

	Columns() column.Set
	SupportedBy(caps capability.Capabilities) bool
	Equal(other Container) bool
	Kind() capability.ContainerKind

	container()
}

// Sequence is an explicit list of scalar expressions.
type Sequence struct {
	Elements []Scalar
}

func NewSequence(elements ...Scalar) Sequence {
	return Sequence{Elements: elements}
}

func (Sequence) container() {}

func (Sequence) Kind() capability.ContainerKind { return capability.Sequence }

func (s Sequence) Columns() column.Set {
	sets := make([]column.Set, len(s.Elements))
	for i, e := range s.Elements {
		sets[i] = e.Columns()
	}
	return column.Union(sets...)
}

func (s Sequence) SupportedBy(caps capability.Capabilities) bool {
	if !caps.SupportsContainer(capability.Sequence) {
		return false
	}
	for _, e := range s.Elements {
		if !e.SupportedBy(caps) {
			return false
		}
	}
	return true
}

func (s Sequence) Equal(other Container) bool {
	o, ok := other.(Sequence)
	if !ok || len(o.Elements) != len(s.Elements) {
		return false
	}
	for i := range s.Elements {
		if !s.Elements[i].Equal(o.Elements[i]) {
			return false
		}
	}
	return true
}

func (s Sequence) String() string {
	parts := make([]string, len(s.Elements))
	for i, e := range s.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// MembershipItem adapts an int64 into a btree.Item for querying the
// index Sequence.MembershipSet builds.
type MembershipItem int64

func (a MembershipItem) Less(than btree.Item) bool {
	return a < than.(MembershipItem)
}

// MembershipSet builds a sorted index over a Sequence of integer
// literals, letting the iteration engine test InContainer membership
// in O(log n) instead of scanning every element (SPEC_FULL §3, reusing
// github.com/google/btree already wired for column.Set). Non-integer
// or non-literal elements are skipped; callers fall back to a linear
// scan of Elements for those.
func (s Sequence) MembershipSet() *btree.BTree {
	t := btree.New(8)
	for _, e := range s.Elements {
		lit, ok := e.(Literal)
		if !ok {
			continue
		}
		iv, ok := lit.Value.(int64)
		if !ok {
			continue
		}
		t.ReplaceOrInsert(MembershipItem(iv))
	}
	return t
}

// Range is an arithmetic progression start, start+step, ..., stopping
// before stop (spec §3), following Python range semantics per
// original_source.
type Range struct {
	Start, Stop, Step int64
}

func NewRange(start, stop, step int64) Range {
	return Range{Start: start, Stop: stop, Step: step}
}

func (Range) container() {}

func (Range) Kind() capability.ContainerKind { return capability.Range }

func (Range) Columns() column.Set { return column.EmptySet }

func (Range) SupportedBy(caps capability.Capabilities) bool {
	return caps.SupportsContainer(capability.Range)
}

func (r Range) Equal(other Container) bool {
	o, ok := other.(Range)
	return ok && o == r
}

func (r Range) String() string {
	return fmt.Sprintf("range(%d, %d, %d)", r.Start, r.Stop, r.Step)
}

// Contains reports whether v is a member of the range, matching Python
// range membership: v is reachable from Start by whole steps of Step
// and lies strictly before Stop (after it, if Step is negative).
func (r Range) Contains(v int64) bool {
	if r.Step == 0 {
		return false
	}
	if r.Step > 0 {
		if v < r.Start || v >= r.Stop {
			return false
		}
	} else {
		if v > r.Start || v <= r.Stop {
			return false
		}
	}
	return (v-r.Start)%r.Step == 0
}
