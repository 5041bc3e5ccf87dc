package expression

import (
	"fmt"
	"strings"

	"github.com/kolibri-data/relation/capability"
	"github.com/kolibri-data/relation/column"
)

// Predicate is a boolean-valued expression (spec §3).
type Predicate interface {
	fmt.Stringer

	Columns() column.Set
	SupportedBy(caps capability.Capabilities) bool
	Equal(other Predicate) bool

	predicate()
}

// PredicateLiteral is a constant boolean.
type PredicateLiteral bool

func (PredicateLiteral) predicate() {}

func (PredicateLiteral) Columns() column.Set { return column.EmptySet }

func (PredicateLiteral) SupportedBy(capability.Capabilities) bool { return true }

func (p PredicateLiteral) Equal(other Predicate) bool {
	o, ok := other.(PredicateLiteral)
	return ok && o == p
}

func (p PredicateLiteral) String() string {
	if p {
		return "true"
	}
	return "false"
}

// PredicateReference reads a single boolean-valued column.
type PredicateReference struct {
	Tag column.Tag
}

func NewPredicateReference(tag column.Tag) PredicateReference {
	return PredicateReference{Tag: tag}
}

func (PredicateReference) predicate() {}

func (r PredicateReference) Columns() column.Set { return column.NewSet(r.Tag) }

func (r PredicateReference) SupportedBy(capability.Capabilities) bool { return true }

func (r PredicateReference) Equal(other Predicate) bool {
	o, ok := other.(PredicateReference)
	return ok && o.Tag.Equal(r.Tag)
}

func (r PredicateReference) String() string {
	return r.Tag.QualifiedName()
}

// PredicateFunction applies a named boolean-returning function.
type PredicateFunction struct {
	Name string
	Args []Scalar
}

func NewPredicateFunction(name string, args ...Scalar) PredicateFunction {
	return PredicateFunction{Name: name, Args: args}
}

func (PredicateFunction) predicate() {}

func (f PredicateFunction) Columns() column.Set {
	sets := make([]column.Set, len(f.Args))
	for i, a := range f.Args {
		sets[i] = a.Columns()
	}
	return column.Union(sets...)
}

func (f PredicateFunction) SupportedBy(caps capability.Capabilities) bool {
	if !caps.SupportsFunction(f.Name) {
		return false
	}
	for _, a := range f.Args {
		if !a.SupportedBy(caps) {
			return false
		}
	}
	return true
}

func (f PredicateFunction) Equal(other Predicate) bool {
	o, ok := other.(PredicateFunction)
	if !ok || o.Name != f.Name || len(o.Args) != len(f.Args) {
		return false
	}
	for i := range f.Args {
		if !f.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

func (f PredicateFunction) String() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(args, ", "))
}

// Not negates a predicate.
type Not struct {
	Operand Predicate
}

func NewNot(p Predicate) Not { return Not{Operand: p} }

func (Not) predicate() {}

func (n Not) Columns() column.Set { return n.Operand.Columns() }

func (n Not) SupportedBy(caps capability.Capabilities) bool { return n.Operand.SupportedBy(caps) }

func (n Not) Equal(other Predicate) bool {
	o, ok := other.(Not)
	return ok && o.Operand.Equal(n.Operand)
}

func (n Not) String() string {
	return fmt.Sprintf("NOT (%s)", n.Operand)
}

// And is the conjunction of zero or more predicates. An empty And is
// true (spec §3).
type And struct {
	Operands []Predicate
}

func NewAnd(operands ...Predicate) And { return And{Operands: operands} }

func (And) predicate() {}

func (a And) Columns() column.Set {
	sets := make([]column.Set, len(a.Operands))
	for i, o := range a.Operands {
		sets[i] = o.Columns()
	}
	return column.Union(sets...)
}

func (a And) SupportedBy(caps capability.Capabilities) bool {
	for _, o := range a.Operands {
		if !o.SupportedBy(caps) {
			return false
		}
	}
	return true
}

func (a And) Equal(other Predicate) bool {
	o, ok := other.(And)
	if !ok || len(o.Operands) != len(a.Operands) {
		return false
	}
	for i := range a.Operands {
		if !a.Operands[i].Equal(o.Operands[i]) {
			return false
		}
	}
	return true
}

func (a And) String() string {
	if len(a.Operands) == 0 {
		return "true"
	}
	parts := make([]string, len(a.Operands))
	for i, o := range a.Operands {
		parts[i] = o.String()
	}
	return "(" + strings.Join(parts, " AND ") + ")"
}

// Or is the disjunction of zero or more predicates. An empty Or is
// false (spec §3).
type Or struct {
	Operands []Predicate
}

func NewOr(operands ...Predicate) Or { return Or{Operands: operands} }

func (Or) predicate() {}

func (o Or) Columns() column.Set {
	sets := make([]column.Set, len(o.Operands))
	for i, p := range o.Operands {
		sets[i] = p.Columns()
	}
	return column.Union(sets...)
}

func (o Or) SupportedBy(caps capability.Capabilities) bool {
	for _, p := range o.Operands {
		if !p.SupportedBy(caps) {
			return false
		}
	}
	return true
}

func (o Or) Equal(other Predicate) bool {
	o2, ok := other.(Or)
	if !ok || len(o2.Operands) != len(o.Operands) {
		return false
	}
	for i := range o.Operands {
		if !o.Operands[i].Equal(o2.Operands[i]) {
			return false
		}
	}
	return true
}

func (o Or) String() string {
	if len(o.Operands) == 0 {
		return "false"
	}
	parts := make([]string, len(o.Operands))
	for i, p := range o.Operands {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// InContainer tests whether a scalar's value is a member of a
// container (spec §3).
type InContainer struct {
	Scalar    Scalar
	Container Container
}

func NewInContainer(s Scalar, c Container) InContainer {
	return InContainer{Scalar: s, Container: c}
}

func (InContainer) predicate() {}

func (ic InContainer) Columns() column.Set {
	return column.Union(ic.Scalar.Columns(), ic.Container.Columns())
}

func (ic InContainer) SupportedBy(caps capability.Capabilities) bool {
	return ic.Scalar.SupportedBy(caps) && ic.Container.SupportedBy(caps)
}

func (ic InContainer) Equal(other Predicate) bool {
	o, ok := other.(InContainer)
	return ok && o.Scalar.Equal(ic.Scalar) && ic.Container.Equal(o.Container)
}

func (ic InContainer) String() string {
	return fmt.Sprintf("%s IN %s", ic.Scalar, ic.Container)
}
