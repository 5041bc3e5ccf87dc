// Package expression implements the three column-expression sum types
// from spec §3: Scalar, Predicate, and Container. Each node is an
// immutable value carrying its own read set and an engine-support
// predicate, grounded on the closed-interface, constructor-per-variant
// shape of the teacher's evaluate/expr package (Literal/Unary/Binary/Call).
package expression

import (
	"fmt"
	"strings"

	"github.com/kolibri-data/relation/capability"
	"github.com/kolibri-data/relation/column"
)

// Scalar is a column-valued expression: Literal, Reference, or Function
// (spec §3).
type Scalar interface {
	fmt.Stringer

	// Columns is the set of tags this expression reads.
	Columns() column.Set

	// SupportedBy reports whether an engine with the given capabilities
	// can evaluate this expression (spec: is_supported_by).
	SupportedBy(caps capability.Capabilities) bool

	// Equal reports structural equality.
	Equal(other Scalar) bool

	scalar()
}

// Literal is a constant scalar value of a host-defined type.
type Literal struct {
	Value any
	Type  string
}

func NewLiteral(value any, typ string) Literal {
	return Literal{Value: value, Type: typ}
}

func (Literal) scalar() {}

func (l Literal) Columns() column.Set { return column.EmptySet }

func (l Literal) SupportedBy(capability.Capabilities) bool { return true }

func (l Literal) Equal(other Scalar) bool {
	o, ok := other.(Literal)
	return ok && o.Type == l.Type && o.Value == l.Value
}

func (l Literal) String() string {
	return fmt.Sprintf("%v", l.Value)
}

// Reference reads a single column by tag.
type Reference struct {
	Tag column.Tag
}

func NewReference(tag column.Tag) Reference {
	return Reference{Tag: tag}
}

func (Reference) scalar() {}

func (r Reference) Columns() column.Set { return column.NewSet(r.Tag) }

func (r Reference) SupportedBy(capability.Capabilities) bool { return true }

func (r Reference) Equal(other Scalar) bool {
	o, ok := other.(Reference)
	return ok && o.Tag.Equal(r.Tag)
}

func (r Reference) String() string {
	return r.Tag.QualifiedName()
}

// Function applies a named function to scalar arguments.
type Function struct {
	Name string
	Args []Scalar
}

func NewFunction(name string, args ...Scalar) Function {
	return Function{Name: name, Args: args}
}

func (Function) scalar() {}

func (f Function) Columns() column.Set {
	sets := make([]column.Set, len(f.Args))
	for i, a := range f.Args {
		sets[i] = a.Columns()
	}
	return column.Union(sets...)
}

func (f Function) SupportedBy(caps capability.Capabilities) bool {
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

func (f Function) Equal(other Scalar) bool {
	o, ok := other.(Function)
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

func (f Function) String() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(args, ", "))
}
