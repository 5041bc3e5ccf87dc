package engine

import "github.com/kolibri-data/relation/capability"

// Capabilities is a concrete capability.Capabilities: one set (a map)
// for each closed vocabulary (unary, binary, container) plus a name
// set for the open-ended function vocabulary. Backends build one
// with NewCapabilities and the With* builders, then hand it to
// relation factories via their capability.Engine.Capabilities method
// (spec §9, "capabilities-checked construction").
type Capabilities struct {
	unary     map[capability.UnaryOpKind]struct{}
	binary    map[capability.BinaryOpKind]struct{}
	container map[capability.ContainerKind]struct{}
	functions map[string]struct{}
}

// NewCapabilities returns a Capabilities supporting nothing; use the
// With* methods to declare support.
func NewCapabilities() Capabilities {
	return Capabilities{
		unary:     map[capability.UnaryOpKind]struct{}{},
		binary:    map[capability.BinaryOpKind]struct{}{},
		container: map[capability.ContainerKind]struct{}{},
		functions: map[string]struct{}{},
	}
}

func (c Capabilities) WithUnary(ops ...capability.UnaryOpKind) Capabilities {
	for _, op := range ops {
		c.unary[op] = struct{}{}
	}
	return c
}

func (c Capabilities) WithBinary(ops ...capability.BinaryOpKind) Capabilities {
	for _, op := range ops {
		c.binary[op] = struct{}{}
	}
	return c
}

func (c Capabilities) WithContainer(kinds ...capability.ContainerKind) Capabilities {
	for _, k := range kinds {
		c.container[k] = struct{}{}
	}
	return c
}

func (c Capabilities) WithFunctions(names ...string) Capabilities {
	for _, name := range names {
		c.functions[name] = struct{}{}
	}
	return c
}

func (c Capabilities) SupportsUnary(op capability.UnaryOpKind) bool {
	_, ok := c.unary[op]
	return ok
}

func (c Capabilities) SupportsBinary(op capability.BinaryOpKind) bool {
	_, ok := c.binary[op]
	return ok
}

func (c Capabilities) SupportsFunction(name string) bool {
	_, ok := c.functions[name]
	return ok
}

func (c Capabilities) SupportsContainer(kind capability.ContainerKind) bool {
	_, ok := c.container[kind]
	return ok
}
