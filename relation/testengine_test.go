package relation_test

import "github.com/kolibri-data/relation/capability"

// fakeEngine is a minimal capability.Engine for exercising the relation
// package's factories without depending on iterengine or sqlengine.
type fakeEngine struct {
	name  string
	caps  fakeCapabilities
}

func newFakeEngine(name string) fakeEngine {
	return fakeEngine{name: name, caps: allCapabilities()}
}

func (e fakeEngine) Name() string                        { return e.name }
func (e fakeEngine) Capabilities() capability.Capabilities { return e.caps }

type fakeCapabilities struct {
	unary     map[capability.UnaryOpKind]bool
	binary    map[capability.BinaryOpKind]bool
	functions map[string]bool
	container map[capability.ContainerKind]bool
}

func allCapabilities() fakeCapabilities {
	return fakeCapabilities{
		unary: map[capability.UnaryOpKind]bool{
			capability.Calculation:   true,
			capability.Deduplication: true,
			capability.Identity:      true,
			capability.Projection:    true,
			capability.Selection:     true,
			capability.Slice:         true,
			capability.Sort:          true,
			capability.Custom:        true,
		},
		binary: map[capability.BinaryOpKind]bool{
			capability.Join:  true,
			capability.Chain: true,
		},
		functions: map[string]bool{"double": true},
		container: map[capability.ContainerKind]bool{
			capability.Sequence: true,
			capability.Range:    true,
		},
	}
}

func (c fakeCapabilities) SupportsUnary(op capability.UnaryOpKind) bool   { return c.unary[op] }
func (c fakeCapabilities) SupportsBinary(op capability.BinaryOpKind) bool { return c.binary[op] }
func (c fakeCapabilities) SupportsFunction(name string) bool             { return c.functions[name] }
func (c fakeCapabilities) SupportsContainer(kind capability.ContainerKind) bool {
	return c.container[kind]
}

// restrictedEngine reports no support for any unary or binary operation,
// used to exercise the EngineError paths.
type restrictedEngine struct {
	name string
}

func (e restrictedEngine) Name() string { return e.name }
func (e restrictedEngine) Capabilities() capability.Capabilities {
	return fakeCapabilities{
		unary:     map[capability.UnaryOpKind]bool{},
		binary:    map[capability.BinaryOpKind]bool{},
		functions: map[string]bool{},
		container: map[capability.ContainerKind]bool{},
	}
}
