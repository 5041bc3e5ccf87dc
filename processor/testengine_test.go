package processor_test

import (
	"context"

	"github.com/kolibri-data/relation/capability"
	"github.com/kolibri-data/relation/relation"
)

// countingEngine delegates Execute to onExecute, counting Execute
// calls so tests can assert idempotence (scenario S5).
type countingEngine struct {
	name       string
	caps       capability.Capabilities
	executions int
	onExecute  func(ctx context.Context, r relation.Relation) (relation.Payload, error)
}

func (e *countingEngine) Name() string                        { return e.name }
func (e *countingEngine) Capabilities() capability.Capabilities { return e.caps }

func (e *countingEngine) Conform(ctx context.Context, r relation.Relation) (relation.Relation, error) {
	return r, nil
}

func (e *countingEngine) ApplyCustomUnary(ctx context.Context, op relation.CustomUnaryOp, target relation.Relation) (relation.Relation, error) {
	return relation.ApplyCustomUnary(target, op)
}

func (e *countingEngine) Execute(ctx context.Context, r relation.Relation) (relation.Payload, error) {
	e.executions++
	return e.onExecute(ctx, r)
}

func (e *countingEngine) ImportPayload(ctx context.Context, source capability.Engine, payload relation.Payload) (relation.Payload, error) {
	return payload, nil
}

type allCaps struct{}

func (allCaps) SupportsUnary(capability.UnaryOpKind) bool     { return true }
func (allCaps) SupportsBinary(capability.BinaryOpKind) bool   { return true }
func (allCaps) SupportsFunction(string) bool                  { return true }
func (allCaps) SupportsContainer(capability.ContainerKind) bool { return true }

func newCountingEngine(name string, onExecute func(ctx context.Context, r relation.Relation) (relation.Payload, error)) *countingEngine {
	return &countingEngine{name: name, caps: allCaps{}, onExecute: onExecute}
}
