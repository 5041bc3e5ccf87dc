// Package engine defines the behavioral contract a relation-tree
// backend implements: conforming a tree to what the backend can
// actually run, applying a host-specific custom unary operation, and
// executing a conformed tree into a payload.
//
// Grounded on sql.Engine's small lifecycle-plus-capability-flag
// interface shape, adapted from a running database's engine interface
// to a relation-tree backend's.
package engine

import (
	"context"

	"github.com/kolibri-data/relation/capability"
	"github.com/kolibri-data/relation/relation"
)

// Engine is a backend that can conform, extend, and execute relation
// trees rooted at its own capability.Engine identity.
type Engine interface {
	capability.Engine

	// Conform rewrites r, which must already be Engine()-consistent for
	// every node the backend owns, into a form the backend can execute:
	// inserting Transfer/Materialization markers, normalizing operation
	// order, or rejecting r with a *relation.EngineError /
	// *relation.NotImplementedByEngine.
	Conform(ctx context.Context, r relation.Relation) (relation.Relation, error)

	// ApplyCustomUnary validates and wraps a host-specific unary
	// operation the closed UnaryOpKind vocabulary does not cover.
	ApplyCustomUnary(ctx context.Context, op relation.CustomUnaryOp, target relation.Relation) (relation.Relation, error)

	// Execute runs a conformed relation and returns its payload. r must
	// have already passed through Conform.
	Execute(ctx context.Context, r relation.Relation) (relation.Payload, error)

	// ImportPayload adapts a payload produced by a different engine
	// (crossed via a Transfer marker) into this engine's own payload
	// representation, so the processor can attach it to the transferred
	// Leaf without either engine knowing the other's internals.
	ImportPayload(ctx context.Context, source capability.Engine, payload relation.Payload) (relation.Payload, error)
}
