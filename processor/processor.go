// Package processor implements the multi-engine traversal of spec
// §4.5: it identifies maximal single-engine subtrees, bridges Transfer
// boundaries between them via each engine's import-payload contract,
// and drives Materialization caching to idempotence.
//
// Grounded on storage/mideng/mideng.go's pattern of a small facade type
// composing several concrete engines behind one call surface.
package processor

import (
	"context"
	"fmt"

	"github.com/kolibri-data/relation/capability"
	"github.com/kolibri-data/relation/engine"
	"github.com/kolibri-data/relation/logging"
	"github.com/kolibri-data/relation/relation"
	"github.com/sirupsen/logrus"
)

// Processor drives a relation tree to a payload, resolving Transfer
// boundaries and single-engine subtrees along the way (spec §4.5).
type Processor struct {
	log *logrus.Entry
}

// New builds a Processor. log may be nil, in which case a discarding
// entry is used.
func New(log *logrus.Entry) *Processor {
	if log == nil {
		log = logging.Discard()
	}
	return &Processor{log: log}
}

// Process evaluates r, bridging any Transfer boundaries it contains and
// executing the resulting single-engine subtree (spec §4.5). It is
// idempotent: re-processing a tree containing an already-cached
// Materialization returns the cached payload without re-executing
// (scenario S5).
func (p *Processor) Process(ctx context.Context, r relation.Relation) (relation.Payload, error) {
	resolved, _, err := p.resolveTransfers(ctx, r)
	if err != nil {
		return nil, err
	}
	eng, err := asEngine(resolved.Engine())
	if err != nil {
		return nil, err
	}
	conformed, err := eng.Conform(ctx, resolved)
	if err != nil {
		return nil, err
	}
	p.log.WithField("engine", eng.Name()).Debug("processor: executing single-engine subtree")
	return eng.Execute(ctx, conformed)
}

// asEngine recovers the full engine.Engine contract from the
// capability.Engine identity a relation node carries. Every concrete
// engine this module ships (iterengine.Engine, sqlengine.Engine[L])
// satisfies both; a capability.Engine that doesn't is a host
// programming error, not a data problem, so it surfaces as a plain
// error rather than a typed one.
func asEngine(id capability.Engine) (engine.Engine, error) {
	eng, ok := id.(engine.Engine)
	if !ok {
		return nil, fmt.Errorf("processor: engine %q does not implement the full engine contract", id.Name())
	}
	return eng, nil
}

// resolveTransfers rewrites every Transfer marker in r into a Leaf
// carrying the imported payload, working bottom-up so a Transfer whose
// own source subtree contains further Transfers resolves correctly
// (spec §4.5 step 2). It reports whether anything changed so callers
// can preserve node identity — and therefore Materialization payload
// cache slots — for subtrees that needed no rewriting at all.
func (p *Processor) resolveTransfers(ctx context.Context, r relation.Relation) (relation.Relation, bool, error) {
	switch n := r.(type) {
	case *relation.Leaf:
		return n, false, nil

	case *relation.Unary:
		target, changed, err := p.resolveTransfers(ctx, n.Target())
		if err != nil {
			return nil, false, err
		}
		if !changed {
			return n, false, nil
		}
		rebuilt, err := rebuildUnary(n, target)
		return rebuilt, true, err

	case *relation.Binary:
		lhs, lchanged, err := p.resolveTransfers(ctx, n.LHS())
		if err != nil {
			return nil, false, err
		}
		rhs, rchanged, err := p.resolveTransfers(ctx, n.RHS())
		if err != nil {
			return nil, false, err
		}
		if !lchanged && !rchanged {
			return n, false, nil
		}
		rebuilt, err := rebuildBinary(n, lhs, rhs)
		return rebuilt, true, err

	case *relation.Marker:
		return p.resolveMarker(ctx, n)

	default:
		return nil, false, fmt.Errorf("processor: unrecognized relation kind %T", r)
	}
}

func (p *Processor) resolveMarker(ctx context.Context, n *relation.Marker) (relation.Relation, bool, error) {
	switch n.Kind() {
	case capability.Transfer:
		return p.resolveTransfer(ctx, n)

	case capability.Materialization:
		target, changed, err := p.resolveTransfers(ctx, n.Target())
		if err != nil {
			return nil, false, err
		}
		if !changed {
			return n, false, nil
		}
		return relation.NewMaterialization(target), true, nil

	default:
		target, changed, err := p.resolveTransfers(ctx, n.Target())
		if err != nil {
			return nil, false, err
		}
		if !changed {
			return n, false, nil
		}
		return target, true, nil
	}
}

// resolveTransfer bridges one Transfer boundary: it fully processes
// the source subtree on its own engine, then hands the resulting
// payload to the destination engine's ImportPayload to obtain a
// payload the destination can treat as a Leaf (spec §4.5 step 2).
func (p *Processor) resolveTransfer(ctx context.Context, n *relation.Marker) (relation.Relation, bool, error) {
	sourceEngine := n.Target().Engine()
	payload, err := p.Process(ctx, n.Target())
	if err != nil {
		return nil, false, err
	}
	destEngine, err := asEngine(n.Engine())
	if err != nil {
		return nil, false, err
	}
	imported, err := destEngine.ImportPayload(ctx, sourceEngine, payload)
	if err != nil {
		return nil, false, err
	}
	p.log.WithField("from", sourceEngine.Name()).WithField("to", destEngine.Name()).Debug("processor: transfer resolved")
	leaf := relation.NewLeaf("transfer", destEngine, n.Columns(), n.Unique(), imported)
	return leaf, true, nil
}

func rebuildUnary(n *relation.Unary, target relation.Relation) (relation.Relation, error) {
	switch n.Op() {
	case capability.Calculation:
		p, _ := n.Calculation()
		return relation.Calculation(target, p.Tag, p.Expr)
	case capability.Projection:
		p, _ := n.Projection()
		return relation.Projection(target, p.Keep)
	case capability.Selection:
		p, _ := n.Selection()
		return relation.Selection(target, p.Predicate)
	case capability.Slice:
		p, _ := n.SliceBounds()
		return relation.Slice(target, p.Start, p.Stop)
	case capability.Sort:
		p, _ := n.Sort()
		return relation.Sort(target, p.Keys)
	case capability.Deduplication:
		return relation.Deduplication(target)
	case capability.Custom:
		op, _ := n.Custom()
		return relation.ApplyCustomUnary(target, op)
	default:
		return target, nil
	}
}

func rebuildBinary(n *relation.Binary, lhs, rhs relation.Relation) (relation.Relation, error) {
	switch n.Op() {
	case capability.Join:
		pred, _ := n.Predicate()
		return relation.Join(lhs, rhs, pred)
	case capability.Chain:
		return relation.Chain(lhs, rhs)
	default:
		return n, nil
	}
}
