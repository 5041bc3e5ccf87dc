package iterengine

import (
	"context"
	"fmt"
	"sort"

	"github.com/kolibri-data/relation/capability"
	"github.com/kolibri-data/relation/logging"
	"github.com/kolibri-data/relation/relation"
	"github.com/sirupsen/logrus"
)

// Engine is the lazy row-iterator backend of spec §4.4. It does not
// implement Join; constructing a Join whose operands sit on Engine
// fails at construction time (relation.Join consults Capabilities).
type Engine struct {
	name string
	caps capability.Capabilities
	cfg  Config
	log  *logrus.Entry
}

// New builds an Engine named name. log may be nil, in which case a
// discarding entry is used (grounded on testutil.SetupLogger).
func New(name string, cfg Config, log *logrus.Entry) *Engine {
	if log == nil {
		log = logging.Discard()
	}
	return &Engine{name: name, cfg: cfg, log: log, caps: capabilities()}
}

func capabilities() capability.Capabilities {
	return simpleCaps{
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
			capability.Chain: true,
		},
	}
}

type simpleCaps struct {
	unary  map[capability.UnaryOpKind]bool
	binary map[capability.BinaryOpKind]bool
}

func (c simpleCaps) SupportsUnary(op capability.UnaryOpKind) bool   { return c.unary[op] }
func (c simpleCaps) SupportsBinary(op capability.BinaryOpKind) bool { return c.binary[op] }
func (c simpleCaps) SupportsFunction(name string) bool              { return true }
func (c simpleCaps) SupportsContainer(kind capability.ContainerKind) bool {
	return kind == capability.Sequence || kind == capability.Range
}

func (e *Engine) Name() string                        { return e.name }
func (e *Engine) Capabilities() capability.Capabilities { return e.caps }

// Conform validates that r contains no operation the iteration engine
// cannot realize (chiefly Join, and any Select/Transfer marker, which
// only the SQL engine and the processor respectively place). The
// iteration engine does no reordering: spec §4.4 assigns it no
// commutation rules, unlike the SQL engine (§4.3).
func (e *Engine) Conform(ctx context.Context, r relation.Relation) (relation.Relation, error) {
	if err := e.validate(r); err != nil {
		return nil, err
	}
	return r, nil
}

func (e *Engine) validate(r relation.Relation) error {
	switch n := r.(type) {
	case *relation.Leaf:
		return nil
	case *relation.Unary:
		return e.validate(n.Target())
	case *relation.Binary:
		if n.Op() == capability.Join {
			return &relation.NotImplementedByEngine{Engine: e.name, Op: "Join"}
		}
		if err := e.validate(n.LHS()); err != nil {
			return err
		}
		return e.validate(n.RHS())
	case *relation.Marker:
		if n.Kind() == capability.Select {
			return &relation.NotImplementedByEngine{Engine: e.name, Op: "Select"}
		}
		if n.Kind() == capability.Transfer {
			return &relation.NotImplementedByEngine{Engine: e.name, Op: "Transfer"}
		}
		return e.validate(n.Target())
	default:
		return fmt.Errorf("iterengine: unrecognized relation kind %T", r)
	}
}

// customOp is the extra contract a relation.CustomUnaryOp must satisfy
// to run on the iteration engine, beyond the column/uniqueness
// metadata relation.CustomUnaryOp already carries.
type customOp interface {
	relation.CustomUnaryOp
	Apply(ctx context.Context, src RowIterable) (RowIterable, error)
}

func (e *Engine) ApplyCustomUnary(ctx context.Context, op relation.CustomUnaryOp, target relation.Relation) (relation.Relation, error) {
	if _, ok := op.(customOp); !ok {
		return nil, &relation.NotImplementedByEngine{Engine: e.name, Op: op.Name()}
	}
	return relation.ApplyCustomUnary(target, op)
}

// ImportPayload adapts a payload produced by another engine into a
// RowIterable (spec §4.5's import-payload contract, exercised by
// scenario S6: SQL rows crossing a Transfer into this engine). The
// source payload must already implement RowIterable — sqlengine's
// Executable result satisfies this by scanning query rows directly
// into iterengine.Row values, so no reshaping happens here beyond
// re-materializing it as a fresh SequencePayload this engine owns.
func (e *Engine) ImportPayload(ctx context.Context, source capability.Engine, payload relation.Payload) (relation.Payload, error) {
	src, ok := payload.(RowIterable)
	if !ok {
		return nil, &relation.ExecutionError{
			Engine: e.name,
			Cause:  fmt.Errorf("payload from engine %q is not a RowIterable", source.Name()),
		}
	}
	rows, err := collect(ctx, src)
	if err != nil {
		return nil, &relation.ExecutionError{Engine: e.name, Cause: err}
	}
	e.log.WithField("source", source.Name()).WithField("rows", len(rows)).Debug("iterengine: imported payload")
	return NewSequencePayload(rows), nil
}

// Execute drives a conformed, single-engine subtree to a RowIterable
// payload (spec §4.4/§4.2), applying each operation with the laziness
// spec §4.4's table prescribes.
func (e *Engine) Execute(ctx context.Context, r relation.Relation) (relation.Payload, error) {
	switch n := r.(type) {
	case *relation.Leaf:
		payload, ok := relation.LoadPayload(n)
		if !ok {
			return nil, &relation.ExecutionError{Engine: e.name, Cause: fmt.Errorf("leaf %q has no attached payload", n.Name())}
		}
		return payload, nil

	case *relation.Unary:
		return e.executeUnary(ctx, n)

	case *relation.Binary:
		return e.executeBinary(ctx, n)

	case *relation.Marker:
		return e.executeMarker(ctx, n)

	default:
		return nil, fmt.Errorf("iterengine: unrecognized relation kind %T", r)
	}
}

func (e *Engine) executeUnary(ctx context.Context, n *relation.Unary) (RowIterable, error) {
	targetPayload, err := e.Execute(ctx, n.Target())
	if err != nil {
		return nil, err
	}
	src, ok := targetPayload.(RowIterable)
	if !ok {
		return nil, &relation.ExecutionError{Engine: e.name, Cause: fmt.Errorf("target payload is not a RowIterable")}
	}

	e.log.WithField("op", n.Op().String()).Debug("iterengine: applying unary op")

	switch n.Op() {
	case capability.Selection:
		return applySelection(src, n), nil
	case capability.Calculation:
		return applyCalculation(src, n), nil
	case capability.Projection:
		return applyProjection(src, n), nil
	case capability.Deduplication:
		rows, err := collect(ctx, src)
		if err != nil {
			return nil, err
		}
		return NewMappingPayload(rows)
	case capability.Sort:
		rows, err := collect(ctx, src)
		if err != nil {
			return nil, err
		}
		return applySort(rows, n), nil
	case capability.Slice:
		return e.applySlice(ctx, src, n)
	case capability.Custom:
		op, ok := n.Custom()
		if !ok {
			return nil, fmt.Errorf("iterengine: Custom unary op missing its operation")
		}
		cop, ok := op.(customOp)
		if !ok {
			return nil, &relation.NotImplementedByEngine{Engine: e.name, Op: op.Name()}
		}
		return cop.Apply(ctx, src)
	default:
		return nil, &relation.NotImplementedByEngine{Engine: e.name, Op: n.Op().String()}
	}
}

func (e *Engine) executeBinary(ctx context.Context, n *relation.Binary) (RowIterable, error) {
	if n.Op() == capability.Join {
		return nil, &relation.NotImplementedByEngine{Engine: e.name, Op: "Join"}
	}
	lhs, err := e.Execute(ctx, n.LHS())
	if err != nil {
		return nil, err
	}
	rhs, err := e.Execute(ctx, n.RHS())
	if err != nil {
		return nil, err
	}
	lIter, ok1 := lhs.(RowIterable)
	rIter, ok2 := rhs.(RowIterable)
	if !ok1 || !ok2 {
		return nil, &relation.ExecutionError{Engine: e.name, Cause: fmt.Errorf("Chain operand payload is not a RowIterable")}
	}
	return chainPayload{lIter, rIter}, nil
}

func (e *Engine) executeMarker(ctx context.Context, n *relation.Marker) (relation.Payload, error) {
	switch n.Kind() {
	case capability.Materialization:
		if payload, ok := relation.LoadPayload(n); ok {
			e.log.Debug("iterengine: materialization cache hit")
			return payload, nil
		}
		targetPayload, err := e.Execute(ctx, n.Target())
		if err != nil {
			return nil, err
		}
		src, ok := targetPayload.(RowIterable)
		if !ok {
			return nil, &relation.ExecutionError{Engine: e.name, Cause: fmt.Errorf("materialization target is not a RowIterable")}
		}
		materialized, err := e.materialize(ctx, src)
		if err != nil {
			return nil, err
		}
		attached, err := relation.AttachPayload(n, materialized)
		if err != nil {
			return nil, err
		}
		e.log.Debug("iterengine: materialization computed and cached")
		return attached, nil

	case capability.Transfer:
		return nil, fmt.Errorf("iterengine: Transfer must be resolved by the processor, not Engine.Execute")

	default:
		return nil, &relation.NotImplementedByEngine{Engine: e.name, Op: n.Kind().String()}
	}
}

// materialize upgrades a lazy iterable to a re-iterable one (spec
// §4.4's "upgrade lazy iterable to sequence if not already
// sequence/mapping"), spilling to disk past the configured threshold
// (SPEC_FULL §4.4 supplement).
func (e *Engine) materialize(ctx context.Context, src RowIterable) (RowIterable, error) {
	if _, ok := src.(Len); ok {
		return src, nil
	}
	rows, err := collect(ctx, src)
	if err != nil {
		return nil, err
	}
	if e.cfg.SpillThreshold > 0 && len(rows) > e.cfg.SpillThreshold {
		return NewSpillPayload(e.cfg.SpillDir, e.cfg.Codec, rows)
	}
	return NewSequencePayload(rows), nil
}

func (e *Engine) applySlice(ctx context.Context, src RowIterable, n *relation.Unary) (RowIterable, error) {
	bounds, _ := n.SliceBounds()
	if seq, ok := src.(*SequencePayload); ok {
		stop := int(bounds.Stop)
		if bounds.Stop >= int64(seq.Len()) {
			stop = seq.Len()
		}
		return seq.Slice(int(bounds.Start), stop), nil
	}
	rows, err := collectSlice(ctx, src, bounds.Start, bounds.Stop)
	if err != nil {
		return nil, err
	}
	return NewSequencePayload(rows), nil
}

func collectSlice(ctx context.Context, src RowIterable, start, stop int64) ([]Row, error) {
	var out []Row
	var i int64
	err := src.Rows(ctx, func(r Row) error {
		if i >= stop {
			return errStopIteration
		}
		if i >= start {
			out = append(out, r)
		}
		i++
		return nil
	})
	if err == errStopIteration {
		err = nil
	}
	return out, err
}

var errStopIteration = fmt.Errorf("iterengine: slice bound reached")

func applySelection(src RowIterable, n *relation.Unary) RowIterable {
	params, _ := n.Selection()
	return filterPayload{src: src, pred: params.Predicate}
}

func applyCalculation(src RowIterable, n *relation.Unary) RowIterable {
	params, _ := n.Calculation()
	return calcPayload{src: src, tag: params.Tag, expr: params.Expr}
}

func applyProjection(src RowIterable, n *relation.Unary) RowIterable {
	params, _ := n.Projection()
	return projectPayload{src: src, keep: params.Keep}
}

func applySort(rows []Row, n *relation.Unary) RowIterable {
	params, _ := n.Sort()
	sorted := append([]Row{}, rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		for _, k := range params.Keys {
			vi := evalScalar(k.Expr, sorted[i])
			vj := evalScalar(k.Expr, sorted[j])
			if less(vi, vj) {
				return k.Ascending
			}
			if less(vj, vi) {
				return !k.Ascending
			}
		}
		return false
	})
	return NewSequencePayload(sorted)
}
