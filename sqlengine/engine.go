// Package sqlengine implements the SQL backend of spec §4.3:
// commutation-driven normalization of a relation tree into a canonical
// Select-marked form, and emission of that form into an Executable
// SQL statement run through sqlx against a lib/pq-fronted Postgres
// connection.
//
// Grounded on evaluate/query/select.go's Select.Plan assembly order
// (where → results → order → group) and evaluate/query/join.go's
// join-tree handling.
package sqlengine

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/kolibri-data/relation/capability"
	"github.com/kolibri-data/relation/logging"
	"github.com/kolibri-data/relation/relation"
	"github.com/sirupsen/logrus"
)

// Engine is the SQL backend of spec §4.3, generic over the logical
// column representation a host supplies (spec §9's Open Question,
// resolved by parameterizing rather than fixing Column).
type Engine[L any] struct {
	name string
	caps capability.Capabilities
	ops  LogicalColumnOps[L]
	db   *sqlx.DB
	log  *logrus.Entry
}

// NewDefaultEngine builds an Engine using DefaultColumnOps, the
// one-column-expression-per-tag representation most callers need.
func NewDefaultEngine(name string, db *sqlx.DB, log *logrus.Entry) *Engine[Column] {
	return New[Column](name, db, DefaultColumnOps{}, log)
}

// New builds an Engine parameterized over a host-supplied logical
// column type L.
func New[L any](name string, db *sqlx.DB, ops LogicalColumnOps[L], log *logrus.Entry) *Engine[L] {
	if log == nil {
		log = logging.Discard()
	}
	return &Engine[L]{name: name, db: db, ops: ops, log: log, caps: sqlCapabilities()}
}

func sqlCapabilities() capability.Capabilities {
	return sqlCaps{}
}

// sqlCaps declares support for every built-in operation (all but
// Custom) and every container kind, each of which has a rendering in
// emit.go, and any named function
// is passed through verbatim to Postgres, which will reject at
// execution time whatever it doesn't recognize (spec §7's
// ExecutionError wraps that failure rather than the engine
// pre-validating a function name allowlist it doesn't own).
type sqlCaps struct{}

func (sqlCaps) SupportsUnary(op capability.UnaryOpKind) bool   { return op != capability.Custom }
func (sqlCaps) SupportsBinary(capability.BinaryOpKind) bool    { return true }
func (sqlCaps) SupportsFunction(string) bool                   { return true }
func (sqlCaps) SupportsContainer(capability.ContainerKind) bool { return true }

func (e *Engine[L]) Name() string                         { return e.name }
func (e *Engine[L]) Capabilities() capability.Capabilities { return e.caps }

// Conform normalizes r to canonical Select-marked form (spec §4.3).
func (e *Engine[L]) Conform(ctx context.Context, r relation.Relation) (relation.Relation, error) {
	return conform(r)
}

// ApplyCustomUnary always fails: the SQL engine has no custom unary
// operation vocabulary (spec §4.3 defines none; Custom exists for
// engines like iterengine's caller-extensible RowFilter/Reordering).
func (e *Engine[L]) ApplyCustomUnary(ctx context.Context, op relation.CustomUnaryOp, target relation.Relation) (relation.Relation, error) {
	return nil, &relation.NotImplementedByEngine{Engine: e.name, Op: op.Name()}
}

// Execute conforms and emits r, runs the resulting statement, and
// returns the scanned rows as an iterengine-compatible payload so a
// Transfer into another engine can consume it without a further
// reshape (spec §4.5's import-payload contract).
//
// A root Materialization marker is cached the same way iterengine
// caches one (iterengine/engine.go's executeMarker): a hit returns the
// attached payload without re-running the query, and a miss runs the
// marker's target and attaches the result before returning it. conform
// preserves the marker's own identity across repeated Conform calls on
// the same tree (see conform.go), so the cache actually survives
// separate Process calls rather than resetting every time.
func (e *Engine[L]) Execute(ctx context.Context, r relation.Relation) (relation.Payload, error) {
	if m, ok := r.(*relation.Marker); ok && m.Kind() == capability.Materialization {
		if payload, ok := relation.LoadPayload(m); ok {
			e.log.Debug("sqlengine: materialization cache hit")
			return payload, nil
		}
		payload, err := e.execute(ctx, m.Target())
		if err != nil {
			return nil, err
		}
		attached, err := relation.AttachPayload(m, payload)
		if err != nil {
			return nil, err
		}
		e.log.Debug("sqlengine: materialization computed and cached")
		return attached, nil
	}
	return e.execute(ctx, r)
}

func (e *Engine[L]) execute(ctx context.Context, r relation.Relation) (relation.Payload, error) {
	canonical, err := conform(r)
	if err != nil {
		return nil, err
	}
	stmt, err := e.ToExecutable(canonical)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, stmt, canonical.Columns())
}

// ToExecutable emits a conformed relation to the SQL text and
// positional args a host runs directly (spec §6).
func (e *Engine[L]) ToExecutable(canonical relation.Relation) (Executable, error) {
	var args []any
	sql, err := e.toSQL(canonical, &args)
	if err != nil {
		return Executable{}, err
	}
	return Executable{SQL: sql, Args: args}, nil
}

// ImportPayload always fails: the SQL engine only consumes rows it
// selected itself and has no in-process row shape to import, so the
// processor's resolution of a Transfer into this engine returns this
// error.
func (e *Engine[L]) ImportPayload(ctx context.Context, source capability.Engine, payload relation.Payload) (relation.Payload, error) {
	return nil, fmt.Errorf("sqlengine: %s cannot import an in-process payload from %q; stage it as a table first", e.name, source.Name())
}
