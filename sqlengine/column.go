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

import "github.com/kolibri-data/relation/column"

// Column is the default logical-column representation (spec §4.3,
// SPEC_FULL §4.3): one underlying SQL column expression, rendered
// verbatim into emitted text.
type Column struct {
	Expr string
}

// LogicalColumnOps lets a host substitute the logical-column type L —
// a wrapper bearing multiple underlying columns, for instance — by
// overriding column construction, rendering, and equality (spec §9).
type LogicalColumnOps[L any] interface {
	ColumnFor(tag column.Tag) L
	Render(l L) string
	Equal(a, b L) bool
}

// DefaultColumnOps is the LogicalColumnOps[Column] a sqlengine.Engine
// uses unless a host supplies its own.
type DefaultColumnOps struct{}

func (DefaultColumnOps) ColumnFor(tag column.Tag) Column { return Column{Expr: tag.QualifiedName()} }
func (DefaultColumnOps) Render(c Column) string          { return c.Expr }
func (DefaultColumnOps) Equal(a, b Column) bool          { return a.Expr == b.Expr }
