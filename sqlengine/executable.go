package sqlengine

// Executable is the emitted SQL description spec §6 requires: a single
// top-level SELECT or UNION (of SELECTs), plus its positional
// arguments. The core defines this opaquely to callers; sqlengine
// itself gives it a concrete shape consumable directly by
// jmoiron/sqlx.
type Executable struct {
	SQL  string
	Args []any
}
