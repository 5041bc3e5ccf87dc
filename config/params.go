package config

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/kolibri-data/relation/column"
	"github.com/kolibri-data/relation/iterengine"
	_ "github.com/lib/pq"
)

// Params holds the values that construct a processor's engines (spec
// §2's ambient stack: engine construction replaces the teacher's
// server-listener parameters). Each field is backed by a Param
// registered with the package-level config singleton, so it
// participates in Flags/Load/Update like any other.
type Params struct {
	SQLDSN         *string
	SQLMaxOpenConn *int
	SpillThreshold *int
	SpillDir       *string
}

// NewParams registers and returns the default set of engine-
// construction params. The SQL DSN is NoUpdate: changing which
// database a running processor talks to is a restart, not a tuning
// knob; pool size and spill behavior may still be adjusted live.
func NewParams() *Params {
	return &Params{
		SQLDSN:         StringParam(new(string), "sql.dsn", "", NoUpdate),
		SQLMaxOpenConn: IntParam(new(int), "sql.max-open-conns", 10, Default),
		SpillThreshold: IntParam(new(int), "iter.spill-threshold", 100000, Default),
		SpillDir:       StringParam(new(string), "iter.spill-dir", "", Default),
	}
}

// OpenSQL opens the *sqlx.DB the sqlengine.Engine backing this
// processor should use.
func (p *Params) OpenSQL() (*sqlx.DB, error) {
	if *p.SQLDSN == "" {
		return nil, fmt.Errorf("config: sql.dsn is not set")
	}
	db, err := sqlx.Open("postgres", *p.SQLDSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(*p.SQLMaxOpenConn)
	return db, nil
}

// IterationConfig builds the iterengine.Config this processor's
// iteration engine should use. codec may be nil when SpillThreshold is
// non-positive (spilling disabled).
func (p *Params) IterationConfig(codec column.Codec) iterengine.Config {
	return iterengine.Config{
		SpillThreshold: *p.SpillThreshold,
		SpillDir:       *p.SpillDir,
		Codec:          codec,
	}
}
