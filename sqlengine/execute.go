package sqlengine

import (
	"context"

	"github.com/kolibri-data/relation/column"
	"github.com/kolibri-data/relation/iterengine"
	"github.com/kolibri-data/relation/relation"
)

// run executes stmt over e.db and scans the results into rows keyed by
// cols, the canonical relation's column set. Returned as a
// *iterengine.SequencePayload so a Transfer out of the SQL engine
// needs no further reshaping (spec §4.5).
func (e *Engine[L]) run(ctx context.Context, stmt Executable, cols column.Set) (relation.Payload, error) {
	sqlRows, err := e.db.QueryxContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, &relation.ExecutionError{Engine: e.name, Cause: err}
	}
	defer sqlRows.Close()

	byName := make(map[string]column.Tag, cols.Len())
	for _, t := range cols.Sorted() {
		byName[t.QualifiedName()] = t
	}

	var rows []iterengine.Row
	for sqlRows.Next() {
		got, err := sqlRows.SliceScan()
		if err != nil {
			return nil, &relation.ExecutionError{Engine: e.name, Cause: err}
		}
		driverCols, err := sqlRows.Columns()
		if err != nil {
			return nil, &relation.ExecutionError{Engine: e.name, Cause: err}
		}
		rowTags := make([]column.Tag, 0, len(driverCols))
		values := make([]any, 0, len(driverCols))
		for i, name := range driverCols {
			tag, ok := byName[name]
			if !ok {
				continue
			}
			rowTags = append(rowTags, tag)
			values = append(values, got[i])
		}
		rows = append(rows, iterengine.NewRow(rowTags, values))
	}
	if err := sqlRows.Err(); err != nil {
		return nil, &relation.ExecutionError{Engine: e.name, Cause: err}
	}

	e.log.WithField("rows", len(rows)).WithField("sql", stmt.SQL).Debug("sqlengine: query complete")
	return iterengine.NewSequencePayload(rows), nil
}
