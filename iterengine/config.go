package iterengine

import "github.com/kolibri-data/relation/column"

// Config parameterizes the iteration engine's Materialization
// strategy (SPEC_FULL §4.4, supplement).
type Config struct {
	// SpillThreshold is the row count above which Materialization
	// writes to a SpillPayload instead of a SequencePayload. Zero
	// disables spilling (always materialize in memory).
	SpillThreshold int

	// SpillDir is the directory SpillPayload creates its temporary
	// bbolt file in. Empty means the OS default temp directory.
	SpillDir string

	// Codec encodes/decodes column.Tag values for SpillPayload. Only
	// required when SpillThreshold > 0.
	Codec column.Codec
}
