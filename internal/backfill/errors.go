package backfill

import "errors"

// Sentinel errors for backfill operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, backfill.ErrMalformedRow) {
//	    // Handle unparseable export row
//	}
var (
	// ErrMalformedRow indicates an export data row that cannot be
	// converted into samples. Malformed rows are skipped, not fatal.
	ErrMalformedRow = errors.New("backfill: malformed export row")

	// ErrNoWindow indicates the backfill time window is missing or
	// invalid.
	ErrNoWindow = errors.New("backfill: invalid time window")
)
