// Package journal appends readings to a CSV file in batches while monitoring
// runs, so a crash loses at most one batch.
package journal

import "time"

// Journal defaults
const (
	DefaultMaxBatch   = 50
	DefaultFlushDelay = 2 * time.Second
)
