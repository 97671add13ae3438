// Package screen runs the background capture loop that turns screen regions
// into readings.
package screen

import "time"

const (
	// DefaultFailureBackoff is added to the sleep after a pass in which any
	// capture failed.
	DefaultFailureBackoff = time.Second

	// Number of passes kept for latency stats.
	latencyWindow = 64
)
