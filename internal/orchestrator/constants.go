// Package orchestrator ties the capture loop, the series store and the chart
// controller into one monitoring session.
package orchestrator

import "time"

const (
	// TickInterval is how often front-ends should call Manager.Tick.
	TickInterval = 100 * time.Millisecond

	// Buffered session events; older events are dropped when nobody reads.
	EventBuffer = 32

	CSVPrefix = "ocr_data"
	PNGPrefix = "ocr_chart"
)
