// Package server exposes a local OCR engine as the Recognizer gRPC service so
// monitors on other machines can share one tesseract install.
package server

import "time"

const (
	// MaxImageBytes bounds a single region image.
	MaxImageBytes = 8 << 20

	// Clients may ping no more often than this.
	MinClientPingInterval = 5 * time.Second

	// Per-request recognition timeout.
	RecognizeTimeout = 10 * time.Second
)
