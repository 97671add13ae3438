// Package grpcclient is a Recognizer backed by a remote OCR service.
package grpcclient

import "time"

const (
	DefaultKeepaliveTime    = 10 * time.Second
	DefaultKeepaliveTimeout = 3 * time.Second

	// Per-attempt deadline for one Recognize call.
	DefaultCallTimeout = 5 * time.Second

	// How long Ready waits for the connection.
	ReadyTimeout = 2 * time.Second
)
