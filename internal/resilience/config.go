package resilience

import "time"

const (
	DefaultThreshold         = 5
	DefaultResetTimeout      = 30 * time.Second
	DefaultHalfOpenSuccesses = 3

	// Per-channel capture: a region that keeps failing (window moved, display
	// asleep) is skipped for a while instead of costing a tool run every pass.
	CaptureThreshold         = 3
	CaptureResetTimeout      = 15 * time.Second
	CaptureHalfOpenSuccesses = 1

	// Remote OCR service.
	RemoteThreshold         = 5
	RemoteResetTimeout      = 10 * time.Second
	RemoteHalfOpenSuccesses = 2
)

// Config holds circuit breaker settings.
type Config struct {
	Threshold         int           // failures before opening
	ResetTimeout      time.Duration // wait before half-open attempt
	HalfOpenSuccesses int           // successes needed to close
}

// CaptureConfig is used for each channel's capture breaker.
func CaptureConfig() Config {
	return Config{
		Threshold:         CaptureThreshold,
		ResetTimeout:      CaptureResetTimeout,
		HalfOpenSuccesses: CaptureHalfOpenSuccesses,
	}
}

// RemoteConfig is used in front of the remote OCR service.
func RemoteConfig() Config {
	return Config{
		Threshold:         RemoteThreshold,
		ResetTimeout:      RemoteResetTimeout,
		HalfOpenSuccesses: RemoteHalfOpenSuccesses,
	}
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = DefaultResetTimeout
	}
	if c.HalfOpenSuccesses <= 0 {
		c.HalfOpenSuccesses = DefaultHalfOpenSuccesses
	}
	return c
}
