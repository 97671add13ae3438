// Package config handles monitor configuration
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/x-itg/ocr/internal/errors"
)

const (
	MinInterval  = 0.5  // seconds
	MaxInterval  = 10.0 // seconds
	IntervalStep = 0.5
)

// Region is a screen rectangle as given on the command line or in REGIONS.
type Region struct {
	X1, Y1, X2, Y2 int
}

type Config struct {
	CaptureInterval  float64 // seconds
	CaptureBackoff   float64 // seconds, added after a pass with capture failures
	MaxPoints        int
	QueueCapacity    int
	OCRBackend       string // "tesseract" or "remote"
	OCRAddr          string
	OCRListenAddr    string
	OCRLanguages     []string
	OCRPageSegMode   int
	OCRCacheDistance int // perceptual hash distance for reusing text, -1 disables
	PickThreshold    float64
	Regions          []Region
	LogLevel         string
	LogFile          string
	ExportDir        string
	RecordFile       string // append every reading here as it arrives
}

func Load() *Config {
	return &Config{
		CaptureInterval:  getEnvFloat("CAPTURE_INTERVAL", 2.0),
		CaptureBackoff:   getEnvFloat("CAPTURE_BACKOFF", 1.0),
		MaxPoints:        getEnvInt("MAX_POINTS", 1000),
		QueueCapacity:    getEnvInt("QUEUE_CAPACITY", 1024),
		OCRBackend:       getEnv("OCR_BACKEND", "tesseract"),
		OCRAddr:          getEnv("OCR_ADDR", "localhost:50051"),
		OCRListenAddr:    getEnv("OCR_LISTEN_ADDR", ":50051"),
		OCRLanguages:     getEnvList("OCR_LANGUAGES", []string{"chi_sim", "eng"}),
		OCRPageSegMode:   getEnvInt("OCR_PSM", 7),
		OCRCacheDistance: getEnvInt("OCR_CACHE_DISTANCE", 0),
		PickThreshold:    getEnvFloat("PICK_THRESHOLD", 1.0),
		Regions:          getEnvRegions("REGIONS"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFile:          getEnv("LOG_FILE", ""),
		ExportDir:        getEnv("EXPORT_DIR", "."),
		RecordFile:       getEnv("RECORD_FILE", ""),
	}
}

// Interval returns the capture interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.CaptureInterval * float64(time.Second))
}

// Backoff returns the failure backoff as a duration.
func (c *Config) Backoff() time.Duration {
	return time.Duration(c.CaptureBackoff * float64(time.Second))
}

// NormalizeInterval rounds seconds to the nearest IntervalStep, rejecting
// values outside [MinInterval, MaxInterval].
func NormalizeInterval(seconds float64) (float64, error) {
	if seconds < MinInterval || seconds > MaxInterval {
		return 0, apperrors.Newf(apperrors.CodeConfigInvalid,
			"capture interval %.2fs outside [%.1f, %.1f]", seconds, MinInterval, MaxInterval)
	}
	return float64(int(seconds/IntervalStep+0.5)) * IntervalStep, nil
}

// Validate checks bounds and normalizes the capture interval to the nearest step.
func (c *Config) Validate() error {
	interval, err := NormalizeInterval(c.CaptureInterval)
	if err != nil {
		return err
	}
	c.CaptureInterval = interval

	if c.CaptureBackoff < 0 {
		return apperrors.New(apperrors.CodeConfigInvalid, "capture backoff must not be negative")
	}
	if c.MaxPoints <= 0 {
		return apperrors.Newf(apperrors.CodeConfigInvalid, "max points must be positive, got %d", c.MaxPoints)
	}
	if c.QueueCapacity <= 0 {
		return apperrors.Newf(apperrors.CodeConfigInvalid, "queue capacity must be positive, got %d", c.QueueCapacity)
	}
	switch c.OCRBackend {
	case "tesseract", "remote":
	default:
		return apperrors.Newf(apperrors.CodeConfigInvalid, "unknown OCR backend %q", c.OCRBackend).
			WithMetadata("allowed", "tesseract,remote")
	}
	if len(c.OCRLanguages) == 0 {
		return apperrors.New(apperrors.CodeConfigInvalid, "at least one OCR language is required")
	}
	if c.PickThreshold <= 0 {
		return apperrors.New(apperrors.CodeConfigInvalid, "pick threshold must be positive")
	}
	return nil
}

// ParseRegion parses "x1,y1,x2,y2".
func ParseRegion(s string) (Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Region{}, fmt.Errorf("region %q: want x1,y1,x2,y2", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Region{}, fmt.Errorf("region %q: %w", s, err)
		}
		v[i] = n
	}
	return Region{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == '+' })
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}

// getEnvRegions reads semicolon separated regions, skipping malformed entries.
func getEnvRegions(key string) []Region {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var regions []Region
	for _, part := range strings.Split(v, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if r, err := ParseRegion(part); err == nil {
			regions = append(regions, r)
		}
	}
	return regions
}
