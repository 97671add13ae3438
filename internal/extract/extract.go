// Package extract pulls a single numeric reading out of noisy OCR text.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultMin = 0.0
	DefaultMax = 100000.0
)

// defaultPatterns are tried in order, most specific first. Each must have
// exactly one capture group holding the number.
var defaultPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)计数率[：:]\s*(\d+\.?\d*)\s*cps`),
	regexp.MustCompile(`(?i)(\d+\.?\d*)\s*cps`),
	regexp.MustCompile(`(?i)计数率[：:]\s*(\d+\.?\d*)`),
	regexp.MustCompile(`(?i)Rate[：:]\s*(\d+\.?\d*)`),
	regexp.MustCompile(`(?i)数值[：:]\s*(\d+\.?\d*)`),
	regexp.MustCompile(`(\d{1,6}\.?\d{0,2})`),
	regexp.MustCompile(`\b(\d+\.?\d*)\b`),
}

// Extractor applies an ordered pattern cascade and a plausibility range.
type Extractor struct {
	patterns []*regexp.Regexp
	min, max float64
}

type Option func(*Extractor)

// WithRange overrides the accepted value range (inclusive).
func WithRange(min, max float64) Option {
	return func(e *Extractor) { e.min, e.max = min, max }
}

// WithPatterns replaces the cascade.
func WithPatterns(patterns ...*regexp.Regexp) Option {
	return func(e *Extractor) { e.patterns = patterns }
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{patterns: defaultPatterns, min: DefaultMin, max: DefaultMax}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the first in-range value found by the cascade. A pattern
// whose first match does not parse or is out of range falls through to the next.
func (e *Extractor) Extract(raw string) (float64, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return 0, false
	}
	for _, re := range e.patterns {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if v >= e.min && v <= e.max {
			return v, true
		}
	}
	return 0, false
}

var std = NewExtractor()

// Extract runs the default extractor.
func Extract(raw string) (float64, bool) {
	return std.Extract(raw)
}
