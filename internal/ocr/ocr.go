// Package ocr turns captured region images into text.
package ocr

import (
	"context"
	"strings"
)

// Recognizer returns the text found in an encoded image. Output is best effort
// and may be empty.
type Recognizer interface {
	Recognize(ctx context.Context, img []byte, langs []string) (string, error)
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context, img []byte, langs []string) (string, error)

func (f RecognizerFunc) Recognize(ctx context.Context, img []byte, langs []string) (string, error) {
	return f(ctx, img, langs)
}

// LanguageSpec joins languages the way tesseract expects them, e.g. "chi_sim+eng".
func LanguageSpec(langs []string) string {
	return strings.Join(langs, "+")
}

// ParseLanguageSpec splits "chi_sim+eng" or "chi_sim,eng".
func ParseLanguageSpec(spec string) []string {
	fields := strings.FieldsFunc(spec, func(r rune) bool { return r == '+' || r == ',' })
	out := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
