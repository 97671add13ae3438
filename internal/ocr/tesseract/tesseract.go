// Package tesseract is the local OCR engine backed by gosseract.
package tesseract

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	apperrors "github.com/x-itg/ocr/internal/errors"
	"github.com/x-itg/ocr/internal/ocr"
)

// Options configures the local engine.
type Options struct {
	Languages   []string
	PageSegMode int    // tesseract PSM, 7 treats the region as a single line
	Whitelist   string // optional character whitelist
}

// Engine recognizes text with a single long-lived gosseract client.
// Calls are serialized; tesseract's API is not safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
	langs  []string
	closed bool
}

// New creates the engine. Language data is loaded lazily on first use.
func New(opts Options) (*Engine, error) {
	langs := opts.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}

	c := gosseract.NewClient()
	if err := c.SetLanguage(langs...); err != nil {
		_ = c.Close()
		return nil, apperrors.Wrap(err, apperrors.CodeOCRInitFailed, "set languages").
			WithMetadata("languages", ocr.LanguageSpec(langs))
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(opts.PageSegMode)); err != nil {
		_ = c.Close()
		return nil, apperrors.Wrap(err, apperrors.CodeOCRInitFailed, "set page segmentation mode")
	}
	if opts.Whitelist != "" {
		if err := c.SetWhitelist(opts.Whitelist); err != nil {
			_ = c.Close()
			return nil, apperrors.Wrap(err, apperrors.CodeOCRInitFailed, "set whitelist")
		}
	}
	// Keep tesseract's diagnostics off the terminal.
	if err := c.SetVariable(gosseract.DEBUG_FILE, os.DevNull); err != nil {
		slog.Debug("tesseract debug_file not set", "error", err)
	}

	return &Engine{client: c, langs: slices.Clone(langs)}, nil
}

// Recognize runs OCR on a PNG or JPEG image. A nil or empty langs keeps the
// configured languages.
func (t *Engine) Recognize(ctx context.Context, img []byte, langs []string) (string, error) {
	if len(img) == 0 {
		return "", apperrors.New(apperrors.CodeOCRInvalidImage, "empty image")
	}
	if err := ctx.Err(); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeCancelled, "recognize")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return "", apperrors.New(apperrors.CodeUnavailable, "tesseract closed")
	}
	if len(langs) > 0 && !slices.Equal(langs, t.langs) {
		if err := t.client.SetLanguage(langs...); err != nil {
			return "", apperrors.Wrap(err, apperrors.CodeOCRInitFailed, "set languages").
				WithMetadata("languages", ocr.LanguageSpec(langs))
		}
		t.langs = slices.Clone(langs)
	}
	if err := t.client.SetImageFromBytes(img); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeOCRInvalidImage, "set image")
	}
	text, err := t.client.Text()
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeOCRExtractFailed, "recognize text")
	}
	return strings.TrimSpace(text), nil
}

// Languages reports the languages currently loaded.
func (t *Engine) Languages() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.langs)
}

func (t *Engine) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.client.Close()
}

// AvailableLanguages lists installed tesseract language packs.
func AvailableLanguages() ([]string, error) {
	return gosseract.GetAvailableLanguages()
}

var _ ocr.Recognizer = (*Engine)(nil)
