//go:build windows

package screen

import (
	apperrors "github.com/x-itg/ocr/internal/errors"
)

// New creates a platform-specific region capturer
func New() (Capturer, error) {
	// TODO: capture through GDI BitBlt once a Windows build is needed.
	return nil, apperrors.New(apperrors.CodeCaptureUnsupported, "screen capture is not implemented on windows")
}
