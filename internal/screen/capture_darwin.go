//go:build darwin

package screen

import (
	"fmt"
	"image"

	apperrors "github.com/x-itg/ocr/internal/errors"
)

var tools = []tool{
	{
		name: "screencapture",
		// -x: no sound, -R: rectangle in points
		args: func(r image.Rectangle, out string) []string {
			return []string{"-x", "-t", "png", "-R", fmt.Sprintf("%d,%d,%d,%d", r.Min.X, r.Min.Y, r.Dx(), r.Dy()), out}
		},
	},
}

// New creates a platform-specific region capturer
func New() (Capturer, error) {
	t, ok := findTool(tools)
	if !ok {
		return nil, apperrors.New(apperrors.CodeCaptureUnsupported, "screencapture not found")
	}
	return newExecCapturer(t), nil
}
