//go:build linux

package screen

import (
	"fmt"
	"image"

	apperrors "github.com/x-itg/ocr/internal/errors"
)

// Region-capable tools first; gnome-screenshot grabs the whole screen.
var tools = []tool{
	{
		name: "grim",
		args: func(r image.Rectangle, out string) []string {
			return []string{"-g", fmt.Sprintf("%d,%d %dx%d", r.Min.X, r.Min.Y, r.Dx(), r.Dy()), out}
		},
	},
	{
		name: "maim",
		args: func(r image.Rectangle, out string) []string {
			return []string{"-g", fmt.Sprintf("%dx%d+%d+%d", r.Dx(), r.Dy(), r.Min.X, r.Min.Y), out}
		},
	},
	{
		name: "scrot",
		args: func(r image.Rectangle, out string) []string {
			return []string{"-o", "-a", fmt.Sprintf("%d,%d,%d,%d", r.Min.X, r.Min.Y, r.Dx(), r.Dy()), out}
		},
	},
	{
		name: "import",
		args: func(r image.Rectangle, out string) []string {
			return []string{"-window", "root", "-crop", fmt.Sprintf("%dx%d+%d+%d", r.Dx(), r.Dy(), r.Min.X, r.Min.Y), out}
		},
	},
	{
		name:       "gnome-screenshot",
		args:       func(_ image.Rectangle, out string) []string { return []string{"-f", out} },
		fullScreen: true,
	},
}

// New creates a platform-specific region capturer
func New() (Capturer, error) {
	t, ok := findTool(tools)
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeCaptureUnsupported,
			"no screenshot tool found (install one of %s)", toolNames(tools))
	}
	return newExecCapturer(t), nil
}
