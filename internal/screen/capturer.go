// Package screen captures rectangular screen regions as encoded images.
package screen

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg" // JPEG decoder
	"image/png"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	apperrors "github.com/x-itg/ocr/internal/errors"
)

// Capturer grabs one region of the screen. Implementations are called from a
// single goroutine at a time.
type Capturer interface {
	CaptureRegion(ctx context.Context, r image.Rectangle) ([]byte, error)
	Close()
}

// tool is an external screenshot command.
type tool struct {
	name string
	// args builds the command line that writes region r to out.
	args func(r image.Rectangle, out string) []string
	// fullScreen tools ignore r; the result is cropped afterwards.
	fullScreen bool
}

// execCapturer runs a screenshot tool into a temp file and reads it back.
type execCapturer struct {
	tool    tool
	tempDir string
}

func newExecCapturer(t tool) *execCapturer {
	tmpDir, err := os.MkdirTemp("", "screenocr-capture-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
	}
	return &execCapturer{tool: t, tempDir: tmpDir}
}

func (c *execCapturer) CaptureRegion(ctx context.Context, r image.Rectangle) ([]byte, error) {
	r = r.Canon()
	if r.Empty() {
		return nil, apperrors.Newf(apperrors.CodeInvalidArgument, "empty capture region %v", r)
	}

	f, err := os.CreateTemp(c.tempDir, "region-*.png")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCaptureFailed, "create temp file")
	}
	out := f.Name()
	_ = f.Close()
	defer os.Remove(out)

	cmd := exec.CommandContext(ctx, c.tool.name, c.tool.args(r, out)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeCaptureFailed, "%s failed", c.tool.name).
			WithMetadata("region", r.String()).
			WithMetadata("stderr", strings.TrimSpace(stderr.String()))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCaptureFailed, "read screenshot")
	}
	if len(data) == 0 {
		return nil, apperrors.Newf(apperrors.CodeCaptureFailed, "%s produced no image", c.tool.name)
	}
	if c.tool.fullScreen {
		return Crop(data, r)
	}
	return data, nil
}

func (c *execCapturer) Close() {
	if c.tempDir != "" && c.tempDir != os.TempDir() {
		os.RemoveAll(c.tempDir)
	}
}

// Crop cuts r out of an encoded screenshot and returns it as PNG.
func Crop(data []byte, r image.Rectangle) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCaptureFailed, "decode screenshot")
	}
	clip := r.Intersect(img.Bounds())
	if clip.Empty() {
		return nil, apperrors.Newf(apperrors.CodeCaptureFailed, "region %v is off-screen", r).
			WithMetadata("screen", img.Bounds().String())
	}
	sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	})
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeCaptureFailed, "cannot crop %T", img)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, sub.SubImage(clip)); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCaptureFailed, "encode region")
	}
	return buf.Bytes(), nil
}

// findTool returns the first tool whose binary is on PATH.
func findTool(candidates []tool) (tool, bool) {
	for _, t := range candidates {
		if _, err := exec.LookPath(t.name); err == nil {
			return t, true
		}
	}
	return tool{}, false
}

func toolNames(candidates []tool) string {
	names := make([]string, len(candidates))
	for i, t := range candidates {
		names[i] = t.name
	}
	return strings.Join(names, ", ")
}
