//go:build !windows

package screen

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/x-itg/ocr/internal/errors"
)

// writeScreen writes a w×h PNG whose pixel (x, y) encodes x in red and y in green.
func writeScreen(t *testing.T, w, h int) (string, []byte) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "screen.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path, buf.Bytes()
}

// copyTool fakes a full-screen screenshot tool by copying a fixture.
func copyTool(src string) tool {
	return tool{
		name:       "cp",
		args:       func(_ image.Rectangle, out string) []string { return []string{src, out} },
		fullScreen: true,
	}
}

func TestCaptureRegionCrops(t *testing.T) {
	src, _ := writeScreen(t, 200, 100)
	c := newExecCapturer(copyTool(src))
	defer c.Close()

	data, err := c.CaptureRegion(context.Background(), image.Rect(20, 10, 60, 40))
	if err != nil {
		t.Fatalf("CaptureRegion: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	b := img.Bounds()
	if b.Dx() != 40 || b.Dy() != 30 {
		t.Fatalf("bounds = %v, want 40x30", b)
	}
	r, g, _, _ := img.At(b.Min.X, b.Min.Y).RGBA()
	if uint8(r>>8) != 20 || uint8(g>>8) != 10 {
		t.Errorf("top-left pixel = (%d,%d), want (20,10)", r>>8, g>>8)
	}
}

func TestCaptureRegionErrors(t *testing.T) {
	src, _ := writeScreen(t, 50, 50)

	tests := []struct {
		name string
		tool tool
		rect image.Rectangle
		code apperrors.Code
	}{
		{"empty region", copyTool(src), image.Rect(5, 5, 5, 20), apperrors.CodeInvalidArgument},
		{"off screen", copyTool(src), image.Rect(100, 100, 150, 150), apperrors.CodeCaptureFailed},
		{"tool fails", copyTool(filepath.Join(t.TempDir(), "missing.png")), image.Rect(0, 0, 20, 20), apperrors.CodeCaptureFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newExecCapturer(tt.tool)
			defer c.Close()
			_, err := c.CaptureRegion(context.Background(), tt.rect)
			if !apperrors.IsCode(err, tt.code) {
				t.Errorf("err = %v, want %v", err, tt.code)
			}
		})
	}
}

func TestCaptureRegionCancelled(t *testing.T) {
	src, _ := writeScreen(t, 50, 50)
	c := newExecCapturer(copyTool(src))
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.CaptureRegion(ctx, image.Rect(0, 0, 20, 20)); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestCloseRemovesTempDir(t *testing.T) {
	c := newExecCapturer(copyTool("unused"))
	dir := c.tempDir
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("temp dir missing: %v", err)
	}
	c.Close()
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("temp directory should be removed after Close")
	}
}

func TestCropClipsToScreen(t *testing.T) {
	_, data := writeScreen(t, 30, 30)
	out, err := Crop(data, image.Rect(20, 20, 60, 60))
	if err != nil {
		t.Fatal(err)
	}
	img, _ := png.Decode(bytes.NewReader(out))
	if b := img.Bounds(); b.Dx() != 10 || b.Dy() != 10 {
		t.Errorf("bounds = %v, want 10x10", b)
	}

	if _, err := Crop([]byte("not an image"), image.Rect(0, 0, 5, 5)); err == nil {
		t.Error("expected decode error")
	}
}

func TestFindTool(t *testing.T) {
	candidates := []tool{{name: "definitely-not-a-real-binary"}, {name: "cp"}}
	got, ok := findTool(candidates)
	if !ok || got.name != "cp" {
		t.Errorf("findTool = %q, %v", got.name, ok)
	}
	if _, ok := findTool(candidates[:1]); ok {
		t.Error("missing binary should not be found")
	}
	if toolNames(candidates) != "definitely-not-a-real-binary, cp" {
		t.Errorf("toolNames = %q", toolNames(candidates))
	}
}
