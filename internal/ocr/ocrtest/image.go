// Package ocrtest renders synthetic region images for tests.
package ocrtest

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RenderText draws black text on white with the 7x13 bitmap font, scaled by
// an integer factor, and returns it PNG encoded.
func RenderText(text string, scale int) []byte {
	if scale < 1 {
		scale = 1
	}
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil() + 16
	h := face.Metrics().Height.Ceil() + 16

	src := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(src, src.Bounds(), image.White, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  src,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(8, 8+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)

	dst := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return encode(dst)
}

// Pattern returns a 64x64 image: 0 solid gray, 1 checkerboard, 2 gradient.
func Pattern(kind int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			var c color.RGBA
			switch kind {
			case 1:
				if (x/8+y/8)%2 == 0 {
					c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
				} else {
					c = color.RGBA{A: 255}
				}
			case 2:
				c = color.RGBA{R: uint8(x * 4), B: uint8(255 - x*4), A: 255}
			default:
				c = color.RGBA{R: 128, G: 128, B: 128, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return encode(img)
}

// Touch returns a copy of a PNG image with one pixel flipped.
func Touch(data []byte, x, y int) []byte {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	r, g, b, _ := dst.At(x, y).RGBA()
	dst.Set(x, y, color.RGBA{R: 255 - uint8(r>>8), G: 255 - uint8(g>>8), B: 255 - uint8(b>>8), A: 255})
	return encode(dst)
}

func encode(img image.Image) []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
