// Package chart holds the toolkit-independent pan, zoom and selection state
// machine that sits between the series store and a renderer.
package chart

import "math"

// Range is a closed interval on one axis.
type Range struct {
	Min, Max float64
}

func (r Range) Span() float64   { return r.Max - r.Min }
func (r Range) Center() float64 { return (r.Min + r.Max) / 2 }

// Scale multiplies the span by f about the midpoint.
func (r Range) Scale(f float64) Range {
	c, half := r.Center(), r.Span()*f/2
	return Range{Min: c - half, Max: c + half}
}

func (r Range) Shift(d float64) Range {
	return Range{Min: r.Min + d, Max: r.Max + d}
}

func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// Viewport is the visible data-space rectangle.
type Viewport struct {
	X, Y Range
}

// DefaultViewport is used when there is nothing to fit.
var DefaultViewport = Viewport{X: Range{0, 1}, Y: Range{0, 1}}

// Point is a position in data space: seconds since the store epoch, value.
type Point struct {
	X, Y float64
}

func (p Point) Sub(o Point) Point { return Point{p.X - o.X, p.Y - o.Y} }

func (v Viewport) Scale(f float64) Viewport {
	return Viewport{X: v.X.Scale(f), Y: v.Y.Scale(f)}
}

func (v Viewport) Translate(d Point) Viewport {
	return Viewport{X: v.X.Shift(d.X), Y: v.Y.Shift(d.Y)}
}

// Unproject maps a cell on a w×h canvas (row 0 at the top) into data space.
func (v Viewport) Unproject(col, row float64, w, h int) Point {
	fx, fy := 0.5, 0.5
	if w > 1 {
		fx = col / float64(w-1)
	}
	if h > 1 {
		fy = row / float64(h-1)
	}
	return Point{
		X: v.X.Min + fx*v.X.Span(),
		Y: v.Y.Max - fy*v.Y.Span(),
	}
}

// Project maps a data point onto a w×h canvas. The result may fall outside
// the canvas when the point is outside the viewport.
func (v Viewport) Project(p Point, w, h int) (col, row float64) {
	col, row = math.NaN(), math.NaN()
	if sx := v.X.Span(); sx != 0 && w > 1 {
		col = (p.X - v.X.Min) / sx * float64(w-1)
	}
	if sy := v.Y.Span(); sy != 0 && h > 1 {
		row = (v.Y.Max - p.Y) / sy * float64(h-1)
	}
	return col, row
}

// fit returns the tight bounds of xs/ys, widening zero spans by ±0.5.
func fit(xs, ys []float64) Viewport {
	if len(xs) == 0 {
		return DefaultViewport
	}
	v := Viewport{
		X: Range{math.Inf(1), math.Inf(-1)},
		Y: Range{math.Inf(1), math.Inf(-1)},
	}
	for i := range xs {
		v.X.Min = math.Min(v.X.Min, xs[i])
		v.X.Max = math.Max(v.X.Max, xs[i])
		v.Y.Min = math.Min(v.Y.Min, ys[i])
		v.Y.Max = math.Max(v.Y.Max, ys[i])
	}
	v.X = widen(v.X)
	v.Y = widen(v.Y)
	return v
}

func widen(r Range) Range {
	if r.Span() == 0 {
		return Range{r.Min - 0.5, r.Max + 0.5}
	}
	return r
}
