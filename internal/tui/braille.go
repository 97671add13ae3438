package tui

import (
	"math"
	"strings"

	styles "github.com/charmbracelet/lipgloss"

	"github.com/x-itg/ocr/internal/orchestrator/chart"
)

// Each terminal cell holds a 2x4 braille dot matrix.
const (
	dotsX = 2
	dotsY = 4
)

// braille bit for dot (x, y) within a cell.
var brailleBits = [dotsY][dotsX]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// grid is a braille raster covering a viewport. Dots are addressed in data
// space through the viewport projection, so what is drawn lines up with
// mouse picks made through the same viewport.
type grid struct {
	w, h   int // cells
	view   chart.Viewport
	dots   []rune
	colors []string
	marks  []bool
}

func newGrid(w, h int, view chart.Viewport) *grid {
	w, h = max(1, w), max(1, h)
	return &grid{
		w:      w,
		h:      h,
		view:   view,
		dots:   make([]rune, w*h),
		colors: make([]string, w*h),
		marks:  make([]bool, w*h),
	}
}

func (g *grid) dotSize() (int, int) { return g.w * dotsX, g.h * dotsY }

// project returns dot coordinates for p; ok is false for NaN results.
func (g *grid) project(p chart.Point) (float64, float64, bool) {
	dw, dh := g.dotSize()
	x, y := g.view.Project(p, dw, dh)
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, 0, false
	}
	return x, y, true
}

func (g *grid) setDot(x, y int, color string) {
	dw, dh := g.dotSize()
	if x < 0 || y < 0 || x >= dw || y >= dh {
		return
	}
	i := (y/dotsY)*g.w + x/dotsX
	g.dots[i] |= brailleBits[y%dotsY][x%dotsX]
	g.colors[i] = color
}

// line draws between two data points, clipped to the canvas.
func (g *grid) line(a, b chart.Point, color string) {
	x0, y0, ok0 := g.project(a)
	x1, y1, ok1 := g.project(b)
	if !ok0 || !ok1 {
		return
	}
	dw, dh := g.dotSize()
	if math.Max(x0, x1) < 0 || math.Min(x0, x1) >= float64(dw) ||
		math.Max(y0, y1) < 0 || math.Min(y0, y1) >= float64(dh) {
		return
	}
	steps := int(math.Ceil(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))))
	// A segment far outside the viewport would otherwise cost millions of steps.
	steps = min(steps, 4*(dw+dh))
	if steps == 0 {
		g.setDot(int(math.Round(x0)), int(math.Round(y0)), color)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		g.setDot(int(math.Round(x0+(x1-x0)*t)), int(math.Round(y0+(y1-y0)*t)), color)
	}
}

// mark highlights the cell holding p.
func (g *grid) mark(p chart.Point) {
	x, y, ok := g.project(p)
	if !ok {
		return
	}
	cx, cy := int(math.Round(x))/dotsX, int(math.Round(y))/dotsY
	if x < 0 || y < 0 || cx >= g.w || cy >= g.h {
		return
	}
	g.marks[cy*g.w+cx] = true
}

func (g *grid) String() string {
	var sb strings.Builder
	for row := 0; row < g.h; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		for col := 0; col < g.w; col++ {
			i := row*g.w + col
			switch {
			case g.marks[i]:
				sb.WriteString(markStyle.Render("◆"))
			case g.dots[i] == 0:
				sb.WriteByte(' ')
			default:
				sb.WriteString(styles.NewStyle().Foreground(styles.Color(g.colors[i])).Render(string(0x2800 + g.dots[i])))
			}
		}
	}
	return sb.String()
}
