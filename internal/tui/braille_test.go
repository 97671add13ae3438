package tui

import (
	"testing"

	"github.com/x-itg/ocr/internal/orchestrator/chart"
)

// 2x1 cells, 4x4 dots, one dot per data unit.
var smallView = chart.Viewport{X: chart.Range{Min: 0, Max: 3}, Y: chart.Range{Min: 0, Max: 3}}

func TestGridLine(t *testing.T) {
	tests := []struct {
		name string
		a, b chart.Point
		want string
	}{
		{"top row", chart.Point{X: 0, Y: 3}, chart.Point{X: 3, Y: 3}, "⠉⠉"},
		{"bottom row", chart.Point{X: 0, Y: 0}, chart.Point{X: 3, Y: 0}, "⣀⣀"},
		{"left column", chart.Point{X: 0, Y: 0}, chart.Point{X: 0, Y: 3}, "⡇ "},
		{"single dot", chart.Point{X: 3, Y: 3}, chart.Point{X: 3, Y: 3}, " ⠈"},
		{"outside", chart.Point{X: 10, Y: 10}, chart.Point{X: 20, Y: 10}, "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGrid(2, 1, smallView)
			g.line(tt.a, tt.b, "#ffffff")
			if got := g.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGridLongSegmentIsClipped(t *testing.T) {
	g := newGrid(2, 1, smallView)
	g.line(chart.Point{X: -1e9, Y: 0}, chart.Point{X: 1e9, Y: 3}, "#ffffff")
	if len([]rune(g.String())) != 2 {
		t.Errorf("String() = %q", g.String())
	}
}

func TestGridMark(t *testing.T) {
	g := newGrid(2, 2, smallView)
	g.mark(chart.Point{X: 3, Y: 0})
	g.mark(chart.Point{X: 50, Y: 0})
	if got, want := g.String(), "  \n ◆"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestGridDegenerateViewport(t *testing.T) {
	flat := chart.Viewport{X: chart.Range{Min: 1, Max: 1}, Y: chart.Range{Min: 0, Max: 1}}
	g := newGrid(0, 0, flat)
	g.line(chart.Point{X: 1, Y: 0}, chart.Point{X: 1, Y: 1}, "#ffffff")
	if got := g.String(); got != " " {
		t.Errorf("String() = %q, want a blank cell", got)
	}
}

func TestTail(t *testing.T) {
	got := tail([]float64{5, 6, 7}, 5)
	want := []float64{5, 5, 5, 6, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tail = %v, want %v", got, want)
		}
	}
	if got := tail([]float64{1, 2, 3, 4}, 2); got[0] != 3 || got[1] != 4 {
		t.Errorf("tail = %v", got)
	}
}
