package tui

import (
	"math"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/x-itg/ocr/internal/orchestrator/chart"
	"github.com/x-itg/ocr/internal/orchestrator/series"
)

// testArea is 11x5 cells (22x20 dots) at (10,1). With testView one dot is one
// data unit, so cell (10+c, 1+r) maps to (2c+0.5, 17.5-4r).
var (
	testArea = area{x: 10, y: 1, w: 11, h: 5}
	testView = chart.Viewport{X: chart.Range{Min: 0, Max: 21}, Y: chart.Range{Min: 0, Max: 19}}
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestStore(t *testing.T, points ...chart.Point) *series.Store {
	t.Helper()
	store := series.NewStore(series.NewQueue(16), 100)
	rect, err := series.NewRect(0, 0, 100, 40)
	if err != nil {
		t.Fatal(err)
	}
	ch := store.AddChannel(rect)
	for _, p := range points {
		at := store.Epoch().Add(time.Duration(p.X * float64(time.Second)))
		store.Queue().TryPush(series.Reading{ChannelID: ch.ID, Time: at, Value: p.Y})
	}
	store.DrainAndApply()
	return store
}

func press(x, y int, b tea.MouseButton) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: b}
}

func TestAreaToData(t *testing.T) {
	tests := []struct {
		x, y  int
		wantX float64
		wantY float64
	}{
		{10, 1, 0.5, 17.5},
		{12, 2, 4.5, 13.5},
		{20, 5, 20.5, 1.5},
	}
	for _, tt := range tests {
		p := testArea.toData(tt.x, tt.y, testView)
		if math.Abs(p.X-tt.wantX) > 1e-9 || math.Abs(p.Y-tt.wantY) > 1e-9 {
			t.Errorf("toData(%d,%d) = %+v, want (%v,%v)", tt.x, tt.y, p, tt.wantX, tt.wantY)
		}
	}
	if testArea.contains(9, 1) || testArea.contains(21, 1) || !testArea.contains(20, 5) {
		t.Error("contains boundaries wrong")
	}
}

func TestDoubleClickSelects(t *testing.T) {
	store := newTestStore(t, chart.Point{X: 4.5, Y: 13.5})
	c := chart.NewController()
	c.SetViewport(testView)
	clock := &fakeClock{t: time.Unix(1000, 0)}
	m := &mouseAdapter{now: clock.now}

	m.handle(press(12, 2, tea.MouseButtonLeft), testArea, c, store)
	if !c.Dragging() {
		t.Fatal("single press should start a drag")
	}
	m.handle(tea.MouseMsg{X: 12, Y: 2, Action: tea.MouseActionRelease}, testArea, c, store)

	clock.t = clock.t.Add(150 * time.Millisecond)
	m.handle(press(12, 2, tea.MouseButtonLeft), testArea, c, store)
	if c.Dragging() {
		t.Error("double click should not drag")
	}
	if sel := c.Selected(store); len(sel) != 1 || sel[0].Index != 0 {
		t.Fatalf("selected = %+v, want the single sample", sel)
	}

	// A third press right after a double click starts over.
	clock.t = clock.t.Add(50 * time.Millisecond)
	if m.isDouble(12, 2) {
		t.Error("press after a completed double click reported double")
	}
}

func TestDoubleClickNeedsSameCellAndWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	m := &mouseAdapter{now: clock.now}

	m.isDouble(12, 2)
	clock.t = clock.t.Add(100 * time.Millisecond)
	if m.isDouble(13, 2) {
		t.Error("different cell reported double")
	}
	clock.t = clock.t.Add(doubleClickWindow + time.Millisecond)
	if m.isDouble(13, 2) {
		t.Error("press outside the window reported double")
	}
}

func TestDragUsesLiveViewport(t *testing.T) {
	store := newTestStore(t)
	c := chart.NewController()
	c.SetViewport(testView)
	m := newMouseAdapter()

	m.handle(press(10, 1, tea.MouseButtonLeft), testArea, c, store)
	motion := tea.MouseMsg{X: 12, Y: 1, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft}
	m.handle(motion, testArea, c, store)

	want := chart.Range{Min: -4, Max: 17}
	if got := c.Viewport().X; math.Abs(got.Min-want.Min) > 1e-9 || math.Abs(got.Max-want.Max) > 1e-9 {
		t.Fatalf("X after drag = %+v, want %+v", got, want)
	}

	// The anchor is already under the pointer, so repeating the motion is a no-op.
	m.handle(motion, testArea, c, store)
	if got := c.Viewport().X; math.Abs(got.Min-want.Min) > 1e-9 {
		t.Errorf("X after repeated motion = %+v, want %+v", got, want)
	}

	m.handle(tea.MouseMsg{X: 12, Y: 1, Action: tea.MouseActionRelease}, testArea, c, store)
	if c.Dragging() {
		t.Error("release did not end the drag")
	}
	if c.Following() {
		t.Error("panning should leave follow mode")
	}
}

func TestWheelAndRightClick(t *testing.T) {
	store := newTestStore(t, chart.Point{X: 4.5, Y: 13.5})
	c := chart.NewController()
	c.SetViewport(testView)
	m := newMouseAdapter()

	if !m.handle(press(15, 3, tea.MouseButtonWheelUp), testArea, c, store) {
		t.Fatal("wheel not handled")
	}
	if span := c.Viewport().X.Span(); math.Abs(span-21/chart.ScrollFactor) > 1e-9 {
		t.Errorf("span after wheel up = %v", span)
	}
	m.handle(press(15, 3, tea.MouseButtonWheelDown), testArea, c, store)
	if span := c.Viewport().X.Span(); math.Abs(span-21) > 1e-9 {
		t.Errorf("span after wheel down = %v, want 21", span)
	}

	c.SetViewport(testView)
	c.Press(chart.PressEvent{Button: chart.ButtonPrimary, Pos: chart.Point{X: 4.5, Y: 13.5}, Double: true}, store)
	if len(c.Selected(store)) != 1 {
		t.Fatal("setup: nothing selected")
	}
	m.handle(press(15, 3, tea.MouseButtonRight), testArea, c, store)
	if len(c.Selected(store)) != 0 {
		t.Error("right click did not clear the selection")
	}
}

func TestMouseIgnoredOutsideChart(t *testing.T) {
	store := newTestStore(t)
	c := chart.NewController()
	c.SetViewport(testView)
	m := newMouseAdapter()

	if m.handle(press(2, 2, tea.MouseButtonLeft), testArea, c, store) {
		t.Error("press outside the chart was handled")
	}
	if m.handle(tea.MouseMsg{X: 12, Y: 2, Action: tea.MouseActionMotion}, testArea, c, store) {
		t.Error("motion without a drag was handled")
	}
	if c.Viewport() != testView {
		t.Errorf("viewport changed: %+v", c.Viewport())
	}
}
