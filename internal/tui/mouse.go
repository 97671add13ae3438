package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/x-itg/ocr/internal/orchestrator/chart"
)

// Two left presses in the same cell within this window make a double click.
const doubleClickWindow = 400 * time.Millisecond

// area is the chart's inner rectangle in terminal cells.
type area struct {
	x, y, w, h int
}

func (a area) contains(x, y int) bool {
	return x >= a.x && x < a.x+a.w && y >= a.y && y < a.y+a.h
}

// toData maps a terminal cell through v, aiming at the middle of the cell's
// braille matrix.
func (a area) toData(x, y int, v chart.Viewport) chart.Point {
	col := float64(x-a.x)*dotsX + 0.5
	row := float64(y-a.y)*dotsY + 1.5
	return v.Unproject(col, row, a.w*dotsX, a.h*dotsY)
}

// mouseAdapter turns terminal mouse events into controller calls.
type mouseAdapter struct {
	lastPress    time.Time
	lastX, lastY int
	now          func() time.Time
}

func newMouseAdapter() *mouseAdapter {
	return &mouseAdapter{now: time.Now}
}

// handle reports whether the controller state may have changed.
func (m *mouseAdapter) handle(msg tea.MouseMsg, a area, c *chart.Controller, src chart.DataSource) bool {
	switch msg.Action {
	case tea.MouseActionMotion:
		if !c.Dragging() {
			return false
		}
		// The live viewport, not the one at press time, keeps the anchor
		// under the pointer.
		c.Move(a.toData(msg.X, msg.Y, c.Viewport()))
		return true

	case tea.MouseActionRelease:
		if !c.Dragging() {
			return false
		}
		c.Release()
		return true

	case tea.MouseActionPress:
		if !a.contains(msg.X, msg.Y) {
			return false
		}
		pos := a.toData(msg.X, msg.Y, c.Viewport())
		switch msg.Button {
		case tea.MouseButtonLeft:
			c.Press(chart.PressEvent{
				Button: chart.ButtonPrimary,
				Pos:    pos,
				Mods:   chart.Modifiers{Multi: msg.Ctrl || msg.Shift},
				Double: m.isDouble(msg.X, msg.Y),
			}, src)
			return true
		case tea.MouseButtonRight:
			c.Press(chart.PressEvent{Button: chart.ButtonSecondary, Pos: pos}, src)
			return true
		case tea.MouseButtonWheelUp:
			c.Scroll(chart.ScrollUp, pos)
			return true
		case tea.MouseButtonWheelDown:
			c.Scroll(chart.ScrollDown, pos)
			return true
		}
	}
	return false
}

// isDouble records a left press and reports whether it completes a double
// click. A completed double click does not start another one.
func (m *mouseAdapter) isDouble(x, y int) bool {
	now := m.now()
	double := !m.lastPress.IsZero() &&
		now.Sub(m.lastPress) <= doubleClickWindow &&
		x == m.lastX && y == m.lastY
	if double {
		m.lastPress = time.Time{}
		return true
	}
	m.lastPress, m.lastX, m.lastY = now, x, y
	return false
}
