package chart

import (
	"sort"
	"time"

	"github.com/x-itg/ocr/internal/orchestrator/series"
)

const (
	ScrollFactor  = 1.1
	ZoomInFactor  = 0.8
	ZoomOutFactor = 1.2

	DefaultPickThreshold = 1.0
)

type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
	ButtonMiddle
)

type ScrollDirection int

const (
	ScrollUp ScrollDirection = iota
	ScrollDown
)

// Modifiers held during a press.
type Modifiers struct {
	Multi bool // toggle membership instead of replacing the selection
}

type PressEvent struct {
	Button Button
	Pos    Point
	Mods   Modifiers
	Double bool
}

// DataSource is what the controller reads. *series.Store satisfies it.
type DataSource interface {
	Channels() []*series.Channel
	X(t time.Time) float64
}

// selKey identifies a sample by its stable sequence number, so eviction and
// clearing invalidate it without bookkeeping.
type selKey struct {
	channel int
	seq     uint64
}

// Controller owns the viewport, the selection and the drag state.
// It is confined to the consumer goroutine.
type Controller struct {
	view          Viewport
	selected      map[selKey]struct{}
	dragging      bool
	anchor        Point
	snapshot      Viewport
	pickThreshold float64
	follow        bool
}

type Option func(*Controller)

// WithPickThreshold sets the maximum distance for nearest-point selection.
func WithPickThreshold(d float64) Option {
	return func(c *Controller) {
		if d > 0 {
			c.pickThreshold = d
		}
	}
}

func NewController(opts ...Option) *Controller {
	c := &Controller{
		view:          DefaultViewport,
		selected:      make(map[selKey]struct{}),
		pickThreshold: DefaultPickThreshold,
		follow:        true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Viewport() Viewport { return c.view }

// SetViewport replaces the viewport and leaves follow mode.
func (c *Controller) SetViewport(v Viewport) {
	c.view = v
	c.follow = false
}

// Following reports whether the viewport tracks the data automatically.
func (c *Controller) Following() bool { return c.follow }

func (c *Controller) Dragging() bool { return c.dragging }

// Press dispatches a button press.
func (c *Controller) Press(ev PressEvent, src DataSource) {
	switch ev.Button {
	case ButtonPrimary:
		if ev.Double {
			c.dragging = false
			c.pick(ev.Pos, ev.Mods, src)
			return
		}
		c.dragging = true
		c.anchor = ev.Pos
		c.snapshot = c.view
	case ButtonSecondary:
		c.ClearSelection()
	}
}

// Move pans during a drag. The anchor stays where it was pressed; callers
// must express pos in the live viewport so the anchored point tracks the pointer.
func (c *Controller) Move(pos Point) {
	if !c.dragging {
		return
	}
	delta := pos.Sub(c.anchor)
	if delta.X == 0 && delta.Y == 0 {
		return
	}
	c.view = c.view.Translate(Point{-delta.X, -delta.Y})
	c.follow = false
}

func (c *Controller) Release() {
	c.dragging = false
}

// CancelDrag ends a drag and restores the viewport from when it started.
func (c *Controller) CancelDrag() {
	if !c.dragging {
		return
	}
	c.dragging = false
	c.view = c.snapshot
}

// Scroll zooms about the viewport center; the pointer position is ignored.
func (c *Controller) Scroll(dir ScrollDirection, _ Point) {
	switch dir {
	case ScrollUp:
		c.zoom(1 / ScrollFactor)
	case ScrollDown:
		c.zoom(ScrollFactor)
	}
}

func (c *Controller) ZoomIn()  { c.zoom(ZoomInFactor) }
func (c *Controller) ZoomOut() { c.zoom(ZoomOutFactor) }

func (c *Controller) zoom(f float64) {
	c.view = c.view.Scale(f)
	c.follow = false
}

// Reset fits the viewport to all visible data and resumes following it.
func (c *Controller) Reset(src DataSource) {
	c.view = c.bounds(src)
	c.follow = true
}

// Follow refits the viewport if no manual pan or zoom happened since the last Reset.
func (c *Controller) Follow(src DataSource) bool {
	if !c.follow || c.dragging {
		return false
	}
	c.view = c.bounds(src)
	return true
}

func (c *Controller) bounds(src DataSource) Viewport {
	var xs, ys []float64
	for _, ch := range src.Channels() {
		if !ch.Visible {
			continue
		}
		for i, t := range ch.Times {
			xs = append(xs, src.X(t))
			ys = append(ys, ch.Values[i])
		}
	}
	return fit(xs, ys)
}

func (c *Controller) pick(pos Point, mods Modifiers, src DataSource) {
	best := c.pickThreshold * c.pickThreshold
	var found bool
	var hit selKey
	for _, ch := range src.Channels() {
		if !ch.Visible {
			continue
		}
		for i, t := range ch.Times {
			dx := src.X(t) - pos.X
			dy := ch.Values[i] - pos.Y
			if d := dx*dx + dy*dy; d < best {
				best = d
				hit = selKey{channel: ch.ID, seq: ch.Seq(i)}
				found = true
			}
		}
	}
	if !found {
		return
	}
	if mods.Multi {
		if _, ok := c.selected[hit]; ok {
			delete(c.selected, hit)
		} else {
			c.selected[hit] = struct{}{}
		}
		return
	}
	c.selected = map[selKey]struct{}{hit: {}}
}

// Selected resolves the selection to current indices, skipping entries whose
// sample no longer exists. Results are ordered by channel then index.
func (c *Controller) Selected(src DataSource) []series.SelectionPoint {
	byID := channelsByID(src)
	out := make([]series.SelectionPoint, 0, len(c.selected))
	for k := range c.selected {
		ch := byID[k.channel]
		if ch == nil {
			continue
		}
		if i, ok := ch.Index(k.seq); ok {
			out = append(out, series.SelectionPoint{ChannelID: k.channel, Index: i})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ChannelID != out[j].ChannelID {
			return out[i].ChannelID < out[j].ChannelID
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// IsSelected reports whether index i of channel id is selected.
func (c *Controller) IsSelected(ch *series.Channel, i int) bool {
	_, ok := c.selected[selKey{channel: ch.ID, seq: ch.Seq(i)}]
	return ok
}

// Prune permanently drops selections that no longer reference a sample.
func (c *Controller) Prune(src DataSource) int {
	byID := channelsByID(src)
	var n int
	for k := range c.selected {
		ch := byID[k.channel]
		if ch != nil {
			if _, ok := ch.Index(k.seq); ok {
				continue
			}
		}
		delete(c.selected, k)
		n++
	}
	return n
}

// DropChannel removes every selection on channel id.
func (c *Controller) DropChannel(id int) {
	for k := range c.selected {
		if k.channel == id {
			delete(c.selected, k)
		}
	}
}

func (c *Controller) ClearSelection() {
	clear(c.selected)
}

func channelsByID(src DataSource) map[int]*series.Channel {
	chs := src.Channels()
	m := make(map[int]*series.Channel, len(chs))
	for _, ch := range chs {
		m[ch.ID] = ch
	}
	return m
}
