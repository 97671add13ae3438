// Package series holds per-channel time series and the handoff queue that
// feeds them from the capture goroutine.
package series

import (
	"errors"
	"fmt"
	"image"
	"time"
)

// MinRegionSize is the exclusive lower bound on region width and height in pixels.
const MinRegionSize = 10

var (
	ErrRegionTooSmall = errors.New("region too small")
	ErrUnknownChannel = errors.New("unknown channel")
)

// Color is a "#rrggbb" string.
type Color string

var palette = []Color{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// PaletteColor returns a stable colour for a channel id.
func PaletteColor(id int) Color {
	if id < 0 {
		id = -id
	}
	return palette[id%len(palette)]
}

// Rect is a screen rectangle in pixels with X1<X2 and Y1<Y2.
type Rect struct {
	X1, Y1, X2, Y2 int
}

// NewRect normalizes corner order and enforces the minimum size.
func NewRect(x1, y1, x2, y2 int) (Rect, error) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	r := Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
	if r.Width() <= MinRegionSize || r.Height() <= MinRegionSize {
		return Rect{}, fmt.Errorf("%w: %dx%d, need more than %d px each way",
			ErrRegionTooSmall, r.Width(), r.Height(), MinRegionSize)
	}
	return r, nil
}

func (r Rect) Width() int  { return r.X2 - r.X1 }
func (r Rect) Height() int { return r.Y2 - r.Y1 }

// Image converts to an image.Rectangle for capture backends.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.X1, r.Y1, r.X2, r.Y2)
}

// Reading is one extracted value on its way from the capture goroutine.
type Reading struct {
	ChannelID int
	Time      time.Time
	Value     float64
}

// SelectionPoint addresses one sample by its current index.
type SelectionPoint struct {
	ChannelID int
	Index     int
}

// Channel is a monitored region and its accumulated samples.
// Times and Values always have the same length.
type Channel struct {
	ID             int
	Name           string
	Region         Rect
	Color          Color
	Visible        bool
	CaptureEnabled bool
	Times          []time.Time
	Values         []float64

	// evicted counts samples ever removed from the head, so evicted+i is a
	// stable sequence number for sample i.
	evicted   uint64
	clearedAt time.Time
}

func (c *Channel) Len() int { return len(c.Values) }

// Seq returns the stable sequence number of index i.
func (c *Channel) Seq(i int) uint64 { return c.evicted + uint64(i) }

// Index resolves a sequence number to a current index.
func (c *Channel) Index(seq uint64) (int, bool) {
	if seq < c.evicted {
		return 0, false
	}
	i := seq - c.evicted
	if i >= uint64(len(c.Values)) {
		return 0, false
	}
	return int(i), true
}

func (c *Channel) append(t time.Time, v float64) {
	c.Times = append(c.Times, t)
	c.Values = append(c.Values, v)
}

// trim drops the oldest samples beyond max and returns how many were dropped.
func (c *Channel) trim(max int) int {
	n := len(c.Values) - max
	if n <= 0 {
		return 0
	}
	c.Times = append(c.Times[:0:0], c.Times[n:]...)
	c.Values = append(c.Values[:0:0], c.Values[n:]...)
	c.evicted += uint64(n)
	return n
}

func (c *Channel) reset(at time.Time) {
	c.evicted += uint64(len(c.Values))
	c.Times = nil
	c.Values = nil
	c.clearedAt = at
}

// Stats summarizes a channel's samples.
type Stats struct {
	Count    int
	Latest   float64
	LatestAt time.Time
	Min      float64
	Max      float64
	Mean     float64
}

func (c *Channel) Stats() Stats {
	n := len(c.Values)
	if n == 0 {
		return Stats{}
	}
	st := Stats{
		Count:    n,
		Latest:   c.Values[n-1],
		LatestAt: c.Times[n-1],
		Min:      c.Values[0],
		Max:      c.Values[0],
	}
	var sum float64
	for _, v := range c.Values {
		sum += v
		if v < st.Min {
			st.Min = v
		}
		if v > st.Max {
			st.Max = v
		}
	}
	st.Mean = sum / float64(n)
	return st
}
