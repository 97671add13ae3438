package series

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/x-itg/ocr/internal/syncx"
)

// Target is the capture goroutine's view of a channel.
type Target struct {
	ID      int
	Region  Rect
	Enabled bool
}

// Store owns every channel. It is confined to the consumer goroutine; only
// Targets may be called from elsewhere.
type Store struct {
	maxPoints int
	queue     *Queue
	channels  map[int]*Channel
	nextID    int
	parked    []Reading
	epoch     time.Time
	targets   *syncx.RWGuard[[]Target]
	now       func() time.Time
	sink      func(Reading)
}

func NewStore(queue *Queue, maxPoints int) *Store {
	if maxPoints < 1 {
		maxPoints = 1
	}
	return &Store{
		maxPoints: maxPoints,
		queue:     queue,
		channels:  make(map[int]*Channel),
		nextID:    1,
		epoch:     time.Now(),
		targets:   syncx.NewGuard[[]Target](nil),
		now:       time.Now,
	}
}

// SetSink registers fn to receive every reading DrainAndApply accepts.
func (s *Store) SetSink(fn func(Reading)) { s.sink = fn }

// Epoch is the origin of the chart x axis.
func (s *Store) Epoch() time.Time { return s.epoch }

// X converts a sample time to chart seconds.
func (s *Store) X(t time.Time) float64 { return t.Sub(s.epoch).Seconds() }

func (s *Store) MaxPoints() int { return s.maxPoints }

func (s *Store) Queue() *Queue { return s.queue }

// AddChannel creates a visible, capture-enabled channel with a fresh id.
func (s *Store) AddChannel(r Rect) *Channel {
	id := s.nextID
	s.nextID++
	ch := &Channel{
		ID:             id,
		Name:           fmt.Sprintf("CH%d", id),
		Region:         r,
		Color:          PaletteColor(id - 1),
		Visible:        true,
		CaptureEnabled: true,
	}
	s.channels[id] = ch
	s.publish()
	return ch
}

func (s *Store) RemoveChannel(id int) bool {
	if _, ok := s.channels[id]; !ok {
		return false
	}
	delete(s.channels, id)
	s.publish()
	return true
}

func (s *Store) SetVisible(id int, visible bool) error {
	ch, ok := s.channels[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownChannel, id)
	}
	ch.Visible = visible
	return nil
}

func (s *Store) SetCaptureEnabled(id int, enabled bool) error {
	ch, ok := s.channels[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownChannel, id)
	}
	ch.CaptureEnabled = enabled
	s.publish()
	return nil
}

func (s *Store) Rename(id int, name string) error {
	ch, ok := s.channels[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownChannel, id)
	}
	ch.Name = name
	return nil
}

// Channel returns the live channel, or nil.
func (s *Store) Channel(id int) *Channel { return s.channels[id] }

// Channels returns live channels ordered by id.
func (s *Store) Channels() []*Channel {
	out := make([]*Channel, 0, len(s.channels))
	for _, ch := range s.channels {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Len(id int) int {
	if ch := s.channels[id]; ch != nil {
		return ch.Len()
	}
	return 0
}

// Stats returns summary statistics for one channel.
func (s *Store) Stats(id int) (Stats, bool) {
	ch := s.channels[id]
	if ch == nil {
		return Stats{}, false
	}
	return ch.Stats(), true
}

// Targets returns the latest published capture targets. Safe from any goroutine.
func (s *Store) Targets() []Target {
	return s.targets.Get()
}

// TargetsVersion changes whenever the published targets change.
func (s *Store) TargetsVersion() uint64 {
	return s.targets.Version()
}

func (s *Store) publish() {
	targets := make([]Target, 0, len(s.channels))
	for _, ch := range s.Channels() {
		targets = append(targets, Target{ID: ch.ID, Region: ch.Region, Enabled: ch.CaptureEnabled})
	}
	s.targets.Set(targets)
}

// DrainAndApply moves every pending reading into its channel, then trims each
// touched channel to MaxPoints. It reports whether any sample was appended.
func (s *Store) DrainAndApply() bool {
	batch := s.parked
	s.parked = nil
	for {
		r, ok := s.queue.TryPop()
		if !ok {
			break
		}
		batch = append(batch, r)
	}
	if len(batch) == 0 {
		return false
	}

	touched := make(map[int]*Channel)
	for _, r := range batch {
		ch, ok := s.channels[r.ChannelID]
		if !ok {
			continue
		}
		if r.Value < 0 || math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			continue
		}
		if !r.Time.After(ch.clearedAt) {
			continue
		}
		ch.append(r.Time, r.Value)
		touched[ch.ID] = ch
		if s.sink != nil {
			s.sink(r)
		}
	}
	for _, ch := range touched {
		ch.trim(s.maxPoints)
	}
	return len(touched) > 0
}

// Clear empties one channel and discards its queued readings. Readings
// captured before the clear that arrive later are discarded too.
func (s *Store) Clear(id int) error {
	ch, ok := s.channels[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownChannel, id)
	}
	ch.reset(s.now())
	s.purge(func(r Reading) bool { return r.ChannelID == id })
	return nil
}

// ClearAll empties every channel and discards all queued readings.
func (s *Store) ClearAll() {
	at := s.now()
	for _, ch := range s.channels {
		ch.reset(at)
	}
	s.purge(func(Reading) bool { return true })
}

// purge moves queued readings into the parked list, dropping those that match.
func (s *Store) purge(drop func(Reading) bool) {
	kept := s.parked[:0]
	for _, r := range s.parked {
		if !drop(r) {
			kept = append(kept, r)
		}
	}
	for {
		r, ok := s.queue.TryPop()
		if !ok {
			break
		}
		if !drop(r) {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	s.parked = kept
}
