package series

import (
	"errors"
	"math"
	"testing"
	"time"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func at(sec int) time.Time { return t0.Add(time.Duration(sec) * time.Second) }

func newTestStore(maxPoints, queueCap int) *Store {
	s := NewStore(NewQueue(queueCap), maxPoints)
	s.epoch = t0
	s.now = func() time.Time { return at(1000) }
	return s
}

func mustRect(t *testing.T) Rect {
	t.Helper()
	r, err := NewRect(0, 0, 100, 40)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestNewRect(t *testing.T) {
	tests := []struct {
		name           string
		x1, y1, x2, y2 int
		want           Rect
		wantErr        bool
	}{
		{"ordered", 10, 20, 110, 60, Rect{10, 20, 110, 60}, false},
		{"reversed corners", 110, 60, 10, 20, Rect{10, 20, 110, 60}, false},
		{"exactly ten wide", 0, 0, 10, 50, Rect{}, true},
		{"eleven by eleven", 0, 0, 11, 11, Rect{0, 0, 11, 11}, false},
		{"flat", 0, 5, 200, 5, Rect{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewRect(tt.x1, tt.y1, tt.x2, tt.y2)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrRegionTooSmall) {
				t.Errorf("err = %v, want ErrRegionTooSmall", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestQueueDropsWhenFull(t *testing.T) {
	q := NewQueue(2)
	for i := 0; i < 5; i++ {
		q.TryPush(Reading{ChannelID: 1, Value: float64(i)})
	}
	if q.Len() != 2 {
		t.Errorf("Len = %d, want 2", q.Len())
	}
	if q.Dropped() != 3 {
		t.Errorf("Dropped = %d, want 3", q.Dropped())
	}
	r, ok := q.TryPop()
	if !ok || r.Value != 0 {
		t.Errorf("first pop = %+v, %v; want value 0", r, ok)
	}
}

func TestChannelIDsNeverReused(t *testing.T) {
	s := newTestStore(10, 10)
	a := s.AddChannel(mustRect(t))
	b := s.AddChannel(mustRect(t))
	s.RemoveChannel(b.ID)
	c := s.AddChannel(mustRect(t))

	if a.ID != 1 || b.ID != 2 || c.ID != 3 {
		t.Errorf("ids = %d %d %d, want 1 2 3", a.ID, b.ID, c.ID)
	}
	if !c.Visible || !c.CaptureEnabled {
		t.Error("new channel should be visible and capture-enabled")
	}
	if c.Name != "CH3" {
		t.Errorf("name = %q", c.Name)
	}
}

func TestDrainAndApply(t *testing.T) {
	s := newTestStore(100, 16)
	ch := s.AddChannel(mustRect(t))
	q := s.Queue()

	if s.DrainAndApply() {
		t.Fatal("empty queue should report no change")
	}

	q.TryPush(Reading{ChannelID: ch.ID, Time: at(1), Value: 1.5})
	q.TryPush(Reading{ChannelID: 99, Time: at(2), Value: 3})
	q.TryPush(Reading{ChannelID: ch.ID, Time: at(3), Value: -1})
	q.TryPush(Reading{ChannelID: ch.ID, Time: at(4), Value: math.NaN()})
	q.TryPush(Reading{ChannelID: ch.ID, Time: at(5), Value: 2.5})

	if !s.DrainAndApply() {
		t.Fatal("expected change")
	}
	if ch.Len() != 2 || len(ch.Times) != 2 {
		t.Fatalf("len = %d/%d, want 2", len(ch.Values), len(ch.Times))
	}
	if ch.Values[0] != 1.5 || ch.Values[1] != 2.5 {
		t.Errorf("values = %v", ch.Values)
	}
	if q.Len() != 0 {
		t.Errorf("queue not drained: %d", q.Len())
	}

	q.TryPush(Reading{ChannelID: 99, Time: at(6), Value: 3})
	if s.DrainAndApply() {
		t.Error("reading for unknown channel should not count as change")
	}
}

func TestSinkSeesAcceptedReadings(t *testing.T) {
	s := newTestStore(100, 16)
	ch := s.AddChannel(mustRect(t))
	var got []Reading
	s.SetSink(func(r Reading) { got = append(got, r) })

	s.Queue().TryPush(Reading{ChannelID: ch.ID, Time: at(1), Value: 1})
	s.Queue().TryPush(Reading{ChannelID: ch.ID, Time: at(2), Value: -3})
	s.Queue().TryPush(Reading{ChannelID: 42, Time: at(3), Value: 2})
	s.DrainAndApply()

	if len(got) != 1 || got[0].Value != 1 {
		t.Errorf("sink got %+v, want the one valid reading", got)
	}
}

func TestTrimToMaxPoints(t *testing.T) {
	s := newTestStore(3, 16)
	ch := s.AddChannel(mustRect(t))
	for i := 1; i <= 5; i++ {
		s.Queue().TryPush(Reading{ChannelID: ch.ID, Time: at(i), Value: float64(i)})
	}
	s.DrainAndApply()

	want := []float64{3, 4, 5}
	if len(ch.Values) != len(want) {
		t.Fatalf("values = %v, want %v", ch.Values, want)
	}
	for i := range want {
		if ch.Values[i] != want[i] {
			t.Errorf("values = %v, want %v", ch.Values, want)
		}
	}
	if !ch.Times[0].Equal(at(3)) {
		t.Errorf("first time = %v, want %v", ch.Times[0], at(3))
	}
	if ch.Seq(0) != 2 {
		t.Errorf("Seq(0) = %d, want 2", ch.Seq(0))
	}
	if _, ok := ch.Index(1); ok {
		t.Error("evicted sequence should not resolve")
	}
	if i, ok := ch.Index(4); !ok || i != 2 {
		t.Errorf("Index(4) = %d, %v", i, ok)
	}
}

func TestClearPurgesQueuedReadings(t *testing.T) {
	s := newTestStore(100, 16)
	a := s.AddChannel(mustRect(t))
	b := s.AddChannel(mustRect(t))
	q := s.Queue()

	q.TryPush(Reading{ChannelID: a.ID, Time: at(1), Value: 1})
	s.DrainAndApply()

	q.TryPush(Reading{ChannelID: a.ID, Time: at(2), Value: 2})
	q.TryPush(Reading{ChannelID: b.ID, Time: at(3), Value: 30})
	q.TryPush(Reading{ChannelID: a.ID, Time: at(4), Value: 4})
	q.TryPush(Reading{ChannelID: b.ID, Time: at(5), Value: 50})

	if err := s.Clear(a.ID); err != nil {
		t.Fatal(err)
	}
	if a.Len() != 0 {
		t.Fatalf("a not cleared: %v", a.Values)
	}

	// A reading captured before the clear but enqueued after it.
	q.TryPush(Reading{ChannelID: a.ID, Time: at(999), Value: 7})
	// A fresh reading after the clear.
	q.TryPush(Reading{ChannelID: a.ID, Time: at(1001), Value: 8})

	s.DrainAndApply()

	if len(a.Values) != 1 || a.Values[0] != 8 {
		t.Errorf("a values = %v, want [8]", a.Values)
	}
	if len(b.Values) != 2 || b.Values[0] != 30 || b.Values[1] != 50 {
		t.Errorf("b values = %v, want [30 50]", b.Values)
	}
}

func TestClearAll(t *testing.T) {
	s := newTestStore(100, 16)
	a := s.AddChannel(mustRect(t))
	b := s.AddChannel(mustRect(t))
	s.Queue().TryPush(Reading{ChannelID: a.ID, Time: at(1), Value: 1})
	s.DrainAndApply()
	s.Queue().TryPush(Reading{ChannelID: b.ID, Time: at(2), Value: 2})

	s.ClearAll()
	if s.DrainAndApply() {
		t.Error("queued readings should have been purged")
	}
	if a.Len() != 0 || b.Len() != 0 {
		t.Error("channels should be empty")
	}

	if err := s.Clear(42); !errors.Is(err, ErrUnknownChannel) {
		t.Errorf("Clear(42) = %v, want ErrUnknownChannel", err)
	}
}

func TestTargetsPublished(t *testing.T) {
	s := newTestStore(10, 10)
	v0 := s.TargetsVersion()
	a := s.AddChannel(mustRect(t))
	b := s.AddChannel(mustRect(t))
	if err := s.SetCaptureEnabled(a.ID, false); err != nil {
		t.Fatal(err)
	}

	targets := s.Targets()
	if len(targets) != 2 {
		t.Fatalf("targets = %+v", targets)
	}
	if targets[0].ID != a.ID || targets[0].Enabled {
		t.Errorf("targets[0] = %+v", targets[0])
	}
	if targets[1].ID != b.ID || !targets[1].Enabled {
		t.Errorf("targets[1] = %+v", targets[1])
	}

	held := s.Targets()
	s.RemoveChannel(a.ID)
	if len(held) != 2 {
		t.Error("published snapshot must not change under the holder")
	}
	if len(s.Targets()) != 1 {
		t.Errorf("targets after remove = %+v", s.Targets())
	}
	if s.TargetsVersion() <= v0 {
		t.Error("version should advance")
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(10, 10)
	ch := s.AddChannel(mustRect(t))
	if st, ok := s.Stats(ch.ID); !ok || st.Count != 0 {
		t.Fatalf("empty stats = %+v, %v", st, ok)
	}
	for i, v := range []float64{4, 1, 7} {
		s.Queue().TryPush(Reading{ChannelID: ch.ID, Time: at(i + 1), Value: v})
	}
	s.DrainAndApply()

	st, _ := s.Stats(ch.ID)
	if st.Count != 3 || st.Min != 1 || st.Max != 7 || st.Mean != 4 || st.Latest != 7 {
		t.Errorf("stats = %+v", st)
	}
	if x := s.X(at(3)); x != 3 {
		t.Errorf("X = %v, want 3", x)
	}
}
