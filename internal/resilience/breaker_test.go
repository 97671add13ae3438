package resilience

import (
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(cfg Config) (*Breaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := New("test", cfg)
	b.now = clock.Now
	return b, clock
}

func TestBreakerInitialState(t *testing.T) {
	b := New("ch1", CaptureConfig())
	if b.State() != Closed {
		t.Errorf("initial state = %v, want Closed", b.State())
	}
	if b.Name() != "ch1" {
		t.Errorf("Name() = %q", b.Name())
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(Config{Threshold: 3, ResetTimeout: time.Hour, HalfOpenSuccesses: 2})

	for i := 0; i < 3; i++ {
		b.Failure()
	}

	if b.State() != Open {
		t.Errorf("state = %v, want Open", b.State())
	}
	if err := b.Allow(); err != ErrOpen {
		t.Errorf("Allow() = %v, want ErrOpen", err)
	}
}

func TestBreakerHalfOpenAllowsSingleTrial(t *testing.T) {
	b, clock := newTestBreaker(Config{Threshold: 1, ResetTimeout: time.Second, HalfOpenSuccesses: 2})
	b.Failure()
	clock.Advance(2 * time.Second)

	if err := b.Allow(); err != nil {
		t.Fatalf("first Allow() = %v, want nil", err)
	}
	if b.State() != HalfOpen {
		t.Errorf("state = %v, want HalfOpen", b.State())
	}
	if err := b.Allow(); err != ErrTrialInFlight {
		t.Errorf("second Allow() = %v, want ErrTrialInFlight", err)
	}

	b.Success()
	if err := b.Allow(); err != nil {
		t.Errorf("Allow() after trial success = %v", err)
	}
	b.Success()
	if b.State() != Closed {
		t.Errorf("state = %v, want Closed", b.State())
	}
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	b, clock := newTestBreaker(Config{Threshold: 1, ResetTimeout: time.Second, HalfOpenSuccesses: 3})
	b.Failure()
	clock.Advance(2 * time.Second)
	_ = b.Allow()

	b.Failure()

	if b.State() != Open {
		t.Errorf("state = %v, want Open", b.State())
	}
	if err := b.Allow(); err != ErrOpen {
		t.Errorf("Allow() = %v, want ErrOpen before timeout", err)
	}
}

func TestBreakerFailedTrialFreesNextTrial(t *testing.T) {
	b, clock := newTestBreaker(Config{Threshold: 1, ResetTimeout: time.Second, HalfOpenSuccesses: 1})
	b.Failure()
	clock.Advance(2 * time.Second)

	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() = %v, want half-open trial", err)
	}
	b.Failure()

	if b.State() != Open {
		t.Fatalf("state = %v, want Open", b.State())
	}
	clock.Advance(2 * time.Second)
	if err := b.Allow(); err != nil {
		t.Errorf("Allow() after second timeout = %v, want nil", err)
	}
}

func TestBreakerHook(t *testing.T) {
	type change struct {
		name     string
		from, to State
	}
	var transitions []change
	b, clock := newTestBreaker(Config{Threshold: 1, ResetTimeout: time.Second, HalfOpenSuccesses: 1})
	b.WithHook(func(name string, from, to State) {
		transitions = append(transitions, change{name, from, to})
	})

	b.Failure()
	clock.Advance(2 * time.Second)
	_ = b.Allow()
	b.Success()

	want := []change{{"test", Closed, Open}, {"test", Open, HalfOpen}, {"test", HalfOpen, Closed}}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %+v, want %+v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %+v, want %+v", i, transitions[i], want[i])
		}
	}
}

func TestBreakerConcurrentSafety(t *testing.T) {
	b := New("race", Config{Threshold: 100, ResetTimeout: time.Second, HalfOpenSuccesses: 10})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Allow()
			if i%2 == 0 {
				b.Success()
			} else {
				b.Failure()
			}
		}()
	}
	wg.Wait()

	_ = b.State()
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{Closed, "closed"},
		{Open, "open"},
		{HalfOpen, "half-open"},
	}

	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestConfigs(t *testing.T) {
	want := Config{Threshold: DefaultThreshold, ResetTimeout: DefaultResetTimeout, HalfOpenSuccesses: DefaultHalfOpenSuccesses}
	if cfg := (Config{}).withDefaults(); cfg != want {
		t.Errorf("zero config defaults = %+v, want %+v", cfg, want)
	}
	if c := CaptureConfig(); c.Threshold != CaptureThreshold || c.HalfOpenSuccesses != 1 {
		t.Errorf("CaptureConfig = %+v", c)
	}
	if c := RemoteConfig(); c.ResetTimeout != RemoteResetTimeout {
		t.Errorf("RemoteConfig = %+v", c)
	}
}

func TestSuccessResetsFailures(t *testing.T) {
	b, _ := newTestBreaker(Config{Threshold: 3, ResetTimeout: time.Hour, HalfOpenSuccesses: 1})

	b.Failure()
	b.Failure()
	b.Success()
	b.Failure()
	b.Failure()

	if b.State() != Closed {
		t.Errorf("state = %v, want Closed", b.State())
	}
}
