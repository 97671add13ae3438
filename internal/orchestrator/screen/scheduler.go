package screen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/x-itg/ocr/internal/errors"
	"github.com/x-itg/ocr/internal/extract"
	"github.com/x-itg/ocr/internal/ocr"
	"github.com/x-itg/ocr/internal/orchestrator/series"
	"github.com/x-itg/ocr/internal/resilience"
	screencap "github.com/x-itg/ocr/internal/screen"
	"github.com/x-itg/ocr/internal/trace"
)

var ErrAlreadyRunning = errors.New("monitoring already running")

// TargetSource publishes the channels to capture. Targets must be safe to
// call from the capture goroutine.
type TargetSource interface {
	Targets() []series.Target
}

// RecognizerFor returns the recognizer used for one channel.
type RecognizerFor func(channelID int) ocr.Recognizer

// Shared uses r for every channel.
func Shared(r ocr.Recognizer) RecognizerFor {
	return func(int) ocr.Recognizer { return r }
}

type Option func(*Scheduler)

// WithLanguages sets the OCR language set passed to the recognizer.
func WithLanguages(langs ...string) Option {
	return func(s *Scheduler) { s.langs = langs }
}

// WithFailureBackoff overrides DefaultFailureBackoff.
func WithFailureBackoff(d time.Duration) Option {
	return func(s *Scheduler) { s.backoff = d }
}

// WithBreakerHook reports per-channel capture breaker transitions. fn runs
// on the capture goroutine.
func WithBreakerHook(fn func(channelID int, from, to resilience.State)) Option {
	return func(s *Scheduler) { s.onBreaker = fn }
}

// WithBreakerConfig sets the per-channel capture breaker settings.
func WithBreakerConfig(cfg resilience.Config) Option {
	return func(s *Scheduler) { s.breakerCfg = cfg }
}

// Scheduler captures every enabled target once per interval and pushes the
// extracted values onto the queue. It never touches channels directly.
type Scheduler struct {
	capturer   screencap.Capturer
	recognizer RecognizerFor
	extractor  *extract.Extractor
	targets    TargetSource
	queue      *series.Queue

	langs      []string
	backoff    time.Duration
	breakerCfg resilience.Config
	onBreaker  func(channelID int, from, to resilience.State)

	mu  sync.Mutex
	cur *run

	breakers map[int]*resilience.Breaker // loop goroutine only

	iterations      atomic.Uint64
	captures        atomic.Uint64
	captureFailures atomic.Uint64
	recognitions    atomic.Uint64
	notFound        atomic.Uint64
	readings        atomic.Uint64
	dropped         atomic.Uint64

	latMu   sync.Mutex
	latency *durationRing
}

// run is one monitoring session. A stopped run keeps sleeping until its
// interval ends, so a restart gets a fresh run rather than reviving it.
type run struct {
	monitoring atomic.Bool
	done       chan struct{}
}

func NewScheduler(capturer screencap.Capturer, recognizer RecognizerFor, extractor *extract.Extractor, targets TargetSource, queue *series.Queue, opts ...Option) *Scheduler {
	s := &Scheduler{
		capturer:   capturer,
		recognizer: recognizer,
		extractor:  extractor,
		targets:    targets,
		queue:      queue,
		backoff:    DefaultFailureBackoff,
		breakerCfg: resilience.CaptureConfig(),
		breakers:   make(map[int]*resilience.Breaker),
		latency:    newDurationRing(latencyWindow),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.extractor == nil {
		s.extractor = extract.NewExtractor()
	}
	return s
}

// Start launches the capture goroutine. The interval is fixed until the next
// Start.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return apperrors.Newf(apperrors.CodeInvalidArgument, "capture interval must be positive, got %v", interval)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur != nil && s.cur.monitoring.Load() {
		return ErrAlreadyRunning
	}
	prev := s.cur
	r := &run{done: make(chan struct{})}
	r.monitoring.Store(true)
	s.cur = r

	slog.Info("monitoring started", "interval", interval, "languages", ocr.LanguageSpec(s.langs))
	go s.loop(ctx, r, prev, interval)
	return nil
}

// Stop asks the loop to exit before its next pass. It does not interrupt a
// pass or a sleep in progress.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur != nil && s.cur.monitoring.CompareAndSwap(true, false) {
		slog.Info("monitoring stopping")
	}
}

// Wait blocks until the most recent loop has exited.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	r := s.cur
	s.mu.Unlock()
	if r != nil {
		<-r.done
	}
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur != nil && s.cur.monitoring.Load()
}

func (s *Scheduler) loop(ctx context.Context, r, prev *run, interval time.Duration) {
	defer close(r.done)
	defer slog.Info("monitoring stopped")

	// A stopped run may still be sleeping; passes never overlap.
	if prev != nil {
		select {
		case <-prev.done:
		case <-ctx.Done():
			return
		}
	}

	for r.monitoring.Load() && ctx.Err() == nil {
		failed := s.pass(ctx)

		sleep := interval
		if failed {
			sleep += s.backoff
		}
		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// pass visits every enabled target once. It reports whether any capture
// failed.
func (s *Scheduler) pass(ctx context.Context) (failed bool) {
	ctx, span := trace.StartSpan(ctx, "capture_pass")
	targets := s.targets.Targets()
	s.iterations.Add(1)
	s.forgetBreakers(targets)

	enabled := 0
	for _, t := range targets {
		if !t.Enabled {
			continue
		}
		enabled++
		if err := s.process(ctx, t); err != nil {
			failed = true
		}
	}

	span.Set("targets", enabled)
	d := span.End()
	s.latMu.Lock()
	s.latency.add(d)
	s.latMu.Unlock()
	trace.Logger(ctx).Debug("capture pass", "span", span, "failed", failed)
	return failed
}

// process handles one target. Only capture failures are returned; a
// recognition that yields nothing is not an error.
func (s *Scheduler) process(ctx context.Context, t series.Target) (err error) {
	log := trace.Logger(ctx).With("channel", t.ID, "region", t.Region.String())
	defer func() {
		if p := recover(); p != nil {
			err = apperrors.Newf(apperrors.CodeInternal, "panic processing channel %d: %v", t.ID, p)
			log.Error("channel processing panicked", "panic", p)
		}
	}()

	b := s.breaker(t.ID)
	if err := b.Allow(); err != nil {
		log.Debug("capture skipped", "breaker", b.State())
		return nil
	}

	s.captures.Add(1)
	img, err := s.capture(ctx, t)
	if err != nil {
		b.Failure()
		s.captureFailures.Add(1)
		log.Warn("capture failed", "error", err)
		return err
	}
	b.Success()

	s.recognitions.Add(1)
	text, err := s.recognizer(t.ID).Recognize(ctx, img, s.langs)
	if err != nil {
		s.notFound.Add(1)
		log.Warn("recognition failed", "error", err)
		return nil
	}

	v, ok := s.extractor.Extract(text)
	if !ok || v < 0 {
		s.notFound.Add(1)
		log.Debug("no value in text", "text", text)
		return nil
	}

	if !s.queue.TryPush(series.Reading{ChannelID: t.ID, Time: time.Now(), Value: v}) {
		s.dropped.Add(1)
		log.Debug("queue full, reading dropped", "value", v)
		return nil
	}
	s.readings.Add(1)
	return nil
}

// capture turns a capturer panic into an error so it is recorded on the
// channel's breaker like any other failure.
func (s *Scheduler) capture(ctx context.Context, t series.Target) (img []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = apperrors.Newf(apperrors.CodeCaptureFailed, "capture panicked: %v", p)
		}
	}()
	return s.capturer.CaptureRegion(ctx, t.Region.Image())
}

func (s *Scheduler) breaker(id int) *resilience.Breaker {
	b, ok := s.breakers[id]
	if !ok {
		b = resilience.New(fmt.Sprintf("capture/ch%d", id), s.breakerCfg)
		if s.onBreaker != nil {
			b.WithHook(func(_ string, from, to resilience.State) {
				s.onBreaker(id, from, to)
			})
		}
		s.breakers[id] = b
	}
	return b
}

func (s *Scheduler) forgetBreakers(targets []series.Target) {
	if len(s.breakers) == 0 {
		return
	}
	live := make(map[int]bool, len(targets))
	for _, t := range targets {
		live[t.ID] = true
	}
	for id := range s.breakers {
		if !live[id] {
			delete(s.breakers, id)
		}
	}
}

// Stats is a point-in-time view of the loop's counters.
type Stats struct {
	Iterations      uint64
	Captures        uint64
	CaptureFailures uint64
	Recognitions    uint64
	NotFound        uint64
	Readings        uint64
	Dropped         uint64

	LastPass time.Duration
	AvgPass  time.Duration
	MaxPass  time.Duration
}

func (s *Scheduler) Stats() Stats {
	s.latMu.Lock()
	lat := s.latency.snapshot()
	s.latMu.Unlock()
	return Stats{
		Iterations:      s.iterations.Load(),
		Captures:        s.captures.Load(),
		CaptureFailures: s.captureFailures.Load(),
		Recognitions:    s.recognitions.Load(),
		NotFound:        s.notFound.Load(),
		Readings:        s.readings.Load(),
		Dropped:         s.dropped.Load(),
		LastPass:        lat.last,
		AvgPass:         lat.avg,
		MaxPass:         lat.max,
	}
}
