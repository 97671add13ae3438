package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/x-itg/ocr/internal/config"
	apperrors "github.com/x-itg/ocr/internal/errors"
	"github.com/x-itg/ocr/internal/export"
	"github.com/x-itg/ocr/internal/extract"
	"github.com/x-itg/ocr/internal/ocr"
	"github.com/x-itg/ocr/internal/orchestrator/chart"
	"github.com/x-itg/ocr/internal/orchestrator/journal"
	"github.com/x-itg/ocr/internal/orchestrator/screen"
	"github.com/x-itg/ocr/internal/orchestrator/series"
	"github.com/x-itg/ocr/internal/resilience"
	screencap "github.com/x-itg/ocr/internal/screen"
	"github.com/x-itg/ocr/internal/trace"
)

// EventKind classifies session notifications.
type EventKind int

const (
	EventInfo EventKind = iota
	EventWarning
	EventError
)

func (k EventKind) String() string {
	return [...]string{"info", "warning", "error"}[k]
}

// Event is a user-facing notification, e.g. an export result.
type Event struct {
	Kind    EventKind
	Message string
	Time    time.Time
}

// Stats summarizes the session for status displays.
type Stats struct {
	Channels    int
	Monitoring  bool
	Interval    float64
	QueueLen    int
	QueueCap    int
	Scheduler   screen.Stats
	CacheHits   uint64
	CacheMisses uint64
}

// Manager owns one monitoring session. Everything except the scheduler's
// goroutine runs on the caller's goroutine; Manager is not safe for
// concurrent use.
type Manager struct {
	cfg       *config.Config
	capturer  screencap.Capturer
	queue     *series.Queue
	store     *series.Store
	scheduler *screen.Scheduler
	chart     *chart.Controller
	cache     *ocr.Cache
	journal   *journal.Journal
	interval  float64
	events    chan Event
	now       func() time.Time
}

// New builds a session from cfg. The capturer is closed by Close; the
// recognizer is owned by the caller.
func New(cfg *config.Config, capturer screencap.Capturer, recognizer ocr.Recognizer) *Manager {
	queue := series.NewQueue(cfg.QueueCapacity)
	store := series.NewStore(queue, cfg.MaxPoints)

	m := &Manager{
		cfg:      cfg,
		capturer: capturer,
		queue:    queue,
		store:    store,
		chart:    chart.NewController(chart.WithPickThreshold(cfg.PickThreshold)),
		interval: cfg.CaptureInterval,
		events:   make(chan Event, EventBuffer),
		now:      time.Now,
	}

	recognizers := screen.Shared(recognizer)
	if cfg.OCRCacheDistance >= 0 {
		m.cache = ocr.NewCache(recognizer, cfg.OCRCacheDistance)
		recognizers = m.cache.For
	}
	m.scheduler = screen.NewScheduler(capturer, recognizers, extract.NewExtractor(), store, queue,
		screen.WithLanguages(cfg.OCRLanguages...),
		screen.WithFailureBackoff(cfg.Backoff()),
		screen.WithBreakerHook(m.breakerChanged),
	)

	for _, r := range cfg.Regions {
		if _, err := m.AddRegion(r); err != nil {
			m.emit(EventWarning, fmt.Sprintf("region %v ignored: %v", r, err))
		}
	}
	return m
}

// AddRegion creates a channel for r.
func (m *Manager) AddRegion(r config.Region) (*series.Channel, error) {
	rect, err := series.NewRect(r.X1, r.Y1, r.X2, r.Y2)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidArgument, "add region")
	}
	ch := m.store.AddChannel(rect)
	trace.Logger(context.Background()).Info("channel added", "channel", ch.ID, "region", rect.String())
	return ch, nil
}

// RemoveChannel deletes a channel, its selection and its cached OCR frame.
func (m *Manager) RemoveChannel(id int) error {
	if !m.store.RemoveChannel(id) {
		return apperrors.Newf(apperrors.CodeNotFound, "channel %d not found", id)
	}
	m.chart.DropChannel(id)
	if m.cache != nil {
		m.cache.Forget(id)
	}
	return nil
}

// Interval is the capture interval used by the next StartMonitoring.
func (m *Manager) Interval() float64 { return m.interval }

// SetInterval normalizes and stores the capture interval. A running session
// keeps its interval until restarted.
func (m *Manager) SetInterval(seconds float64) (float64, error) {
	v, err := config.NormalizeInterval(seconds)
	if err != nil {
		return m.interval, err
	}
	m.interval = v
	return v, nil
}

func (m *Manager) StartMonitoring(ctx context.Context) error {
	d := time.Duration(m.interval * float64(time.Second))
	if err := m.scheduler.Start(ctx, d); err != nil {
		return err
	}
	m.emit(EventInfo, fmt.Sprintf("monitoring every %.1fs", m.interval))
	return nil
}

// StopMonitoring lets the capture loop finish its current pass and exit.
func (m *Manager) StopMonitoring() {
	if m.scheduler.Running() {
		m.scheduler.Stop()
		m.emit(EventInfo, "monitoring stopped")
	}
}

func (m *Manager) Monitoring() bool { return m.scheduler.Running() }

// ToggleMonitoring starts or stops capture and reports the new state.
func (m *Manager) ToggleMonitoring(ctx context.Context) (bool, error) {
	if m.Monitoring() {
		m.StopMonitoring()
		return false, nil
	}
	if err := m.StartMonitoring(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Tick applies queued readings. It returns true when the chart needs a redraw.
func (m *Manager) Tick() bool {
	changed := m.store.DrainAndApply()
	if changed {
		m.chart.Prune(m.store)
		m.chart.Follow(m.store)
	}
	return changed
}

// Clear empties one channel, discarding its queued readings and selection.
func (m *Manager) Clear(id int) error {
	if err := m.store.Clear(id); err != nil {
		return apperrors.Wrap(err, apperrors.CodeNotFound, "clear channel")
	}
	m.chart.DropChannel(id)
	return nil
}

// ClearAll empties every channel and the selection.
func (m *Manager) ClearAll() {
	m.store.ClearAll()
	m.chart.ClearSelection()
	m.chart.Reset(m.store)
	m.emit(EventInfo, "all data cleared")
}

func (m *Manager) Chart() *chart.Controller { return m.chart }
func (m *Manager) Store() *series.Store     { return m.store }

// Events delivers session notifications.
func (m *Manager) Events() <-chan Event { return m.events }

func (m *Manager) emit(kind EventKind, msg string) {
	select {
	case m.events <- Event{Kind: kind, Message: msg, Time: m.now()}:
	default:
	}
}

// breakerChanged runs on the capture goroutine; emit only touches the
// events channel.
func (m *Manager) breakerChanged(channelID int, from, to resilience.State) {
	switch {
	case to == resilience.Open && from != resilience.HalfOpen:
		m.emit(EventWarning, fmt.Sprintf("capture breaker opened for channel %d, retrying in %s",
			channelID, resilience.CaptureResetTimeout))
	case to == resilience.Closed:
		m.emit(EventInfo, fmt.Sprintf("capture resumed for channel %d", channelID))
	}
}

// Snapshot copies the current data for export.
func (m *Manager) Snapshot() export.Snapshot {
	return export.SnapshotOf(m.store)
}

// ExportCSV writes all channels to path, or to a timestamped file in the
// export directory when path is empty. It returns the path written.
func (m *Manager) ExportCSV(path string) (string, error) {
	return m.export(path, CSVPrefix, "csv", func(p string, snap export.Snapshot) error {
		return export.SaveCSV(p, snap)
	})
}

// ExportPNG renders the visible channels to path, or to a timestamped file.
func (m *Manager) ExportPNG(path string) (string, error) {
	return m.export(path, PNGPrefix, "png", func(p string, snap export.Snapshot) error {
		return export.SavePNG(p, snap, export.PNGOptions{})
	})
}

func (m *Manager) export(path, prefix, ext string, save func(string, export.Snapshot) error) (string, error) {
	snap := m.Snapshot()
	if snap.Empty() {
		m.emit(EventWarning, "no data to export")
		return "", apperrors.New(apperrors.CodeExportFailed, "no data to export")
	}
	if path == "" {
		path = filepath.Join(m.cfg.ExportDir, export.DefaultFileName(prefix, ext, m.now()))
	}

	ctx, span := trace.StartSpan(context.Background(), "export_"+ext)
	span.Set("path", path)
	err := save(path, snap)
	span.End()
	log := trace.Logger(ctx)
	if err != nil {
		log.Error("export failed", "span", span, "error", err)
		m.emit(EventError, fmt.Sprintf("export failed: %v", err))
		return "", err
	}
	log.Info("exported", "span", span)
	m.emit(EventInfo, "saved "+path)
	return path, nil
}

func (m *Manager) Stats() Stats {
	st := Stats{
		Channels:   len(m.store.Channels()),
		Monitoring: m.Monitoring(),
		Interval:   m.interval,
		QueueLen:   m.queue.Len(),
		QueueCap:   m.queue.Cap(),
		Scheduler:  m.scheduler.Stats(),
	}
	if m.cache != nil {
		st.CacheHits, st.CacheMisses = m.cache.Stats()
	}
	return st
}

// Record appends every accepted reading to j until Close.
func (m *Manager) Record(j *journal.Journal) {
	m.journal = j
	m.store.SetSink(j.Add)
}

// Close stops monitoring, waits for the capture loop and releases the
// capturer and journal.
func (m *Manager) Close() {
	m.scheduler.Stop()
	m.scheduler.Wait()
	if m.capturer != nil {
		m.capturer.Close()
	}
	if m.journal != nil {
		m.store.SetSink(nil)
		if err := m.journal.Close(); err != nil {
			slog.Error("journal close failed", "error", err)
		}
	}
}
