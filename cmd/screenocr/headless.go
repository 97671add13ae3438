package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/x-itg/ocr/internal/orchestrator"
)

// How often headless mode logs the latest values.
const reportInterval = 10 * time.Second

// runHeadless monitors until ctx is cancelled, then exports if asked.
func runHeadless(ctx context.Context, mgr *orchestrator.Manager, opts options) error {
	if err := mgr.StartMonitoring(ctx); err != nil {
		return err
	}

	tick := time.NewTicker(orchestrator.TickInterval)
	defer tick.Stop()
	lastReport := time.Now()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case ev := <-mgr.Events():
			logEvent(ev)
		case <-tick.C:
			mgr.Tick()
			if time.Since(lastReport) >= reportInterval {
				report(mgr)
				lastReport = time.Now()
			}
		}
	}

	slog.Info("stopping")
	mgr.StopMonitoring()
	mgr.Tick()
	report(mgr)

	var firstErr error
	if opts.csvPath != "" {
		if _, err := mgr.ExportCSV(opts.csvPath); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if opts.pngPath != "" {
		if _, err := mgr.ExportPNG(opts.pngPath); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func report(mgr *orchestrator.Manager) {
	for _, ch := range mgr.Store().Channels() {
		st := ch.Stats()
		if st.Count == 0 {
			slog.Info("channel", "name", ch.Name, "region", ch.Region.String(), "samples", 0)
			continue
		}
		slog.Info("channel",
			"name", ch.Name,
			"latest", st.Latest,
			"mean", st.Mean,
			"min", st.Min,
			"max", st.Max,
			"samples", st.Count)
	}
	s := mgr.Stats()
	slog.Debug("capture stats",
		"iterations", s.Scheduler.Iterations,
		"readings", s.Scheduler.Readings,
		"not_found", s.Scheduler.NotFound,
		"dropped", s.Scheduler.Dropped,
		"avg_pass", s.Scheduler.AvgPass)
}

func logEvent(ev orchestrator.Event) {
	switch ev.Kind {
	case orchestrator.EventError:
		slog.Error(ev.Message)
	case orchestrator.EventWarning:
		slog.Warn(ev.Message)
	default:
		slog.Info(ev.Message)
	}
}
