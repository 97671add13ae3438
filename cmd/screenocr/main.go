// screenocr watches screen regions, reads a number from each with OCR and
// charts the values over time.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/x/term"

	"github.com/x-itg/ocr/internal/config"
	"github.com/x-itg/ocr/internal/grpcclient"
	"github.com/x-itg/ocr/internal/ocr"
	"github.com/x-itg/ocr/internal/ocr/tesseract"
	"github.com/x-itg/ocr/internal/orchestrator"
	"github.com/x-itg/ocr/internal/orchestrator/journal"
	"github.com/x-itg/ocr/internal/screen"
	"github.com/x-itg/ocr/internal/tui"
)

type options struct {
	csvPath   string
	pngPath   string
	headless  bool
	altScreen bool
}

func main() {
	cfg := config.Load()
	var opts options
	var regions []config.Region
	var langs string

	flag.Float64Var(&cfg.CaptureInterval, "interval", cfg.CaptureInterval, "Capture interval in seconds [0.5,10], 0.5 steps")
	flag.Func("region", "Region to monitor as x1,y1,x2,y2 (repeatable)", func(s string) error {
		r, err := config.ParseRegion(s)
		if err != nil {
			return err
		}
		regions = append(regions, r)
		return nil
	})
	flag.StringVar(&cfg.OCRBackend, "backend", cfg.OCRBackend, "OCR backend: tesseract or remote")
	flag.StringVar(&cfg.OCRAddr, "ocr-addr", cfg.OCRAddr, "Address of the remote OCR service")
	flag.StringVar(&langs, "lang", ocr.LanguageSpec(cfg.OCRLanguages), "OCR languages, e.g. chi_sim+eng")
	flag.IntVar(&cfg.MaxPoints, "max-points", cfg.MaxPoints, "Samples kept per channel")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	flag.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Write logs to this file")
	flag.StringVar(&cfg.RecordFile, "record", cfg.RecordFile, "Append every reading to this CSV file")
	flag.StringVar(&opts.csvPath, "csv", "", "Export CSV here on exit (headless)")
	flag.StringVar(&opts.pngPath, "png", "", "Export PNG here on exit (headless)")
	flag.BoolVar(&opts.headless, "headless", false, "Run without the terminal UI")
	flag.BoolVar(&opts.altScreen, "alt-screen", false, "Use the terminal alternate screen buffer")
	flag.Parse()

	if len(regions) > 0 {
		cfg.Regions = regions
	}
	cfg.OCRLanguages = ocr.ParseLanguageSpec(langs)
	interactive := !opts.headless && term.IsTerminal(os.Stdin.Fd())

	closeLog, err := setupLogging(cfg, interactive)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, opts, interactive); err != nil {
		slog.Error("screenocr failed", "error", err)
		if interactive {
			fmt.Fprintln(os.Stderr, err)
		}
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, opts options, interactive bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	recognizer, closeRecognizer, err := newRecognizer(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRecognizer()

	capturer, err := screen.New()
	if err != nil {
		return err
	}

	mgr := orchestrator.New(cfg, capturer, recognizer)
	defer mgr.Close()
	if cfg.RecordFile != "" {
		j, err := journal.Open(cfg.RecordFile, journal.DefaultMaxBatch, journal.DefaultFlushDelay)
		if err != nil {
			return err
		}
		mgr.Record(j)
	}

	slog.Info("screenocr starting",
		"backend", cfg.OCRBackend,
		"languages", ocr.LanguageSpec(cfg.OCRLanguages),
		"interval", cfg.CaptureInterval,
		"regions", len(cfg.Regions),
		"interactive", interactive)

	if interactive {
		return tui.Run(ctx, mgr, opts.altScreen)
	}
	return runHeadless(ctx, mgr, opts)
}

func newRecognizer(ctx context.Context, cfg *config.Config) (ocr.Recognizer, func(), error) {
	switch cfg.OCRBackend {
	case "remote":
		client, err := grpcclient.New(cfg.OCRAddr)
		if err != nil {
			return nil, nil, err
		}
		if err := client.Ready(ctx); err != nil {
			slog.Warn("OCR service not reachable yet", "addr", cfg.OCRAddr, "error", err)
		}
		return client, func() { _ = client.Close() }, nil
	default:
		engine, err := tesseract.New(tesseract.Options{
			Languages:   cfg.OCRLanguages,
			PageSegMode: cfg.OCRPageSegMode,
		})
		if err != nil {
			return nil, nil, err
		}
		return engine, func() { _ = engine.Close() }, nil
	}
}

// setupLogging installs the default logger. The TUI owns the terminal, so
// interactive runs log to LogFile or nowhere.
func setupLogging(cfg *config.Config, interactive bool) (func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
	}

	var out io.Writer = os.Stderr
	closeFn := func() {}
	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	case interactive:
		out = io.Discard
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
	return closeFn, nil
}
