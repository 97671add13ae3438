// ocrd serves the local tesseract engine over gRPC.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/x-itg/ocr/internal/config"
	"github.com/x-itg/ocr/internal/ocr"
	"github.com/x-itg/ocr/internal/ocr/tesseract"
	"github.com/x-itg/ocr/internal/server"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg := config.Load()
	var langs string
	flag.StringVar(&cfg.OCRListenAddr, "listen", cfg.OCRListenAddr, "Listen address")
	flag.StringVar(&langs, "lang", ocr.LanguageSpec(cfg.OCRLanguages), "Default OCR languages")
	flag.IntVar(&cfg.OCRPageSegMode, "psm", cfg.OCRPageSegMode, "Tesseract page segmentation mode")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	flag.Parse()
	cfg.OCRLanguages = ocr.ParseLanguageSpec(langs)

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	engine, err := tesseract.New(tesseract.Options{
		Languages:   cfg.OCRLanguages,
		PageSegMode: cfg.OCRPageSegMode,
	})
	if err != nil {
		slog.Error("failed to create OCR engine", "error", err)
		os.Exit(1)
	}
	defer func() { _ = engine.Close() }()

	lis, err := net.Listen("tcp", cfg.OCRListenAddr)
	if err != nil {
		slog.Error("failed to listen", "addr", cfg.OCRListenAddr, "error", err)
		os.Exit(1)
	}

	grpcServer := server.NewGRPCServer(server.New(engine, engine.Languages()))

	go func() {
		slog.Info("ocrd starting", "addr", lis.Addr().String(), "languages", ocr.LanguageSpec(engine.Languages()))
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("grpc server error", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	slog.Info("shutting down...")
	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		slog.Warn("graceful stop timed out, forcing")
		grpcServer.Stop()
	}
	slog.Info("shutdown complete")
}
