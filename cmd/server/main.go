package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dgallion1/txt2epub/internal/api"
	"github.com/dgallion1/txt2epub/internal/config"
	"github.com/dgallion1/txt2epub/internal/convert"
	"github.com/dgallion1/txt2epub/internal/epub"
	"github.com/dgallion1/txt2epub/internal/parser"
	"github.com/dgallion1/txt2epub/internal/pipeline"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	seg, err := cfg.Segmenter()
	if err != nil {
		log.Error("invalid chapter patterns", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize converter.
	conv := convert.New(seg, epub.NewPackager(filepath.Join(cfg.WorkDir, "scratch"), log), log)
	conv.Author = cfg.Author
	conv.Language = cfg.Language
	conv.ParserOptions = parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, conv, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting txt2epub", "port", cfg.Port, "workers", cfg.WorkerCount, "work_dir", cfg.WorkDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
