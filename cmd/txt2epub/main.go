package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgallion1/txt2epub/internal/config"
	"github.com/dgallion1/txt2epub/internal/convert"
	"github.com/dgallion1/txt2epub/internal/epub"
	"github.com/dgallion1/txt2epub/internal/parser"
	"github.com/dgallion1/txt2epub/internal/pipeline"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := config.Load()

	fs := flag.NewFlagSet("txt2epub", flag.ContinueOnError)
	dir := fs.String("dir", ".", "directory to scan for source files")
	outDir := fs.String("out", "", "output directory (default: next to each source)")
	allSources := fs.Bool("all-sources", false, "also convert .docx and .pdf files")
	verbose := fs.Bool("v", false, "debug logging")
	fs.StringVar(&cfg.Author, "author", cfg.Author, "book author")
	fs.StringVar(&cfg.Language, "language", cfg.Language, "book language")
	fs.StringVar(&cfg.WorkDir, "scratch", cfg.WorkDir, "root for temporary staging directories")
	fs.IntVar(&cfg.WorkerCount, "workers", cfg.WorkerCount, "files converted in parallel")
	fs.BoolVar(&cfg.PDFFallbackPdftotext, "pdftotext", cfg.PDFFallbackPdftotext, "fall back to pdftotext for PDFs without a text layer")
	fs.Func("pattern", "extra chapter marker regex (repeatable)", func(v string) error {
		cfg.ChapterPatterns = append(cfg.ChapterPatterns, v)
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := cfg.LogLevel
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		return 2
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}

	files, err := discover(*dir, *allSources)
	if err != nil {
		log.Error("scan failed", "error", err)
		return 1
	}
	if len(files) == 0 {
		fmt.Printf("no source files found in %s\n", *dir)
		return 0
	}
	fmt.Printf("found %d file(s)\n", len(files))

	seg, err := cfg.Segmenter()
	if err != nil {
		log.Error("invalid chapter patterns", "error", err)
		return 2
	}
	conv := convert.New(seg, epub.NewPackager(cfg.WorkDir, log), log)
	conv.Author = cfg.Author
	conv.Language = cfg.Language
	conv.ParserOptions = parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext}

	if cfg.MaxQueueSize < len(files) {
		cfg.MaxQueueSize = len(files)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch := pipeline.NewOrchestrator(cfg, conv, log)
	orch.Start(ctx)
	defer orch.Stop()

	failed, err := runBatch(ctx, orch, files, *outDir, os.Stdout)
	if err != nil {
		log.Error("batch interrupted", "error", err)
		return 1
	}
	orch.Drain()

	fmt.Printf("done: %d succeeded, %d failed\n", len(files)-failed, failed)
	if failed > 0 {
		return 1
	}
	return 0
}
