package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "TXT2EPUB_API_KEY", "TXT2EPUB_AUTHOR", "TXT2EPUB_LANGUAGE", "TXT2EPUB_WORKER_COUNT", "TXT2EPUB_JOB_TTL", "TXT2EPUB_CHAPTER_PATTERNS", "TXT2EPUB_LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.Author != "未知作者" || cfg.Language != "zh" {
		t.Errorf("unexpected book defaults: %q %q", cfg.Author, cfg.Language)
	}
	if cfg.WorkerCount != 4 || cfg.MaxQueueSize != 100 {
		t.Errorf("unexpected pool defaults: %d %d", cfg.WorkerCount, cfg.MaxQueueSize)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h TTL, got %s", cfg.JobTTL)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("expected info level, got %s", cfg.LogLevel)
	}
	if len(cfg.ChapterPatterns) != 0 {
		t.Errorf("expected no extra patterns, got %v", cfg.ChapterPatterns)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TXT2EPUB_AUTHOR", "Writer")
	t.Setenv("TXT2EPUB_WORKER_COUNT", "-3")
	t.Setenv("TXT2EPUB_JOB_TTL", "15m")
	t.Setenv("TXT2EPUB_CHAPTER_PATTERNS", "卷[0-9]+\n\n  Part [IVX]+  \n")
	t.Setenv("TXT2EPUB_LOG_LEVEL", "debug")
	t.Setenv("TXT2EPUB_PDF_FALLBACK_PDFTOTEXT", "false")

	cfg := Load()
	if cfg.Author != "Writer" {
		t.Errorf("expected author override, got %q", cfg.Author)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("non-positive worker count should fall back to 4, got %d", cfg.WorkerCount)
	}
	if cfg.JobTTL != 15*time.Minute {
		t.Errorf("expected 15m, got %s", cfg.JobTTL)
	}
	if len(cfg.ChapterPatterns) != 2 || cfg.ChapterPatterns[1] != "Part [IVX]+" {
		t.Errorf("unexpected patterns: %q", cfg.ChapterPatterns)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug level, got %s", cfg.LogLevel)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback disabled")
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("TXT2EPUB_API_KEY", "")
	t.Setenv("TXT2EPUB_CHAPTER_PATTERNS", "")
	cfg := Load()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if err := cfg.ValidateServer(); err == nil {
		t.Error("server config without an API key should fail")
	}

	cfg.APIKey = "secret"
	if err := cfg.ValidateServer(); err != nil {
		t.Errorf("expected valid server config, got %v", err)
	}

	cfg.ChapterPatterns = []string{"([unclosed"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected invalid pattern to fail validation")
	}

	cfg.ChapterPatterns = nil
	cfg.Language = " "
	if err := cfg.Validate(); err == nil {
		t.Error("expected empty language to fail validation")
	}
}

func TestSegmenter_AppendsPatterns(t *testing.T) {
	cfg := Config{ChapterPatterns: []string{"卷[0-9]+"}}
	seg, err := cfg.Segmenter()
	if err != nil {
		t.Fatal(err)
	}
	name, ok := seg.Classify("卷3 风起")
	if !ok || name != "custom-1" {
		t.Errorf("expected custom rule match, got %q %v", name, ok)
	}
	if name, _ := seg.Classify("第1章 开端"); name != "cn-numbered" {
		t.Errorf("built-in rules must keep priority, got %q", name)
	}
}
