package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/txt2epub/internal/book"
	"github.com/dgallion1/txt2epub/internal/segment"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Book defaults
	Author   string
	Language string

	// Scratch directories and uploaded jobs live under WorkDir.
	WorkDir string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Requests per minute per client IP on the API.
	RateLimit int

	// PDF
	PDFFallbackPdftotext bool

	// Extra chapter marker patterns, tried after the built-in rules.
	ChapterPatterns []string

	LogLevel slog.Level
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("TXT2EPUB_API_KEY"),

		Author:   envOr("TXT2EPUB_AUTHOR", book.DefaultAuthor),
		Language: envOr("TXT2EPUB_LANGUAGE", book.DefaultLanguage),

		WorkDir: envOr("TXT2EPUB_WORK_DIR", os.TempDir()),

		WorkerCount:  envInt("TXT2EPUB_WORKER_COUNT", 4),
		MaxQueueSize: envInt("TXT2EPUB_MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("TXT2EPUB_MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("TXT2EPUB_JOB_TTL", 1*time.Hour),

		RateLimit: envInt("TXT2EPUB_RATE_LIMIT", 30),

		PDFFallbackPdftotext: envBool("TXT2EPUB_PDF_FALLBACK_PDFTOTEXT", true),

		ChapterPatterns: envLines("TXT2EPUB_CHAPTER_PATTERNS"),

		LogLevel: envLevel("TXT2EPUB_LOG_LEVEL", slog.LevelInfo),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 30
	}

	return cfg
}

// Validate checks settings shared by the CLI and the server.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Language) == "" {
		return fmt.Errorf("TXT2EPUB_LANGUAGE must not be empty")
	}
	if c.WorkDir == "" {
		return fmt.Errorf("TXT2EPUB_WORK_DIR must not be empty")
	}
	if _, err := segment.CompileRules(c.ChapterPatterns); err != nil {
		return fmt.Errorf("TXT2EPUB_CHAPTER_PATTERNS: %w", err)
	}
	return nil
}

// ValidateServer additionally checks what the HTTP service needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("TXT2EPUB_API_KEY is required")
	}
	return nil
}

// Segmenter builds a segmenter with the configured extra patterns.
func (c Config) Segmenter() (*segment.Segmenter, error) {
	rules, err := segment.CompileRules(c.ChapterPatterns)
	if err != nil {
		return nil, err
	}
	return segment.New(rules...), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envLines(key string) []string {
	var out []string
	for _, line := range strings.Split(os.Getenv(key), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(v)); err == nil {
			return l
		}
	}
	return fallback
}
