// Package convert runs one source file through segmentation, image
// collection, assembly and packaging.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgallion1/txt2epub/internal/assets"
	"github.com/dgallion1/txt2epub/internal/book"
	"github.com/dgallion1/txt2epub/internal/epub"
	"github.com/dgallion1/txt2epub/internal/parser"
	"github.com/dgallion1/txt2epub/internal/render"
	"github.com/dgallion1/txt2epub/internal/segment"
)

// Stage names a step of a conversion, reported through Request.Progress.
type Stage string

const (
	StageReading    Stage = "reading"
	StageSegmenting Stage = "segmenting"
	StageCollecting Stage = "collecting"
	StageAssembling Stage = "assembling"
	StagePackaging  Stage = "packaging"
)

// Request describes one conversion.
type Request struct {
	Source   string // Path of the .txt/.docx/.pdf file
	ImageDir string // Optional image folder; a missing folder only warns
	Output   string // Archive path to write

	// Metadata overrides; empty keeps the detected title and configured defaults.
	Title    string
	Author   string
	Language string

	RunID    string // Scratch directory suffix; defaults to the book identifier
	Progress func(Stage)
}

// Result summarizes a successful conversion.
type Result struct {
	Output   string
	BookID   string
	Title    string
	Chapters int
	Images   int
	Cover    bool
}

// Converter wires the segmenter, collector, assembler and packager together.
type Converter struct {
	Segmenter     *segment.Segmenter
	Packager      *epub.Packager
	ParserOptions parser.Options
	Author        string // Default dc:creator
	Language      string // Default dc:language
	Now           func() time.Time
	Log           *slog.Logger
}

// New creates a Converter with book defaults for author and language.
func New(seg *segment.Segmenter, pkg *epub.Packager, log *slog.Logger) *Converter {
	return &Converter{
		Segmenter: seg,
		Packager:  pkg,
		Author:    book.DefaultAuthor,
		Language:  book.DefaultLanguage,
		Now:       time.Now,
		Log:       log,
	}
}

// SourceError reports that the source file could not be opened or read.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Convert runs a full conversion. A cancelled context stops it before any
// work starts or before packaging begins; packaging itself is never interrupted.
func (c *Converter) Convert(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	log := c.Log.With("file", req.Source)
	progress := req.Progress
	if progress == nil {
		progress = func(Stage) {}
	}

	progress(StageReading)
	text, err := c.read(req.Source)
	if err != nil {
		return Result{}, err
	}

	progress(StageSegmenting)
	doc := book.New()
	seg := c.Segmenter.Split(text, req.Source)
	doc.Title = seg.Title
	doc.Chapters = seg.Chapters
	c.applyMetadata(doc, req)
	log.Info("segmented text", "title", doc.Title, "chapters", len(doc.Chapters))

	progress(StageCollecting)
	if req.ImageDir != "" {
		col, err := assets.Collect(req.ImageDir, log)
		if err != nil {
			return Result{}, fmt.Errorf("collect images: %w", err)
		}
		doc.Images = col.Images
		doc.Cover = col.Cover
	}

	progress(StageAssembling)
	parts := render.Assemble(doc, c.now())

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	progress(StagePackaging)
	runID := req.RunID
	if runID == "" {
		runID = doc.ID
	}
	if err := c.Packager.Package(runID, parts, doc.Assets(), req.Output); err != nil {
		return Result{}, fmt.Errorf("package %s: %w", req.Output, err)
	}

	log.Info("conversion complete", "output", req.Output, "images", len(doc.Images), "cover", doc.Cover != nil)
	return Result{
		Output:   req.Output,
		BookID:   doc.ID,
		Title:    doc.Title,
		Chapters: len(doc.Chapters),
		Images:   len(doc.Images),
		Cover:    doc.Cover != nil,
	}, nil
}

func (c *Converter) read(path string) (string, error) {
	src, err := parser.ForFileWithOptions(path, c.ParserOptions)
	if err != nil {
		return "", &SourceError{Path: path, Err: err}
	}
	f, err := os.Open(path)
	if err != nil {
		return "", &SourceError{Path: path, Err: err}
	}
	defer f.Close()

	text, err := src.Read(f, path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return text, nil
}

func (c *Converter) applyMetadata(doc *book.Document, req Request) {
	if c.Author != "" {
		doc.Author = c.Author
	}
	if c.Language != "" {
		doc.Language = c.Language
	}
	if req.Title != "" {
		doc.Title = req.Title
	}
	if req.Author != "" {
		doc.Author = req.Author
	}
	if req.Language != "" {
		doc.Language = req.Language
	}
}

func (c *Converter) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
