package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Source converts raw document bytes into plain text ready for segmentation.
type Source interface {
	Read(r io.Reader, filename string) (string, error)
}

// SupportedExtensions lists source file extensions this tool can convert.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".docx": true,
	".pdf":  true,
}

// ForFile returns the appropriate source reader for a filename.
func ForFile(filename string) (Source, error) {
	return ForFileWithOptions(filename, Options{})
}

// Options tunes the source readers.
type Options struct {
	PDFFallbackPdftotext bool
}

// ForFileWithOptions is ForFile with reader options applied.
func ForFileWithOptions(filename string, opts Options) (Source, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextSource{}, nil
	case ".docx":
		return &DOCXSource{}, nil
	case ".pdf":
		return &PDFSource{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
