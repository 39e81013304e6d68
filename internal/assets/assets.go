// Package assets classifies the image files that accompany a source text.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/txt2epub/internal/book"
)

// SupportedExtensions lists the image extensions picked up from a folder.
var SupportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

var coverTokens = []string{"cover", "封面"}

// DefaultMediaType is used for extensions without a known mapping.
const DefaultMediaType = "image/jpeg"

var mediaTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// MediaType guesses the MIME type of an image from its extension.
func MediaType(filename string) string {
	if mt, ok := mediaTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return mt
	}
	return DefaultMediaType
}

// IsCover reports whether a filename names the cover image.
func IsCover(filename string) bool {
	lower := strings.ToLower(filename)
	for _, tok := range coverTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// Collection is the result of scanning an image folder.
type Collection struct {
	Cover  *book.Image
	Images []book.Image
}

// Collect scans dir for supported images. A missing folder is not an error:
// it is logged and an empty Collection is returned.
func Collect(dir string, log *slog.Logger) (Collection, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("image folder does not exist", "dir", dir)
			return Collection{}, nil
		}
		return Collection{}, fmt.Errorf("read image folder %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if SupportedExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var c Collection
	for _, name := range names {
		img := book.Image{
			Path:     filepath.Join(dir, name),
			Filename: name,
		}
		if IsCover(name) {
			img.ID = book.CoverID
			c.Cover = &img
			continue
		}
		img.ID = fmt.Sprintf("img_%d", len(c.Images)+1)
		c.Images = append(c.Images, img)
	}

	log.Info("collected images", "dir", dir, "images", len(c.Images), "cover", c.Cover != nil)
	return c, nil
}
