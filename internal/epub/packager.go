package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/dgallion1/txt2epub/internal/book"
	"github.com/dgallion1/txt2epub/internal/render"
)

// scratchPrefix names per-run staging directories under the scratch root.
const scratchPrefix = "txt2epub-"

// PackagingError reports a failure while staging or archiving a package.
type PackagingError struct {
	Op   string // stage, copy, archive, rename, scratch
	Path string
	Err  error
}

func (e *PackagingError) Error() string {
	return fmt.Sprintf("packaging %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PackagingError) Unwrap() error { return e.Err }

// Packager stages generated parts and asset files in a scratch directory
// and writes them out as one archive.
type Packager struct {
	ScratchRoot string
	Log         *slog.Logger
	Now         func() time.Time // entry timestamps; defaults to time.Now
}

// NewPackager creates a Packager staging under root (os.TempDir when empty).
func NewPackager(root string, log *slog.Logger) *Packager {
	if root == "" {
		root = os.TempDir()
	}
	return &Packager{ScratchRoot: root, Log: log}
}

// ScratchDir returns the staging directory used for runID.
func (p *Packager) ScratchDir(runID string) string {
	return filepath.Join(p.ScratchRoot, scratchPrefix+runID)
}

// Package writes parts and assets to outPath. The scratch directory for
// runID must not exist yet; it is removed before Package returns.
func (p *Packager) Package(runID string, parts []render.Part, assets []book.Image, outPath string) error {
	dir := p.ScratchDir(runID)
	if err := os.MkdirAll(p.ScratchRoot, 0o755); err != nil {
		return &PackagingError{Op: "scratch", Path: p.ScratchRoot, Err: err}
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		return &PackagingError{Op: "scratch", Path: dir, Err: err}
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			p.logger().Warn("scratch cleanup failed", "dir", dir, "error", err)
		}
	}()

	for _, part := range parts {
		if err := stagePart(dir, part); err != nil {
			return err
		}
	}

	imagesDir := filepath.Join(dir, "OEBPS", render.ImagesDir)
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return &PackagingError{Op: "stage", Path: imagesDir, Err: err}
	}
	for _, img := range assets {
		if err := copyAsset(img, imagesDir); err != nil {
			return err
		}
	}

	if err := p.writeArchive(dir, outPath); err != nil {
		return err
	}

	p.logger().Debug("package written", "output", outPath, "parts", len(parts), "assets", len(assets))
	return nil
}

func (p *Packager) logger() *slog.Logger {
	if p.Log == nil {
		return slog.Default()
	}
	return p.Log
}

func (p *Packager) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func stagePart(dir string, part render.Part) error {
	if !isSafePath(part.Name) {
		return &PackagingError{Op: "stage", Path: part.Name, Err: fmt.Errorf("unsafe part name")}
	}
	dst := filepath.Join(dir, filepath.FromSlash(part.Name))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return &PackagingError{Op: "stage", Path: part.Name, Err: err}
	}
	if err := os.WriteFile(dst, part.Data, 0o644); err != nil {
		return &PackagingError{Op: "stage", Path: part.Name, Err: err}
	}
	return nil
}

func copyAsset(img book.Image, imagesDir string) error {
	name := filepath.Base(img.Filename)
	if name != img.Filename || name == "." || name == ".." {
		return &PackagingError{Op: "copy", Path: img.Filename, Err: fmt.Errorf("invalid image file name")}
	}

	src, err := os.Open(img.Path)
	if err != nil {
		return &PackagingError{Op: "copy", Path: img.Path, Err: err}
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(imagesDir, name))
	if err != nil {
		return &PackagingError{Op: "copy", Path: img.Path, Err: err}
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return &PackagingError{Op: "copy", Path: img.Path, Err: err}
	}
	if err := dst.Close(); err != nil {
		return &PackagingError{Op: "copy", Path: img.Path, Err: err}
	}
	return nil
}

// archiveMode is the permission of written archives. CreateTemp opens
// files 0600.
const archiveMode os.FileMode = 0o644

// writeArchive zips dir into outPath via a temporary sibling file. The
// mimetype entry goes first and is stored; every other file is deflated.
func (p *Packager) writeArchive(dir, outPath string) (err error) {
	outDir := filepath.Dir(outPath)
	tmp, err := os.CreateTemp(outDir, ".txt2epub-*.tmp")
	if err != nil {
		return &PackagingError{Op: "archive", Path: outPath, Err: err}
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	zw := zip.NewWriter(tmp)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.DefaultCompression)
	})
	modified := p.now()

	if err := addFile(zw, filepath.Join(dir, "mimetype"), "mimetype", zip.Store, modified); err != nil {
		return err
	}

	walkErr := filepath.WalkDir(dir, func(fp string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, fp)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if name == "mimetype" {
			return nil
		}
		return addFile(zw, fp, name, zip.Deflate, modified)
	})
	if walkErr != nil {
		return &PackagingError{Op: "archive", Path: outPath, Err: walkErr}
	}

	if err := zw.Close(); err != nil {
		return &PackagingError{Op: "archive", Path: outPath, Err: err}
	}
	if err := tmp.Chmod(archiveMode); err != nil {
		return &PackagingError{Op: "archive", Path: outPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &PackagingError{Op: "archive", Path: outPath, Err: err}
	}
	if err := os.Rename(tmpName, outPath); err != nil {
		return &PackagingError{Op: "rename", Path: outPath, Err: err}
	}
	return nil
}

func addFile(zw *zip.Writer, fp, name string, method uint16, modified time.Time) error {
	src, err := os.Open(fp)
	if err != nil {
		return &PackagingError{Op: "archive", Path: name, Err: err}
	}
	defer src.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method, Modified: modified})
	if err != nil {
		return &PackagingError{Op: "archive", Path: name, Err: err}
	}
	if _, err := io.Copy(w, src); err != nil {
		return &PackagingError{Op: "archive", Path: name, Err: err}
	}
	return nil
}

// isSafePath reports whether p stays inside the archive root.
func isSafePath(p string) bool {
	if p == "" {
		return false
	}
	cleaned := path.Clean(p)
	if strings.HasPrefix(cleaned, "/") {
		return false
	}
	return cleaned != ".." && !strings.HasPrefix(cleaned, "../")
}
