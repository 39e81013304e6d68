package assets

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte(n), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCollect_CoverExclusivity(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "z.png", "cover.png", "a.png")

	c, err := Collect(dir, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Cover == nil || c.Cover.Filename != "cover.png" {
		t.Fatalf("expected cover.png as cover, got %+v", c.Cover)
	}
	if c.Cover.ID != "cover" {
		t.Errorf("expected cover id %q, got %q", "cover", c.Cover.ID)
	}
	if len(c.Images) != 2 {
		t.Fatalf("expected 2 ordinary images, got %d", len(c.Images))
	}
	want := []struct{ id, name string }{{"img_1", "a.png"}, {"img_2", "z.png"}}
	for i, w := range want {
		if c.Images[i].ID != w.id || c.Images[i].Filename != w.name {
			t.Errorf("image[%d]: expected %s/%s, got %s/%s", i, w.id, w.name, c.Images[i].ID, c.Images[i].Filename)
		}
		if c.Images[i].Path != filepath.Join(dir, w.name) {
			t.Errorf("image[%d]: unexpected path %q", i, c.Images[i].Path)
		}
	}
}

func TestCollect_LastCoverWins(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "Cover-1.jpg", "cover-2.jpg", "封面.png", "p1.jpg")

	c, err := Collect(dir, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Byte order: "Cover-1.jpg" < "cover-2.jpg" < "p1.jpg" < "封面.png".
	if c.Cover == nil || c.Cover.Filename != "封面.png" {
		t.Fatalf("expected last cover match to win, got %+v", c.Cover)
	}
	if len(c.Images) != 1 || c.Images[0].ID != "img_1" {
		t.Errorf("expected a single dense image id, got %+v", c.Images)
	}
}

func TestCollect_FiltersExtensionsAndDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.JPG", "notes.txt", "c.webp", "d.tiff", "a.Png")
	if err := os.Mkdir(filepath.Join(dir, "e.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	c, err := Collect(dir, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []string
	for _, img := range c.Images {
		got = append(got, img.Filename)
	}
	want := []string{"a.Png", "b.JPG", "c.webp"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("image[%d]: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestCollect_MissingFolderIsNotFatal(t *testing.T) {
	c, err := Collect(filepath.Join(t.TempDir(), "nope_images"), discardLogger())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Cover != nil || len(c.Images) != 0 {
		t.Errorf("expected empty collection, got %+v", c)
	}
}

func TestMediaType(t *testing.T) {
	tests := map[string]string{
		"a.jpg":  "image/jpeg",
		"a.JPEG": "image/jpeg",
		"a.png":  "image/png",
		"a.gif":  "image/gif",
		"a.bmp":  "image/bmp",
		"a.webp": "image/webp",
		"a.xyz":  DefaultMediaType,
		"noext":  DefaultMediaType,
	}
	for name, want := range tests {
		if got := MediaType(name); got != want {
			t.Errorf("MediaType(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestIsCover(t *testing.T) {
	if !IsCover("BookCOVER.png") {
		t.Error("expected case-insensitive cover match")
	}
	if !IsCover("我的封面.jpg") {
		t.Error("expected localized cover match")
	}
	if IsCover("chapter1.jpg") {
		t.Error("unexpected cover match")
	}
}
