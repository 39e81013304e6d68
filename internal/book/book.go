package book

import "github.com/google/uuid"

const (
	// DefaultTitle is used until a title is read from the source text.
	DefaultTitle = "未命名小说"
	// DefaultAuthor is used when no author is configured.
	DefaultAuthor = "未知作者"
	// DefaultLanguage is the dc:language value when none is configured.
	DefaultLanguage = "zh"
	// CoverID is the identifier reserved for the cover image.
	CoverID = "cover"
)

// Document is the in-memory book for one conversion run.
type Document struct {
	ID       string    // Unique identifier (UUID), fixed for the run
	Title    string    // Book title (first line of the source or filename)
	Author   string    // dc:creator
	Language string    // dc:language
	Chapters []Chapter // Detection order
	Images   []Image   // Ordinary images, filename order
	Cover    *Image    // Optional cover image, never part of Images
}

// Chapter is a titled run of source text.
type Chapter struct {
	Title   string // Marker line, front matter placeholder or book title
	Content string // Trimmed body, marker line excluded
}

// Image is an image file that will be copied into the package.
type Image struct {
	ID       string // img_<n> for ordinary images, "cover" for the cover
	Path     string // Source path on disk
	Filename string // Base name inside OEBPS/images
}

// New returns a Document with a fresh identifier and default metadata.
func New() *Document {
	return &Document{
		ID:       uuid.NewString(),
		Title:    DefaultTitle,
		Author:   DefaultAuthor,
		Language: DefaultLanguage,
	}
}

// Assets returns the cover (if any) followed by the ordinary images.
func (d *Document) Assets() []Image {
	out := make([]Image, 0, len(d.Images)+1)
	if d.Cover != nil {
		out = append(out, *d.Cover)
	}
	return append(out, d.Images...)
}
