package render

import (
	"time"

	"github.com/dgallion1/txt2epub/internal/book"
)

// Part is one generated file, addressed by its slash-separated path inside
// the archive.
type Part struct {
	Name string
	Data []byte
}

// Assemble derives every text part of the package from doc. It performs no
// I/O; images are copied by the packager from doc.Assets().
func Assemble(doc *book.Document, date time.Time) []Part {
	parts := []Part{
		{Name: "mimetype", Data: []byte(Mimetype)},
		{Name: "META-INF/container.xml", Data: []byte(Container)},
		{Name: oebps(PackageFile), Data: []byte(PackageDocument(doc, date))},
		{Name: oebps(CoverPageFile), Data: []byte(CoverPage(doc))},
		{Name: oebps(NCXFile), Data: []byte(NCX(doc))},
		{Name: oebps(NavFile), Data: []byte(Nav(doc))},
	}
	for i := range doc.Chapters {
		parts = append(parts, Part{Name: oebps(ChapterFile(i)), Data: []byte(ChapterPage(doc, i))})
	}
	for i := range doc.Images {
		parts = append(parts, Part{Name: oebps(ImagePageFile(i)), Data: []byte(ImagePage(doc, i))})
	}
	return parts
}

func oebps(name string) string { return "OEBPS/" + name }
