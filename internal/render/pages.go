package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/txt2epub/internal/assets"
	"github.com/dgallion1/txt2epub/internal/book"
)

// Mimetype is the content of the uncompressed declaration entry.
const Mimetype = "application/epub+zip"

// Container is META-INF/container.xml.
const Container = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
    <rootfiles>
        <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
    </rootfiles>
</container>`

// File names inside OEBPS.
const (
	CoverPageFile = "cover.xhtml"
	NavFile       = "nav.xhtml"
	NCXFile       = "toc.ncx"
	PackageFile   = "content.opf"
	ImagesDir     = "images"
)

// ChapterFile returns the page name of chapter i (0-based).
func ChapterFile(i int) string { return fmt.Sprintf("chapter_%d.xhtml", i+1) }

// ImagePageFile returns the page name of ordinary image i (0-based).
func ImagePageFile(i int) string { return fmt.Sprintf("image_page_%d.xhtml", i+1) }

// PackageDocument renders OEBPS/content.opf.
func PackageDocument(doc *book.Document, date time.Time) string {
	var manifest, spine []string

	manifest = append(manifest,
		`    <item id="cover" href="cover.xhtml" media-type="application/xhtml+xml"/>`,
		`    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>`,
	)
	spine = append(spine, `    <itemref idref="cover"/>`)

	for i := range doc.Images {
		id := fmt.Sprintf("image_page_%d", i+1)
		manifest = append(manifest, fmt.Sprintf(`    <item id="%s" href="%s" media-type="application/xhtml+xml"/>`, id, ImagePageFile(i)))
		spine = append(spine, fmt.Sprintf(`    <itemref idref="%s"/>`, id))
	}

	for i := range doc.Chapters {
		id := fmt.Sprintf("chapter_%d", i+1)
		manifest = append(manifest, fmt.Sprintf(`    <item id="%s" href="%s" media-type="application/xhtml+xml"/>`, id, ChapterFile(i)))
		spine = append(spine, fmt.Sprintf(`    <itemref idref="%s"/>`, id))
	}

	if doc.Cover != nil {
		manifest = append(manifest, fmt.Sprintf(`    <item id="cover_img" href="images/%s" media-type="%s"/>`,
			Text(doc.Cover.Filename), assets.MediaType(doc.Cover.Filename)))
	}
	for _, img := range doc.Images {
		manifest = append(manifest, fmt.Sprintf(`    <item id="%s" href="images/%s" media-type="%s"/>`,
			img.ID, Text(img.Filename), assets.MediaType(img.Filename)))
	}

	manifest = append(manifest, `    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>`)

	coverMeta := ""
	if doc.Cover != nil {
		coverMeta = "<meta name='cover' content='cover_img'/>"
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" unique-identifier="bookid" version="3.0">
    <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
        <dc:title>`)
	b.WriteString(Title(doc.Title))
	b.WriteString("</dc:title>\n        <dc:creator>")
	b.WriteString(Text(doc.Author))
	b.WriteString("</dc:creator>\n        <dc:identifier id=\"bookid\">")
	b.WriteString(Text(doc.ID))
	b.WriteString("</dc:identifier>\n        <dc:language>")
	b.WriteString(Text(doc.Language))
	b.WriteString("</dc:language>\n        <dc:date>")
	b.WriteString(date.Format("2006-01-02"))
	b.WriteString("</dc:date>\n        ")
	b.WriteString(coverMeta)
	b.WriteString("\n    </metadata>\n    <manifest>\n")
	b.WriteString(strings.Join(manifest, "\n"))
	b.WriteString("\n    </manifest>\n    <spine>\n")
	b.WriteString(strings.Join(spine, "\n"))
	b.WriteString("\n    </spine>\n</package>")
	return b.String()
}

// NCX renders the legacy table of contents. Image pages are not listed.
func NCX(doc *book.Document) string {
	points := make([]string, 0, len(doc.Chapters))
	for i, ch := range doc.Chapters {
		points = append(points, fmt.Sprintf(`    <navPoint id="navpoint-%d" playOrder="%d">
        <navLabel>
            <text>%s</text>
        </navLabel>
        <content src="%s"/>
    </navPoint>`, i+1, i+1, Title(ch.Title), ChapterFile(i)))
	}

	return `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
    <head>
        <meta name="dtb:uid" content="` + Text(doc.ID) + `"/>
        <meta name="dtb:depth" content="1"/>
        <meta name="dtb:totalPageCount" content="0"/>
        <meta name="dtb:maxPageNumber" content="0"/>
    </head>
    <docTitle>
        <text>` + Title(doc.Title) + `</text>
    </docTitle>
    <navMap>
` + strings.Join(points, "\n") + `
    </navMap>
</ncx>`
}

// Nav renders the EPUB 3 navigation document. Image pages are not listed.
func Nav(doc *book.Document) string {
	items := make([]string, 0, len(doc.Chapters))
	for i, ch := range doc.Chapters {
		items = append(items, fmt.Sprintf(`        <li><a href="%s">%s</a></li>`, ChapterFile(i), Title(ch.Title)))
	}

	return Sanitize(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head>
    <title>` + Title(doc.Title) + `</title>
    <meta charset="utf-8"/>
</head>
<body>
    <nav epub:type="toc" id="toc">
        <h1>目录</h1>
        <ol>
` + strings.Join(items, "\n") + `
        </ol>
    </nav>
</body>
</html>`)
}

// CoverPage renders the title page. It shows title and author only; the
// cover image is referenced from the manifest, not from this page.
func CoverPage(doc *book.Document) string {
	title := Title(doc.Title)
	return Sanitize(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
    <title>` + title + `</title>
    <style type="text/css">
        body {
            display: flex;
            flex-direction: column;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            padding: 0;
            text-align: center;
            font-family: serif;
        }
        h1 {
            font-size: 3em;
            color: #0066cc;
            margin: 0.5em 0;
            text-align: center;
            font-weight: bold;
        }
        .author {
            font-size: 1.2em;
            color: #666;
            margin-top: 1em;
        }
        .book-info {
            text-align: center;
            padding: 2em;
        }
    </style>
</head>
<body>
    <main class="book-info">
        <h1>` + title + `</h1>
        <p class="author">` + Text(doc.Author) + `</p>
    </main>
</body>
</html>`)
}

// ImagePage renders the standalone page of ordinary image i (0-based).
func ImagePage(doc *book.Document, i int) string {
	img := doc.Images[i]
	return Sanitize(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
    <title>Image ` + fmt.Sprint(i+1) + `</title>
    <style type="text/css">
        body {
            margin: 0;
            padding: 0;
            display: flex;
            justify-content: center;
            align-items: center;
            min-height: 100vh;
            background-color: #ffffff;
        }
        .image-container {
            text-align: center;
            max-width: 100%;
            max-height: 100vh;
        }
        .image-container img {
            max-width: 100%;
            max-height: 100vh;
            height: auto;
            width: auto;
        }
    </style>
</head>
<body>
    <section class="image-container">
        <img src="images/` + Text(img.Filename) + `" alt="Image"/>
    </section>
</body>
</html>`)
}

// PageBreakBefore is the style forcing the first chapter onto a new page.
const PageBreakBefore = "page-break-before: always;"

// Paragraphs renders one <p> per non-blank line, skipping image references.
func Paragraphs(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || IsImageReference(line) {
			continue
		}
		out = append(out, "<p>"+Text(line)+"</p>")
	}
	return out
}

// ChapterPage renders chapter i (0-based). The first chapter also carries
// the book title and a page break before its own heading.
func ChapterPage(doc *book.Document, i int) string {
	ch := doc.Chapters[i]

	pageBreak := ""
	bookTitle := ""
	if i == 0 {
		pageBreak = PageBreakBefore
		bookTitle = `<h1 class="book-title">` + Title(doc.Title) + `</h1>`
	}

	chapterTitle := Title(ch.Title)
	return Sanitize(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
    <title>` + chapterTitle + `</title>
    <style type="text/css">
        body {
            font-family: serif;
            line-height: 1.6;
            margin: 1em 2em;
        }
        .book-title {
            font-size: 2.5em;
            color: #0066cc;
            text-align: center;
            border-bottom: 2px solid #0066cc;
            padding-bottom: 0.5em;
            margin: 1.5em 0 2em 0;
            font-weight: bold;
        }
        .chapter-title {
            font-size: 2em;
            color: #0066cc;
            text-align: center;
            margin: 2em 0 1.5em 0;
            font-weight: bold;
            ` + pageBreak + `
        }
        h1 {
            font-size: 2.5em;
            color: #0066cc;
            text-align: center;
            border-bottom: 2px solid #0066cc;
            padding-bottom: 0.5em;
            margin: 1.5em 0 2em 0;
            font-weight: bold;
        }
        h2 {
            font-size: 2em;
            color: #0066cc;
            text-align: center;
            margin: 2em 0 1.5em 0;
            font-weight: bold;
        }
        p {
            text-indent: 2em;
            margin: 0.8em 0;
            line-height: 1.8;
        }
        section {
            display: block;
            margin: 1em 0;
        }
    </style>
</head>
<body>
    ` + bookTitle + `
    <h1 class="chapter-title">` + chapterTitle + `</h1>
    ` + strings.Join(Paragraphs(ch.Content), "\n") + `
</body>
</html>`)
}
