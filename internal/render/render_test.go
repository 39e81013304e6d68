package render

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/txt2epub/internal/book"
)

type opfPackage struct {
	Metadata struct {
		Title      string `xml:"title"`
		Creator    string `xml:"creator"`
		Identifier string `xml:"identifier"`
		Language   string `xml:"language"`
		Date       string `xml:"date"`
		Meta       []struct {
			Name    string `xml:"name,attr"`
			Content string `xml:"content,attr"`
		} `xml:"meta"`
	} `xml:"metadata"`
	Manifest struct {
		Items []struct {
			ID         string `xml:"id,attr"`
			Href       string `xml:"href,attr"`
			MediaType  string `xml:"media-type,attr"`
			Properties string `xml:"properties,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		Refs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

func sampleDocument() *book.Document {
	doc := book.New()
	doc.Title = "My Novel"
	doc.Author = "Someone"
	doc.Chapters = []book.Chapter{
		{Title: "第1章 开端", Content: "line one\n\nline two"},
		{Title: "第2章 发展", Content: "more"},
		{Title: "第3章 结局", Content: "end"},
	}
	doc.Images = []book.Image{
		{ID: "img_1", Filename: "a.png"},
		{ID: "img_2", Filename: "b.jpg"},
	}
	doc.Cover = &book.Image{ID: book.CoverID, Filename: "cover.jpg"}
	return doc
}

func parseOPF(t *testing.T, doc *book.Document) opfPackage {
	t.Helper()
	var pkg opfPackage
	src := PackageDocument(doc, time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC))
	if err := xml.Unmarshal([]byte(src), &pkg); err != nil {
		t.Fatalf("unmarshal content.opf: %v\n%s", err, src)
	}
	return pkg
}

func TestPackageDocument_SpineOrder(t *testing.T) {
	pkg := parseOPF(t, sampleDocument())

	want := []string{"cover", "image_page_1", "image_page_2", "chapter_1", "chapter_2", "chapter_3"}
	if len(pkg.Spine.Refs) != len(want) {
		t.Fatalf("expected %d spine entries, got %d", len(want), len(pkg.Spine.Refs))
	}
	for i, w := range want {
		if pkg.Spine.Refs[i].IDRef != w {
			t.Errorf("spine[%d]: expected %q, got %q", i, w, pkg.Spine.Refs[i].IDRef)
		}
	}
}

func TestPackageDocument_ManifestOrder(t *testing.T) {
	pkg := parseOPF(t, sampleDocument())

	want := []string{
		"cover", "nav", "image_page_1", "image_page_2",
		"chapter_1", "chapter_2", "chapter_3",
		"cover_img", "img_1", "img_2", "ncx",
	}
	if len(pkg.Manifest.Items) != len(want) {
		t.Fatalf("expected %d manifest items, got %d", len(want), len(pkg.Manifest.Items))
	}
	for i, w := range want {
		if pkg.Manifest.Items[i].ID != w {
			t.Errorf("manifest[%d]: expected %q, got %q", i, w, pkg.Manifest.Items[i].ID)
		}
	}

	byID := make(map[string]string)
	for _, it := range pkg.Manifest.Items {
		byID[it.ID] = it.MediaType
		if it.ID == "nav" && it.Properties != "nav" {
			t.Errorf("nav item missing properties=nav")
		}
	}
	if byID["img_1"] != "image/png" || byID["img_2"] != "image/jpeg" || byID["cover_img"] != "image/jpeg" {
		t.Errorf("unexpected media types: %v", byID)
	}
}

func TestPackageDocument_Metadata(t *testing.T) {
	doc := sampleDocument()
	pkg := parseOPF(t, doc)

	if pkg.Metadata.Title != "My Novel" || pkg.Metadata.Creator != "Someone" {
		t.Errorf("unexpected title/creator: %q / %q", pkg.Metadata.Title, pkg.Metadata.Creator)
	}
	if pkg.Metadata.Identifier != doc.ID {
		t.Errorf("expected identifier %q, got %q", doc.ID, pkg.Metadata.Identifier)
	}
	if pkg.Metadata.Language != "zh" {
		t.Errorf("expected language zh, got %q", pkg.Metadata.Language)
	}
	if pkg.Metadata.Date != "2024-03-09" {
		t.Errorf("expected date 2024-03-09, got %q", pkg.Metadata.Date)
	}
	if len(pkg.Metadata.Meta) != 1 || pkg.Metadata.Meta[0].Content != "cover_img" {
		t.Errorf("expected cover meta, got %+v", pkg.Metadata.Meta)
	}
}

func TestPackageDocument_NoCover(t *testing.T) {
	doc := sampleDocument()
	doc.Cover = nil
	pkg := parseOPF(t, doc)

	if len(pkg.Metadata.Meta) != 0 {
		t.Errorf("expected no cover meta, got %+v", pkg.Metadata.Meta)
	}
	for _, it := range pkg.Manifest.Items {
		if it.ID == "cover_img" {
			t.Error("cover_img must not be listed without a cover")
		}
	}
}

func TestPackageDocument_CoverNeverInImagePages(t *testing.T) {
	doc := sampleDocument()
	src := PackageDocument(doc, time.Now())
	if got := strings.Count(src, `idref="image_page_`); got != len(doc.Images) {
		t.Errorf("expected %d image pages in the spine, got %d", len(doc.Images), got)
	}
	if strings.Count(src, `href="images/cover.jpg"`) != 1 || strings.Contains(src, `id="img_3"`) {
		t.Error("cover must not be listed as an ordinary image")
	}
}

func TestChapterPage_PageBreakOnlyOnFirst(t *testing.T) {
	doc := sampleDocument()
	for i := range doc.Chapters {
		page := ChapterPage(doc, i)
		hasBreak := strings.Contains(page, PageBreakBefore)
		hasBookTitle := strings.Contains(page, `<h1 class="book-title">My Novel</h1>`)
		if i == 0 && (!hasBreak || !hasBookTitle) {
			t.Errorf("chapter 1 should carry the page break and book title")
		}
		if i > 0 && (hasBreak || hasBookTitle) {
			t.Errorf("chapter %d must not carry the page break or book title", i+1)
		}
		if !strings.Contains(page, `<h1 class="chapter-title">`+doc.Chapters[i].Title+`</h1>`) {
			t.Errorf("chapter %d heading missing", i+1)
		}
	}
}

func TestChapterPage_Paragraphs(t *testing.T) {
	doc := sampleDocument()
	page := ChapterPage(doc, 0)
	if !strings.Contains(page, "<p>line one</p>\n<p>line two</p>") {
		t.Errorf("expected one paragraph per non-blank line:\n%s", page)
	}
	if strings.Contains(page, "<p></p>") {
		t.Error("blank lines must not produce paragraphs")
	}
}

func TestParagraphs_DropsImageReferences(t *testing.T) {
	got := Paragraphs("keep\n[图片1]\n![alt](x.png)\n<img src=\"x.png\"/>\nalso keep")
	want := []string{"<p>keep</p>", "<p>also keep</p>"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("paragraph %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestChapterPage_EscapesText(t *testing.T) {
	doc := book.New()
	doc.Title = "A & B"
	doc.Chapters = []book.Chapter{{Title: "<b>One</b> & Two", Content: "x < y"}}

	page := ChapterPage(doc, 0)
	if !strings.Contains(page, `<h1 class="chapter-title">One &amp; Two</h1>`) {
		t.Errorf("chapter title not stripped and escaped:\n%s", page)
	}
	if !strings.Contains(page, "<p>x &lt; y</p>") {
		t.Errorf("body not escaped:\n%s", page)
	}
	if !strings.Contains(page, `<h1 class="book-title">A &amp; B</h1>`) {
		t.Errorf("book title not escaped:\n%s", page)
	}
}

func TestNavAndNCX_ListChaptersOnly(t *testing.T) {
	doc := sampleDocument()
	nav := Nav(doc)
	ncx := NCX(doc)

	for _, page := range []string{nav, ncx} {
		if strings.Contains(page, "image_page") {
			t.Errorf("table of contents must not list image pages:\n%s", page)
		}
		for i := range doc.Chapters {
			if !strings.Contains(page, ChapterFile(i)) {
				t.Errorf("missing %s", ChapterFile(i))
			}
		}
	}
	if !strings.Contains(nav, "<h1>目录</h1>") {
		t.Error("nav heading missing")
	}
	if !strings.Contains(ncx, `playOrder="3"`) {
		t.Error("ncx play order missing")
	}
}

func TestCoverPage(t *testing.T) {
	page := CoverPage(sampleDocument())
	if !strings.Contains(page, "<h1>My Novel</h1>") || !strings.Contains(page, `<p class="author">Someone</p>`) {
		t.Errorf("cover page missing title or author:\n%s", page)
	}
	if strings.Contains(page, "<img") {
		t.Error("cover page must not reference the cover image")
	}
}

func TestImagePage(t *testing.T) {
	page := ImagePage(sampleDocument(), 1)
	if !strings.Contains(page, `<img src="images/b.jpg" alt="Image"/>`) {
		t.Errorf("image reference missing:\n%s", page)
	}
	if !strings.Contains(page, "<title>Image 2</title>") {
		t.Error("image page title missing")
	}
}

func TestAssemble_PartOrder(t *testing.T) {
	parts := Assemble(sampleDocument(), time.Now())
	want := []string{
		"mimetype",
		"META-INF/container.xml",
		"OEBPS/content.opf",
		"OEBPS/cover.xhtml",
		"OEBPS/toc.ncx",
		"OEBPS/nav.xhtml",
		"OEBPS/chapter_1.xhtml",
		"OEBPS/chapter_2.xhtml",
		"OEBPS/chapter_3.xhtml",
		"OEBPS/image_page_1.xhtml",
		"OEBPS/image_page_2.xhtml",
	}
	if len(parts) != len(want) {
		t.Fatalf("expected %d parts, got %d", len(want), len(parts))
	}
	for i, w := range want {
		if parts[i].Name != w {
			t.Errorf("part[%d]: expected %q, got %q", i, w, parts[i].Name)
		}
	}
	if string(parts[0].Data) != Mimetype {
		t.Errorf("unexpected mimetype content %q", parts[0].Data)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`<div class="x">a</div>`, `<section class="x">a</section>`},
		{`<div>divide</div>`, `<section>divide</section>`},
		{`<p>a div b</p>`, `<p>a div b</p>`},
		{`<divx>y</divx>`, `<divx>y</divx>`},
		{"<?xml version=\"1.0\"?>\n<div>\n</div>", "<?xml version=\"1.0\"?>\n<section>\n</section>"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Plain  ", "Plain"},
		{"<em>Bold</em> move", "Bold move"},
		{"Tom & Jerry", "Tom &amp; Jerry"},
		{"【番外】", "【番外】"},
		{"书名<番外>", "书名"},
		{"a<3 and b>2", "a2"},
		{"Title <unclosed", "Title &lt;unclosed"},
		{"<b><i>深</i></b>夜", "深夜"},
		{"<>empty", "&lt;&gt;empty"},
	}
	for _, tt := range tests {
		if got := Title(tt.in); got != tt.want {
			t.Errorf("Title(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsImageReference(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"[图片:a.png]", true},
		{"![cover](a.png)", true},
		{`<img src="a.png"/>`, true},
		{`<img src="a.png">`, true},
		{"plain text", false},
		{`text with <img src="a.png"/> inline`, false},
		{`<img src="a.png"/> <img src="b.png"/>`, true},
		{`<img src="a.png"/> caption`, false},
		{"[注释] not an image", false},
	}
	for _, tt := range tests {
		if got := IsImageReference(tt.line); got != tt.want {
			t.Errorf("IsImageReference(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
