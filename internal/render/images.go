package render

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var imageRefPrefixes = []string{"[图片", "!["}

var markdown = goldmark.New()

// IsImageReference reports whether a trimmed body line only points at an
// image. Such lines are dropped because images get their own pages.
func IsImageReference(line string) bool {
	for _, p := range imageRefPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	if !strings.Contains(strings.ToLower(line), "<img") {
		return false
	}

	src := []byte(line)
	doc := markdown.Parser().Parse(text.NewReader(src))
	block := doc.FirstChild()
	if block == nil || block.NextSibling() != nil {
		return false
	}

	switch n := block.(type) {
	case *ast.HTMLBlock:
		if n.Lines().Len() == 0 {
			return false
		}
		seg := n.Lines().At(0)
		return isImgTag(seg.Value(src))
	case *ast.Paragraph:
		return imageOnly(n, src)
	}
	return false
}

// imageOnly reports whether a paragraph holds images and whitespace only.
func imageOnly(para *ast.Paragraph, src []byte) bool {
	found := false
	for c := para.FirstChild(); c != nil; c = c.NextSibling() {
		switch n := c.(type) {
		case *ast.Image:
			found = true
		case *ast.RawHTML:
			if n.Segments.Len() == 0 {
				return false
			}
			seg := n.Segments.At(0)
			if !isImgTag(seg.Value(src)) {
				return false
			}
			found = true
		case *ast.Text:
			if strings.TrimSpace(string(n.Segment.Value(src))) != "" {
				return false
			}
		default:
			return false
		}
	}
	return found
}

func isImgTag(b []byte) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(string(b))), "<img")
}
