package render

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var tagRun = regexp.MustCompile(`<[^>]+>`)

// StripTags removes every <...> run from s. An unmatched '<' is kept as
// text.
func StripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	return tagRun.ReplaceAllString(s, "")
}

// Title strips markup from a title, trims it and escapes it for XHTML.
func Title(s string) string {
	return html.EscapeString(strings.TrimSpace(StripTags(s)))
}

// Text escapes plain text for XHTML content and attribute values.
func Text(s string) string {
	return html.EscapeString(s)
}

// Sanitize renames div elements to section elements. Every other byte of
// the page, including text content, is left as is.
func Sanitize(page string) string {
	if !strings.Contains(page, "div") {
		return page
	}
	var out bytes.Buffer
	out.Grow(len(page))
	z := html.NewTokenizer(strings.NewReader(page))
	for {
		tt := z.Next()
		raw := z.Raw()
		if tt == html.ErrorToken {
			out.Write(raw)
			return out.String()
		}
		switch tt {
		case html.StartTagToken:
			if isDivTag(raw, "<div") {
				out.WriteString("<section")
				out.Write(raw[len("<div"):])
				continue
			}
		case html.EndTagToken:
			if isDivTag(raw, "</div") {
				out.WriteString("</section")
				out.Write(raw[len("</div"):])
				continue
			}
		}
		out.Write(raw)
	}
}

// isDivTag matches the exact lowercase tag name followed by '>' or whitespace.
func isDivTag(raw []byte, prefix string) bool {
	if !bytes.HasPrefix(raw, []byte(prefix)) || len(raw) <= len(prefix) {
		return false
	}
	switch raw[len(prefix)] {
	case '>', ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}
