// Package segment splits decoded text into a book title and ordered chapters.
package segment

import (
	"path/filepath"
	"strings"

	"github.com/dgallion1/txt2epub/internal/book"
)

// FrontMatterTitle titles text that appears before the first marker.
const FrontMatterTitle = "前言"

// Segmenter applies an ordered rule list to each line; the first match wins.
type Segmenter struct {
	Rules []Rule
}

// New returns a Segmenter using the default rules followed by extra.
func New(extra ...Rule) *Segmenter {
	return &Segmenter{Rules: append(DefaultRules(), extra...)}
}

// Result is the outcome of segmenting one document.
type Result struct {
	Title    string
	Chapters []book.Chapter
}

// Classify returns the name of the first rule matching the trimmed line.
func (s *Segmenter) Classify(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	for _, r := range s.Rules {
		if r.Match(line) {
			return r.Name, true
		}
	}
	return "", false
}

// Split extracts the title from the first line and detects chapters in the rest.
// The returned chapter list is never empty.
func (s *Segmenter) Split(text, filename string) Result {
	lines := strings.Split(text, "\n")
	title := strings.TrimSpace(lines[0])
	body := strings.Join(lines[1:], "\n")

	if title == "" || title == book.DefaultTitle {
		if stem := fileStem(filename); stem != "" {
			title = stem
		}
	}

	var (
		chapters     []book.Chapter
		current      strings.Builder
		chapterTitle = FrontMatterTitle
	)

	flush := func() {
		content := strings.TrimSpace(current.String())
		if content != "" {
			chapters = append(chapters, book.Chapter{Title: chapterTitle, Content: content})
		}
	}

	for _, raw := range lines[1:] {
		line := strings.TrimSpace(raw)
		if line == "" {
			current.WriteByte('\n')
			continue
		}
		if _, ok := s.Classify(line); ok {
			flush()
			chapterTitle = line
			current.Reset()
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	flush()

	if len(chapters) == 0 {
		chapters = append(chapters, book.Chapter{Title: title, Content: strings.TrimSpace(body)})
	}

	return Result{Title: title, Chapters: chapters}
}

func fileStem(filename string) string {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" {
		return stem
	}
	return base
}
