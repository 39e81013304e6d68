package segment

import (
	"fmt"
	"regexp"
)

// Rule classifies a trimmed line as a chapter marker.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// Match reports whether line starts a new chapter under this rule.
func (r Rule) Match(line string) bool {
	return r.Pattern.MatchString(line)
}

// DefaultRules returns the built-in marker rules in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "cn-numbered", Pattern: regexp.MustCompile(`^第[一二三四五六七八九十百千万\p{Nd}]+章`)},
		{Name: "chapter-en", Pattern: regexp.MustCompile(`^Chapter\s*\p{Nd}+`)},
		{Name: "numbered", Pattern: regexp.MustCompile(`^\p{Nd}+\..*$`)},
		{Name: "bracketed", Pattern: regexp.MustCompile(`^【.*】$`)},
	}
}

// CompileRules turns user supplied patterns into rules. Patterns are
// anchored at the start of the line when they are not already.
func CompileRules(patterns []string) ([]Rule, error) {
	rules := make([]Rule, 0, len(patterns))
	for i, p := range patterns {
		if p == "" {
			continue
		}
		if p[0] != '^' {
			p = "^" + p
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("chapter pattern %d: %w", i+1, err)
		}
		rules = append(rules, Rule{Name: fmt.Sprintf("custom-%d", i+1), Pattern: re})
	}
	return rules, nil
}
