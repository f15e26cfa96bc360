package stages

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dtnitsch/readembed/pkg/pipeline"
	"github.com/dtnitsch/readembed/pkg/result"
)

type authors struct{ base }

// Authors looks for author markup first and falls back to scanning the
// page for a short "By ..." line.
func Authors(p *pipeline.Page) pipeline.Stage {
	if p.Doc == nil {
		return nil
	}
	return authors{base{"authors", p}}
}

func (s authors) Enrich(_ context.Context, res *result.Result) error {
	doc := s.page.Doc

	author := doc.Meta("author")
	if author == "" {
		author = doc.ElementValue(`[itemprop="author"]`, "")
	}
	if author == "" {
		author = doc.ElementValue(`a[rel="author"]`, "")
	}
	if author != "" {
		if names := ParseAuthors(author); len(names) > 0 {
			res.Set("authors", names, result.Sure)
		}
		return nil
	}

	if res.Has("authors") {
		return nil
	}
	if byline := s.byline(); byline != "" {
		res.Set("authors", ParseAuthors(byline), result.Guess)
	}
	return nil
}

// byline returns the shortest element text that reads like "By Jane Doe".
// Longer lines are allowed for each "and" or comma they contain.
func (s authors) byline() string {
	var best string
	for _, text := range s.page.Doc.ElementTexts() {
		parts := strings.Fields(text)
		joined := strings.Join(parts, " ")
		allowed := 4 + 4*strings.Count(strings.ToLower(joined), " and ") + 4*strings.Count(joined, ",")
		if len(parts) < 2 || len(parts) > allowed || !isBylinePrefix(parts[0]) {
			continue
		}
		name := strings.Join(parts[1:], " ")
		if best == "" || len(name) < len(best) {
			best = name
		}
	}
	return best
}

// isBylinePrefix reports whether word is "by", optionally followed by
// punctuation such as "By:".
func isBylinePrefix(word string) bool {
	lower := strings.ToLower(word)
	if !strings.HasPrefix(lower, "by") {
		return false
	}
	if len(lower) == 2 {
		return true
	}
	next, _ := utf8.DecodeRuneInString(lower[2:])
	return !unicode.IsLetter(next)
}

// ParseAuthors splits a byline such as "BY: JANE DOE AND John Roe" into
// cleaned names.
func ParseAuthors(value string) []string {
	value = strings.TrimSpace(value)
	if fields := strings.Fields(value); len(fields) > 0 && isBylinePrefix(fields[0]) {
		value = strings.TrimLeft(value[2:], " \t:-")
	}
	if value == "" {
		return nil
	}

	value = strings.ReplaceAll(value, " AND ", " and ")
	var names []string
	for _, name := range strings.Split(value, " and ") {
		if name = FixName(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// FixName title-cases names written entirely in upper or lower case and
// leaves mixed case alone.
func FixName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name != strings.ToUpper(name) && name != strings.ToLower(name) {
		return name
	}
	parts := strings.Split(name, " ")
	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return word
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(word[size:])
}
