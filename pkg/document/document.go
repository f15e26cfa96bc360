// Package document wraps a parsed HTML page with the lookups the
// extraction stages share.
package document

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/readembed/pkg/detector"
)

// Document is a parsed page plus the URL relative links resolve against.
type Document struct {
	*goquery.Document
	base *url.URL
}

// Parse builds a Document from markup. base may be nil.
func Parse(markup string, base *url.URL) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Url = base
	return &Document{Document: doc, base: base}, nil
}

// WrapText turns plain text into a page with the text inside <pre>.
func WrapText(text string) string {
	return "<html><body><pre>" + html.EscapeString(text) + "</pre></body></html>"
}

// Base returns the URL the document was fetched from.
func (d *Document) Base() *url.URL {
	return d.base
}

// Absolutize resolves ref against the document URL.
func (d *Document) Absolutize(ref string) string {
	return detector.Absolutize(d.base, ref)
}

// ElementValue returns the first non-empty value of attr on elements
// matching selector. An empty attr means the element text.
func (d *Document) ElementValue(selector, attr string) string {
	var value string
	d.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if attr == "" {
			value = strings.TrimSpace(s.Text())
		} else {
			value = strings.TrimSpace(s.AttrOr(attr, ""))
		}
		return value == ""
	})
	return value
}

// ElementValues returns every non-empty value of attr on matching elements.
func (d *Document) ElementValues(selector, attr string) []string {
	var values []string
	d.Find(selector).Each(func(_ int, s *goquery.Selection) {
		var v string
		if attr == "" {
			v = s.Text()
		} else {
			v = s.AttrOr(attr, "")
		}
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	})
	return values
}

// Meta returns the content of the first <meta> whose name or property is key.
func (d *Document) Meta(key string) string {
	sel := fmt.Sprintf(`meta[name=%q][content], meta[property=%q][content], meta[itemprop=%q][content]`, key, key, key)
	return d.ElementValue(sel, "content")
}

// AllText returns the text of the body with script and style removed,
// blocks separated by newlines.
func (d *Document) AllText() string {
	body := d.Find("body")
	if body.Length() == 0 {
		body = d.Selection
	}
	body = body.Clone()
	body.Find("script, style, noscript, template").Remove()
	return strings.Join(TextChunks(body), "\n")
}

// TextChunks returns the trimmed, non-empty text nodes under sel.
func TextChunks(sel *goquery.Selection) []string {
	var chunks []string
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				if t := strings.TrimSpace(c.Text()); t != "" {
					chunks = append(chunks, t)
				}
				return
			}
			walk(c)
		})
	}
	walk(sel)
	return chunks
}

// ElementTexts returns the trimmed text of every element in the document.
func (d *Document) ElementTexts() []string {
	return d.ElementValues("body *", "")
}

// HTML renders the document.
func (d *Document) HTML() string {
	out, err := d.Html()
	if err != nil {
		return ""
	}
	return out
}
