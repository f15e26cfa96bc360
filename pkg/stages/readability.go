package stages

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/readembed/pkg/images"
	"github.com/dtnitsch/readembed/pkg/pipeline"
	"github.com/dtnitsch/readembed/pkg/result"
	"github.com/dtnitsch/readembed/pkg/sanitizer"
	"github.com/go-shiori/go-readability"
)

type readable struct{ base }

// Readability runs the readability algorithm over the whole page.
func Readability(p *pipeline.Page) pipeline.Stage {
	if p.Doc == nil || p.URL == nil {
		return nil
	}
	return readable{base{"readability", p}}
}

func (s readable) Enrich(_ context.Context, res *result.Result) error {
	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(s.page.Content), s.page.URL)
	if err != nil {
		return fmt.Errorf("failed to extract article: %w", err)
	}

	if content := sanitizer.Sanitize(article.Content); content != "" {
		res.SetBest("content", content, result.MostlySure, result.TextQuality)
	}
	if title := strings.TrimSpace(article.Title); title != "" {
		res.SetBest("title", title, result.FairlySure, result.TextLength)
	}
	if article.Excerpt != "" {
		res.SetIfLonger("subtitle", strings.TrimSpace(article.Excerpt), result.Guess)
	}
	if byline := strings.TrimSpace(article.Byline); byline != "" {
		if authors := ParseAuthors(byline); len(authors) > 0 {
			res.Set("authors", authors, result.FairlySure)
		}
	}
	if article.Image != "" {
		res.Add(images.HintField, []string{s.page.Absolutize(article.Image)})
	}
	if article.PublishedTime != nil && !article.PublishedTime.IsZero() {
		res.SetBest("published_at", article.PublishedTime.UTC(), result.FairlySure, result.TimeSpecificity)
	}
	if text := strings.TrimSpace(article.TextContent); text != "" {
		res.Set("_text", text, result.FairlySure)
	}
	return nil
}

type lastDitch struct{ base }

// LastDitch fills the title from <title> and, when nothing produced
// content, runs readability over the noscript blocks or the bare text.
func LastDitch(p *pipeline.Page) pipeline.Stage {
	if p.Doc == nil {
		return nil
	}
	return lastDitch{base{"last_ditch", p}}
}

func (s lastDitch) Enrich(_ context.Context, res *result.Result) error {
	doc := s.page.Doc
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		res.SetBest("title", title, result.Guess, result.TextLength)
	}

	if res.Has("content") || s.page.URL == nil {
		return nil
	}

	var parts []string
	doc.Find("noscript").Each(func(_ int, sel *goquery.Selection) {
		if t := strings.TrimSpace(sel.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	markup := strings.TrimSpace(strings.Join(parts, " "))
	if markup == "" {
		markup = "<html><body><p>" + strings.ReplaceAll(html.EscapeString(doc.AllText()), "\n", "</p><p>") + "</p></body></html>"
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(markup), s.page.URL)
	if err != nil {
		return fmt.Errorf("failed to extract fallback article: %w", err)
	}
	if content := sanitizer.Sanitize(article.Content); content != "" {
		res.Set("content", content, result.Guess)
	}
	return nil
}
