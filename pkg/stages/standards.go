package stages

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/dtnitsch/readembed/pkg/document"
	"github.com/dtnitsch/readembed/pkg/images"
	"github.com/dtnitsch/readembed/pkg/pipeline"
	"github.com/dtnitsch/readembed/pkg/result"
	"github.com/dtnitsch/readembed/pkg/sanitizer"
)

var articleTypes = map[string]bool{
	"Article":              true,
	"NewsArticle":          true,
	"BlogPosting":          true,
	"ReportageNewsArticle": true,
}

type standards struct{ base }

// Standards reads schema.org article markup, both microdata and JSON-LD.
func Standards(p *pipeline.Page) pipeline.Stage {
	if p.Doc == nil {
		return nil
	}
	return standards{base{"standards", p}}
}

func (s standards) Enrich(_ context.Context, res *result.Result) error {
	s.microdata(res)
	s.linkedData(res)
	return nil
}

func schemaType(itemtype string) string {
	t := strings.TrimSpace(itemtype)
	for _, prefix := range []string{"http://schema.org/", "https://schema.org/"} {
		if strings.HasPrefix(t, prefix) {
			return strings.TrimPrefix(t, prefix)
		}
	}
	return ""
}

func (s standards) microdata(res *result.Result) {
	doc := s.page.Doc

	var content string
	doc.Find("[itemtype]").Each(func(_ int, sel *goquery.Selection) {
		if !articleTypes[schemaType(sel.AttrOr("itemtype", ""))] {
			return
		}
		if markup, err := goquery.OuterHtml(sel); err == nil && len(markup) > len(content) {
			content = markup
		}
	})

	var parts []string
	doc.Find(`[itemprop="articleBody"]`).Each(func(_ int, sel *goquery.Selection) {
		if markup, err := goquery.OuterHtml(sel); err == nil {
			parts = append(parts, markup)
		}
	})
	if len(parts) > 0 {
		content = strings.Join(parts, "")
	}

	if content = sanitizer.Sanitize(content); content != "" {
		if d, err := document.Parse(content, nil); err == nil {
			if text := d.AllText(); len(strings.TrimSpace(text)) > 5 {
				res.Set("content", content, result.Sure)
				res.Set("_text", text, result.Sure)
			}
		}
	}

	var genres []string
	doc.Find(`[itemprop="genre"]`).Each(func(_ int, sel *goquery.Selection) {
		g := sel.AttrOr("content", "")
		if g == "" {
			g = sel.Text()
		}
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	})
	if len(genres) > 0 {
		res.Add("keywords", genres)
	}
}

// linkedData handles <script type="application/ld+json"> blocks.
func (s standards) linkedData(res *result.Result) {
	s.page.Doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var raw any
		if err := json.Unmarshal([]byte(sel.Text()), &raw); err != nil {
			s.page.Logger.Debug("Skipping malformed JSON-LD", "error", err)
			return
		}
		for _, obj := range ldObjects(raw) {
			if ldIsArticle(obj) {
				s.applyArticle(obj, res)
			}
		}
	})
}

func ldObjects(raw any) []map[string]any {
	var out []map[string]any
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			out = append(out, ldObjects(item)...)
		}
	case map[string]any:
		out = append(out, v)
		if graph, ok := v["@graph"]; ok {
			out = append(out, ldObjects(graph)...)
		}
	}
	return out
}

func ldIsArticle(obj map[string]any) bool {
	for _, t := range ldStrings(obj["@type"]) {
		if articleTypes[t] {
			return true
		}
	}
	return false
}

// ldStrings flattens a JSON-LD value into strings, reading "name" or
// "url" from nested objects.
func ldStrings(v any) []string {
	switch t := v.(type) {
	case string:
		if t = strings.TrimSpace(t); t != "" {
			return []string{t}
		}
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, ldStrings(item)...)
		}
		return out
	case map[string]any:
		if name, ok := t["name"]; ok {
			return ldStrings(name)
		}
		if u, ok := t["url"]; ok {
			return ldStrings(u)
		}
	}
	return nil
}

func (s standards) applyArticle(obj map[string]any, res *result.Result) {
	if headline := ldStrings(obj["headline"]); len(headline) > 0 {
		res.SetBest("title", headline[0], result.MostlySure, result.TextLength)
	}
	if desc := ldStrings(obj["description"]); len(desc) > 0 {
		res.SetIfLonger("subtitle", desc[0], result.FairlySure)
	}

	var authors []string
	for _, name := range ldStrings(obj["author"]) {
		authors = append(authors, ParseAuthors(name)...)
	}
	if len(authors) > 0 {
		res.Set("authors", authors, result.MostlySure)
	}

	if published := ldStrings(obj["datePublished"]); len(published) > 0 {
		if t, err := dateparse.ParseIn(published[0], time.UTC); err == nil {
			res.SetBest("published_at", t, result.MostlySure, result.TimeSpecificity)
		}
	}

	var keywords []string
	for _, kw := range ldStrings(obj["keywords"]) {
		keywords = append(keywords, trimAll(strings.Split(kw, ","))...)
	}
	if len(keywords) > 0 {
		res.Add("keywords", keywords)
	}

	var imgs []string
	for _, u := range ldStrings(obj["image"]) {
		imgs = append(imgs, s.page.Absolutize(u))
	}
	if len(imgs) > 0 {
		res.Add(images.HintField, imgs)
	}

	if body := ldStrings(obj["articleBody"]); len(body) > 0 {
		res.Set("_text", body[0], result.FairlySure)
	}
}
