package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/dtnitsch/readembed/pkg/pipeline"
	"github.com/dtnitsch/readembed/pkg/result"
)

const oembedLinks = `link[type="application/json+oembed"][href], link[type="text/json+oembed"][href]`

type oembed struct{ base }

// OEmbed follows the page's oEmbed discovery link and prefers the
// provider's embed over anything extracted from the page.
func OEmbed(p *pipeline.Page) pipeline.Stage {
	if p.Doc == nil {
		return nil
	}
	return oembed{base{"oembed", p}}
}

func (s oembed) Enrich(ctx context.Context, res *result.Result) error {
	href := s.page.Doc.ElementValue(oembedLinks, "href")
	if href == "" {
		return nil
	}
	resp := s.page.Fetch(ctx, s.page.Absolutize(href), false)
	if resp == nil {
		return nil
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(resp.Body), &data); err != nil {
		return fmt.Errorf("failed to decode oEmbed response: %w", err)
	}
	applyOEmbed(data, res)
	return nil
}

func stringField(data map[string]any, key string) string {
	v, _ := data[key].(string)
	return strings.TrimSpace(v)
}

func applyOEmbed(data map[string]any, res *result.Result) {
	if name := stringField(data, "author_name"); name != "" {
		res.Set("authors", []string{FixName(name)}, result.Certain)
	}

	title := stringField(data, "title")
	markup := stringField(data, "html")
	photo := stringField(data, "url")

	switch {
	case markup != "":
		res.Set("embed", true, result.Guess)
		conf := result.Guess
		if strings.Contains(markup, "<") && strings.Contains(markup, ">") {
			conf = result.Certain
		}
		res.Set("content", markup, conf)
		if title != "" {
			res.Set("title", title, result.Guess)
		}
		if thumb := stringField(data, "thumbnail_url"); thumb != "" {
			res.Set("primary_image", thumb, result.FairlySure)
		}
	case photo != "" && stringField(data, "type") == "photo":
		res.Set("embed", true, result.Guess)
		res.Set("content", fmt.Sprintf("<img src='%s' />", html.EscapeString(photo)), result.Certain)
		if title != "" {
			res.Set("title", title, result.Guess)
		}
		res.Set("primary_image", photo, result.Certain)
	}
}
