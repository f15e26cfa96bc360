package stages

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/readembed/pkg/document"
	"github.com/dtnitsch/readembed/pkg/images"
	"github.com/dtnitsch/readembed/pkg/pipeline"
	"github.com/dtnitsch/readembed/pkg/result"
	"github.com/dtnitsch/readembed/pkg/sanitizer"
)

type amp struct{ base }

// AMP fetches the page's AMP rendition, which tends to carry cleaner
// markup and well-chosen images.
func AMP(p *pipeline.Page) pipeline.Stage {
	if p.Doc == nil {
		return nil
	}
	return amp{base{"amp", p}}
}

func (s amp) Enrich(ctx context.Context, res *result.Result) error {
	href := s.page.Doc.ElementValue(`link[rel="amphtml"][href]`, "href")
	if href == "" {
		return nil
	}
	target := s.page.Absolutize(href)
	resp := s.page.Fetch(ctx, target, true)
	if resp == nil || resp.Body == "" {
		return nil
	}

	ampURL := s.page.URL
	if u, err := url.Parse(resp.URL); err == nil && resp.URL != "" {
		ampURL = u
	}
	doc, err := document.Parse(resp.Body, ampURL)
	if err != nil {
		return err
	}

	var imgs []string
	doc.Find("amp-img[src]").Each(func(_ int, sel *goquery.Selection) {
		if src := strings.TrimSpace(sel.AttrOr("src", "")); src != "" {
			imgs = append(imgs, doc.Absolutize(src))
		}
	})
	if len(imgs) > 0 {
		res.AddAt(images.HintField, imgs, result.MostlySure)
	}

	var parts []string
	doc.Find("article, section").Each(func(_ int, sel *goquery.Selection) {
		if markup, err := goquery.OuterHtml(sel); err == nil {
			parts = append(parts, markup)
		}
	})
	if markup := strings.TrimSpace(strings.Join(parts, " ")); markup != "" {
		if content := sanitizer.Sanitize(markup); content != "" {
			res.Set("content", content, result.FairlySure)
		}
	}
	return nil
}
