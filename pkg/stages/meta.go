package stages

import (
	"context"
	"strings"

	"github.com/dtnitsch/readembed/pkg/images"
	"github.com/dtnitsch/readembed/pkg/pipeline"
	"github.com/dtnitsch/readembed/pkg/result"
)

type metaTags struct{ base }

// MetaTags reads Open Graph, Twitter card and plain <meta> declarations.
func MetaTags(p *pipeline.Page) pipeline.Stage {
	if p.Doc == nil {
		return nil
	}
	return metaTags{base{"meta_tags", p}}
}

func (s metaTags) Enrich(_ context.Context, res *result.Result) error {
	doc := s.page.Doc

	for _, key := range []string{"og:title", "twitter:title"} {
		if title := doc.Meta(key); title != "" {
			res.SetBest("title", title, result.MostlySure, result.TextLength)
			break
		}
	}

	for _, key := range []string{"og:description", "twitter:description", "description"} {
		if desc := doc.Meta(key); desc != "" {
			res.SetIfLonger("subtitle", desc, result.FairlySure)
		}
	}

	var keywords []string
	if kw := doc.Meta("keywords"); kw != "" {
		keywords = append(keywords, trimAll(strings.Split(kw, ","))...)
	}
	keywords = append(keywords, doc.ElementValues(`meta[property="article:tag"][content]`, "content")...)
	if len(keywords) > 0 {
		res.Add("keywords", keywords)
	}

	if canonical := doc.ElementValue(`link[rel="canonical"][href]`, "href"); canonical != "" {
		res.Set("canonical_url", s.page.Absolutize(canonical), result.FairlySure)
	}

	if src := doc.ElementValue(`link[rel="image_src"][href]`, "href"); src != "" {
		res.Add(images.HintField, []string{s.page.Absolutize(src)})
	}
	return nil
}
