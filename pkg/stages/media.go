package stages

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/readembed/pkg/detector"
	"github.com/dtnitsch/readembed/pkg/document"
	"github.com/dtnitsch/readembed/pkg/images"
	"github.com/dtnitsch/readembed/pkg/pipeline"
	"github.com/dtnitsch/readembed/pkg/result"
	"golang.org/x/net/html"
)

var videoHosts = map[string]bool{
	"youtube.com":          true,
	"vimeo.com":            true,
	"youtube-nocookie.com": true,
}

type imagesStage struct {
	base
	ranker *images.Ranker
}

// Images ranks the page's images and picks the primary one.
func Images(ranker *images.Ranker) pipeline.Factory {
	return func(p *pipeline.Page) pipeline.Stage {
		if ranker == nil || p.Doc == nil {
			return nil
		}
		return imagesStage{base{"images", p}, ranker}
	}
}

func (s imagesStage) Enrich(ctx context.Context, res *result.Result) error {
	return s.ranker.Apply(ctx, s.page.Doc, res)
}

type lastDitchMedia struct{ base }

// LastDitchMedia puts embedded videos the extractors dropped back at the
// top of the content.
func LastDitchMedia(p *pipeline.Page) pipeline.Stage {
	if p.Doc == nil {
		return nil
	}
	return lastDitchMedia{base{"last_ditch_media", p}}
}

func (s lastDitchMedia) Enrich(_ context.Context, res *result.Result) error {
	if !res.Has("content") {
		return nil
	}
	content := res.GetString("content")
	changed := false

	s.page.Doc.Find("iframe[src]").Each(func(_ int, sel *goquery.Selection) {
		src := strings.TrimSpace(sel.AttrOr("src", ""))
		if src == "" || !videoHosts[detector.TopHost(src)] || strings.Contains(content, src) {
			return
		}
		markup, err := goquery.OuterHtml(sel)
		if err != nil {
			return
		}
		content = markup + content
		changed = true
	})

	if changed {
		res.Set("content", content, result.Sure)
	}
	return nil
}

type finalContent struct{ base }

// FinalContent drops a leading headline from the content when it only
// repeats the title.
func FinalContent(p *pipeline.Page) pipeline.Stage {
	return finalContent{base{"final_content", p}}
}

func (s finalContent) Enrich(_ context.Context, res *result.Result) error {
	title := normalized(res.GetString("title"))
	if !res.Has("content") || title == "" {
		return nil
	}

	doc, err := document.Parse(res.GetString("content"), nil)
	if err != nil {
		return err
	}
	body := doc.Find("body")
	if body.Length() == 0 {
		return nil
	}
	root := body.Get(0)

	node := firstText(root)
	if node == nil || normalized(node.Data) != title {
		return nil
	}
	for node.Parent != nil && node.Parent != root && normalized(nodeText(node.Parent)) == title {
		node = node.Parent
	}
	node.Parent.RemoveChild(node)

	content, err := body.Html()
	if err != nil {
		return err
	}
	res.Set("content", strings.TrimSpace(content), result.Sure)
	return nil
}

func normalized(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func firstText(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return c
			}
		case html.ElementNode:
			if c.Data == "script" || c.Data == "style" {
				continue
			}
			if found := firstText(c); found != nil {
				return found
			}
		}
	}
	return nil
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
		b.WriteString(" ")
	}
	return b.String()
}
