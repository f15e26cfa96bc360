package stages

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/dtnitsch/readembed/pkg/pipeline"
	"github.com/dtnitsch/readembed/pkg/result"
	"github.com/dtnitsch/readembed/pkg/sanitizer"
	"github.com/mmcdole/gofeed"
)

const pdfContent = `<object data='%[1]s' type='application/pdf'><p>PDF could not be displayed.
Visit <a href='%[1]s'>%[1]s</a> to download directly.</p></object>`

type pdfType struct{ base }

// PDFType embeds a PDF response instead of extracting it.
func PDFType(p *pipeline.Page) pipeline.Stage {
	if p.Response == nil || !p.Response.ContentType.IsPDF() {
		return nil
	}
	return pdfType{base{"pdf_type", p}}
}

func (s pdfType) Enrich(_ context.Context, res *result.Result) error {
	href := html.EscapeString(s.page.Href())
	res.Set("content", fmt.Sprintf(pdfContent, href), result.Sure)
	res.Set("primary_image", s.page.Href(), result.Sure)
	res.Set("summary", "", result.Sure)
	res.Set("keywords", []string{}, result.Sure)
	return nil
}

type imageType struct{ base }

// ImageType turns a direct image URL into an embeddable image.
func ImageType(p *pipeline.Page) pipeline.Stage {
	if p.Response == nil || !p.Response.ContentType.IsImage() {
		return nil
	}
	return imageType{base{"image_type", p}}
}

func (s imageType) Enrich(_ context.Context, res *result.Result) error {
	res.Set("content", fmt.Sprintf("<img src='%s' />", html.EscapeString(s.page.Href())), result.Sure)
	res.Set("primary_image", s.page.Href(), result.Sure)
	res.Set("summary", "", result.Sure)
	res.Set("keywords", []string{}, result.Sure)
	res.Set("embed", true, result.Sure)
	return nil
}

type feedType struct{ base }

// FeedType describes an RSS or Atom feed by its channel and latest items.
func FeedType(p *pipeline.Page) pipeline.Stage {
	if p.Response == nil || !p.Response.ContentType.IsFeed() {
		return nil
	}
	return feedType{base{"feed_type", p}}
}

// maxFeedItems bounds the item list rendered as content.
const maxFeedItems = 20

func (s feedType) Enrich(_ context.Context, res *result.Result) error {
	feed, err := gofeed.NewParser().ParseString(s.page.Response.Body)
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	if t := strings.TrimSpace(feed.Title); t != "" {
		res.Set("title", t, result.Sure)
	}
	if d := strings.TrimSpace(feed.Description); d != "" {
		res.Set("subtitle", d, result.Sure)
		res.Set("summary", d, result.Sure)
	}
	if feed.Image != nil && feed.Image.URL != "" {
		res.Set("primary_image", s.page.Absolutize(feed.Image.URL), result.Sure)
	}
	if feed.Link != "" {
		res.Set("canonical_url", s.page.Absolutize(feed.Link), result.FairlySure)
	}

	var authors []string
	for _, a := range feed.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			authors = append(authors, FixName(a.Name))
		}
	}
	if len(authors) > 0 {
		res.Set("authors", authors, result.Sure)
	}
	if len(feed.Categories) > 0 {
		res.AddAt("keywords", trimAll(feed.Categories), result.Sure)
	}
	if t := feed.PublishedParsed; t != nil {
		res.Set("published_at", t.UTC(), result.Sure)
	} else if t := feed.UpdatedParsed; t != nil {
		res.Set("published_at", t.UTC(), result.Sure)
	}

	items := append([]*gofeed.Item(nil), feed.Items...)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].PublishedParsed, items[j].PublishedParsed
		return a != nil && (b == nil || a.After(*b))
	})
	if len(items) > maxFeedItems {
		items = items[:maxFeedItems]
	}

	var b strings.Builder
	listed := 0
	b.WriteString("<ul>")
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		listed++
		if item.Link != "" {
			fmt.Fprintf(&b, `<li><a href="%s">%s</a></li>`, html.EscapeString(s.page.Absolutize(item.Link)), html.EscapeString(title))
		} else {
			fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(title))
		}
	}
	b.WriteString("</ul>")
	if listed == 0 {
		return nil
	}
	if content := sanitizer.Sanitize(b.String()); content != "" {
		res.Set("content", content, result.Sure)
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
