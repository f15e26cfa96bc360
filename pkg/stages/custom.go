package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dtnitsch/readembed/pkg/document"
	"github.com/dtnitsch/readembed/pkg/pipeline"
	"github.com/dtnitsch/readembed/pkg/result"
)

// Override routes pages whose final URL matches Pattern to a site
// specific stage.
type Override struct {
	Pattern *regexp.Regexp
	Factory pipeline.Factory
}

// NewOverride compiles pattern case-insensitively.
func NewOverride(pattern string, f pipeline.Factory) Override {
	return Override{Pattern: regexp.MustCompile("(?i)" + pattern), Factory: f}
}

// DefaultOverrides is the built-in site table, checked in order.
func DefaultOverrides() []Override {
	return []Override{
		NewOverride(`^https?://(www\.)?fortune\.com/`, Fortune(FortuneAPI)),
	}
}

type custom struct {
	base
	overrides []Override
}

// Custom dispatches to the first override matching the page URL.
func Custom(overrides []Override) pipeline.Factory {
	return func(p *pipeline.Page) pipeline.Stage {
		return custom{base{"custom", p}, overrides}
	}
}

func (s custom) Enrich(ctx context.Context, res *result.Result) error {
	href := s.page.Href()
	for _, o := range s.overrides {
		if !o.Pattern.MatchString(href) {
			continue
		}
		stage := o.Factory(s.page)
		if stage == nil {
			return nil
		}
		return stage.Enrich(ctx, res)
	}
	return nil
}

// FortuneAPI serves article JSON by post id.
const FortuneAPI = "https://fortune.com/data/articles/"

var fortunePostID = regexp.MustCompile(`\bpostid-(\d+)\b`)

type fortune struct {
	base
	api string
}

// Fortune reads articles from the site's JSON API; the post id comes
// from the body class.
func Fortune(api string) pipeline.Factory {
	return func(p *pipeline.Page) pipeline.Stage {
		if p.Doc == nil {
			return nil
		}
		return fortune{base{"fortune", p}, api}
	}
}

type fortuneArticle struct {
	ID            int    `json:"id"`
	ShortTitle    string `json:"short_title"`
	Content       string `json:"content"`
	Excerpt       string `json:"excerpt"`
	FeaturedImage *struct {
		Src string `json:"src"`
	} `json:"featured_image"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Tags map[string]struct {
		Name string `json:"name"`
	} `json:"tags"`
	Time struct {
		Published string `json:"published"`
	} `json:"time"`
}

func (s fortune) Enrich(ctx context.Context, res *result.Result) error {
	m := fortunePostID.FindStringSubmatch(s.page.Doc.Find("body").AttrOr("class", ""))
	if m == nil {
		return nil
	}
	resp := s.page.Fetch(ctx, fmt.Sprintf("%s%s/1/", s.api, m[1]), false)
	if resp == nil {
		return nil
	}

	var body struct {
		Articles []fortuneArticle `json:"articles"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		return fmt.Errorf("failed to decode article JSON: %w", err)
	}

	var article *fortuneArticle
	for i := range body.Articles {
		if fmt.Sprint(body.Articles[i].ID) == m[1] {
			article = &body.Articles[i]
			break
		}
	}
	if article == nil {
		return nil
	}

	res.Set("embed", false, result.Certain)
	res.Set("title", article.ShortTitle, result.Certain)
	res.Set("content", article.Content, result.Certain)
	if article.FeaturedImage != nil && article.FeaturedImage.Src != "" {
		res.Set("primary_image", article.FeaturedImage.Src, result.Certain)
	}
	if excerpt, err := document.Parse(article.Excerpt, nil); err == nil {
		res.Set("summary", strings.Join(strings.Fields(excerpt.AllText()), " "), result.Certain)
	}

	var authors []string
	for _, a := range article.Authors {
		authors = append(authors, FixName(a.Name))
	}
	res.Set("authors", authors, result.Certain)

	keys := make([]string, 0, len(article.Tags))
	for k := range article.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	keywords := make([]string, 0, len(keys))
	for _, k := range keys {
		keywords = append(keywords, article.Tags[k].Name)
	}
	res.Set("keywords", keywords, result.Certain)

	if t, err := dateparse.ParseIn(article.Time.Published, time.UTC); err == nil {
		res.Set("published_at", t, result.Certain)
	}
	return nil
}
