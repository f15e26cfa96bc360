package pipeline

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/dtnitsch/readembed/pkg/document"
	"github.com/dtnitsch/readembed/pkg/fetcher"
)

// Fetcher performs the nested fetches some stages need (AMP, oEmbed,
// site APIs).
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration, mobile bool) (*fetcher.Response, error)
}

// Page is what every stage of one run is built from.
type Page struct {
	RequestURL string
	URL        *url.URL // final URL after redirects
	Response   *fetcher.Response
	Content    string
	Doc        *document.Document // nil unless the body is markup
	Fetcher    Fetcher
	Timeout    time.Duration
	Logger     *slog.Logger
}

// NewPage wraps a fetch response. Plain text is wrapped in <pre> so the
// HTML stages can treat it as a document.
func NewPage(requestURL string, resp *fetcher.Response, f Fetcher, timeout time.Duration, logger *slog.Logger) *Page {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Page{
		RequestURL: requestURL,
		Response:   resp,
		Fetcher:    f,
		Timeout:    timeout,
		Logger:     logger,
	}

	final := requestURL
	if resp != nil && resp.URL != "" {
		final = resp.URL
	}
	if u, err := url.Parse(final); err == nil {
		p.URL = u
	}

	if resp == nil || resp.ContentType.IsBinary() {
		return p
	}
	p.Content = resp.Body
	if resp.ContentType.IsText() {
		p.Content = document.WrapText(resp.Body)
	}

	if resp.ContentType.IsHTML() || resp.ContentType.IsText() || strings.Contains(p.Content, "html>") {
		doc, err := document.Parse(p.Content, p.URL)
		if err != nil {
			logger.Warn("Failed to parse document", "url", final, "error", err)
		} else {
			p.Doc = doc
		}
	}
	return p
}

// Href returns the final URL as a string.
func (p *Page) Href() string {
	if p.URL == nil {
		return p.RequestURL
	}
	return p.URL.String()
}

// Absolutize resolves ref against the final URL.
func (p *Page) Absolutize(ref string) string {
	if p.Doc != nil {
		return p.Doc.Absolutize(ref)
	}
	if p.URL == nil {
		return ref
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return p.URL.ResolveReference(r).String()
}

// Fetch runs a nested fetch with the page's timeout. Failures and non-200
// responses come back as nil.
func (p *Page) Fetch(ctx context.Context, rawURL string, mobile bool) *fetcher.Response {
	if p.Fetcher == nil {
		return nil
	}
	resp, err := p.Fetcher.Fetch(ctx, rawURL, p.Timeout, mobile)
	if err != nil {
		p.Logger.Debug("Nested fetch failed", "url", rawURL, "error", err)
		return nil
	}
	if resp.Status != 200 {
		p.Logger.Debug("Nested fetch returned non-200", "url", rawURL, "status", resp.Status)
		return nil
	}
	return resp
}
