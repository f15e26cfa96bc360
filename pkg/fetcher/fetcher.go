package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dtnitsch/readembed/pkg/caching"
	"github.com/dtnitsch/readembed/pkg/detector"
	"github.com/gogs/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	DefaultTimeout         = 10 * time.Second
	DefaultMaxBytes  int64 = 3 * 1024 * 1024
	DefaultUserAgent       = "readembed/1.0 (+https://github.com/dtnitsch/readembed)"
	// DefaultMobileUserAgent asks servers for their mobile rendering.
	DefaultMobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
)

// ErrResponseTooLarge is returned when a body exceeds the size cap.
var ErrResponseTooLarge = errors.New("response body too large")

// Response is a completed fetch, whatever its status.
type Response struct {
	Status      int
	URL         string // final URL after redirects
	ContentType detector.ContentType
	Body        string // decoded text; empty for binary content
	Raw         []byte
	Header      http.Header
}

type Fetcher struct {
	client          *http.Client
	userAgent       string
	mobileUserAgent string
	maxBytes        int64
	cache           *caching.Cache
	logger          *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

func WithClient(c *http.Client) Option { return func(f *Fetcher) { f.client = c } }

func WithUserAgents(desktop, mobile string) Option {
	return func(f *Fetcher) {
		if desktop != "" {
			f.userAgent = desktop
		}
		if mobile != "" {
			f.mobileUserAgent = mobile
		}
	}
}

func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithCache stores successful responses in c and serves them until they expire.
func WithCache(c *caching.Cache) Option { return func(f *Fetcher) { f.cache = c } }

func WithLogger(l *slog.Logger) Option { return func(f *Fetcher) { f.logger = l } }

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:          &http.Client{},
		userAgent:       DefaultUserAgent,
		mobileUserAgent: DefaultMobileUserAgent,
		maxBytes:        DefaultMaxBytes,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// cachedResponse is the on-disk form of a Response.
type cachedResponse struct {
	Status      int         `json:"status"`
	URL         string      `json:"url"`
	ContentType string      `json:"content_type"`
	Header      http.Header `json:"header"`
	Raw         []byte      `json:"raw"`
}

func cacheKey(rawURL string, mobile bool) string {
	if mobile {
		return "mobile:" + rawURL
	}
	return rawURL
}

// Fetch GETs rawURL. Non-200 responses are returned without error; a nil
// Response means the fetch itself failed (DNS, connection, timeout, size).
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, timeout time.Duration, mobile bool) (*Response, error) {
	if f.cache != nil {
		if data, ok := f.cache.Get(cacheKey(rawURL, mobile)); ok {
			var cr cachedResponse
			if err := json.Unmarshal(data, &cr); err == nil {
				f.logger.Debug("Serving response from cache", "url", rawURL)
				return build(cr.Status, cr.URL, cr.ContentType, cr.Header, cr.Raw), nil
			}
		}
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	ua := f.userAgent
	if mobile {
		ua = f.mobileUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(raw)) > f.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes from %s", ErrResponseTooLarge, f.maxBytes, rawURL)
	}

	final := resp.Request.URL.String()
	out := build(resp.StatusCode, final, resp.Header.Get("Content-Type"), resp.Header, raw)

	if f.cache != nil && resp.StatusCode == http.StatusOK {
		data, err := json.Marshal(cachedResponse{
			Status:      resp.StatusCode,
			URL:         final,
			ContentType: resp.Header.Get("Content-Type"),
			Header:      resp.Header,
			Raw:         raw,
		})
		if err == nil {
			if err := f.cache.Set(cacheKey(rawURL, mobile), data); err != nil {
				f.logger.Warn("Failed to cache response", "url", rawURL, "error", err)
			}
		}
	}
	return out, nil
}

func build(status int, finalURL, contentType string, header http.Header, raw []byte) *Response {
	ct := detector.Sniff(contentType, raw)
	r := &Response{
		Status:      status,
		URL:         finalURL,
		ContentType: ct,
		Raw:         raw,
		Header:      header,
	}
	if !ct.IsBinary() {
		r.Body = decode(raw, contentType)
	}
	return r
}

// decode converts raw to UTF-8 using the declared charset or a <meta>
// declaration, guessing statistically when neither exists.
func decode(raw []byte, contentType string) string {
	enc, name, certain := charset.DetermineEncoding(raw, contentType)
	if !certain && name == "windows-1252" {
		if guess, err := chardet.NewTextDetector().DetectBest(raw); err == nil && guess.Confidence >= 50 {
			if e, err := htmlindex.Get(guess.Charset); err == nil {
				enc, name = e, guess.Charset
			}
		}
	}
	if enc == nil || strings.EqualFold(name, "utf-8") {
		return string(bytes.ToValidUTF8(raw, []byte("\uFFFD")))
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(bytes.ToValidUTF8(raw, []byte("\uFFFD")))
	}
	return string(out)
}
