// Package probe reads image dimensions from the first bytes of a remote
// image without decoding pixels.
package probe

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dtnitsch/readembed/pkg/db"
	"github.com/dtnitsch/readembed/pkg/fetcher"
	"github.com/dtnitsch/readembed/pkg/metrics"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxBytes int64 = 1 << 20
	DefaultTimeout        = 5 * time.Second
)

// ErrNoDimensions is returned for a previously failed probe served from cache.
var ErrNoDimensions = errors.New("image dimensions unavailable")

// Sizer reports the pixel dimensions of the image at url.
type Sizer interface {
	Size(ctx context.Context, url string) (width, height int, err error)
}

// HTTPProber fetches the head of an image and decodes only its header.
type HTTPProber struct {
	Client    *http.Client
	UserAgent string
	MaxBytes  int64
	Timeout   time.Duration
}

func NewHTTPProber() *HTTPProber {
	return &HTTPProber{
		Client:    &http.Client{},
		UserAgent: fetcher.DefaultUserAgent,
		MaxBytes:  DefaultMaxBytes,
		Timeout:   DefaultTimeout,
	}
}

func (p *HTTPProber) Size(ctx context.Context, url string) (int, int, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to build request: %w", err)
	}
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}

	limit := p.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	cfg, _, err := image.DecodeConfig(io.LimitReader(resp.Body, limit))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// CachedProber answers from the sqlite store when it can and records
// every fresh probe, failures included.
type CachedProber struct {
	Next   Sizer
	Store  *db.DB
	TTL    time.Duration
	Logger *slog.Logger
}

func (p *CachedProber) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p *CachedProber) Size(ctx context.Context, url string) (int, int, error) {
	if p.Store != nil {
		size, ok, err := p.Store.GetImageSize(url, p.TTL)
		if err != nil {
			p.logger().Warn("Failed to read probe cache", "url", url, "error", err)
		} else if ok {
			metrics.ImageProbes.WithLabelValues(metrics.ProbeCached).Inc()
			if size.Failed() {
				return 0, 0, fmt.Errorf("%w: %s", ErrNoDimensions, size.Error)
			}
			return size.Width, size.Height, nil
		}
	}

	w, h, err := p.Next.Size(ctx, url)
	if p.Store == nil {
		return w, h, err
	}

	switch {
	case err == nil:
		if serr := p.Store.PutImageSize(url, w, h); serr != nil {
			p.logger().Warn("Failed to store image size", "url", url, "error", serr)
		}
	case ctx.Err() == nil:
		// Canceled probes say nothing about the image
		if serr := p.Store.PutImageSizeError(url, err); serr != nil {
			p.logger().Warn("Failed to store probe failure", "url", url, "error", serr)
		}
	}
	return w, h, err
}
