// Package extractor is the public entry point: fetch a URL, run every
// enrichment stage over it and return the external field map.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/dtnitsch/readembed/models"
	"github.com/dtnitsch/readembed/pkg/caching"
	"github.com/dtnitsch/readembed/pkg/db"
	"github.com/dtnitsch/readembed/pkg/fetcher"
	"github.com/dtnitsch/readembed/pkg/images"
	"github.com/dtnitsch/readembed/pkg/pipeline"
	"github.com/dtnitsch/readembed/pkg/probe"
	"github.com/dtnitsch/readembed/pkg/result"
	"github.com/dtnitsch/readembed/pkg/stages"
)

// Extractor holds the collaborators shared by every extraction. It is
// safe for concurrent use.
type Extractor struct {
	cfg       models.Config
	logger    *slog.Logger
	fetcher   *fetcher.Fetcher
	store     *db.DB
	factories []pipeline.Factory
}

// New wires the fetcher, the image size prober and the stage list from cfg.
func New(cfg models.Config, logger *slog.Logger) (*Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client := &http.Client{}

	opts := []fetcher.Option{
		fetcher.WithClient(client),
		fetcher.WithUserAgents(cfg.UserAgent, cfg.MobileUserAgent),
		fetcher.WithMaxBytes(cfg.MaxBytes),
		fetcher.WithLogger(logger),
	}
	if cfg.CacheDir != "" {
		cache, err := caching.NewCache(cfg.CacheDir, cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to open response cache: %w", err)
		}
		opts = append(opts, fetcher.WithCache(cache))
	}

	e := &Extractor{
		cfg:     cfg,
		logger:  logger,
		fetcher: fetcher.NewFetcher(opts...),
	}

	prober := probe.NewHTTPProber()
	prober.Client = client
	if cfg.UserAgent != "" {
		prober.UserAgent = cfg.UserAgent
	}
	if cfg.ProbeTimeout > 0 {
		prober.Timeout = cfg.ProbeTimeout
	}
	var sizer probe.Sizer = prober
	if cfg.ProbeCache != "" {
		store, err := db.Open(cfg.ProbeCache)
		if err != nil {
			return nil, fmt.Errorf("failed to open probe cache: %w", err)
		}
		e.store = store
		sizer = &probe.CachedProber{Next: prober, Store: store, TTL: cfg.ProbeTTL, Logger: logger}
	}

	ranker := images.NewRanker(sizer, logger)
	if cfg.MaxCandidates > 0 {
		ranker.MaxCandidates = cfg.MaxCandidates
	}
	if cfg.ImageCount > 0 {
		ranker.Count = cfg.ImageCount
	}
	e.factories = stages.Factories(stages.Options{Ranker: ranker})
	return e, nil
}

// Close releases the probe cache.
func (e *Extractor) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// ExtractResult fetches rawURL and runs the pipeline, returning the full
// run including private fields and the per-field history.
func (e *Extractor) ExtractResult(ctx context.Context, rawURL string, opts models.ExtractOptions) *pipeline.Run {
	timeout := opts.EffectiveTimeout(e.cfg)
	mobile := opts.Mobile || e.cfg.Mobile

	resp, err := e.fetcher.Fetch(ctx, rawURL, timeout, mobile)
	o := &pipeline.Orchestrator{
		Factories: e.factories,
		Fetcher:   e.fetcher,
		Timeout:   timeout,
		Logger:    e.logger,
		Debug:     opts.Debug,
	}
	return o.Execute(ctx, rawURL, resp, err)
}

// Extract returns the public fields of the extraction, success included.
func (e *Extractor) Extract(ctx context.Context, rawURL string, opts models.ExtractOptions) map[string]any {
	return e.ExtractResult(ctx, rawURL, opts).Result.ToExternal()
}

var (
	defaultExtractor    *Extractor
	defaultExtractorErr error
	defaultOnce         sync.Once
)

// Extract runs an extraction with DefaultConfig and no caches.
func Extract(ctx context.Context, rawURL string, opts models.ExtractOptions) map[string]any {
	defaultOnce.Do(func() {
		defaultExtractor, defaultExtractorErr = New(models.DefaultConfig(), nil)
	})
	if defaultExtractorErr != nil {
		slog.Default().Error("Failed to build extractor", "error", defaultExtractorErr)
		res := result.New(rawURL)
		res.Set("success", false, result.Certain)
		return res.ToExternal()
	}
	return defaultExtractor.Extract(ctx, rawURL, opts)
}
