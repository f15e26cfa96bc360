package extract

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dtnitsch/readembed/internal/common"
	"github.com/dtnitsch/readembed/models"
	"github.com/dtnitsch/readembed/pkg/extractor"
	"github.com/dtnitsch/readembed/pkg/metrics"
	"github.com/urfave/cli/v2"
)

// NewLogger builds the JSON stderr logger shared by every command.
func NewLogger(c *cli.Context) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case c.Bool("debug"):
		level = slog.LevelDebug
	case c.Bool("quiet"):
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))
}

// LoadConfig reads --config when given and applies flag overrides.
func LoadConfig(c *cli.Context) (models.Config, error) {
	cfg := models.DefaultConfig()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = models.LoadConfig(path); err != nil {
			return cfg, err
		}
	}
	if c.IsSet("workers") {
		cfg.WorkerCount = c.Int("workers")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("mobile") {
		cfg.Mobile = c.Bool("mobile")
	}
	if c.IsSet("cache-dir") {
		cfg.CacheDir = c.String("cache-dir")
	}
	if c.IsSet("probe-cache") {
		cfg.ProbeCache = c.String("probe-cache")
	}
	return cfg, nil
}

func ExtractAction(c *cli.Context) error {
	logger := NewLogger(c)
	startTime := time.Now()

	cfg, err := LoadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load config: %v", err), 2)
	}

	urls := cfg.URLs
	if c.IsSet("urls") {
		urls = common.SplitURLs(c.String("urls"))
	}
	urls = append(urls, c.Args().Slice()...)
	if len(urls) == 0 {
		fmt.Fprintln(c.App.ErrWriter, "Error: No URLs provided")
		fmt.Fprintln(c.App.ErrWriter, "")
		fmt.Fprintln(c.App.ErrWriter, "Usage:")
		fmt.Fprintln(c.App.ErrWriter, `  readembed extract --urls "https://example.com/a,https://example.org/b"`)
		fmt.Fprintln(c.App.ErrWriter, `  readembed extract --config config.yaml --format yaml`)
		return cli.Exit("", 1)
	}

	sanitized, invalid := common.SanitizeAndValidateURLs(urls)
	if len(invalid) > 0 {
		fmt.Fprintf(c.App.ErrWriter, "Error: %d URL(s) are malformed (even after cleanup):\n", len(invalid))
		for _, bad := range invalid {
			fmt.Fprintf(c.App.ErrWriter, "  - %s\n", bad)
		}
		return cli.Exit("", 1)
	}

	ext, err := extractor.New(cfg, logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to initialize extractor: %v", err), 2)
	}
	defer ext.Close()

	opts := models.ExtractOptions{
		Mobile:  cfg.Mobile,
		Timeout: cfg.Timeout,
		Debug:   c.Bool("debug"),
	}
	results := run(c.Context, logger, ext, sanitized, cfg.WorkerCount, opts)
	out := buildOutput(results, c.String("fields"), time.Since(startTime))

	if err := writeOutput(c.App.Writer, out, c.String("format")); err != nil {
		return cli.Exit(err.Error(), 2)
	}

	if path := c.String("metrics-out"); path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			logger.Warn("Failed to write metrics", "path", path, "error", err)
		}
	}

	logger.Info("Extraction finished", "total", out.Stats.TotalURLs, "successful", out.Stats.Successful, "failed", out.Stats.Failed)
	return exitStatus(out.Stats)
}

// Flags are the extract command's flags.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "urls", Aliases: []string{"u"}, Usage: "comma separated URLs to extract"},
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "output format: json or yaml"},
		&cli.StringFlag{Name: "fields", Usage: "comma separated fields to output (default all)"},
		&cli.DurationFlag{Name: "timeout", Usage: "per-request fetch timeout"},
		&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "concurrent extractions"},
		&cli.BoolFlag{Name: "mobile", Usage: "request mobile renderings"},
		&cli.StringFlag{Name: "cache-dir", Usage: "directory for the response cache"},
		&cli.StringFlag{Name: "probe-cache", Usage: "sqlite file caching image dimensions"},
		&cli.StringFlag{Name: "metrics-out", Usage: "write prometheus metrics to this textfile"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
		&cli.BoolFlag{Name: "debug", Usage: "log the result after every stage"},
	}
}
