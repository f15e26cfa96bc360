package db

import (
	"fmt"
	"time"

	"github.com/dtnitsch/readembed/internal/extract"
	"github.com/dtnitsch/readembed/pkg/caching"
	"github.com/urfave/cli/v2"
)

// StatsAction prints a summary of the probe cache.
func StatsAction(c *cli.Context) error {
	database, err := openStore(c)
	if err != nil {
		return err
	}
	defer database.Close()

	stats, err := database.CountImageSizes()
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Database: %s\n", database.Path())
	fmt.Fprintf(w, "Probed images: %d (%d failed)\n", stats.Total, stats.Failed)
	if !stats.Oldest.IsZero() {
		fmt.Fprintf(w, "Oldest probe: %s\n", stats.Oldest.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// LookupAction prints the cached dimensions of each image URL argument.
func LookupAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("usage: readembed cache lookup <image-url>...", 1)
	}
	database, err := openStore(c)
	if err != nil {
		return err
	}
	defer database.Close()

	w := c.App.Writer
	for _, u := range c.Args().Slice() {
		size, ok, err := database.GetImageSize(u, 0)
		switch {
		case err != nil:
			return err
		case !ok:
			fmt.Fprintf(w, "%s\tnot cached\n", u)
		case size.Failed():
			fmt.Fprintf(w, "%s\tfailed: %s\n", u, size.Error)
		default:
			fmt.Fprintf(w, "%s\t%dx%d\n", u, size.Width, size.Height)
		}
	}
	return nil
}

// PurgeAction deletes probes older than --older-than and expired
// responses from --cache-dir.
func PurgeAction(c *cli.Context) error {
	cfg, err := extract.LoadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load config: %v", err), 2)
	}

	age := cfg.ProbeTTL
	if c.IsSet("older-than") {
		age = c.Duration("older-than")
	}

	database, err := openStore(c)
	if err != nil {
		return err
	}
	defer database.Close()

	removed, err := database.PurgeImageSizes(time.Now().Add(-age))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Removed %d probe(s) older than %s\n", removed, age)

	if cfg.CacheDir != "" {
		cache, err := caching.NewCache(cfg.CacheDir, cfg.CacheTTL)
		if err != nil {
			return err
		}
		n, err := cache.Purge()
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Removed %d cached response(s) from %s\n", n, cache.Dir())
	}
	return nil
}
