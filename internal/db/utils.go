package db

import (
	"fmt"

	"github.com/dtnitsch/readembed/internal/extract"
	dbpkg "github.com/dtnitsch/readembed/pkg/db"
	"github.com/urfave/cli/v2"
)

// openStore opens the probe cache named by --probe-cache or the config
// file, falling back to the default database next to the binary.
func openStore(c *cli.Context) (*dbpkg.DB, error) {
	cfg, err := extract.LoadConfig(c)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	database, err := dbpkg.Open(cfg.ProbeCache)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// Flags are shared by the cache subcommands.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "probe-cache", Usage: "sqlite file caching image dimensions"},
		&cli.StringFlag{Name: "cache-dir", Usage: "directory of the response cache"},
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
	}
}
