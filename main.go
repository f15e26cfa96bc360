package main

import (
	"fmt"
	"os"

	"github.com/dtnitsch/readembed/internal/db"
	"github.com/dtnitsch/readembed/internal/extract"
	"github.com/urfave/cli/v2"
)

func main() {
	purgeFlags := append(db.Flags(), &cli.DurationFlag{
		Name:  "older-than",
		Usage: "remove probes older than this (default: probe_ttl from config)",
	})

	app := &cli.App{
		Name:  "readembed",
		Usage: "Extract article content, metadata and images from web pages",
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "Extract one or more URLs and print the results",
				ArgsUsage: "[url...]",
				Flags:     extract.Flags(),
				Action:    extract.ExtractAction,
			},
			{
				Name:  "cache",
				Usage: "Inspect and maintain the probe and response caches",
				Subcommands: []*cli.Command{
					{
						Name:   "stats",
						Usage:  "Summarize the image probe cache",
						Flags:  db.Flags(),
						Action: db.StatsAction,
					},
					{
						Name:      "lookup",
						Usage:     "Show cached dimensions for image URLs",
						ArgsUsage: "<image-url>...",
						Flags:     db.Flags(),
						Action:    db.LookupAction,
					},
					{
						Name:   "purge",
						Usage:  "Remove stale probes and expired responses",
						Flags:  purgeFlags,
						Action: db.PurgeAction,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
