package db

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	dbpkg "github.com/dtnitsch/readembed/pkg/db"
	"github.com/urfave/cli/v2"
)

func newApp(stdout *bytes.Buffer) *cli.App {
	purgeFlags := append(Flags(), &cli.DurationFlag{Name: "older-than"})
	return &cli.App{
		Name:           "readembed",
		Writer:         stdout,
		ErrWriter:      stdout,
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{{
			Name: "cache",
			Subcommands: []*cli.Command{
				{Name: "stats", Flags: Flags(), Action: StatsAction},
				{Name: "lookup", Flags: Flags(), Action: LookupAction},
				{Name: "purge", Flags: purgeFlags, Action: PurgeAction},
			},
		}},
	}
}

func seed(t *testing.T, path string) {
	t.Helper()
	database, err := dbpkg.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	if err := database.PutImageSize("https://example.com/a.jpg", 800, 600); err != nil {
		t.Fatal(err)
	}
	if err := database.PutImageSizeError("https://example.com/b.jpg", os.ErrNotExist); err != nil {
		t.Fatal(err)
	}
}

func TestStatsAndLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.db")
	seed(t, path)

	var out bytes.Buffer
	if err := newApp(&out).Run([]string{"readembed", "cache", "stats", "--probe-cache", path}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Probed images: 2 (1 failed)") {
		t.Errorf("stats output = %q", out.String())
	}

	out.Reset()
	err := newApp(&out).Run([]string{"readembed", "cache", "lookup", "--probe-cache", path,
		"https://example.com/a.jpg", "https://example.com/b.jpg", "https://example.com/c.jpg"})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"a.jpg\t800x600", "b.jpg\tfailed:", "c.jpg\tnot cached"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("lookup output = %q, missing %q", out.String(), want)
		}
	}
}

func TestPurge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "probe.db")
	seed(t, path)

	var out bytes.Buffer
	err := newApp(&out).Run([]string{"readembed", "cache", "purge", "--probe-cache", path, "--older-than", "1h"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Removed 0 probe(s)") {
		t.Errorf("purge output = %q", out.String())
	}

	// Probes are stored with second precision, so wait past the cutoff
	time.Sleep(1100 * time.Millisecond)
	out.Reset()
	err = newApp(&out).Run([]string{"readembed", "cache", "purge", "--probe-cache", path, "--older-than", "1ms",
		"--cache-dir", filepath.Join(dir, "responses")})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Removed 2 probe(s)") || !strings.Contains(out.String(), "Removed 0 cached response(s)") {
		t.Errorf("purge output = %q", out.String())
	}
}
