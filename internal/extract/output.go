package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dtnitsch/readembed/internal/common"
	"github.com/dtnitsch/readembed/pkg/mapreduce"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const topKeywordCount = 25

func buildOutput(results []Result, fields string, elapsed time.Duration) FinalOutput {
	out := FinalOutput{Results: make([]map[string]any, 0, len(results))}
	var counts []map[string]int
	for _, r := range results {
		if r.Succeeded() {
			out.Stats.Successful++
			if kws, ok := r.Fields["keywords"].([]string); ok {
				counts = append(counts, mapreduce.Map(kws))
			}
		} else {
			out.Stats.Failed++
		}
		out.Results = append(out.Results, common.FilterFields(r.Fields, fields))
	}
	out.Stats.TotalURLs = len(results)
	out.Stats.TotalTimeSeconds = elapsed.Seconds()
	out.Stats.TopKeywords = mapreduce.TopKeywords(mapreduce.Reduce(counts), topKeywordCount)

	switch {
	case out.Stats.Failed == 0:
		out.Status = StatusSuccess
	case out.Stats.Successful == 0:
		out.Status = StatusFailed
	default:
		out.Status = StatusPartial
	}
	return out
}

func writeOutput(w io.Writer, out FinalOutput, format string) error {
	switch strings.ToLower(format) {
	case "", "json":
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON output: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to marshal YAML output: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format: %s", format)
}

// exitStatus maps the run outcome to the process exit code.
func exitStatus(stats Stats) error {
	switch {
	case stats.Failed == 0:
		return nil
	case stats.Successful == 0:
		return cli.Exit(fmt.Sprintf("all %d URLs failed", stats.Failed), 2)
	}
	return cli.Exit(fmt.Sprintf("%d of %d URLs failed", stats.Failed, stats.TotalURLs), 1)
}
