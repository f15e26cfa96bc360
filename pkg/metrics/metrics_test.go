package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteTextfile(t *testing.T) {
	Extractions.WithLabelValues(StatusSuccess).Inc()
	ImageProbes.WithLabelValues(ProbeCached).Inc()
	StageDuration.WithLabelValues("meta_tags").Observe(0.01)

	path := filepath.Join(t.TempDir(), "readembed.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		`readembed_extractions_total{status="success"}`,
		`readembed_image_probes_total{outcome="cached"}`,
		`readembed_stage_duration_seconds_count{stage="meta_tags"}`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %s", want)
		}
	}
}
