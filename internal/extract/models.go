package extract

import "time"

// Job is one URL to extract. Index keeps output in input order.
type Job struct {
	Index int
	URL   string
}

// Result holds the outcome of a processed job.
type Result struct {
	Index    int
	URL      string
	Fields   map[string]any
	State    string
	Stages   []string
	Duration time.Duration
}

// Succeeded reports the extraction's success field.
func (r Result) Succeeded() bool {
	ok, _ := r.Fields["success"].(bool)
	return ok
}

// FinalOutput is the structured output for the entire run.
type FinalOutput struct {
	Status  string           `json:"status" yaml:"status"`
	Results []map[string]any `json:"results" yaml:"results"`
	Stats   Stats            `json:"stats" yaml:"stats"`
}

// Stats provides summary statistics for the run.
type Stats struct {
	TotalURLs        int      `json:"total_urls" yaml:"total_urls"`
	Successful       int      `json:"successful" yaml:"successful"`
	Failed           int      `json:"failed" yaml:"failed"`
	TotalTimeSeconds float64  `json:"total_time_seconds" yaml:"total_time_seconds"`
	TopKeywords      []string `json:"top_keywords,omitempty" yaml:"top_keywords,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)
