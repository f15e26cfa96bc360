package extract

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dtnitsch/readembed/models"
	"github.com/dtnitsch/readembed/pkg/pipeline"
)

// Runner extracts one URL. *extractor.Extractor satisfies it.
type Runner interface {
	ExtractResult(ctx context.Context, rawURL string, opts models.ExtractOptions) *pipeline.Run
}

func run(ctx context.Context, logger *slog.Logger, ext Runner, urls []string, workerCount int, opts models.ExtractOptions) []Result {
	if workerCount <= 0 {
		workerCount = 1
	}
	logger.Info("Starting extraction", "url_count", len(urls), "workers", workerCount)

	var wg sync.WaitGroup
	jobs := make(chan Job, len(urls))
	results := make(chan Result, len(urls))

	for w := 1; w <= workerCount; w++ {
		wg.Add(1)
		go worker(ctx, w, logger, ext, opts, &wg, jobs, results)
	}
	for i, rawURL := range urls {
		jobs <- Job{Index: i, URL: rawURL}
	}
	close(jobs)

	wg.Wait()
	close(results)
	logger.Info("All extraction workers finished")

	all := make([]Result, 0, len(urls))
	for r := range results {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Index < all[j].Index })
	return all
}

func worker(ctx context.Context, id int, logger *slog.Logger, ext Runner, opts models.ExtractOptions, wg *sync.WaitGroup, jobs <-chan Job, results chan<- Result) {
	defer wg.Done()
	for job := range jobs {
		logger.Debug("Worker started job", "worker_id", id, "url", job.URL)
		start := time.Now()
		r := ext.ExtractResult(ctx, job.URL, opts)

		result := Result{
			Index:    job.Index,
			URL:      job.URL,
			Fields:   r.Result.ToExternal(),
			State:    r.State.String(),
			Stages:   r.Executed,
			Duration: time.Since(start),
		}
		if result.Succeeded() {
			logger.Info("Extracted", "worker_id", id, "url", job.URL, "duration_ms", result.Duration.Milliseconds())
		} else {
			logger.Warn("Extraction failed", "worker_id", id, "url", job.URL, "state", result.State)
		}
		results <- result
	}
}
