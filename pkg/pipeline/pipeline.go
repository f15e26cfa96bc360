// Package pipeline runs an ordered list of enrichment stages over one
// fetched page.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dtnitsch/readembed/pkg/fetcher"
	"github.com/dtnitsch/readembed/pkg/metrics"
	"github.com/dtnitsch/readembed/pkg/result"
)

// Stage enriches a result. Errors are logged and otherwise ignored; a
// stage that wants the run to stop sets success to false.
type Stage interface {
	Name() string
	Enrich(ctx context.Context, res *result.Result) error
}

// Factory builds a stage for one page. A nil Stage is skipped.
type Factory func(*Page) Stage

type State int

const (
	NotStarted State = iota
	Running
	ShortCircuited
	Completed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case ShortCircuited:
		return "short_circuited"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Run is the outcome of one execution.
type Run struct {
	Page     *Page
	Result   *result.Result
	State    State
	Executed []string // stage names in the order they ran
}

type Orchestrator struct {
	Factories []Factory
	Fetcher   Fetcher
	Timeout   time.Duration
	Logger    *slog.Logger
	Debug     bool // log the result after every stage
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Execute runs the stages over resp. A nil resp means the fetch failed;
// fetchErr, if any, is only logged.
func (o *Orchestrator) Execute(ctx context.Context, requestURL string, resp *fetcher.Response, fetchErr error) *Run {
	logger := o.logger().With("url", requestURL)
	run := &Run{
		Page:   NewPage(requestURL, resp, o.Fetcher, o.Timeout, logger),
		Result: result.New(requestURL),
		State:  NotStarted,
	}
	res := run.Result
	res.SetStage("fetch")

	if resp == nil {
		logger.Error("Fetch failed", "error", fetchErr)
		res.Set("success", false, result.Certain)
		run.State = ShortCircuited
		o.finish(run)
		return run
	}

	res.Set("canonical_url", resp.URL, result.Guess)
	if resp.Status != http.StatusOK {
		logger.Warn("Fetch returned non-200 status", "status", resp.Status)
		res.Set("success", false, result.Certain)
		run.State = ShortCircuited
		o.finish(run)
		return run
	}
	res.Set("success", true, result.Guess)

	run.State = Running
	for _, factory := range o.Factories {
		if ctx.Err() != nil {
			o.cancel(run, logger)
			return run
		}

		stage := factory(run.Page)
		if stage == nil {
			continue
		}
		name := stage.Name()
		res.SetStage(name)
		run.Executed = append(run.Executed, name)

		start := time.Now()
		err := runStage(ctx, stage, res)
		metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.StageErrors.WithLabelValues(name).Inc()
			logger.Warn("Stage failed", "stage", name, "error", err)
		}
		if o.Debug {
			logger.Debug("Stage finished", "stage", name, "result", res.String())
		}

		if ctx.Err() != nil {
			o.cancel(run, logger)
			return run
		}
		if !res.GetBool("success") {
			logger.Info("Stage stopped the pipeline", "stage", name)
			run.State = ShortCircuited
			o.finish(run)
			return run
		}
	}

	res.SetStage("")
	run.State = Completed
	o.finish(run)
	return run
}

// Run is Execute for callers that only want the page and result.
func (o *Orchestrator) Run(ctx context.Context, requestURL string, resp *fetcher.Response, fetchErr error) (*Page, *result.Result) {
	run := o.Execute(ctx, requestURL, resp, fetchErr)
	return run.Page, run.Result
}

func (o *Orchestrator) cancel(run *Run, logger *slog.Logger) {
	logger.Warn("Extraction canceled", "stage", run.Result.Stage())
	run.Result.SetStage("")
	run.Result.Set("success", false, result.Certain)
	run.State = ShortCircuited
	o.finish(run)
}

func (o *Orchestrator) finish(run *Run) {
	status := metrics.StatusFailed
	if run.Result.GetBool("success") {
		status = metrics.StatusSuccess
	}
	metrics.Extractions.WithLabelValues(status).Inc()
}

// runStage turns a panicking stage into an error.
func runStage(ctx context.Context, stage Stage, res *result.Result) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("stage panicked: %v", p)
		}
	}()
	return stage.Enrich(ctx, res)
}
