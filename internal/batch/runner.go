// Package batch runs extraction jobs concurrently with a bounded number of
// calls in flight.
package batch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"cocreview/domain/coc"
	"cocreview/internal"
	"cocreview/ports"
)

// Job is one PDF to extract.
type Job struct {
	Key      string
	Filename string
	PDF      []byte
}

// Result is the outcome of one job. Err is set when extraction failed.
type Result struct {
	Key      string
	Source   string
	Entities []coc.Entity
	Duration time.Duration
	Err      error
}

// Runner fans jobs out to an Extractor.
type Runner struct {
	extractor ports.Extractor
	sem       *semaphore.Weighted
	logger    *internal.Logger
}

// NewRunner creates a runner allowing maxConcurrent extractions at once.
func NewRunner(extractor ports.Extractor, maxConcurrent int, logger *internal.Logger) *Runner {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Runner{
		extractor: extractor,
		sem:       semaphore.NewWeighted(int64(maxConcurrent)),
		logger:    logger,
	}
}

// Run extracts every job and returns results in job order. A failing job
// records its error and does not stop the others; only cancellation of ctx
// makes Run itself return an error.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))
	var mu sync.Mutex
	failed := 0

	eg, egCtx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		i, job := i, job
		if err := r.sem.Acquire(egCtx, 1); err != nil {
			// remaining jobs never started
			for j := i; j < len(jobs); j++ {
				results[j] = Result{Key: jobs[j].Key, Err: err}
			}
			break
		}
		eg.Go(func() error {
			defer r.sem.Release(1)
			res := r.extract(egCtx, job)
			if res.Err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				r.logger.Warn("extraction of %s failed: %v", job.Key, res.Err)
			}
			results[i] = res
			return nil
		})
	}

	_ = eg.Wait()
	r.logger.Info("batch finished: %d jobs, %d failed", len(jobs), failed)
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (r *Runner) extract(ctx context.Context, job Job) Result {
	start := time.Now()
	res := Result{Key: job.Key}
	out, err := r.extractor.Extract(ctx, job.Filename, job.PDF)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		return res
	}
	res.Source = out.Source
	res.Entities = out.Entities
	return res
}
