// Package sieve runs the file rewriter over a discovered file set with a
// bounded worker pool and aggregates the results.
package sieve

import (
	"context"

	"gitlab.com/tozd/go/errors"

	"github.com/stvsmth/sieve/internal"
	"github.com/stvsmth/sieve/pkg/logger"
	"github.com/stvsmth/sieve/pkg/progress"
	"github.com/stvsmth/sieve/pkg/rewriter"
)

// Result is the outcome of a run.
type Result struct {
	Totals    internal.Totals
	Processed int
	Failures  []internal.FailureRecord
	// Skipped counts files never dispatched because the run was cancelled.
	Skipped int
}

// Engine fans files out to a worker pool.
type Engine struct {
	rewriter *rewriter.Rewriter
	workers  int

	// OnFailure, if set, is called for each failed file from the
	// aggregating goroutine.
	OnFailure func(internal.FailureRecord)
}

// NewEngine checks the pool configuration up front so a bad worker count
// fails before any file is touched.
func NewEngine(rw *rewriter.Rewriter, workers int) (*Engine, error) {
	if rw == nil {
		return nil, internal.Errorf(internal.KindPoolConfig, "", "rewriter is required")
	}
	if workers < 1 {
		return nil, internal.Errorf(internal.KindPoolConfig, "", "worker count must be at least 1, got %d", workers)
	}
	return &Engine{rewriter: rw, workers: workers}, nil
}

// Workers returns the pool size.
func (e *Engine) Workers() int {
	return e.workers
}

// Run rewrites every task. Per-file failures are collected, not returned.
// Cancelling ctx stops dispatching new files; files already handed to a
// worker are finished. tracker may be nil, and is finished when Run returns.
func (e *Engine) Run(ctx context.Context, tasks []internal.FileTask, tracker *progress.Tracker) (*Result, error) {
	defer tracker.Finish()

	var totals internal.RunTotals
	pool, err := NewRewritePool(e.workers, e.rewriter, &totals, tracker)
	if err != nil {
		return nil, err
	}
	if err := pool.Start(); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Get().Info().
		Int("files", len(tasks)).
		Int("workers", e.workers).
		Strs("patterns", e.rewriter.Patterns().Strings()).
		Msg("starting run")

	dispatched := make(chan int, 1)
	go func() {
		n := 0
		defer func() {
			pool.Close()
			dispatched <- n
		}()
		for _, task := range tasks {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case pool.Tasks() <- task:
				n++
			}
		}
	}()

	result := &Result{}
	for outcome := range pool.Results() {
		if outcome.OK() {
			result.Processed++
			continue
		}

		rec := *outcome.Failure
		result.Failures = append(result.Failures, rec)
		logger.Get().Warn().
			Err(rec.Err).
			Str("path", rec.Path).
			Str("kind", rec.Kind.String()).
			Msg("failed to process file")
		if e.OnFailure != nil {
			e.OnFailure(rec)
		}
	}

	result.Skipped = len(tasks) - <-dispatched
	result.Totals = totals.Snapshot()

	logger.Get().Info().
		Int("processed", result.Processed).
		Int("failed", len(result.Failures)).
		Int("skipped", result.Skipped).
		Uint64("lines_read", result.Totals.LinesRead).
		Uint64("lines_removed", result.Totals.LinesRemoved).
		Msg("run complete")

	if result.Skipped > 0 {
		return result, errors.Errorf("run interrupted with %d files left: %w", result.Skipped, ctx.Err())
	}
	return result, nil
}
