package sieve

import (
	"runtime/debug"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/stvsmth/sieve/internal"
	"github.com/stvsmth/sieve/pkg/logger"
	"github.com/stvsmth/sieve/pkg/progress"
	"github.com/stvsmth/sieve/pkg/rewriter"
)

// RewritePool runs a fixed number of workers over a shared task queue.
type RewritePool struct {
	workers  int
	rewriter *rewriter.Rewriter
	totals   *internal.RunTotals
	tracker  *progress.Tracker
	tasks    chan internal.FileTask
	results  chan internal.FileOutcome
	wg       sync.WaitGroup
	pool     *ants.Pool
}

// NewRewritePool builds the pool. The task queue holds at most one task per
// worker, so dispatch blocks while every worker is busy.
func NewRewritePool(workers int, rw *rewriter.Rewriter, totals *internal.RunTotals, tracker *progress.Tracker) (*RewritePool, error) {
	if workers < 1 {
		return nil, internal.Errorf(internal.KindPoolConfig, "", "worker count must be at least 1, got %d", workers)
	}

	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(v any) {
		logger.Get().Error().Interface("panic", v).Msg("rewrite worker panicked")
	}))
	if err != nil {
		return nil, internal.NewError(internal.KindPoolConfig, "", err)
	}

	logger.Get().Debug().Int("workers", workers).Msg("created rewrite pool")
	return &RewritePool{
		workers:  workers,
		rewriter: rw,
		totals:   totals,
		tracker:  tracker,
		tasks:    make(chan internal.FileTask, workers),
		results:  make(chan internal.FileOutcome, workers),
		pool:     pool,
	}, nil
}

// Start launches the workers.
func (p *RewritePool) Start() error {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		if err := p.pool.Submit(p.worker); err != nil {
			p.wg.Done()
			return internal.NewError(internal.KindPoolConfig, "", err)
		}
	}
	return nil
}

func (p *RewritePool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.results <- p.process(task)
	}
}

// process rewrites one file and folds its outcome into the shared totals.
func (p *RewritePool) process(task internal.FileTask) internal.FileOutcome {
	var reported int64
	onRead := func(n int64) {
		if remaining := task.Size - reported; n > remaining {
			n = remaining
		}
		if n <= 0 {
			return
		}
		reported += n
		p.tracker.Advance(n)
	}

	counts, err := p.rewrite(task.Path, onRead)

	// progress always ends on the size seen at discovery
	if rest := task.Size - reported; rest > 0 {
		p.tracker.Advance(rest)
	}
	p.totals.AddBytes(task.Size)

	outcome := internal.FileOutcome{Task: task}
	if err != nil {
		rec := internal.NewFailureRecord(task.Path, err)
		outcome.Failure = &rec
	} else {
		p.totals.AddCounts(counts)
		outcome.Counts = counts
	}
	p.tracker.FileDone(err == nil)
	return outcome
}

// rewrite runs the rewriter and turns a panic into an I/O failure of that
// file, so the worker survives and the task still yields an outcome.
func (p *RewritePool) rewrite(path string, onRead func(n int64)) (counts internal.LineCounts, err error) {
	defer func() {
		if v := recover(); v != nil {
			logger.Get().Error().
				Str("path", path).
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("rewrite panicked")
			counts = internal.LineCounts{}
			err = internal.Errorf(internal.KindIO, path, "panic: %v", v)
		}
	}()
	return p.rewriter.RewriteProgress(path, onRead)
}

// Tasks is the queue workers pull from.
func (p *RewritePool) Tasks() chan<- internal.FileTask {
	return p.tasks
}

func (p *RewritePool) Results() <-chan internal.FileOutcome {
	return p.results
}

// Close stops accepting tasks, waits for in-flight rewrites and closes
// Results. Results must be drained concurrently.
func (p *RewritePool) Close() {
	close(p.tasks)
	p.wg.Wait()
	p.pool.Release()
	close(p.results)
}
