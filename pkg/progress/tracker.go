package progress

import (
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"github.com/stvsmth/sieve/pkg/logger"
)

// Sink receives progress events. Advance may be called from many
// goroutines at once; Done is called exactly once.
type Sink interface {
	Advance(n int64)
	Done()
}

// Snapshot is a point-in-time view of a Tracker.
type Snapshot struct {
	Bytes       int64
	TotalBytes  int64
	Files       int64
	FailedFiles int64
	TotalFiles  int64
	Finished    bool
}

// Percent returns completion in [0, 1].
func (s Snapshot) Percent() float64 {
	if s.TotalBytes <= 0 {
		if s.Finished {
			return 1
		}
		return 0
	}
	p := float64(s.Bytes) / float64(s.TotalBytes)
	if p > 1 {
		return 1
	}
	return p
}

// Tracker measures byte-weighted progress of a run. All counters are
// atomic so workers can update them without locks.
type Tracker struct {
	totalBytes int64
	totalFiles int64

	bytes  atomic.Int64
	files  atomic.Int64
	failed atomic.Int64

	sinks    []Sink
	once     sync.Once
	done     chan struct{}
	finished atomic.Bool
}

// NewTracker creates a tracker expecting totalBytes over totalFiles files.
func NewTracker(totalBytes int64, totalFiles int, sinks ...Sink) *Tracker {
	return &Tracker{
		totalBytes: totalBytes,
		totalFiles: int64(totalFiles),
		sinks:      sinks,
		done:       make(chan struct{}),
	}
}

// Advance records n more bytes of input consumed.
func (t *Tracker) Advance(n int64) {
	if t == nil || n <= 0 {
		return
	}
	t.bytes.Add(n)
	for _, s := range t.sinks {
		s.Advance(n)
	}
}

// FileDone records a finished file.
func (t *Tracker) FileDone(ok bool) {
	if t == nil {
		return
	}
	t.files.Add(1)
	if !ok {
		t.failed.Add(1)
	}
}

// Finish signals the end of the run. Only the first call has an effect.
func (t *Tracker) Finish() {
	if t == nil {
		return
	}
	t.once.Do(func() {
		t.finished.Store(true)
		for _, s := range t.sinks {
			s.Done()
		}
		close(t.done)
	})
}

// Done is closed by Finish.
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}

// Snapshot reads the current counters.
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		Bytes:       t.bytes.Load(),
		TotalBytes:  t.totalBytes,
		Files:       t.files.Load(),
		FailedFiles: t.failed.Load(),
		TotalFiles:  t.totalFiles,
		Finished:    t.finished.Load(),
	}
}

// LogSink logs progress every tenth of the total, for runs without a terminal.
type LogSink struct {
	total int64
	step  int64
	seen  atomic.Int64
	next  atomic.Int64
}

// NewLogSink logs once every tenth of total.
func NewLogSink(total int64) *LogSink {
	step := total / 10
	if step <= 0 {
		step = 1
	}
	s := &LogSink{total: total, step: step}
	s.next.Store(step)
	return s
}

func (s *LogSink) Advance(n int64) {
	seen := s.seen.Add(n)
	for {
		next := s.next.Load()
		if seen < next {
			return
		}
		if s.next.CompareAndSwap(next, (seen/s.step+1)*s.step) {
			logger.Get().Info().
				Str("done", humanize.Bytes(uint64(seen))).
				Str("total", humanize.Bytes(uint64(s.total))).
				Float64("percentage", percentage(seen, s.total)).
				Msg("progress")
			return
		}
	}
}

func (s *LogSink) Done() {
	logger.Get().Info().
		Str("done", humanize.Bytes(uint64(s.seen.Load()))).
		Str("total", humanize.Bytes(uint64(s.total))).
		Msg("done")
}

func percentage(done, total int64) float64 {
	if total <= 0 {
		return 100
	}
	return float64(done) / float64(total) * 100
}
