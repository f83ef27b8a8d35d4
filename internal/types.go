package internal

import (
	"fmt"
	"sync/atomic"
)

// FileTask is a file found by discovery, paired with its size at discovery time.
type FileTask struct {
	Path string
	Size int64
}

// LineCounts is what a single rewrite reports back.
type LineCounts struct {
	Read    uint64
	Removed uint64
}

// Kept returns the number of lines written to the rewritten file.
func (c LineCounts) Kept() uint64 {
	return c.Read - c.Removed
}

// FailureRecord identifies a file that could not be processed.
type FailureRecord struct {
	Path string
	Kind Kind
	Err  error
}

// NewFailureRecord builds a FailureRecord for path from a rewrite error.
func NewFailureRecord(path string, err error) FailureRecord {
	return FailureRecord{
		Path: path,
		Kind: KindOf(err),
		Err:  err,
	}
}

// String renders the record as "<path> [<kind>]".
func (f FailureRecord) String() string {
	return fmt.Sprintf("%s [%s]", f.Path, f.Kind)
}

// FileOutcome is produced exactly once per FileTask.
type FileOutcome struct {
	Task    FileTask
	Counts  LineCounts
	Failure *FailureRecord
}

// OK reports whether the file was rewritten.
func (o FileOutcome) OK() bool {
	return o.Failure == nil
}

// RunTotals accumulates per-file counts across workers.
// Only successful files contribute lines; Bytes counts the discovered size
// of every file a worker picked up.
type RunTotals struct {
	bytes   atomic.Uint64
	read    atomic.Uint64
	removed atomic.Uint64
}

// AddBytes records the discovered size of a finished file.
func (t *RunTotals) AddBytes(n int64) {
	if n > 0 {
		t.bytes.Add(uint64(n))
	}
}

// AddCounts merges the line counts of a successfully rewritten file.
func (t *RunTotals) AddCounts(c LineCounts) {
	t.read.Add(c.Read)
	t.removed.Add(c.Removed)
}

// Snapshot reads the current totals.
func (t *RunTotals) Snapshot() Totals {
	return Totals{
		Bytes:        t.bytes.Load(),
		LinesRead:    t.read.Load(),
		LinesRemoved: t.removed.Load(),
	}
}

// Totals is a point-in-time copy of RunTotals.
type Totals struct {
	Bytes        uint64
	LinesRead    uint64
	LinesRemoved uint64
}
