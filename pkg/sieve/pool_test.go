package sieve

import (
	"fmt"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stvsmth/sieve/internal"
	"github.com/stvsmth/sieve/pkg/filter"
	"github.com/stvsmth/sieve/pkg/progress"
	"github.com/stvsmth/sieve/pkg/rewriter"
)

func newPool(t *testing.T, fs afero.Fs, workers int, totals *internal.RunTotals, tracker *progress.Tracker) *RewritePool {
	t.Helper()
	set, err := filter.NewPatternSet([]string{"drop"})
	require.NoError(t, err)
	rw, err := rewriter.New(fs, set, gzip.DefaultCompression)
	require.NoError(t, err)
	pool, err := NewRewritePool(workers, rw, totals, tracker)
	require.NoError(t, err)
	require.NoError(t, pool.Start())
	return pool
}

func TestRewritePool_StartClose(t *testing.T) {
	pool := newPool(t, afero.NewMemMapFs(), 2, &internal.RunTotals{}, nil)
	go pool.Close()

	for range pool.Results() {
		t.Fatal("no results expected")
	}
}

func TestRewritePool_OneOutcomePerTask(t *testing.T) {
	fs := afero.NewMemMapFs()
	const numFiles = 10
	var tasks []internal.FileTask
	var total int64
	for i := 0; i < numFiles; i++ {
		path := fmt.Sprintf("/logs/file%d.gz", i)
		writeGzip(t, fs, path, fmt.Sprintf("keep %d\ndrop %d\n", i, i))
		info, err := fs.Stat(path)
		require.NoError(t, err)
		tasks = append(tasks, internal.FileTask{Path: path, Size: info.Size()})
		total += info.Size()
	}
	// a task whose file vanished after discovery still yields an outcome
	tasks = append(tasks, internal.FileTask{Path: "/logs/gone.gz", Size: 40})
	total += 40

	var totals internal.RunTotals
	sink := &byteSink{}
	tracker := progress.NewTracker(total, len(tasks), sink)
	pool := newPool(t, fs, 4, &totals, tracker)

	go func() {
		for _, task := range tasks {
			pool.Tasks() <- task
		}
		pool.Close()
	}()

	seen := make(map[string]int)
	var failed []internal.FileOutcome
	for outcome := range pool.Results() {
		seen[outcome.Task.Path]++
		if !outcome.OK() {
			failed = append(failed, outcome)
			continue
		}
		assert.Equal(t, internal.LineCounts{Read: 2, Removed: 1}, outcome.Counts)
	}

	assert.Len(t, seen, len(tasks))
	for path, n := range seen {
		assert.Equal(t, 1, n, path)
	}
	require.Len(t, failed, 1)
	assert.Equal(t, internal.KindPath, failed[0].Failure.Kind)

	snap := totals.Snapshot()
	assert.Equal(t, uint64(numFiles*2), snap.LinesRead)
	assert.Equal(t, uint64(numFiles), snap.LinesRemoved)
	assert.Equal(t, uint64(total), snap.Bytes)
	assert.Equal(t, total, sink.total.Load())
}
