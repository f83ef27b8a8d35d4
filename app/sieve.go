package app

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/stvsmth/sieve/internal"
	"github.com/stvsmth/sieve/pkg/filter"
	"github.com/stvsmth/sieve/pkg/logger"
	"github.com/stvsmth/sieve/pkg/progress"
	"github.com/stvsmth/sieve/pkg/report"
	"github.com/stvsmth/sieve/pkg/rewriter"
	"github.com/stvsmth/sieve/pkg/scanner"
	"github.com/stvsmth/sieve/pkg/sieve"
	"github.com/stvsmth/sieve/tui"
)

type SieveOptions struct {
	Root             string
	Patterns         []string
	Include          string
	Workers          int
	CompressionLevel int
	LogLevel         string
	LogOutput        string
	LogDir           string
	Locale           string
	Progress         bool

	// Fs defaults to the OS filesystem.
	Fs afero.Fs
	// Out receives the progress view and the final report; defaults to stdout.
	Out io.Writer
}

// IsTerminal reports whether f can host the progress view.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// RunSieve discovers the files under opts.Root, rewrites them and prints
// the summary. Per-file failures are reported, not returned; the error is
// non-nil only for configuration problems, an unusable root or an
// interrupted run.
func RunSieve(ctx context.Context, opts *SieveOptions) (*sieve.Result, error) {
	output, err := logger.ParseOutput(opts.LogOutput)
	if err != nil {
		return nil, err
	}
	logPath, err := logger.Init(opts.LogLevel, output, opts.LogDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = logger.Close()
		_ = logger.CleanupEmpty(logPath)
	}()

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	tag, err := report.ParseLocale(opts.Locale)
	if err != nil {
		logger.Get().Warn().Err(err).Msg("falling back to default locale")
	}

	patterns, err := filter.NewPatternSet(opts.Patterns)
	if err != nil {
		return nil, internal.NewError(internal.KindPoolConfig, "", err)
	}
	if patterns.Len() == 0 {
		logger.Get().Warn().Msg("no patterns given, files will be recompressed without removing lines")
	}
	rw, err := rewriter.New(fs, patterns, opts.CompressionLevel)
	if err != nil {
		return nil, err
	}
	engine, err := sieve.NewEngine(rw, opts.Workers)
	if err != nil {
		return nil, err
	}

	root := canonicalRoot(fs, opts.Root)
	logger.Get().Info().
		Str("root", root).
		Strs("patterns", patterns.Strings()).
		Int("workers", engine.Workers()).
		Msg("configuration loaded")

	walker := scanner.NewFileWalker(fs)
	if opts.Include != "" {
		walker.Include = opts.Include
	}

	var view *tui.Program
	if opts.Progress {
		view = tui.New(root, out)
	}

	var result *sieve.Result
	var g errgroup.Group
	if view != nil {
		g.Go(func() error {
			if err := view.Run(); err != nil {
				logger.Get().Warn().Err(err).Msg("progress view stopped")
			}
			return nil
		})
	}
	g.Go(func() error {
		tasks, total, err := walker.Discover(root)
		if err != nil {
			if view != nil {
				view.Fail(err)
			}
			return err
		}

		// the log sink stands in for the bar when there is no view
		var sinks []progress.Sink
		if view == nil {
			sinks = append(sinks, progress.NewLogSink(total))
		}
		tracker := progress.NewTracker(total, len(tasks), sinks...)
		if view != nil {
			view.Filtering(tracker)
			defer view.Finish()
		}

		result, err = engine.Run(ctx, tasks, tracker)
		return err
	})
	runErr := g.Wait()

	if result == nil {
		return nil, runErr
	}
	if err := report.Print(out, result, tag); err != nil {
		return result, err
	}
	return result, runErr
}

// canonicalRoot makes root absolute and, on the OS filesystem, resolves
// symlinks so scratch files land next to the real targets.
func canonicalRoot(fs afero.Fs, root string) string {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	if _, ok := fs.(*afero.OsFs); !ok {
		return root
	}
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		// Discover reports the unusable root
		return root
	}
	return resolved
}

// ErrInterrupted reports whether err came from a cancelled run.
func ErrInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
