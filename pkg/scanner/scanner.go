package scanner

import (
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/stvsmth/sieve/internal"
	"github.com/stvsmth/sieve/pkg/logger"
)

// FileWalker finds the compressed log files under a root directory.
type FileWalker struct {
	Fs afero.Fs
	// Include is a doublestar glob matched against the slash-separated path
	// relative to the root.
	Include string
}

func NewFileWalker(fs afero.Fs) *FileWalker {
	return &FileWalker{
		Fs:      fs,
		Include: internal.DefaultInclude,
	}
}

// Walk calls callback for every regular file under root. Symlinks are not
// followed, and entries that cannot be read are skipped.
func (w *FileWalker) Walk(root string, callback func(path string, info os.FileInfo) error) error {
	return afero.Walk(w.Fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			logger.Get().Debug().Err(err).Str("path", path).Msg("skipping unreadable path")
			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		return callback(path, info)
	})
}

// Discover returns every file under root matching Include, with its current
// size, plus the sum of those sizes. Traversal order is whatever the
// filesystem returns.
func (w *FileWalker) Discover(root string) ([]internal.FileTask, int64, error) {
	if !doublestar.ValidatePattern(w.Include) {
		return nil, 0, internal.Errorf(internal.KindPoolConfig, "", "invalid include pattern %q", w.Include)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, 0, internal.NewError(internal.KindPath, root, err)
	}
	if err := w.checkRoot(abs); err != nil {
		return nil, 0, err
	}

	logger.Get().Info().Str("root", abs).Str("include", w.Include).Msg("discovering files")

	var tasks []internal.FileTask
	var total int64
	err = w.Walk(abs, func(path string, info os.FileInfo) error {
		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return nil
		}
		ok, err := doublestar.Match(w.Include, filepath.ToSlash(rel))
		if err != nil || !ok {
			return nil
		}
		tasks = append(tasks, internal.FileTask{Path: path, Size: info.Size()})
		total += info.Size()
		return nil
	})
	if err != nil {
		return nil, 0, internal.NewError(internal.KindPath, abs, err)
	}

	logger.Get().Info().
		Int("files", len(tasks)).
		Str("size", humanize.Bytes(uint64(total))).
		Msg("discovery complete")
	return tasks, total, nil
}

// checkRoot makes sure root is a directory we can list.
func (w *FileWalker) checkRoot(root string) error {
	info, err := w.Fs.Stat(root)
	if err != nil {
		return internal.NewError(internal.KindPath, root, err)
	}
	if !info.IsDir() {
		return internal.Errorf(internal.KindPath, root, "not a directory")
	}

	dir, err := w.Fs.Open(root)
	if err != nil {
		return internal.NewError(internal.KindPath, root, err)
	}
	defer dir.Close()

	if _, err := dir.Readdirnames(1); err != nil && err != io.EOF {
		return internal.NewError(internal.KindPath, root, err)
	}
	return nil
}
