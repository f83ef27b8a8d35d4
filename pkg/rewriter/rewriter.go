// Package rewriter filters one gzip-compressed log file in place.
//
// The filtered output is built in a scratch file next to the target and only
// renamed over it once the gzip trailer is on disk, so from the outside the
// target is either fully original or fully rewritten.
package rewriter

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"

	"github.com/stvsmth/sieve/internal"
	"github.com/stvsmth/sieve/pkg/filter"
	"github.com/stvsmth/sieve/pkg/logger"
)

const (
	// headerSize is how much of the file is sniffed before decompressing.
	headerSize = 262

	// maxScratchBase leaves room for the uuid and suffix within a 255 byte name.
	maxScratchBase = 128
)

// Rewriter removes matching lines from gzip files.
type Rewriter struct {
	fs       afero.Fs
	patterns filter.PatternSet
	level    int
}

// New returns a Rewriter writing output at the given gzip level
// (gzip.DefaultCompression, or 0-9).
func New(fs afero.Fs, patterns filter.PatternSet, level int) (*Rewriter, error) {
	if level < gzip.DefaultCompression || level > gzip.BestCompression {
		return nil, internal.Errorf(internal.KindPoolConfig, "", "compression level %d out of range", level)
	}
	return &Rewriter{
		fs:       fs,
		patterns: patterns,
		level:    level,
	}, nil
}

// Patterns returns the pattern set lines are matched against.
func (r *Rewriter) Patterns() filter.PatternSet {
	return r.patterns
}

// Rewrite filters path and reports how many lines were read and removed.
func (r *Rewriter) Rewrite(path string) (internal.LineCounts, error) {
	return r.RewriteProgress(path, nil)
}

// RewriteProgress is Rewrite with onRead called with the number of
// compressed bytes consumed from path after every read. onRead runs on the
// calling goroutine.
func (r *Rewriter) RewriteProgress(path string, onRead func(n int64)) (internal.LineCounts, error) {
	var counts internal.LineCounts

	info, err := r.fs.Stat(path)
	if err != nil {
		return counts, internal.NewError(internal.KindPath, path, err)
	}
	if !info.Mode().IsRegular() {
		return counts, internal.Errorf(internal.KindPath, path, "not a regular file")
	}
	if info.Mode().Perm()&0o200 == 0 {
		return counts, internal.Errorf(internal.KindPath, path, "file is read-only")
	}

	in, err := r.fs.Open(path)
	if err != nil {
		return counts, internal.NewError(internal.KindPath, path, err)
	}
	defer in.Close()

	src := &sourceReader{r: in, onRead: onRead}
	br := bufio.NewReaderSize(src, internal.DefaultBufferSize)

	head, _ := br.Peek(headerSize)
	if src.err != nil {
		return counts, internal.NewError(internal.KindIO, path, src.err)
	}
	if len(head) == 0 {
		logger.Get().Debug().Str("path", path).Msg("empty file, nothing to filter")
		return counts, nil
	}
	if kind, _ := filetype.Match(head); kind.Extension != "gz" {
		return counts, internal.Errorf(internal.KindCodec, path, "not a gzip stream")
	}

	gz, err := gzip.NewReader(br)
	if err != nil {
		return counts, readError(path, src, err)
	}
	defer gz.Close()

	scratch, err := r.createScratch(path, info)
	if err != nil {
		return counts, err
	}
	name := scratch.Name()
	closed, promoted := false, false
	defer func() {
		if !closed {
			_ = scratch.Close()
		}
		if !promoted {
			r.removeScratch(name)
		}
	}()

	bw := bufio.NewWriterSize(scratch, internal.DefaultBufferSize)
	gw, err := gzip.NewWriterLevel(bw, r.level)
	if err != nil {
		return counts, internal.NewError(internal.KindIO, path, err)
	}

	counts, err = r.filterLines(path, src, gz, gw)
	if err != nil {
		return internal.LineCounts{}, err
	}

	// The trailer has to be on disk before the swap.
	if err := gw.Close(); err != nil {
		return internal.LineCounts{}, internal.NewError(internal.KindIO, path, err)
	}
	if err := bw.Flush(); err != nil {
		return internal.LineCounts{}, internal.NewError(internal.KindIO, path, err)
	}
	if err := scratch.Sync(); err != nil {
		return internal.LineCounts{}, internal.NewError(internal.KindIO, path, err)
	}
	closed = true
	if err := scratch.Close(); err != nil {
		return internal.LineCounts{}, internal.NewError(internal.KindIO, path, err)
	}
	_ = in.Close()

	if err := r.fs.Rename(name, path); err != nil {
		return internal.LineCounts{}, internal.NewError(internal.KindIO, path, err)
	}
	promoted = true

	logger.Get().Debug().
		Str("path", path).
		Uint64("read", counts.Read).
		Uint64("removed", counts.Removed).
		Msg("file rewritten")
	return counts, nil
}

// filterLines copies every line of in that the pattern set keeps to out.
func (r *Rewriter) filterLines(path string, src *sourceReader, in io.Reader, out io.Writer) (internal.LineCounts, error) {
	var counts internal.LineCounts
	lines := bufio.NewReaderSize(in, internal.DefaultBufferSize)

	for {
		line, err := lines.ReadBytes('\n')
		if len(line) > 0 {
			line = bytes.TrimSuffix(line, []byte{'\n'})
			if !utf8.Valid(line) {
				return counts, internal.Errorf(internal.KindCodec, path, "line %d is not valid UTF-8", counts.Read+1)
			}
			counts.Read++

			if r.patterns.ShouldDrop(line) {
				counts.Removed++
			} else {
				if _, werr := out.Write(line); werr != nil {
					return counts, internal.NewError(internal.KindIO, path, werr)
				}
				if _, werr := out.Write([]byte{'\n'}); werr != nil {
					return counts, internal.NewError(internal.KindIO, path, werr)
				}
			}
		}

		if err == io.EOF {
			return counts, nil
		}
		if err != nil {
			return counts, readError(path, src, err)
		}
	}
}

// createScratch opens a fresh, uniquely named file next to path, owned
// like the original and with its permission bits.
func (r *Rewriter) createScratch(path string, info os.FileInfo) (afero.File, error) {
	name := scratchName(path)
	perm := info.Mode().Perm()

	f, err := r.fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return nil, internal.NewError(internal.KindIO, path, err)
	}
	fail := func(err error) (afero.File, error) {
		_ = f.Close()
		r.removeScratch(name)
		return nil, internal.NewError(internal.KindIO, path, err)
	}

	// chown before chmod, it may clear setuid/setgid bits
	if uid, gid, ok := fileOwner(info); ok {
		if err := r.fs.Chown(name, uid, gid); err != nil {
			if !os.IsPermission(err) {
				return fail(err)
			}
			// an unprivileged user cannot give files away; the file ends
			// up owned by whoever runs the rewrite
			logger.Get().Debug().Err(err).Str("path", path).Msg("keeping scratch file ownership")
		}
	}
	// OpenFile's perm is subject to umask
	if err := r.fs.Chmod(name, perm); err != nil {
		return fail(err)
	}
	return f, nil
}

// scratchName is a hidden name in path's directory. The basename is cut
// so the result stays within common filename length limits.
func scratchName(path string) string {
	dir, base := filepath.Split(path)
	if len(base) > maxScratchBase {
		cut := maxScratchBase
		for cut > 0 && !utf8.RuneStart(base[cut]) {
			cut--
		}
		base = base[:cut]
	}
	return filepath.Join(dir, "."+base+"."+uuid.NewString()+internal.ScratchSuffix)
}

func (r *Rewriter) removeScratch(name string) {
	if err := r.fs.Remove(name); err != nil && !os.IsNotExist(err) {
		logger.Get().Warn().Err(err).Str("path", name).Msg("failed to remove scratch file")
	}
}

// readError classifies an error seen while decoding: failures of the
// underlying file are I/O errors, everything else is the codec's.
func readError(path string, src *sourceReader, err error) error {
	if src.err != nil {
		return internal.NewError(internal.KindIO, path, src.err)
	}
	return internal.NewError(internal.KindCodec, path, err)
}

// sourceReader reports consumed bytes and remembers read failures of the
// compressed file.
type sourceReader struct {
	r      io.Reader
	onRead func(n int64)
	err    error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if n > 0 && s.onRead != nil {
		s.onRead(int64(n))
	}
	if err != nil && err != io.EOF {
		s.err = err
	}
	return n, err
}
