package extract

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"

	"github.com/chatterino/chatterino-updater/internal/archive"
	"github.com/chatterino/chatterino-updater/internal/platform"
	"github.com/chatterino/chatterino-updater/internal/remap"
)

// DefaultBufferSize is the size of the copy buffer shared by all entries.
const DefaultBufferSize = 4096

// ErrIO reports a filesystem failure while writing an entry.
var ErrIO = errors.New("write failed")

// IOError wraps the filesystem error that stopped extraction.
type IOError struct {
	Entry string
	Err   error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%v: entry %s: %v", ErrIO, e.Entry, e.Err)
}

func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }

// Outcome summarizes one extraction run.
type Outcome struct {
	Written int // files written
	Dirs    int // directory entries materialized
	Skipped int // entries matching a preserve pattern

	// FailedEntry is the archive name of the entry that stopped the run.
	FailedEntry string
	Err         error
}

// Success reports whether every entry was processed.
func (o Outcome) Success() bool { return o.Err == nil }

// Progress is reported after each processed entry.
type Progress struct {
	Entry string
	Done  int
}

// Engine extracts entries with a fixed set of rewrite rules and preserve
// patterns.
type Engine struct {
	rules    []remap.Rule
	preserve []string
	bufSize  int
	progress func(Progress)
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules replaces the default rewrite rules.
func WithRules(rules []remap.Rule) Option {
	return func(e *Engine) {
		e.rules = rules
	}
}

// WithPreserve adds slash-separated path.Match patterns, relative to the
// root, for files an update must never overwrite.
func WithPreserve(patterns ...string) Option {
	return func(e *Engine) {
		e.preserve = append(e.preserve, patterns...)
	}
}

// WithBufferSize sets the copy buffer size. Non-positive sizes are ignored.
func WithBufferSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.bufSize = n
		}
	}
}

// WithProgress registers a callback invoked after each entry.
func WithProgress(fn func(Progress)) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// New creates an Engine using remap.DefaultRules and DefaultBufferSize.
func New(opts ...Option) *Engine {
	e := &Engine{
		rules:   remap.DefaultRules(),
		bufSize: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type action int

const (
	wroteFile action = iota
	madeDir
	skipped
)

// Extract writes entries under root and stops at the first failure.
func (e *Engine) Extract(entries iter.Seq2[archive.Entry, error], root string) Outcome {
	var out Outcome
	buf := make([]byte, e.bufSize)
	done := 0

	for entry, err := range entries {
		if err == nil {
			var act action
			act, err = e.extractEntry(entry, root, buf)
			switch act {
			case wroteFile:
				out.Written++
			case madeDir:
				out.Dirs++
			case skipped:
				out.Skipped++
			}
		}
		if err != nil {
			out.FailedEntry = entry.Name
			out.Err = err
			return out
		}

		done++
		if e.progress != nil {
			e.progress(Progress{Entry: entry.Name, Done: done})
		}
	}
	return out
}

// Plan resolves where the entry called name would be written under root and
// whether it is skipped as preserved. Nothing is written.
func (e *Engine) Plan(name, root string) (dst remap.Destination, preserved bool, err error) {
	dst, err = remap.Resolve(root, name, e.rules)
	if err != nil {
		return remap.Destination{}, false, err
	}
	return dst, e.preserved(dst.Rel), nil
}

func (e *Engine) extractEntry(entry archive.Entry, root string, buf []byte) (action, error) {
	dst, keep, err := e.Plan(entry.Name, root)
	if err != nil {
		return -1, err
	}
	if keep {
		return skipped, nil
	}

	if entry.IsDir {
		if err := os.MkdirAll(dst.Path, 0755); err != nil {
			return -1, &IOError{Entry: entry.Name, Err: err}
		}
		return madeDir, nil
	}

	if err := os.MkdirAll(filepath.Dir(dst.Path), 0755); err != nil {
		return -1, &IOError{Entry: entry.Name, Err: err}
	}
	if err := writeFile(entry, dst.Path, buf); err != nil {
		return -1, err
	}
	return wroteFile, nil
}

func (e *Engine) preserved(rel string) bool {
	for _, pattern := range e.preserve {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// writeFile opens the entry first so a corrupt member never truncates the
// file it would replace.
func writeFile(entry archive.Entry, dest string, buf []byte) error {
	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	// Without archived permissions a new file gets 0666 less the umask and an
	// existing file keeps its mode.
	mode, explicit := platform.FileMode(entry.Mode)
	createMode := fs.FileMode(0666)
	if explicit {
		createMode = mode
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, createMode)
	if err != nil {
		return &IOError{Entry: entry.Name, Err: err}
	}

	if err := copyBuffer(f, rc, buf, entry.Name); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return &IOError{Entry: entry.Name, Err: err}
	}

	if !explicit {
		return nil
	}
	// OpenFile keeps the old mode of an existing file.
	if err := platform.Chmod(dest, mode); err != nil {
		return &IOError{Entry: entry.Name, Err: err}
	}
	return nil
}

// copyBuffer copies through buf only. io.CopyBuffer is avoided because
// *os.File implements io.ReaderFrom, which bypasses the buffer.
func copyBuffer(w io.Writer, r io.Reader, buf []byte, name string) error {
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return &IOError{Entry: name, Err: err}
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}
