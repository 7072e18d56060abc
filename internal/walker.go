package internal

import (
	"ZipSearch/internal/zipstream"
	"context"
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
)

// ErrWalkerReused is the panic value raised when a Walker is run twice.
var ErrWalkerReused = errors.New("walker: already started, a walker can only run once")

// Outcome is how a search run ended.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeStopped
	OutcomeCrashed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStopped:
		return "Stopped"
	case OutcomeCrashed:
		return "Crashed"
	default:
		return "Completed"
	}
}

// scanState is what one step of the traversal tells its caller.
type scanState int

const (
	scanContinue scanState = iota
	scanStopped            // cancellation was observed, unwind
	scanFailed             // this stream failed, siblings carry on
)

// WalkerOption customises a Walker.
type WalkerOption func(*Walker)

// WithOpener replaces the function used to open files found on disk.
func WithOpener(open func(path string) (io.ReadCloser, error)) WalkerOption {
	return func(w *Walker) { w.open = open }
}

// WithLogger sets the log entry the walker adds its fields to.
func WithLogger(entry *logrus.Entry) WalkerOption {
	return func(w *Walker) { w.log = entry }
}

// Walker searches folders, ZIP archives and, optionally, archives inside
// archives for entries matching a pattern. Run executes the search on the
// calling goroutine; every other method may be called from any goroutine at
// any time.
//
// A Walker is single use.
type Walker struct {
	req      SearchRequest
	filter   *ExtensionFilter
	pattern  Pattern
	caser    cases.Caser
	results  ResultQueue
	progress Progress

	cancelled atomic.Bool
	started   atomic.Bool

	open func(string) (io.ReadCloser, error)
	log  *logrus.Entry
}

func NewWalker(req SearchRequest, opts ...WalkerOption) *Walker {
	req = req.clone()
	w := &Walker{
		req:     req,
		filter:  NewExtensionFilter(req.CaseSensitive, req.Extensions),
		pattern: ParsePattern(req.Target, req.CaseSensitive),
		caser:   cases.Fold(),
		open:    openFile,
		log:     logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func openFile(path string) (io.ReadCloser, error) { return os.Open(path) }

// Run searches every root in order and returns OutcomeStopped when the search
// was cancelled through Cancel or ctx, OutcomeCompleted otherwise. Problems
// met on the way are published as Failure results. Run panics with
// ErrWalkerReused when called a second time.
func (w *Walker) Run(ctx context.Context) Outcome {
	if !w.started.CompareAndSwap(false, true) {
		panic(ErrWalkerReused)
	}
	w.log.WithFields(logrus.Fields{
		"roots":   len(w.req.Roots),
		"pattern": w.pattern.String(),
		"nested":  w.req.SearchNestedArchives,
	}).Debug("search started")

	for _, root := range w.req.Roots {
		switch {
		case !w.filter.Accept(root):
			w.fail("invalid input: %s", root)
		case !exists(root):
			w.fail("not found: %s", root)
		default:
			if w.visit(ctx, root, isDirPath(root)) == scanStopped {
				w.log.Debug("search stopped")
				return OutcomeStopped
			}
		}
	}
	w.log.WithFields(logrus.Fields{
		"archives": w.progress.ArchivesSearched(),
		"entries":  w.progress.EntriesSearched(),
	}).Debug("search completed")
	return OutcomeCompleted
}

// Cancel asks a running search to stop. It returns immediately and may be
// called any number of times.
func (w *Walker) Cancel() { w.cancelled.Store(true) }

// Drain returns the results published since the previous call.
func (w *Walker) Drain() []Result { return w.results.DrainAll() }

func (w *Walker) CurrentPath() string        { return w.progress.CurrentPath() }
func (w *Walker) ArchivesSearched() int64    { return w.progress.ArchivesSearched() }
func (w *Walker) EntriesSearched() int64     { return w.progress.EntriesSearched() }
func (w *Walker) Progress() ProgressSnapshot { return w.progress.Snapshot() }

func (w *Walker) stopped(ctx context.Context) bool {
	return w.cancelled.Load() || ctx.Err() != nil
}

func (w *Walker) visit(ctx context.Context, path string, isDir bool) scanState {
	if isDir {
		return w.visitDir(ctx, path)
	}
	return w.visitFile(ctx, path)
}

func (w *Walker) visitDir(ctx context.Context, dir string) scanState {
	d, err := os.Open(dir)
	if err != nil {
		w.fail("unable to read folder: %s", dir)
		return scanContinue
	}
	defer d.Close()

	for {
		ents, err := d.ReadDir(dirBatch)
		for _, ent := range ents {
			if w.stopped(ctx) {
				return scanStopped
			}
			child := filepath.Join(dir, ent.Name())
			isDir := entryIsDir(child, ent)
			if !w.filter.accept(ent.Name(), isDir) {
				continue
			}
			if w.visit(ctx, child, isDir) == scanStopped {
				return scanStopped
			}
		}
		if err == io.EOF {
			return scanContinue
		}
		if err != nil {
			w.log.WithError(err).WithField("dir", dir).Debug("read dir")
			w.fail("unable to read folder: %s", dir)
			return scanContinue
		}
	}
}

func (w *Walker) visitFile(ctx context.Context, path string) scanState {
	f, err := w.open(path)
	if err != nil {
		var pe *iofs.PathError
		if errors.As(err, &pe) {
			err = pe.Err
		}
		w.fail("IO error: %v, while reading %s", err, path)
		return scanContinue
	}
	defer f.Close()
	return w.scanStream(ctx, f, path)
}

// scanStream owns the decoder it wraps around r and releases it on every
// return path. r itself stays with the caller.
func (w *Walker) scanStream(ctx context.Context, r io.Reader, logical string) scanState {
	zr := zipstream.NewReader(r)
	defer zr.Close()
	return w.scanArchive(ctx, zr, logical)
}

func (w *Walker) scanArchive(ctx context.Context, zr *zipstream.Reader, logical string) scanState {
	if w.stopped(ctx) {
		return scanStopped
	}
	w.progress.setCurrent(logical)
	w.log.WithField("archive", logical).Debug("scanning archive")

	for {
		// observed per entry too, so a large flat archive reacts within one entry
		if w.stopped(ctx) {
			return scanStopped
		}
		hdr, err := zr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return w.archiveFailed(logical, err)
		}

		name := w.fold(hdr.Name)
		full := entryPath(logical, hdr.Name)
		if w.pattern.Match(name) {
			w.results.Publish(FoundResult(full))
		}
		w.progress.entrySeen()

		if !w.req.SearchNestedArchives || hdr.IsDir() {
			continue
		}
		if ext, ok := extensionOf(name); ok && w.filter.AcceptExtension(ext) {
			if w.scanStream(ctx, zr, full) == scanStopped {
				return scanStopped
			}
		}
	}
	w.progress.archiveDone()
	return scanContinue
}

// entryPath appends an entry name to the logical path of its archive. The
// name is kept as stored; "." and ".." segments are not resolved.
func entryPath(logical, name string) string {
	name = strings.TrimPrefix(filepath.FromSlash(name), string(filepath.Separator))
	return logical + string(filepath.Separator) + name
}

func (w *Walker) archiveFailed(logical string, err error) scanState {
	kind := "IO"
	if zipstream.IsFormatError(err) {
		kind = "Zip"
	}
	w.log.WithError(err).WithField("archive", logical).Debug("archive read failed")
	w.fail("%s error occurred while processing: %s", kind, logical)
	return scanFailed
}

func (w *Walker) fail(format string, args ...any) {
	res := FailureResult(format, args...)
	w.log.WithField("failure", res.Text).Debug("search failure")
	w.results.Publish(res)
}

func (w *Walker) fold(s string) string {
	if w.req.CaseSensitive {
		return s
	}
	return w.caser.String(s)
}
