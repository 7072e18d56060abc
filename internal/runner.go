package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
)

var ErrSearchInProgress = errors.New("a search is already in progress")

// Runner runs searches one at a time on a dedicated worker, the way a UI runs
// a search in the background while it keeps polling for progress.
type Runner struct {
	pool       *ants.Pool
	walkerOpts []WalkerOption

	mu      sync.Mutex
	current *Search
}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithWalkerOptions applies opts to every walker the runner creates.
func WithWalkerOptions(opts ...WalkerOption) RunnerOption {
	return func(r *Runner) { r.walkerOpts = append(r.walkerOpts, opts...) }
}

func NewRunner(opts ...RunnerOption) (*Runner, error) {
	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}
	r := &Runner{pool: pool}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Start validates req and begins searching in the background. It fails with
// ErrSearchInProgress while the previous search has not finished.
func (r *Runner) Start(ctx context.Context, req SearchRequest) (*Search, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil && !r.current.Finished() {
		return nil, ErrSearchInProgress
	}

	id := uuid.NewString()
	log := logrus.WithField("search", id)
	opts := append([]WalkerOption{WithLogger(log)}, r.walkerOpts...)
	ctx, cancel := context.WithCancel(ctx)
	s := &Search{
		ID:      id,
		walker:  NewWalker(req, opts...),
		cancel:  cancel,
		done:    make(chan struct{}),
		started: time.Now(),
	}
	if err := r.pool.Submit(func() { s.run(ctx, log) }); err != nil {
		cancel()
		return nil, fmt.Errorf("submit search: %w", err)
	}
	log.WithFields(logrus.Fields{"roots": req.Roots, "target": req.Target}).Info("search started")
	r.current = s
	return s, nil
}

// Release stops accepting searches and frees the worker.
func (r *Runner) Release() {
	r.pool.Release()
}

// Search is a running or finished search. Its progress getters and Drain may
// be polled from any goroutine.
type Search struct {
	ID string

	walker  *Walker
	cancel  context.CancelFunc
	done    chan struct{}
	started time.Time

	// written before done is closed
	outcome Outcome
	err     error
	elapsed time.Duration
}

func (s *Search) run(ctx context.Context, log *logrus.Entry) {
	defer close(s.done)
	defer s.cancel()
	defer func() {
		s.elapsed = time.Since(s.started)
		if rec := recover(); rec != nil {
			s.outcome = OutcomeCrashed
			s.err = fmt.Errorf("search crashed: %v", rec)
			log.WithField("panic", rec).Error("search crashed")
		}
	}()

	s.outcome = s.walker.Run(ctx)
	log.WithFields(logrus.Fields{
		"outcome":  s.outcome,
		"archives": s.walker.ArchivesSearched(),
		"entries":  s.walker.EntriesSearched(),
		"elapsed":  time.Since(s.started),
	}).Info("search finished")
}

// Stop cancels the search without waiting for it.
func (s *Search) Stop() { s.walker.Cancel() }

// Done is closed once the search has finished.
func (s *Search) Done() <-chan struct{} { return s.done }

func (s *Search) Finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the search finishes and reports how it ended. The error
// is only set for OutcomeCrashed.
func (s *Search) Wait() (Outcome, error) {
	<-s.done
	return s.outcome, s.err
}

func (s *Search) Elapsed() time.Duration {
	if s.Finished() {
		return s.elapsed
	}
	return time.Since(s.started)
}

func (s *Search) Drain() []Result         { return s.walker.Drain() }
func (s *Search) CurrentPath() string     { return s.walker.CurrentPath() }
func (s *Search) ArchivesSearched() int64 { return s.walker.ArchivesSearched() }
func (s *Search) EntriesSearched() int64  { return s.walker.EntriesSearched() }
