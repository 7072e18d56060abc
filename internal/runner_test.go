package internal

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func newRunner(t *testing.T, opts ...RunnerOption) *Runner {
	t.Helper()
	r, err := NewRunner(opts...)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	t.Cleanup(r.Release)
	return r
}

func start(t *testing.T, r *Runner, ctx context.Context, req SearchRequest) *Search {
	t.Helper()
	s, err := r.Start(ctx, req)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

func wait(t *testing.T, s *Search, want Outcome) {
	t.Helper()
	outcome, err := s.Wait()
	if err != nil && want != OutcomeCrashed {
		t.Fatalf("Wait: %v", err)
	}
	if outcome != want {
		t.Fatalf("outcome = %v, want %v", outcome, want)
	}
}

func TestRunner_Completes(t *testing.T) {
	dir := t.TempDir()
	archive := writeZip(t, filepath.Join(dir, "a.zip"), zipEntry{name: "pkg/Target.class", body: "x"})
	r := newRunner(t)

	s := start(t, r, context.Background(), request("pkg.Target.class", dir))
	if s.ID == "" {
		t.Error("search has no id")
	}
	wait(t, s, OutcomeCompleted)

	if !s.Finished() {
		t.Error("Finished() = false after Wait")
	}
	want := []Result{FoundResult(filepath.Join(archive, "pkg", "Target.class"))}
	if got := s.Drain(); !reflect.DeepEqual(got, want) {
		t.Fatalf("results = %v, want %v", got, want)
	}
	if s.ArchivesSearched() != 1 || s.EntriesSearched() != 1 {
		t.Errorf("archives=%d entries=%d", s.ArchivesSearched(), s.EntriesSearched())
	}
	if s.CurrentPath() != archive {
		t.Errorf("CurrentPath() = %q", s.CurrentPath())
	}
	if a, b := s.Elapsed(), s.Elapsed(); a != b {
		t.Errorf("elapsed keeps moving after the search finished: %v, %v", a, b)
	}
}

func TestRunner_RejectsInvalidRequest(t *testing.T) {
	r := newRunner(t)
	_, err := r.Start(context.Background(), SearchRequest{Roots: []string{t.TempDir()}})
	if !errors.Is(err, ErrNoExtensions) || !errors.Is(err, ErrNoTarget) {
		t.Fatalf("err = %v, want both ErrNoExtensions and ErrNoTarget", err)
	}
}

func blockingOpener(entered chan<- string, release <-chan struct{}) func(string) (io.ReadCloser, error) {
	return func(path string) (io.ReadCloser, error) {
		select {
		case entered <- path:
		default:
		}
		<-release
		return os.Open(path)
	}
}

func TestRunner_OneSearchAtATime(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "a.zip"), zipEntry{name: "Target", body: "x"})

	entered := make(chan string, 1)
	release := make(chan struct{})
	r := newRunner(t, WithWalkerOptions(WithOpener(blockingOpener(entered, release))))

	first := start(t, r, context.Background(), request("Target", dir))
	<-entered

	if _, err := r.Start(context.Background(), request("Target", dir)); !errors.Is(err, ErrSearchInProgress) {
		t.Fatalf("err = %v, want ErrSearchInProgress", err)
	}
	if first.Finished() {
		t.Fatal("first search finished while blocked")
	}

	close(release)
	wait(t, first, OutcomeCompleted)

	second := start(t, r, context.Background(), request("Target", dir))
	if first.ID == second.ID {
		t.Errorf("searches share id %s", first.ID)
	}
	wait(t, second, OutcomeCompleted)
	if n := len(second.Drain()); n != 1 {
		t.Fatalf("second search returned %d results", n)
	}
}

func TestRunner_Stop(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "a.zip"), zipEntry{name: "Target", body: "x"})

	entered := make(chan string, 1)
	release := make(chan struct{})
	r := newRunner(t, WithWalkerOptions(WithOpener(blockingOpener(entered, release))))

	s := start(t, r, context.Background(), request("Target", dir))
	<-entered
	s.Stop()
	s.Stop()
	close(release)

	<-s.Done()
	wait(t, s, OutcomeStopped)
	if got := s.Drain(); len(got) != 0 {
		t.Fatalf("unexpected results: %v", got)
	}
}

func TestRunner_ContextCancel(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "a.zip"), zipEntry{name: "Target", body: "x"})

	entered := make(chan string, 1)
	release := make(chan struct{})
	r := newRunner(t, WithWalkerOptions(WithOpener(blockingOpener(entered, release))))

	ctx, cancel := context.WithCancel(context.Background())
	s := start(t, r, ctx, request("Target", dir))
	<-entered
	cancel()
	close(release)

	wait(t, s, OutcomeStopped)
}

func TestRunner_Crash(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "a.zip"), zipEntry{name: "Target", body: "x"})

	r := newRunner(t, WithWalkerOptions(WithOpener(func(string) (io.ReadCloser, error) {
		panic("disk on fire")
	})))

	s := start(t, r, context.Background(), request("Target", dir))
	outcome, err := s.Wait()
	if outcome != OutcomeCrashed || outcome.String() != "Crashed" {
		t.Fatalf("outcome = %v, want Crashed", outcome)
	}
	if err == nil || !strings.Contains(err.Error(), "disk on fire") {
		t.Fatalf("err = %v", err)
	}

	// the worker survives
	s = start(t, r, context.Background(), request("Target", t.TempDir()))
	wait(t, s, OutcomeCompleted)
}
