package internal

import (
	"sync"
	"testing"
)

func TestResultQueue_DrainAll(t *testing.T) {
	var q ResultQueue
	if q.DrainAll() != nil {
		t.Fatal("empty queue must drain to nil")
	}

	q.Publish(FoundResult("/a.zip/x"))
	q.Publish(FailureResult("not found: %s", "/b.zip"))
	if q.Len() != 2 {
		t.Fatalf("Len() = %d", q.Len())
	}

	got := q.DrainAll()
	if len(got) != 2 || got[0].Text != "/a.zip/x" || got[1].Text != "not found: /b.zip" {
		t.Fatalf("unexpected drain: %v", got)
	}
	if got[0].IsFailure() || !got[1].IsFailure() {
		t.Fatal("kinds mixed up")
	}
	if got[1].String() != "failure: not found: /b.zip" {
		t.Errorf("String() = %q", got[1].String())
	}
	if q.DrainAll() != nil {
		t.Fatal("second drain must be empty")
	}
}

func TestResultQueue_ConcurrentPublish(t *testing.T) {
	var q ResultQueue
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Publish(FoundResult("x"))
			}
		}()
	}

	total := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for finished := false; !finished; {
		select {
		case <-done:
			finished = true
		default:
		}
		total += len(q.DrainAll())
	}
	if total != 800 {
		t.Fatalf("drained %d results, want 800", total)
	}
}

func TestProgress(t *testing.T) {
	var p Progress
	if p.CurrentPath() != "Starting..." {
		t.Fatalf("CurrentPath() = %q", p.CurrentPath())
	}
	p.setCurrent("/x/a.zip")
	p.entrySeen()
	p.entrySeen()
	p.archiveDone()

	want := ProgressSnapshot{ArchivesSearched: 1, EntriesSearched: 2, CurrentPath: "/x/a.zip"}
	if got := p.Snapshot(); got != want {
		t.Fatalf("Snapshot() = %+v, want %+v", got, want)
	}
}
