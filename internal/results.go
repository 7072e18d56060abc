package internal

import (
	"fmt"
	"sync"
)

// ResultKind tells a match from a failure.
type ResultKind int

const (
	Found ResultKind = iota
	Failure
)

func (k ResultKind) String() string {
	if k == Failure {
		return "failure"
	}
	return "found"
}

// Result is one line of search output: the path of a matching entry, or a
// failure message. Results are values and never change after creation.
type Result struct {
	Kind ResultKind
	Text string
}

// FoundResult reports a matching entry at path.
func FoundResult(path string) Result { return Result{Kind: Found, Text: path} }

// FailureResult reports a recoverable problem.
func FailureResult(format string, args ...any) Result {
	return Result{Kind: Failure, Text: fmt.Sprintf(format, args...)}
}

func (r Result) IsFailure() bool { return r.Kind == Failure }
func (r Result) String() string  { return r.Kind.String() + ": " + r.Text }

// ResultQueue carries results from the walker to a polling consumer. Publish
// never blocks on the consumer and DrainAll takes everything queued so far in
// one step.
type ResultQueue struct {
	mu      sync.Mutex
	pending []Result
}

func (q *ResultQueue) Publish(r Result) {
	q.mu.Lock()
	q.pending = append(q.pending, r)
	q.mu.Unlock()
}

// DrainAll removes and returns all queued results in publish order, or nil.
func (q *ResultQueue) DrainAll() []Result {
	q.mu.Lock()
	out := q.pending
	q.pending = nil
	q.mu.Unlock()
	return out
}

func (q *ResultQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
