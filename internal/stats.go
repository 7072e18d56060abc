package internal

import "sync/atomic"

// startingPath is reported as the current path until the first archive is opened.
const startingPath = "Starting..."

// Progress holds live counters written by the walker goroutine. All fields are
// atomic so any number of observers can read them without locks; the fields
// are independent and may be observed slightly out of step with each other.
type Progress struct {
	archives atomic.Int64
	entries  atomic.Int64
	current  atomic.Pointer[string]
}

// ProgressSnapshot is a point in time copy of Progress.
type ProgressSnapshot struct {
	ArchivesSearched int64
	EntriesSearched  int64
	CurrentPath      string
}

func (p *Progress) ArchivesSearched() int64 { return p.archives.Load() }
func (p *Progress) EntriesSearched() int64  { return p.entries.Load() }

func (p *Progress) CurrentPath() string {
	if s := p.current.Load(); s != nil {
		return *s
	}
	return startingPath
}

func (p *Progress) Snapshot() ProgressSnapshot {
	return ProgressSnapshot{
		ArchivesSearched: p.ArchivesSearched(),
		EntriesSearched:  p.EntriesSearched(),
		CurrentPath:      p.CurrentPath(),
	}
}

func (p *Progress) setCurrent(path string) { p.current.Store(&path) }
func (p *Progress) archiveDone()           { p.archives.Add(1) }
func (p *Progress) entrySeen()             { p.entries.Add(1) }
