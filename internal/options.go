package internal

import (
	"errors"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	ErrNoRoots      = errors.New("no file or folder paths to search in")
	ErrNoExtensions = errors.New("no types of files to search")
	ErrNoTarget     = errors.New("no file name to search for")
)

// SearchRequest describes one search run. A Walker keeps its own copy, so a
// request can be reused after it was handed over.
type SearchRequest struct {
	Roots                []string // files or folders, searched in order
	Extensions           []string // accepted file types, e.g. "jar", "zip"
	SearchNestedArchives bool
	Target               string
	CaseSensitive        bool
}

// Validate checks invariants and reports every violation at once.
func (r SearchRequest) Validate() error {
	var result *multierror.Error
	if len(r.Roots) == 0 {
		result = multierror.Append(result, ErrNoRoots)
	}
	if len(r.Extensions) == 0 {
		result = multierror.Append(result, ErrNoExtensions)
	}
	if strings.TrimSpace(r.Target) == "" {
		result = multierror.Append(result, ErrNoTarget)
	}
	return result.ErrorOrNil()
}

func (r SearchRequest) clone() SearchRequest {
	r.Roots = append([]string(nil), r.Roots...)
	r.Extensions = append([]string(nil), r.Extensions...)
	return r
}

// SplitList splits s on delim, trims every part and drops empty ones. An empty
// delim keeps s as a single item.
func SplitList(s, delim string) []string {
	var parts []string
	if delim == "" {
		parts = []string{s}
	} else {
		parts = strings.Split(s, delim)
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SplitLists applies SplitList to every value of a repeated flag.
func SplitLists(values []string, delim string) []string {
	var out []string
	for _, v := range values {
		out = append(out, SplitList(v, delim)...)
	}
	return out
}
