package internal

import (
	"path/filepath"
	"sort"
	"strings"
)

// ExtensionFilter decides which files and archive entries take part in a
// search. Directories are always accepted.
type ExtensionFilter struct {
	caseSensitive bool
	exts          map[string]struct{}
}

// NewExtensionFilter builds a filter accepting the given extensions, with or
// without a leading dot.
func NewExtensionFilter(caseSensitive bool, exts []string) *ExtensionFilter {
	f := &ExtensionFilter{caseSensitive: caseSensitive, exts: make(map[string]struct{}, len(exts))}
	for _, e := range exts {
		f.exts[f.fold(strings.TrimPrefix(e, "."))] = struct{}{}
	}
	return f
}

// Accept reports whether path is a directory or a file with an accepted
// extension. Symbolic links are followed.
func (f *ExtensionFilter) Accept(path string) bool {
	return f.accept(filepath.Base(path), isDirPath(path))
}

// AcceptExtension reports whether ext, given without the dot, is accepted.
func (f *ExtensionFilter) AcceptExtension(ext string) bool {
	_, ok := f.exts[f.fold(ext)]
	return ok
}

// Description summarises the filter, e.g. "Directories + jar, zip files (Case Insensitive)".
func (f *ExtensionFilter) Description() string {
	exts := make([]string, 0, len(f.exts))
	for e := range f.exts {
		exts = append(exts, e)
	}
	sort.Strings(exts)

	var sb strings.Builder
	sb.WriteString("Directories")
	if len(exts) > 0 {
		sb.WriteString(" + ")
	}
	sb.WriteString(strings.Join(exts, ", "))
	if f.caseSensitive {
		sb.WriteString(" files (Case Sensitive)")
	} else {
		sb.WriteString(" files (Case Insensitive)")
	}
	return sb.String()
}

func (f *ExtensionFilter) accept(name string, isDir bool) bool {
	if isDir {
		return true
	}
	ext, ok := extensionOf(name)
	return ok && f.AcceptExtension(ext)
}

func (f *ExtensionFilter) fold(s string) string {
	if f.caseSensitive {
		return s
	}
	return foldCase(s)
}
