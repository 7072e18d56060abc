package internal

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var (
	separatorRuns    = regexp.MustCompile(`[/\\]+`)
	dotSeparatorRuns = regexp.MustCompile(`[./\\]+`)
)

// Pattern is a parsed search target: a slash separated path prefix and an
// optional extension that must follow it.
//
// The target is split at its last dot, so "org.xyz.Foo.class" becomes the
// prefix "org/xyz/Foo" with extension "class". A dot followed by a path
// separator belongs to a directory name and never starts an extension.
type Pattern struct {
	Prefix       string
	Extension    string
	HasExtension bool
}

// ParsePattern splits raw into prefix and extension. When caseSensitive is
// false both parts are case folded; names passed to Match must then be folded
// the same way.
func ParsePattern(raw string, caseSensitive bool) Pattern {
	var p Pattern
	dot := strings.LastIndexByte(raw, '.')
	if dot < 0 || strings.ContainsAny(raw[dot+1:], `/\`) {
		p.Prefix = separatorRuns.ReplaceAllString(raw, "/")
	} else {
		p.Prefix = dotSeparatorRuns.ReplaceAllString(raw[:dot], "/")
		p.Extension = raw[dot+1:]
		p.HasExtension = true
	}
	if !caseSensitive {
		p.Prefix = foldCase(p.Prefix)
		p.Extension = foldCase(p.Extension)
	}
	return p
}

// Match reports whether an archive entry name contains the pattern. Only the
// first occurrence of the prefix is considered, and only the boundary after
// it is checked: the next character must be '.' or '/' and the extension must
// follow it.
func (p Pattern) Match(name string) bool {
	i := strings.Index(name, p.Prefix)
	if i < 0 {
		return false
	}
	if !p.HasExtension {
		return true
	}
	end := i + len(p.Prefix)
	if end >= len(name) {
		return false
	}
	if c := name[end]; c != '.' && c != '/' {
		return false
	}
	return strings.HasPrefix(name[end+1:], p.Extension)
}

func (p Pattern) String() string {
	if !p.HasExtension {
		return p.Prefix
	}
	return p.Prefix + "." + p.Extension
}

// foldCase returns the Unicode case folded form of s. A Caser keeps state, so
// a fresh one is used per call.
func foldCase(s string) string {
	return cases.Fold().String(s)
}
