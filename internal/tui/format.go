package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// ProgressLine renders the counters line shown while and after searching, e.g.
// "Searched 2 archives, 1,024 files. 1 result found. Elapsed time: 1m: 5s".
func ProgressLine(archives, entries int64, found int, elapsed time.Duration) string {
	return fmt.Sprintf("Searched %s %s, %s %s. %s %s found. Elapsed time: %s",
		humanize.Comma(archives), plural(archives, "archive", "archives"),
		humanize.Comma(entries), plural(entries, "file", "files"),
		humanize.Comma(int64(found)), plural(int64(found), "result", "results"),
		FormatElapsed(elapsed),
	)
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

var elapsedUnits = []struct {
	d      time.Duration
	symbol byte
}{
	{time.Hour, 'h'},
	{time.Minute, 'm'},
	{time.Second, 's'},
}

// FormatElapsed prints d in whole hours, minutes and seconds, leaving out
// leading zero units: "5s", "1m: 5s", "2h: 0m:13s".
func FormatElapsed(d time.Duration) string {
	var sb strings.Builder
	started := false
	for i, u := range elapsedUnits {
		n := d / u.d
		last := i == len(elapsedUnits)-1
		if !started && n == 0 && !last {
			continue
		}
		if started {
			sb.WriteByte(':')
		}
		fmt.Fprintf(&sb, "%2d%c", n, u.symbol)
		d -= n * u.d
		started = true
	}
	return strings.TrimLeft(sb.String(), " ")
}

// Ellipsize shortens s to width runes by replacing its middle with "...".
func Ellipsize(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width < 4 {
		return string(r[:width])
	}
	half := width / 2
	tail := width - (half + 2)
	return string(r[:half-1]) + "..." + string(r[len(r)-tail:])
}
