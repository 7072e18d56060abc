package main

import (
	"ZipSearch/internal"
	"ZipSearch/internal/tui"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// liveSearch is what renderPlain polls. *internal.Search implements it.
type liveSearch interface {
	tui.Source
	Finished() bool
}

// renderPlain prints results to out as they are drained and keeps a spinner
// with the current archive and counters on errOut. Cancelling ctx stops the
// search; renderPlain returns once the search has finished.
func renderPlain(ctx context.Context, s liveSearch, interval time.Duration, out, errOut io.Writer) (internal.Outcome, error) {
	bar := progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(errOut),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription("Searching..."),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(interval),
	)

	found := 0
	var g errgroup.Group
	g.Go(func() error {
		select {
		case <-ctx.Done():
			logrus.WithError(ctx.Err()).Warn("Interrupted, stopping search")
			s.Stop()
		case <-s.Done():
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			// completion is checked before draining so nothing is left behind
			done := s.Finished()
			n, err := printResults(out, bar, s.Drain())
			found += n
			if err != nil {
				s.Stop()
				return fmt.Errorf("write results: %w", err)
			}
			bar.Describe("Searching " + tui.Ellipsize(s.CurrentPath(), 60) + " | " +
				tui.ProgressLine(s.ArchivesSearched(), s.EntriesSearched(), found, s.Elapsed()))
			_ = bar.Add(1)
			if done {
				return nil
			}
			select {
			case <-ticker.C:
			case <-s.Done():
			}
		}
	})
	werr := g.Wait()
	_ = bar.Finish()

	outcome, err := s.Wait()
	fmt.Fprintln(out, tui.ProgressLine(s.ArchivesSearched(), s.EntriesSearched(), found, s.Elapsed()))
	if outcome != internal.OutcomeCompleted {
		fmt.Fprintln(out, outcome)
	}
	if err == nil {
		err = werr
	}
	return outcome, err
}

func printResults(out io.Writer, bar *progressbar.ProgressBar, results []internal.Result) (int, error) {
	if len(results) == 0 {
		return 0, nil
	}
	_ = bar.Clear()
	found := 0
	for _, r := range results {
		line := r.Text
		if r.IsFailure() {
			line = "! " + r.Text
		} else {
			found++
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return found, err
		}
	}
	return found, nil
}
