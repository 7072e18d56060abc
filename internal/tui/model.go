// Package tui shows a running search in the terminal with bubbletea.
package tui

import (
	"ZipSearch/internal"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Source is what the model polls. *internal.Search implements it.
type Source interface {
	Drain() []internal.Result
	CurrentPath() string
	ArchivesSearched() int64
	EntriesSearched() int64
	Elapsed() time.Duration
	Done() <-chan struct{}
	Wait() (internal.Outcome, error)
	Stop()
}

const (
	defaultPathWidth = 120
	defaultRows      = 20
	chromeRows       = 5 // status, counters, help and two blank lines
)

type tickMsg time.Time

type styles struct {
	found     lipgloss.Style
	failure   lipgloss.Style
	completed lipgloss.Style
	stopped   lipgloss.Style
	crashed   lipgloss.Style
	help      lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		found:     lipgloss.NewStyle(),
		failure:   lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
		completed: lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true),
		stopped:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		crashed:   lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true),
		help:      lipgloss.NewStyle().Faint(true),
	}
}

// Model polls a Source every interval and renders its progress and results.
type Model struct {
	src      Source
	interval time.Duration
	spinner  spinner.Model
	styles   styles

	results  []internal.Result
	found    int
	stopping bool
	finished bool
	outcome  internal.Outcome
	err      error

	width  int
	height int
}

func NewModel(src Source, interval time.Duration) *Model {
	return &Model{
		src:      src,
		interval: interval,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		styles:   defaultStyles(),
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.tick())
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "s", "esc":
			if !m.finished {
				m.src.Stop()
				m.stopping = true
			}
		case "q", "ctrl+c":
			m.src.Stop()
			return m, tea.Quit
		}
	case tickMsg:
		m.poll()
		if m.finished {
			return m, nil
		}
		return m, m.tick()
	case spinner.TickMsg:
		if m.finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// poll checks for completion before draining, so the last drain after the
// search ended sees every result.
func (m *Model) poll() {
	done := false
	select {
	case <-m.src.Done():
		done = true
	default:
	}
	for _, r := range m.src.Drain() {
		if !r.IsFailure() {
			m.found++
		}
		m.results = append(m.results, r)
	}
	if done {
		m.outcome, m.err = m.src.Wait()
		m.finished = true
	}
}

func (m *Model) Finished() bool                     { return m.finished }
func (m *Model) Outcome() (internal.Outcome, error) { return m.outcome, m.err }
func (m *Model) Found() int                         { return m.found }

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(ProgressLine(m.src.ArchivesSearched(), m.src.EntriesSearched(), m.found, m.src.Elapsed()))
	b.WriteString("\n\n")

	rows := defaultRows
	if m.height > chromeRows {
		rows = m.height - chromeRows
	}
	start := 0
	if len(m.results) > rows {
		start = len(m.results) - rows
	}
	for _, r := range m.results[start:] {
		if r.IsFailure() {
			b.WriteString(m.styles.failure.Render(r.Text))
		} else {
			b.WriteString(m.styles.found.Render(r.Text))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.finished {
		b.WriteString(m.styles.help.Render("q quit"))
	} else {
		b.WriteString(m.styles.help.Render("s stop • q quit"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m *Model) statusLine() string {
	if m.finished {
		var label string
		switch m.outcome {
		case internal.OutcomeStopped:
			label = m.styles.stopped.Render(m.outcome.String())
		case internal.OutcomeCrashed:
			label = m.styles.crashed.Render(m.outcome.String())
		default:
			label = m.styles.completed.Render(m.outcome.String())
		}
		if m.err != nil {
			label += ": " + m.err.Error()
		}
		return label
	}
	if m.stopping {
		return m.spinner.View() + " Stopping..."
	}
	width := defaultPathWidth
	if m.width > 0 {
		width = max(m.width-12, 4)
	}
	return m.spinner.View() + " Searching " + Ellipsize(m.src.CurrentPath(), width)
}

// Run shows src until the user quits and returns how the search ended. Quitting
// before the search finished stops it.
func Run(src Source, interval time.Duration, opts ...tea.ProgramOption) (internal.Outcome, error) {
	if _, err := tea.NewProgram(NewModel(src, interval), opts...).Run(); err != nil {
		src.Stop()
		src.Wait()
		return internal.OutcomeStopped, fmt.Errorf("tui: %w", err)
	}
	return src.Wait()
}
