// Package spinner shows a progress spinner on a terminal while blocking
// work runs.
package spinner

import (
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/pitetb/AppMusicLibParser/internal/ui/styles"
)

type doneMsg struct{}

type model struct {
	spinner spinner.Model
	label   string
	done    bool
}

func newModel(label string) model {
	return model{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.T().Success)),
		),
		label: label,
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + styles.T().S().Muted.Render(m.label) + "\n"
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Run calls fn, showing label with a spinner on out while it runs. The
// spinner is only drawn when out is a terminal; otherwise fn runs plainly.
func Run[T any](out *os.File, label string, fn func() (T, error)) (T, error) {
	if out == nil || !IsTerminal(out) {
		return fn()
	}
	return run(out, label, fn)
}

func run[T any](out io.Writer, label string, fn func() (T, error)) (T, error) {
	var (
		v   T
		err error
	)
	done := make(chan struct{})
	p := tea.NewProgram(newModel(label),
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	go func() {
		v, err = fn()
		close(done)
		p.Send(doneMsg{})
	}()
	// A spinner failure must not lose the result, so always wait for fn.
	_, _ = p.Run()
	<-done
	return v, err
}
