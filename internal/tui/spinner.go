package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// workDoneMsg is sent when the wrapped work returns.
type workDoneMsg struct{ err error }

// spinnerModel shows a spinner with a label until workDoneMsg arrives.
// Ctrl+C cancels the work instead of killing the program, so cleanup in
// the work function still runs.
type spinnerModel struct {
	spinner  spinner.Model
	label    string
	cancel   context.CancelFunc
	done     bool
	canceled bool
}

var _ tea.Model = (*spinnerModel)(nil)

func newSpinnerModel(label string, cancel context.CancelFunc) *spinnerModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = dimStyle
	return &spinnerModel{spinner: sp, label: label, cancel: cancel}
}

func (m *spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case workDoneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC && !m.canceled {
			m.canceled = true
			m.label = "canceling..."
			m.cancel()
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *spinnerModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), m.label)
}

// RunWithSpinner runs fn while a spinner with label is drawn on out. The
// error returned is fn's.
func RunWithSpinner(ctx context.Context, out io.Writer, label string, fn func(context.Context) error) error {
	return runWithSpinner(ctx, label, fn, tea.WithOutput(out))
}

func runWithSpinner(ctx context.Context, label string, fn func(context.Context) error, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newSpinnerModel(label, cancel), opts...)
	errCh := make(chan error, 1)
	go func() {
		err := fn(ctx)
		errCh <- err
		p.Send(workDoneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-errCh
		return fmt.Errorf("running spinner: %w", err)
	}
	return <-errCh
}
