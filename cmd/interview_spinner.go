package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const thinkingLabel = "Listening to the investigator..."

var thinkingLabelStyle = lipgloss.NewStyle().Faint(true)

type thinkingDoneMsg struct {
	err error
}

// thinkingModel animates a spinner for the duration of one model call and
// quits as soon as the call resolves, carrying its error out.
type thinkingModel struct {
	spinner spinner.Model
	think   tea.Cmd
	err     error
	done    bool
}

func (m thinkingModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.think)
}

func (m thinkingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case thinkingDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m thinkingModel) View() string {
	if m.done {
		return ""
	}

	return m.spinner.View() + " " + thinkingLabelStyle.Render(thinkingLabel)
}

// runThinkingSpinner blocks on think while keeping the terminal alive; the
// interview loop calls it around every Process call.
func runThinkingSpinner(ctx context.Context, output io.Writer, think func() error) error {
	s := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	program := tea.NewProgram(
		thinkingModel{
			spinner: s,
			think:   func() tea.Msg { return thinkingDoneMsg{err: think()} },
		},
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := program.Run()
	if err != nil {
		return err
	}

	final, ok := finalModel.(thinkingModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}
	return final.err
}
