package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DoneMsg signals that the spinner operation has completed.
type DoneMsg struct {
	Success bool
	Message string
}

// SpinnerModel shows a spinner next to a message until a DoneMsg arrives.
type SpinnerModel struct {
	spinner      spinner.Model
	message      string
	done         bool
	success      bool
	finalMessage string
	style        lipgloss.Style
}

// NewSpinnerModel creates a new spinner model with the given message.
func NewSpinnerModel(message string) SpinnerModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = SpinnerStyle

	return SpinnerModel{
		spinner: s,
		message: message,
		style:   lipgloss.NewStyle(),
	}
}

// Init starts the animation.
func (m SpinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates the spinner state.
func (m SpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.finalMessage = "Cancelled"
			return m, tea.Quit
		}

	case DoneMsg:
		m.done = true
		m.success = msg.Success
		m.finalMessage = msg.Message
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the spinner to a string.
func (m SpinnerModel) View() string {
	if m.done {
		if m.finalMessage == "" {
			return ""
		}
		if m.success {
			return SuccessStyle.Render("✓") + " " + m.finalMessage + "\n"
		}
		return ErrorStyle.Render("✗") + " " + m.finalMessage + "\n"
	}

	return m.spinner.View() + " " + m.style.Render(m.message)
}

// IsDone returns whether the spinner has finished.
func (m SpinnerModel) IsDone() bool {
	return m.done
}

// IsSuccess returns whether the spinner completed successfully.
func (m SpinnerModel) IsSuccess() bool {
	return m.success
}

// RunSpinnerWithTaskAndMessage runs task behind a spinner. The string task
// returns replaces the spinner line, an empty one clears it. The error is
// returned, not rendered. When interactive is false the task runs without
// any terminal UI.
func RunSpinnerWithTaskAndMessage(interactive bool, message string, task func() (string, error)) error {
	if !interactive {
		_, err := task()
		return err
	}

	p := tea.NewProgram(NewSpinnerModel(message))

	var taskErr error
	go func() {
		// Small delay so the spinner renders at least once
		time.Sleep(50 * time.Millisecond)

		resultMsg, err := task()
		taskErr = err

		p.Send(DoneMsg{Success: err == nil, Message: resultMsg})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("spinner error: %w", err)
	}

	return taskErr
}
