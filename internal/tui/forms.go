package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned by the Run* helpers when the user backs out.
var ErrCancelled = errors.New("cancelled")

// Form-specific styles (using theme colors for consistency)
var (
	formFocusedStyle = lipgloss.NewStyle().Foreground(ColorPrimary)
	formBlurredStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	formNoStyle      = lipgloss.NewStyle()
	formHelpStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	formErrorStyle   = lipgloss.NewStyle().Foreground(ColorError)
)

// ValidationFunc returns an error message, or "" when value is valid.
type ValidationFunc func(value string) string

// FormField is a single input field in a form.
type FormField struct {
	Label    string
	Input    textinput.Model
	Required bool
	Validate ValidationFunc

	validationError string
}

// FormModel is a form with one or more text inputs.
type FormModel struct {
	fields     []FormField
	focusIndex int
	done       bool
	submitted  bool
	title      string
}

// FormOption configures a FormModel.
type FormOption func(*FormModel)

// WithTitle sets the form title.
func WithTitle(title string) FormOption {
	return func(m *FormModel) {
		m.title = title
	}
}

// WithFieldRequired marks a specific field as required.
func WithFieldRequired(index int, required bool) FormOption {
	return func(m *FormModel) {
		if index >= 0 && index < len(m.fields) {
			m.fields[index].Required = required
		}
	}
}

// WithFieldValidation sets a validation function for a specific field.
func WithFieldValidation(index int, validate ValidationFunc) FormOption {
	return func(m *FormModel) {
		if index >= 0 && index < len(m.fields) {
			m.fields[index].Validate = validate
		}
	}
}

// WithDefaultValue sets a default value for a specific field.
func WithDefaultValue(index int, value string) FormOption {
	return func(m *FormModel) {
		if index >= 0 && index < len(m.fields) {
			m.fields[index].Input.SetValue(value)
		}
	}
}

// WithPassword hides the input of the given fields.
func WithPassword(indexes ...int) FormOption {
	return func(m *FormModel) {
		for _, i := range indexes {
			if i >= 0 && i < len(m.fields) {
				m.fields[i].Input.EchoMode = textinput.EchoPassword
				m.fields[i].Input.EchoCharacter = '•'
			}
		}
	}
}

// NewFormModel creates a form with one field per label.
func NewFormModel(labels []string, opts ...FormOption) FormModel {
	fields := make([]FormField, len(labels))

	for i, label := range labels {
		ti := textinput.New()
		ti.Placeholder = label
		ti.CharLimit = 256
		ti.Width = 40
		ti.PromptStyle = formNoStyle
		ti.TextStyle = formNoStyle

		if i == 0 {
			ti.Focus()
			ti.PromptStyle = formFocusedStyle
		}

		fields[i] = FormField{Label: label, Input: ti}
	}

	m := FormModel{fields: fields}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init implements tea.Model.
func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch s := msg.String(); s {
		case "ctrl+c", "esc":
			m.done = true
			m.submitted = false
			return m, tea.Quit

		case "tab", "shift+tab", "enter", "up", "down":
			m.fields[m.focusIndex].validationError = m.validateField(m.focusIndex)

			if s == "enter" && m.focusIndex == len(m.fields)-1 {
				if m.validateAll() {
					m.done = true
					m.submitted = true
					return m, tea.Quit
				}
				return m, nil
			}

			if s == "up" || s == "shift+tab" {
				m.focusIndex--
			} else {
				m.focusIndex++
			}
			if m.focusIndex > len(m.fields)-1 {
				m.focusIndex = 0
			} else if m.focusIndex < 0 {
				m.focusIndex = len(m.fields) - 1
			}

			cmds := make([]tea.Cmd, len(m.fields))
			for i := range m.fields {
				if i == m.focusIndex {
					cmds[i] = m.fields[i].Input.Focus()
					m.fields[i].Input.PromptStyle = formFocusedStyle
				} else {
					m.fields[i].Input.Blur()
					m.fields[i].Input.PromptStyle = formNoStyle
				}
			}
			return m, tea.Batch(cmds...)
		}
	}

	// Only the focused input reacts to keys
	var cmd tea.Cmd
	m.fields[m.focusIndex].Input, cmd = m.fields[m.focusIndex].Input.Update(msg)
	return m, cmd
}

func (m FormModel) validateField(index int) string {
	field := m.fields[index]
	value := field.Input.Value()

	if field.Required && strings.TrimSpace(value) == "" {
		return fmt.Sprintf("%s is required", field.Label)
	}
	if field.Validate != nil {
		return field.Validate(value)
	}
	return ""
}

func (m *FormModel) validateAll() bool {
	ok := true
	for i := range m.fields {
		m.fields[i].validationError = m.validateField(i)
		if m.fields[i].validationError != "" {
			ok = false
		}
	}
	return ok
}

// View implements tea.Model.
func (m FormModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	if m.title != "" {
		b.WriteString(TitleStyle.Render(m.title))
		b.WriteString("\n")
	}

	for i, field := range m.fields {
		label := field.Label
		if field.Required {
			label += " *"
		}
		if i == m.focusIndex {
			b.WriteString(formFocusedStyle.Bold(true).Render(label))
		} else {
			b.WriteString(formBlurredStyle.Render(label))
		}
		b.WriteString(":\n")
		b.WriteString(field.Input.View())
		b.WriteString("\n")
		if field.validationError != "" {
			b.WriteString(formErrorStyle.Render("  " + field.validationError))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(formHelpStyle.Render("(Tab to navigate, Enter to submit, Esc to cancel)"))
	b.WriteString("\n")
	return b.String()
}

// Values returns the form values if submitted, or nil if cancelled.
func (m FormModel) Values() []string {
	if !m.submitted {
		return nil
	}
	values := make([]string, len(m.fields))
	for i, field := range m.fields {
		values[i] = field.Input.Value()
	}
	return values
}

// IsSubmitted returns true if the form was submitted.
func (m FormModel) IsSubmitted() bool {
	return m.submitted
}

// IsCancelled returns true if the form was cancelled.
func (m FormModel) IsCancelled() bool {
	return m.done && !m.submitted
}

// FocusedIndex returns the index of the currently focused field.
func (m FormModel) FocusedIndex() int {
	return m.focusIndex
}

// RunForm shows the form and returns its values, or ErrCancelled.
func RunForm(labels []string, opts ...FormOption) ([]string, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("no fields provided")
	}

	final, err := tea.NewProgram(NewFormModel(labels, opts...)).Run()
	if err != nil {
		return nil, fmt.Errorf("failed to run form: %w", err)
	}
	m, ok := final.(FormModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type")
	}
	if !m.IsSubmitted() {
		return nil, ErrCancelled
	}
	return m.Values(), nil
}

// PromptPassword asks for a single hidden value.
func PromptPassword(title, label string) (string, error) {
	values, err := RunForm([]string{label},
		WithTitle(title),
		WithPassword(0),
		WithFieldRequired(0, true),
	)
	if err != nil {
		return "", err
	}
	return values[0], nil
}

// PromptPasswordChange asks for the current password and the new one twice.
func PromptPasswordChange(minLength int) (current, next, confirm string, err error) {
	values, err := RunForm(
		[]string{"Current password", "New password", "Confirm new password"},
		WithTitle("Change password"),
		WithPassword(0, 1, 2),
		WithFieldRequired(0, true),
		WithFieldRequired(1, true),
		WithFieldRequired(2, true),
		WithFieldValidation(1, MinLength(minLength)),
	)
	if err != nil {
		return "", "", "", err
	}
	return values[0], values[1], values[2], nil
}

// MinLength rejects values shorter than n characters.
func MinLength(n int) ValidationFunc {
	return func(value string) string {
		if len([]rune(value)) < n {
			return fmt.Sprintf("must be at least %d characters", n)
		}
		return ""
	}
}
