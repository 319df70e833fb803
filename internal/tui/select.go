package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/celebstyle/celebstyle-cli/pkg/plans"
)

// Choice is one row of a SelectModel. Disabled rows are shown but the
// cursor skips them.
type Choice struct {
	Label    string
	Detail   string
	Disabled bool
}

// SelectModel is a selection menu with arrow-key navigation.
type SelectModel struct {
	title    string
	choices  []Choice
	cursor   int
	selected int
	done     bool
}

// NewSelectModel creates a menu positioned on the first enabled choice.
func NewSelectModel(title string, choices []Choice) SelectModel {
	m := SelectModel{title: title, choices: choices, cursor: -1, selected: -1}
	m.cursor = m.next(-1, 1)
	return m
}

// next returns the first enabled index after from in direction dir, or the
// current cursor if there is none.
func (m SelectModel) next(from, dir int) int {
	for i := from + dir; i >= 0 && i < len(m.choices); i += dir {
		if !m.choices[i].Disabled {
			return i
		}
	}
	return m.cursor
}

// Init implements tea.Model.
func (m SelectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m SelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			m.cursor = m.next(m.cursor, -1)
		case "down", "j":
			m.cursor = m.next(m.cursor, 1)
		case "enter":
			if m.cursor < 0 {
				return m, nil
			}
			m.selected = m.cursor
			m.done = true
			return m, tea.Quit
		case "q", "esc", "ctrl+c":
			m.selected = -1
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m SelectModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	if m.title != "" {
		b.WriteString(TitleStyle.Render(m.title))
		b.WriteString("\n")
	}

	for i, c := range m.choices {
		line := c.Label
		if c.Detail != "" {
			line += "  " + c.Detail
		}
		switch {
		case c.Disabled:
			b.WriteString(MutedStyle.Render("  " + line))
		case i == m.cursor:
			b.WriteString(SelectedStyle.Render(ListCursor + " " + line))
		default:
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString(MutedStyle.Render("\n(up/down to move, Enter to select, q to quit)"))
	b.WriteString("\n")
	return b.String()
}

// Selected returns the index of the selected choice, or -1 if cancelled.
func (m SelectModel) Selected() int {
	return m.selected
}

// IsDone returns true once the menu has been answered or cancelled.
func (m SelectModel) IsDone() bool {
	return m.done
}

// RunSelect shows the menu and returns the chosen index, or ErrCancelled.
func RunSelect(title string, choices []Choice) (int, error) {
	m := NewSelectModel(title, choices)
	if m.cursor < 0 {
		return -1, fmt.Errorf("no selectable choices")
	}

	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return -1, fmt.Errorf("failed to run select menu: %w", err)
	}
	fm, ok := final.(SelectModel)
	if !ok {
		return -1, fmt.Errorf("unexpected model type")
	}
	if fm.Selected() < 0 {
		return -1, ErrCancelled
	}
	return fm.Selected(), nil
}

// Confirm asks a yes/no question, defaulting to no.
func Confirm(question string) (bool, error) {
	i, err := RunSelect(question, []Choice{{Label: "No"}, {Label: "Yes"}})
	if err == ErrCancelled {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return i == 1, nil
}

// PlanChoices lists the whole catalog for a user on current. Plans that are
// not an upgrade are disabled and labelled with the reason.
func PlanChoices(current plans.ID) ([]Choice, []plans.Plan) {
	catalog := plans.Catalog()
	choices := make([]Choice, len(catalog))
	for i, p := range catalog {
		e := plans.Check(current, p.ID)
		detail := fmt.Sprintf("%s  %s  [%s]", FormatINR(int64(p.PriceINR)), p.QuotaLabel, e.Label(p))
		if p.Badge != "" {
			detail += "  " + BadgeStyle.Render(p.Badge)
		}
		choices[i] = Choice{
			Label:    fmt.Sprintf("%-8s", p.Label),
			Detail:   detail,
			Disabled: e != plans.Upgrade,
		}
	}
	return choices, catalog
}

// RunPlanPicker lets the user pick an upgrade target.
func RunPlanPicker(current plans.ID) (plans.ID, error) {
	choices, catalog := PlanChoices(current)
	i, err := RunSelect("Choose a plan", choices)
	if err != nil {
		return "", err
	}
	return catalog[i].ID, nil
}
