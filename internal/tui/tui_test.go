package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/celebstyle/celebstyle-cli/pkg/plans"
)

func press(t *testing.T, m tea.Model, keys ...tea.KeyMsg) tea.Model {
	t.Helper()
	for _, k := range keys {
		m, _ = m.Update(k)
	}
	return m
}

var (
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func typed(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPlanChoices_DisablesNonUpgrades(t *testing.T) {
	tests := []struct {
		current plans.ID
		enabled []bool
	}{
		{plans.Free, []bool{false, true, true, true}},
		{plans.Starter, []bool{false, false, true, true}},
		{plans.Pro, []bool{false, false, false, true}},
		{plans.Ultra, []bool{false, false, false, false}},
	}

	for _, tt := range tests {
		t.Run(string(tt.current), func(t *testing.T) {
			choices, catalog := PlanChoices(tt.current)
			if len(choices) != len(catalog) {
				t.Fatalf("expected %d choices, got %d", len(catalog), len(choices))
			}
			for i, c := range choices {
				if c.Disabled == tt.enabled[i] {
					t.Errorf("%s: disabled=%v", catalog[i].ID, c.Disabled)
				}
			}
		})
	}
}

func TestPlanChoices_ShowsPriceAndReason(t *testing.T) {
	choices, _ := PlanChoices(plans.Pro)
	if !strings.Contains(choices[2].Detail, "Current plan") {
		t.Errorf("expected current plan label, got %q", choices[2].Detail)
	}
	if !strings.Contains(choices[0].Detail, "Downgrade not available") {
		t.Errorf("expected downgrade label, got %q", choices[0].Detail)
	}
	if !strings.Contains(choices[3].Detail, "₹999") {
		t.Errorf("expected price, got %q", choices[3].Detail)
	}
}

func TestSelectModel_SkipsDisabled(t *testing.T) {
	choices, _ := PlanChoices(plans.Free)
	m := NewSelectModel("Choose", choices)
	if m.cursor != 1 {
		t.Fatalf("expected cursor on first upgrade, got %d", m.cursor)
	}

	got := press(t, m, keyUp).(SelectModel)
	if got.cursor != 1 {
		t.Errorf("cursor must not land on a disabled plan, got %d", got.cursor)
	}

	got = press(t, m, keyDown, keyDown, keyDown, keyEnter).(SelectModel)
	if got.Selected() != 3 || !got.IsDone() {
		t.Errorf("expected ultra selected, got %d", got.Selected())
	}
}

func TestSelectModel_NothingSelectable(t *testing.T) {
	choices, _ := PlanChoices(plans.Ultra)
	m := NewSelectModel("Choose", choices)

	got := press(t, m, keyEnter).(SelectModel)
	if got.IsDone() || got.Selected() != -1 {
		t.Error("enter must do nothing without a selectable choice")
	}
	if _, err := RunSelect("Choose", choices); err == nil {
		t.Error("expected an error with no selectable choices")
	}
}

func TestSelectModel_Cancel(t *testing.T) {
	m := NewSelectModel("Sure?", []Choice{{Label: "No"}, {Label: "Yes"}})
	got := press(t, m, keyDown, keyEsc).(SelectModel)
	if got.Selected() != -1 || !got.IsDone() {
		t.Errorf("expected cancelled, got %d", got.Selected())
	}
}

func TestFormModel_RequiredAndSubmit(t *testing.T) {
	m := NewFormModel([]string{"Password"}, WithPassword(0), WithFieldRequired(0, true))

	got := press(t, m, keyEnter).(FormModel)
	if got.IsSubmitted() {
		t.Fatal("empty required field must not submit")
	}
	if !strings.Contains(got.View(), "Password is required") {
		t.Error("expected a validation message")
	}

	got = press(t, got, typed("hunter22"), keyEnter).(FormModel)
	if !got.IsSubmitted() {
		t.Fatal("expected submit")
	}
	if v := got.Values(); len(v) != 1 || v[0] != "hunter22" {
		t.Errorf("unexpected values %v", v)
	}
}

func TestFormModel_PasswordChange(t *testing.T) {
	m := NewFormModel([]string{"Current", "New", "Confirm"},
		WithPassword(0, 1, 2),
		WithFieldValidation(1, MinLength(8)),
	)

	got := press(t, m, typed("old"), keyDown, typed("short"), keyDown).(FormModel)
	if !strings.Contains(got.View(), "at least 8 characters") {
		t.Error("expected min length message")
	}
	if strings.Contains(got.View(), "short") {
		t.Error("password fields must not echo their value")
	}
	if got.FocusedIndex() != 2 {
		t.Errorf("expected focus on confirm, got %d", got.FocusedIndex())
	}

	got = press(t, got, keyEnter).(FormModel)
	if got.IsSubmitted() {
		t.Error("invalid new password must block submit")
	}
}

func TestFormModel_Cancel(t *testing.T) {
	got := press(t, NewFormModel([]string{"Name"}), typed("x"), keyEsc).(FormModel)
	if !got.IsCancelled() || got.Values() != nil {
		t.Error("expected cancelled form without values")
	}
}

func TestFormatting(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"small count", FormatCount(999), "999"},
		{"thousands", FormatCount(20000), "20,000"},
		{"rupees", FormatINR(199), "₹199"},
		{"zero", FormatINR(0), "₹0"},
		{"paise whole", FormatPaise(49900, "INR"), "₹499"},
		{"paise default currency", FormatPaise(19900, ""), "₹199"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestRenderUsageBar(t *testing.T) {
	tests := []struct {
		percent float64
		filled  int
	}{
		{0, 0},
		{50, 10},
		{100, 20},
		{250, 20},
		{-5, 0},
	}
	for _, tt := range tests {
		bar := RenderUsageBar(tt.percent, 20)
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("%v%%: expected %d filled cells, got %d", tt.percent, tt.filled, got)
		}
		if got := strings.Count(bar, "█") + strings.Count(bar, "░"); got != 20 {
			t.Errorf("%v%%: expected 20 cells, got %d", tt.percent, got)
		}
	}
}
