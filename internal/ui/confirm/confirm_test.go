package confirm

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_Update(t *testing.T) {
	tests := []struct {
		name      string
		msg       tea.Msg
		answered  bool
		confirmed bool
	}{
		{"yes", runes("y"), true, true},
		{"upper yes", runes("Y"), true, true},
		{"no", runes("n"), true, false},
		{"escape", tea.KeyMsg{Type: tea.KeyEsc}, true, false},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}, true, false},
		{"other key", runes("x"), false, false},
		{"not a key", tea.WindowSizeMsg{Width: 80}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, cmd := New("Add group?").Update(tt.msg)
			m := next.(Model)
			if m.Answered() != tt.answered {
				t.Errorf("Answered() = %v, want %v", m.Answered(), tt.answered)
			}
			if m.Confirmed() != tt.confirmed {
				t.Errorf("Confirmed() = %v, want %v", m.Confirmed(), tt.confirmed)
			}
			if tt.answered && cmd == nil {
				t.Error("an answer should quit")
			}
			if !tt.answered && cmd != nil {
				t.Error("unanswered prompt should keep waiting")
			}
		})
	}
}

func TestModel_IgnoresKeysAfterAnswer(t *testing.T) {
	next, _ := New("Remove?").Update(runes("n"))
	next, _ = next.Update(runes("y"))
	if next.(Model).Confirmed() {
		t.Error("answer changed after it was given")
	}
}

func TestModel_View(t *testing.T) {
	m := New("Remove user asmith?")
	if v := m.View(); !strings.Contains(v, "Remove user asmith?") || !strings.Contains(v, "y/n") {
		t.Errorf("View() = %q", v)
	}

	next, _ := m.Update(runes("y"))
	if v := next.View(); !strings.Contains(v, "yes") {
		t.Errorf("answered View() = %q", v)
	}
}

func TestAsk(t *testing.T) {
	var out strings.Builder
	ok, err := Ask("Continue?", strings.NewReader("y"), &out)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if !ok {
		t.Error("Ask() = false, want true")
	}

	ok, err = Ask("Continue?", strings.NewReader("n"), &out)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if ok {
		t.Error("Ask() = true, want false")
	}
}
