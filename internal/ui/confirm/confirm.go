// Package confirm asks a yes/no question on the terminal.
package confirm

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/hpc-usage-report/internal/ui/styles"
)

// KeyMap defines the prompt's key bindings.
type KeyMap struct {
	Yes  key.Binding
	No   key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	var k KeyMap
	k.Yes = key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes"))
	k.No = key.NewBinding(key.WithKeys("n", "N"), key.WithHelp("n", "no"))
	k.Quit = key.NewBinding(key.WithKeys("esc", "ctrl+c", "q"), key.WithHelp("esc", "cancel"))
	return k
}

// Model is a bubbletea model that waits for y or n. Any other key is ignored.
type Model struct {
	prompt    string
	keys      KeyMap
	answered  bool
	confirmed bool
}

// New creates a prompt for question.
func New(question string) Model {
	return Model{prompt: question, keys: DefaultKeyMap()}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.answered {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Yes):
		m.answered, m.confirmed = true, true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.No), key.Matches(keyMsg, m.keys.Quit):
		m.answered = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.answered {
		answer := styles.ErrorTextStyle.Render("no")
		if m.confirmed {
			answer = styles.SuccessTextStyle.Render("yes")
		}
		return fmt.Sprintf("%s %s\n", m.prompt, answer)
	}
	return fmt.Sprintf("%s %s ", m.prompt, styles.HelpKeyStyle.Render("(y/n)"))
}

// Confirmed reports whether the answer was yes.
func (m Model) Confirmed() bool {
	return m.confirmed
}

// Answered reports whether an answer was given.
func (m Model) Answered() bool {
	return m.answered
}

// Ask shows question and blocks until it is answered. Cancelling counts as no.
func Ask(question string, in io.Reader, out io.Writer) (bool, error) {
	p := tea.NewProgram(New(question), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	m, ok := final.(Model)
	return ok && m.Confirmed(), nil
}
