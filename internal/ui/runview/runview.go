// Package runview shows report progress while the months are produced.
package runview

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/hpc-usage-report/internal/models"
	"github.com/j-veylop/hpc-usage-report/internal/report"
	"github.com/j-veylop/hpc-usage-report/internal/services"
	"github.com/j-veylop/hpc-usage-report/internal/ui/styles"
)

// ErrCancelled is returned when the run is interrupted from the keyboard.
var ErrCancelled = errors.New("report cancelled")

type runDoneMsg struct {
	report *report.Report
	err    error
}

// Model renders a spinner and a month progress bar.
type Model struct {
	events  <-chan services.ServiceEvent
	run     func() (*report.Report, error)
	cancel  context.CancelFunc
	quit    key.Binding
	spinner spinner.Model
	bar     progress.Model

	month models.Month
	done  int
	total int

	report   *report.Report
	err      error
	finished bool
}

// New creates a view fed by events. run is started by Init; cancel is
// called when the user interrupts.
func New(events <-chan services.ServiceEvent, run func() (*report.Report, error), cancel context.CancelFunc) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return Model{
		events:  events,
		run:     run,
		cancel:  cancel,
		quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "cancel")),
		spinner: s,
		bar: progress.New(
			progress.WithScaledGradient("#ff6b6b", "#51cf66"),
			progress.WithWidth(40),
		),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	run := m.run
	return tea.Batch(
		m.spinner.Tick,
		services.WaitForEvent(m.events),
		func() tea.Msg {
			rep, err := run()
			return runDoneMsg{report: rep, err: err}
		},
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runDoneMsg:
		m.report, m.err, m.finished = msg.report, msg.err, true
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, m.quit) {
			if m.cancel != nil {
				m.cancel()
			}
			m.err, m.finished = ErrCancelled, true
			return m, tea.Quit
		}
		return m, nil

	case services.MonthStartedEvent:
		m.month, m.done, m.total = msg.Month, msg.Index, msg.Total
		return m, services.WaitForEvent(m.events)

	case services.MonthDoneEvent:
		m.done, m.total = msg.Index+1, msg.Total
		return m, services.WaitForEvent(m.events)

	case services.ServiceEvent:
		return m, services.WaitForEvent(m.events)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.finished {
		return ""
	}
	if m.total == 0 {
		return m.spinner.View() + " Starting report...\n"
	}
	status := fmt.Sprintf("%s Producing usage for %s (%d/%d)", m.spinner.View(), m.month.Label(), m.done, m.total)
	return status + "\n" + m.bar.ViewAs(float64(m.done)/float64(m.total)) + "\n" +
		styles.HelpStyle.Render("q: cancel") + "\n"
}

// Result returns the finished report or the run's error.
func (m Model) Result() (*report.Report, error) {
	return m.report, m.err
}

// Run produces a report while showing progress on out.
func Run(ctx context.Context, mgr *services.Manager, opts services.RunOptions, in io.Reader, out io.Writer) (*report.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, _ := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	m := New(ch, func() (*report.Report, error) { return mgr.Run(ctx, opts) }, cancel)
	final, err := tea.NewProgram(m, tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return nil, fmt.Errorf("failed to run progress view: %w", err)
	}
	return final.(Model).Result()
}
