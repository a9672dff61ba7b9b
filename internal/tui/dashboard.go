// Package tui implements the optional live progress dashboard `full-pipeline
// --watch` renders while a diagnosis cascade runs: a bubbletea Model that
// drains the orchestrator's event channel and shows which stage is active
// and what each completed stage found, in the channel-to-tea.Cmd bridging
// style this codebase's TUI layer uses elsewhere.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/trace2pass/cldiag/internal/diagnose"
)

var (
	activeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
)

// stageEventMsg wraps a diagnose.Event for delivery through bubbletea's
// message loop.
type stageEventMsg struct {
	event diagnose.Event
	ok    bool
}

// Dashboard is the bubbletea Model for the live cascade progress view.
type Dashboard struct {
	ctx      context.Context
	events   <-chan diagnose.Event
	current  diagnose.State
	findings map[diagnose.State]string
	spinner  spinner.Model
	done     bool
}

// NewDashboard returns a Dashboard that drains events until the channel
// closes or a StateDone event arrives.
func NewDashboard(ctx context.Context, events <-chan diagnose.Event) Dashboard {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = activeStyle
	return Dashboard{
		ctx:      ctx,
		events:   events,
		current:  diagnose.StateUB,
		findings: make(map[diagnose.State]string),
		spinner:  sp,
	}
}

// Init starts draining the event channel and the spinner's tick loop.
func (d Dashboard) Init() tea.Cmd {
	return tea.Batch(d.spinner.Tick, waitForEvent(d.events))
}

func waitForEvent(events <-chan diagnose.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		return stageEventMsg{event: event, ok: ok}
	}
}

// Update handles incoming stage events and quit keys.
func (d Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		if m.String() == "ctrl+c" || m.String() == "q" {
			return d, tea.Quit
		}
	case spinner.TickMsg:
		if d.done {
			return d, nil
		}
		var cmd tea.Cmd
		d.spinner, cmd = d.spinner.Update(m)
		return d, cmd
	case stageEventMsg:
		if !m.ok {
			d.done = true
			return d, tea.Quit
		}
		d.current = m.event.State
		if m.event.Finding != nil {
			d.findings[m.event.State] = fmt.Sprintf("%s (confidence %.0f%%)", m.event.Finding.Verdict, m.event.Finding.Confidence*100)
		}
		if m.event.State == diagnose.StateDone {
			d.done = true
			return d, tea.Quit
		}
		return d, waitForEvent(d.events)
	}
	return d, nil
}

// View renders the three cascade stages with their completion status.
func (d Dashboard) View() string {
	stages := []diagnose.State{diagnose.StateUB, diagnose.StateVersion, diagnose.StatePass}
	out := headerStyle.Render("cldiag cascade progress") + "\n\n"
	for _, s := range stages {
		line := s.String()
		if finding, ok := d.findings[s]; ok {
			line = doneStyle.Render(fmt.Sprintf("[done] %-8s %s", s, finding))
		} else if s == d.current && !d.done {
			line = activeStyle.Render(fmt.Sprintf("%s %-8s running", d.spinner.View(), s))
		} else {
			line = pendingStyle.Render(fmt.Sprintf("[    ] %s", s))
		}
		out += line + "\n"
	}
	if d.done {
		out += "\n" + doneStyle.Render("cascade complete") + "\n"
	}
	return out
}

// Run drives the dashboard to completion against a real terminal.
func Run(ctx context.Context, events <-chan diagnose.Event) error {
	p := tea.NewProgram(NewDashboard(ctx, events))
	_, err := p.Run()
	return err
}
