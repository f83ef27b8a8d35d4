package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progressBar.Width = min(msg.Width-4, maxBarWidth)
		return m, nil

	case scanDoneMsg:
		m.state = StateFiltering
		m.tracker = msg.tracker
		m.started = time.Now()
		m.refresh()
		return m, tick()

	case tickMsg:
		if m.state != StateFiltering {
			return m, nil
		}
		m.refresh()
		return m, tick()

	case finishedMsg:
		if m.state == StateFiltering {
			m.refresh()
		}
		m.state = StateComplete
		return m, tea.Quit

	case errMsg:
		m.state = StateFailed
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		if m.state != StateScanning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// refresh pulls the tracker state; the bar is drawn from the snapshot so
// it never needs its own animation frames.
func (m *model) refresh() {
	if m.tracker == nil {
		return
	}
	m.snapshot = m.tracker.Snapshot()
	m.elapsed = time.Since(m.started).Round(time.Second)
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
