package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	sieveprogress "github.com/stvsmth/sieve/pkg/progress"
)

type State int

const (
	StateScanning State = iota
	StateFiltering
	StateComplete
	StateFailed
)

const (
	tickInterval = 100 * time.Millisecond
	maxBarWidth  = 60
)

type model struct {
	state       State
	root        string
	tracker     *sieveprogress.Tracker
	snapshot    sieveprogress.Snapshot
	started     time.Time
	elapsed     time.Duration
	progressBar progress.Model
	spinner     spinner.Model
	err         error
}

func initialModel(root string) model {
	progressBar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(maxBarWidth))
	progressBar.PercentageStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Width(5)

	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		FPS:    time.Second / 10,
	}
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		state:       StateScanning,
		root:        root,
		progressBar: progressBar,
		spinner:     s,
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}
