package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stvsmth/sieve/pkg/logger"
	"github.com/stvsmth/sieve/pkg/progress"
)

// Program drives the progress view. It never reads the terminal; the
// caller owns signal handling and tells the view what phase the run is in.
type Program struct {
	p *tea.Program
}

// New builds a view rendering to out, starting in the scanning phase.
func New(root string, out io.Writer) *Program {
	m := initialModel(root)
	p := tea.NewProgram(m,
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	return &Program{p: p}
}

// Run blocks until Finish or Fail is called.
func (p *Program) Run() error {
	logger.Get().Debug().Msg("starting progress view")

	_, err := p.p.Run()
	if err != nil {
		logger.Get().Error().Err(err).Msg("progress view failed")
	}
	return err
}

// Filtering switches the view from the spinner to the byte progress bar.
func (p *Program) Filtering(tracker *progress.Tracker) {
	p.p.Send(scanDoneMsg{tracker: tracker})
}

// Finish draws the final state and stops the program.
func (p *Program) Finish() {
	p.p.Send(finishedMsg{})
}

// Fail stops the program without a final bar, e.g. when discovery fails.
func (p *Program) Fail(err error) {
	p.p.Send(errMsg{err: err})
}
