package tui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

func (m model) View() string {
	switch m.state {
	case StateScanning:
		return m.scanningView()
	case StateFiltering, StateComplete:
		return m.filteringView()
	case StateFailed:
		return ""
	default:
		return "unknown state"
	}
}

func (m model) scanningView() string {
	return fmt.Sprintf("%s %s %s\n",
		m.spinner.View(),
		titleStyle.Render("Scanning"),
		filePathStyle.Render(m.root))
}

func (m model) filteringView() string {
	var b strings.Builder

	title := "Filtering"
	if m.state == StateComplete {
		title = "Done"
	}
	b.WriteString(titleStyle.Render(title) + " ")
	b.WriteString(m.progressBar.ViewAs(m.snapshot.Percent()) + "\n")

	stats := fmt.Sprintf("%s  %s / %s  %d/%d files",
		m.elapsed,
		humanize.Bytes(uint64(m.snapshot.Bytes)),
		humanize.Bytes(uint64(m.snapshot.TotalBytes)),
		m.snapshot.Files,
		m.snapshot.TotalFiles)
	b.WriteString(hintStyle.Render(stats))
	if m.snapshot.FailedFiles > 0 {
		b.WriteString("  " + errorStyle.Render(fmt.Sprintf("%d failed", m.snapshot.FailedFiles)))
	}
	b.WriteString("\n")

	return b.String()
}
