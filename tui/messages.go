package tui

import (
	"time"

	"github.com/stvsmth/sieve/pkg/progress"
)

type scanDoneMsg struct {
	tracker *progress.Tracker
}

type finishedMsg struct{}

type errMsg struct {
	err error
}

type tickMsg time.Time
