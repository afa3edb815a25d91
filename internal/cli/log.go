// Package cli implements the metroflow command-line interface.
//
// Commands work on map snapshots, the JSON documents written by the editor:
//   - new: create a snapshot, empty or the two-line example
//   - layout: re-route every segment of a snapshot and write it back
//   - render: draw a snapshot as SVG, PNG, DOT or a topology SVG
//   - inspect: summarize tracks and stations
//   - serve: run the HTTP editing API
//   - store: list, push, pull and remove named snapshots
//   - cache: manage the render cache
//
// All commands support --verbose (-v) for debug-level logging and --config
// to pick a TOML config file.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger with "HH:MM:SS.ms" timestamps filtering at level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs completion of an operation with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Rendered 3 artifacts (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
