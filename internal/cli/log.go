// Package cli implements the cfgdot command-line interface.
//
// The CLI is built with cobra. Every command reads a function export (a JSON
// or YAML document with the Disassembly/LLIL/MLIL/HLIL views of one
// function) and turns one view into DOT text or an image.
//
// # Commands
//
//   - dot: print the DOT text for a view
//   - render: rasterize a view to PNG or SVG, optionally onto the clipboard
//   - info: summarize the views in an export
//   - preview: interactive terminal session with debounced re-rendering
//   - serve: HTTP preview server
//   - config, cache: inspect settings and manage the render cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// installs log-backed observability hooks.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long an operation took.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at debug level with the elapsed time, e.g.
// "rendered sub_401000 (84ms)".
func (p *progress) done(msg string) {
	p.logger.Debugf("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
