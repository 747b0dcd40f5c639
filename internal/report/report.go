// Package report summarises one toygrep run: what was searched, what the
// searcher counted and how the printer spent its time. Reports can be shown on
// the terminal or appended to a YAML history file shared between concurrent
// runs.
package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/harrison/toygrep/internal/logger"
	"github.com/harrison/toygrep/internal/printer"
	"github.com/harrison/toygrep/internal/search"
)

// PrinterSummary is the serialisable form of a printer.Report.
type PrinterSummary struct {
	Messages      int           `yaml:"messages"`
	LinesPrinted  int           `yaml:"lines_printed"`
	BlocksFlushed int           `yaml:"blocks_flushed"`
	DecodeErrors  int           `yaml:"decode_errors"`
	FirstMessage  time.Duration `yaml:"first_message"`
	Duration      time.Duration `yaml:"duration"`
	Error         string        `yaml:"error,omitempty"`
}

// Report describes one search run.
type Report struct {
	RunID       string         `yaml:"run_id"`
	Pattern     string         `yaml:"pattern"`
	Targets     []string       `yaml:"targets"`
	Stats       search.Stats   `yaml:"stats"`
	Printer     PrinterSummary `yaml:"printer"`
	Unreachable []string       `yaml:"unreachable,omitempty"`
	StartedAt   time.Time      `yaml:"started_at"`
	Duration    time.Duration  `yaml:"duration"`
}

// New builds the report for a run that started at startedAt and has just
// finished. searchErr is the error returned by the searcher, if any.
func New(pattern string, targets []search.Target, stats search.Stats, pr printer.Report, searchErr error, startedAt time.Time) *Report {
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.Name()
	}

	r := &Report{
		RunID:     uuid.New().String(),
		Pattern:   pattern,
		Targets:   names,
		Stats:     stats,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Printer: PrinterSummary{
			Messages:      pr.Messages,
			LinesPrinted:  pr.LinesPrinted,
			BlocksFlushed: pr.BlocksFlushed,
			DecodeErrors:  pr.DecodeErrors,
			FirstMessage:  pr.FirstMessage,
			Duration:      pr.Duration,
		},
	}
	if pr.Err != nil {
		r.Printer.Error = pr.Err.Error()
	}

	var unreachable *search.UnreachableTargetsError
	if errors.As(searchErr, &unreachable) {
		r.Unreachable = unreachable.Paths()
	}
	return r
}

// Format writes a human-readable summary to w.
func (r *Report) Format(w io.Writer, colored bool) {
	heading := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgHiBlack)
	if colored {
		heading.EnableColor()
		label.EnableColor()
	} else {
		heading.DisableColor()
		label.DisableColor()
	}

	row := func(name, format string, args ...any) {
		fmt.Fprintf(w, "  %s %s\n", label.Sprintf("%-14s", name+":"), fmt.Sprintf(format, args...))
	}

	s := r.Stats
	fmt.Fprintf(w, "%s\n", heading.Sprintf("toygrep run %s", r.RunID))
	row("pattern", "%q", r.Pattern)
	row("targets", "%d", len(r.Targets))
	row("files", "%d searched, %d binary, %d unreadable", s.FilesVisited, s.SkippedNonUTF8, s.FilesUnreadable)
	row("directories", "%d walked, %d unreadable, %d special skipped", s.DirsVisited, s.DirsUnreadable, s.SpecialSkipped)
	row("bytes", "%d read, %d sampled", s.BytesRead, s.BytesSampled)
	row("matches", "%d lines, %d bytes", s.LinesMatched, s.BytesMatched)
	row("printer", "%d lines in %d blocks, first message after %s",
		r.Printer.LinesPrinted, r.Printer.BlocksFlushed, logger.FormatDuration(r.Printer.FirstMessage))
	if r.Printer.DecodeErrors > 0 {
		row("decode errors", "%d", r.Printer.DecodeErrors)
	}
	if r.Printer.Error != "" {
		row("output error", "%s", r.Printer.Error)
	}
	if len(r.Unreachable) > 0 {
		row("unreachable", "%d", len(r.Unreachable))
	}
	row("walk", "%s", logger.FormatDuration(s.WalkDuration))
	row("total", "%s", logger.FormatDuration(r.Duration))
}
