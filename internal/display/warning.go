// Package display renders user-facing notices on the terminal, separate from
// search output and from diagnostic logging.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Paths      []string // Related paths (optional)
	Suggestion string   // Action to take (optional)
	Color      bool     // Render in yellow
}

// Display writes the warning block to out.
func (w Warning) Display(out io.Writer) {
	var b strings.Builder

	b.WriteString("Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Paths) > 0 {
		b.WriteString("    ")
		if len(w.Paths) == 1 {
			b.WriteString("Affected path:\n")
		} else {
			b.WriteString("Affected paths:\n")
		}

		for i, p := range w.Paths {
			b.WriteString(fmt.Sprintf("      %d. %s\n", i+1, p))
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	text := b.String()
	if w.Color {
		c := color.New(color.FgYellow)
		c.EnableColor()
		text = c.Sprint(text)
	}
	fmt.Fprint(out, text)
}

// WarnUnreachable builds the warning shown when some targets were neither a
// file nor a directory. reasons are listed alongside their paths.
func WarnUnreachable(paths, reasons []string) Warning {
	listed := make([]string, len(paths))
	for i, p := range paths {
		if i < len(reasons) && reasons[i] != "" {
			listed[i] = fmt.Sprintf("%s (%s)", p, reasons[i])
		} else {
			listed[i] = p
		}
	}

	title := "1 target could not be searched"
	if len(paths) != 1 {
		title = fmt.Sprintf("%d targets could not be searched", len(paths))
	}
	return Warning{
		Title:      title,
		Message:    "Results for the remaining targets are complete.",
		Paths:      listed,
		Suggestion: "Check that each path exists and is a regular file or directory.",
	}
}
