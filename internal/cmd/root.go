package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for toygrep
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toygrep [flags] PATTERN [PATH...]",
		Short: "Search files and directories for lines matching a regular expression",
		Long: `toygrep searches every line of the given files, or recursively every
regular file below the given directories, for a regular expression.

Targets are searched concurrently. With a single file results stream out as
they are found; with several targets each file's matches are printed as one
uninterrupted block. With no PATH, standard input is searched when it is piped,
otherwise the current directory.

Exit status is 0 when a line matched, 1 when nothing matched and 2 when a
target could not be searched or an error occurred.`,
		Example: `  toygrep needle src/
  toygrep -i -w todo main.go util.go
  toygrep -F 'a.b(c)' --group never .
  cat app.log | toygrep -n error
  toygrep -z panic /var/log --stats`,
		Args:    cobra.MinimumNArgs(1),
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          searchCommand,
	}

	cmd.Flags().BoolP("ignore-case", "i", false, "Match case-insensitively")
	cmd.Flags().BoolP("word-regexp", "w", false, "Only match whole words")
	cmd.Flags().BoolP("fixed-strings", "F", false, "Treat PATTERN as a literal string")
	cmd.Flags().BoolP("line-number", "n", true, "Prefix each line with its line number")
	cmd.Flags().Bool("no-line-number", false, "Do not print line numbers (overrides config)")
	cmd.Flags().BoolP("search-zip", "z", false, "Search inside .gz, .zst and .lz4 files")
	cmd.Flags().IntP("threads", "j", -1, "Number of concurrent workers (0 = number of CPUs, -1 = use config)")
	cmd.Flags().String("group", "", "Group output by target: auto, always, never")
	cmd.Flags().String("color", "", "Colour output: auto, always, never")
	cmd.Flags().Bool("stats", false, "Print a run report to stderr")
	cmd.Flags().String("stats-file", "", "Append a YAML run report to this file")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.Flags().BoolP("debug", "d", false, "Shorthand for --log-level debug")
	cmd.Flags().String("config", "", "Path to config file (default: .toygrep/config.yaml)")

	return cmd
}
