package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/toygrep/internal/config"
	"github.com/harrison/toygrep/internal/display"
	"github.com/harrison/toygrep/internal/logger"
	"github.com/harrison/toygrep/internal/matcher"
	"github.com/harrison/toygrep/internal/printer"
	"github.com/harrison/toygrep/internal/report"
	"github.com/harrison/toygrep/internal/search"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// searchCommand implements the root command: one search over all targets.
func searchCommand(cmd *cobra.Command, args []string) error {
	startedAt := time.Now()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return &ExitError{Code: ExitTrouble, Err: err}
	}

	log := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	log.LogDebug(fmt.Sprintf("config: workers=%d max_buffer_bytes=%d group=%s color=%s decompress=%v",
		cfg.Workers, cfg.MaxBufferBytes, cfg.GroupByTarget, cfg.Color, cfg.Decompress))

	ignoreCase, _ := cmd.Flags().GetBool("ignore-case")
	wordRegexp, _ := cmd.Flags().GetBool("word-regexp")
	fixedStrings, _ := cmd.Flags().GetBool("fixed-strings")

	pattern := args[0]
	m, err := matcher.NewBuilder(pattern).
		CaseInsensitive(ignoreCase).
		WholeWord(wordRegexp).
		Literal(fixedStrings).
		Build()
	if err != nil {
		return &ExitError{Code: ExitTrouble, Err: err}
	}
	log.LogDebug(fmt.Sprintf("compiled pattern %s", m))

	targets := search.Dedupe(resolveTargets(cmd, args[1:]))

	mode := search.PrintModeFor(targets)
	switch cfg.GroupByTarget {
	case config.ModeAlways:
		mode = printer.Grouped
	case config.ModeNever:
		mode = printer.Immediate
	}
	out := cmd.OutOrStdout()
	useColor := config.Resolve(cfg.Color, isTerminal(out) && !color.NoColor)
	log.LogDebug(fmt.Sprintf("searching %d targets, %s output", len(targets), mode))

	p := printer.New(out, cmd.ErrOrStderr(), printer.Options{
		Mode:        mode,
		Matcher:     m,
		LineNumbers: cfg.LineNumbers,
		Color:       useColor,
	})
	sender := p.Start()

	s := search.New(m, sender, search.Options{
		Workers:           cfg.Workers,
		MaxBufferBytes:    cfg.MaxBufferBytes,
		PrewarmBuffers:    cfg.PrewarmBuffers,
		BinarySampleBytes: cfg.BinarySampleBytes,
		Decompress:        cfg.Decompress,
		Stdin:             cmd.InOrStdin(),
		Logger:            log,
	})
	stats, searchErr := s.Search(targets)
	sender.Close()
	printed := p.Wait()

	rep := report.New(pattern, targets, stats, printed, searchErr, startedAt)
	log.LogSearchSummary(stats.FilesVisited, stats.LinesMatched, rep.Duration)

	if showStats, _ := cmd.Flags().GetBool("stats"); showStats {
		errOut := cmd.ErrOrStderr()
		rep.Format(errOut, config.Resolve(cfg.Color, isTerminal(errOut) && !color.NoColor))
	}
	if cfg.StatsFile != "" {
		if err := rep.WriteFile(cfg.StatsFile); err != nil {
			log.LogWarn(fmt.Sprintf("could not record run: %v", err))
		} else {
			log.LogInfo(fmt.Sprintf("recorded run %s in %s", rep.RunID, cfg.StatsFile))
		}
	}

	if printed.Err != nil {
		log.LogError(fmt.Sprintf("output stopped after %d lines: %v", printed.LinesPrinted, printed.Err))
		return &ExitError{Code: ExitTrouble, Err: fmt.Errorf("failed to write results: %w", printed.Err)}
	}

	var unreachable *search.UnreachableTargetsError
	if errors.As(searchErr, &unreachable) {
		reasons := make([]string, len(unreachable.Targets))
		for i, t := range unreachable.Targets {
			reasons[i] = reason(t.Err)
		}
		w := display.WarnUnreachable(unreachable.Paths(), reasons)
		w.Color = isTerminal(cmd.ErrOrStderr()) && !color.NoColor
		w.Display(cmd.ErrOrStderr())
		return &ExitError{Code: ExitTrouble}
	}

	if stats.LinesMatched == 0 {
		return &ExitError{Code: ExitNoMatch}
	}
	return nil
}

// loadConfig reads the config file and applies explicitly set flags over it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	var cfg *config.Config
	var err error

	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	threadsFlag, _ := cmd.Flags().GetInt("threads")
	groupFlag, _ := cmd.Flags().GetString("group")
	colorFlag, _ := cmd.Flags().GetString("color")
	lineNumberFlag, _ := cmd.Flags().GetBool("line-number")
	searchZipFlag, _ := cmd.Flags().GetBool("search-zip")
	logLevelFlag, _ := cmd.Flags().GetString("log-level")
	debugFlag, _ := cmd.Flags().GetBool("debug")
	statsFileFlag, _ := cmd.Flags().GetString("stats-file")

	if cmd.Flags().Changed("line-number") && cmd.Flags().Changed("no-line-number") {
		return nil, fmt.Errorf("cannot use both --line-number and --no-line-number")
	}

	var threadsPtr *int
	if cmd.Flags().Changed("threads") {
		threadsPtr = &threadsFlag
	}

	var groupPtr *string
	if cmd.Flags().Changed("group") {
		groupPtr = &groupFlag
	}

	var colorPtr *string
	if cmd.Flags().Changed("color") {
		colorPtr = &colorFlag
	}

	var lineNumberPtr *bool
	if cmd.Flags().Changed("line-number") {
		lineNumberPtr = &lineNumberFlag
	} else if cmd.Flags().Changed("no-line-number") {
		off := false
		lineNumberPtr = &off
	}

	var searchZipPtr *bool
	if cmd.Flags().Changed("search-zip") {
		searchZipPtr = &searchZipFlag
	}

	var logLevelPtr *string
	if cmd.Flags().Changed("log-level") {
		logLevelPtr = &logLevelFlag
	} else if debugFlag {
		debug := "debug"
		logLevelPtr = &debug
	}

	var statsFilePtr *string
	if cmd.Flags().Changed("stats-file") {
		statsFilePtr = &statsFileFlag
	}

	cfg.MergeWithFlags(threadsPtr, groupPtr, colorPtr, lineNumberPtr, searchZipPtr, logLevelPtr, statsFilePtr)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// resolveTargets maps PATH arguments to targets. With none, piped stdin is
// searched, otherwise the working directory.
func resolveTargets(cmd *cobra.Command, paths []string) []search.Target {
	if len(paths) == 0 {
		if stdinProvided(cmd.InOrStdin()) {
			return []search.Target{search.Stdin()}
		}
		return []search.Target{search.Path(".")}
	}

	targets := make([]search.Target, len(paths))
	for i, p := range paths {
		targets[i] = search.Path(p)
	}
	return targets
}

// stdinProvided reports whether in carries piped or redirected input rather
// than an interactive terminal. Readers that are not files always count.
func stdinProvided(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return true
	}
	return !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// reason shortens a target error for display, dropping the repeated path.
func reason(err error) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}
	return err.Error()
}
