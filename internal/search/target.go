package search

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/toygrep/internal/printer"
)

// StdinName is the target name used for standard input.
const StdinName = "<stdin>"

// TargetKind distinguishes the search sources.
type TargetKind int

const (
	// TargetStdin reads standard input.
	TargetStdin TargetKind = iota
	// TargetPath reads a file or, recursively, a directory.
	TargetPath
)

// Target is one search source. A path is classified as file or directory
// when it is searched, not when the Target is built.
type Target struct {
	Kind TargetKind
	Path string
}

// Stdin returns the standard input target.
func Stdin() Target {
	return Target{Kind: TargetStdin}
}

// Path returns a target for path.
func Path(path string) Target {
	return Target{Kind: TargetPath, Path: path}
}

// Name returns the label results for this target are reported under.
func (t Target) Name() string {
	if t.Kind == TargetStdin {
		return StdinName
	}
	return t.Path
}

// PrintModeFor picks the printer mode for a target list: a lone regular file
// or a lone stdin is printed immediately, anything else is grouped by target.
func PrintModeFor(targets []Target) printer.Mode {
	if len(targets) != 1 {
		return printer.Grouped
	}
	t := targets[0]
	if t.Kind == TargetStdin {
		return printer.Immediate
	}
	info, err := os.Stat(t.Path)
	return printer.ModeFor(err == nil && info.Mode().IsRegular())
}

// Dedupe drops repeated targets and paths that a directory target in the
// list already reaches, so every file is searched and reported once. The
// first occurrence of a target keeps its position.
func Dedupe(targets []Target) []Target {
	var dirs []string
	for _, t := range targets {
		if t.Kind != TargetPath {
			continue
		}
		if info, err := os.Stat(t.Path); err == nil && info.IsDir() {
			dirs = append(dirs, filepath.Clean(t.Path))
		}
	}

	out := make([]Target, 0, len(targets))
	seen := make(map[string]bool, len(targets))
	stdinSeen := false
	for _, t := range targets {
		if t.Kind == TargetStdin {
			if !stdinSeen {
				stdinSeen = true
				out = append(out, t)
			}
			continue
		}

		clean := filepath.Clean(t.Path)
		if seen[clean] {
			continue
		}
		covered := false
		for _, dir := range dirs {
			if crawlReaches(dir, clean) {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		seen[clean] = true
		out = append(out, t)
	}
	return out
}

// crawlReaches reports whether a crawl rooted at dir visits path: path must
// lie strictly below dir, every directory in between must be a real
// directory, and path itself a directory or regular file. Symlinks anywhere
// on the way stop the crawler, so they stop this check too.
func crawlReaches(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}

	cur := dir
	parts := strings.Split(rel, string(filepath.Separator))
	for i, part := range parts {
		cur = filepath.Join(cur, part)
		info, err := os.Lstat(cur)
		if err != nil {
			return false
		}
		last := i == len(parts)-1
		if info.IsDir() {
			continue
		}
		if !last || !info.Mode().IsRegular() {
			return false
		}
	}
	return true
}
