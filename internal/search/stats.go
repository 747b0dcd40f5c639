package search

import "time"

// Stats aggregates counters for a search or part of one. Records from
// sibling files and subtrees combine with Add.
type Stats struct {
	FilesVisited    int   `yaml:"files_visited"`
	SkippedNonUTF8  int   `yaml:"skipped_non_utf8"`
	FilesUnreadable int   `yaml:"files_unreadable"`
	DirsVisited     int   `yaml:"dirs_visited"`
	DirsUnreadable  int   `yaml:"dirs_unreadable"`
	SpecialSkipped  int   `yaml:"special_skipped"`
	BytesRead       int64 `yaml:"bytes_read"`
	BytesSampled    int64 `yaml:"bytes_sampled"`
	LinesMatched    int   `yaml:"lines_matched"`
	BytesMatched    int64 `yaml:"bytes_matched"`

	// WalkDuration is the longest directory crawl, not a sum.
	WalkDuration time.Duration `yaml:"walk_duration"`
}

// Add folds o into s.
func (s *Stats) Add(o Stats) {
	s.FilesVisited += o.FilesVisited
	s.SkippedNonUTF8 += o.SkippedNonUTF8
	s.FilesUnreadable += o.FilesUnreadable
	s.DirsVisited += o.DirsVisited
	s.DirsUnreadable += o.DirsUnreadable
	s.SpecialSkipped += o.SpecialSkipped
	s.BytesRead += o.BytesRead
	s.BytesSampled += o.BytesSampled
	s.LinesMatched += o.LinesMatched
	s.BytesMatched += o.BytesMatched
	s.WalkDuration = max(s.WalkDuration, o.WalkDuration)
}
