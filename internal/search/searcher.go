// Package search drives line buffers and a matcher over search targets and
// reports matches to a printer sink.
//
// Each file is searched start to finish by one goroutine: a pooled buffer is
// acquired, every matching line is sent as a Printable, exactly one
// EndOfReading follows, and the buffer goes back to the pool. Per-file
// problems (binary content, unreadable files or directories) are folded into
// Stats; only targets that are neither file nor directory surface as an
// error, after every other target has finished.
package search

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"unicode/utf8"

	"github.com/harrison/toygrep/internal/crawler"
	"github.com/harrison/toygrep/internal/linebuf"
	"github.com/harrison/toygrep/internal/logger"
	"github.com/harrison/toygrep/internal/matcher"
	"github.com/harrison/toygrep/internal/printer"
	"golang.org/x/sync/errgroup"
)

// DefaultBinarySampleBytes is how many leading bytes of a file must decode as
// UTF-8 for the file to be treated as text.
const DefaultBinarySampleBytes = 512

var lineBreak = []byte{'\n'}

// Logger is the subset of the console logger the searcher needs.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogWarn(message string)
}

// Options configures a Searcher.
type Options struct {
	// Workers bounds concurrently searched targets and the crawler pool size
	// for each directory. 0 means runtime.NumCPU().
	Workers int
	// MaxBufferBytes caps freshly built pooled buffers.
	MaxBufferBytes int
	// PrewarmBuffers is the number of buffers built up front.
	PrewarmBuffers int
	// BinarySampleBytes is the UTF-8 sampling window; 0 means the default,
	// negative disables binary detection.
	BinarySampleBytes int
	// Decompress searches .gz, .zst and .lz4 files through a decoder.
	Decompress bool
	// Stdin is read for the stdin target. Defaults to os.Stdin.
	Stdin io.Reader
	// Logger receives diagnostics. Defaults to discarding them.
	Logger Logger
}

// Searcher searches targets with one matcher and reports to one sink.
type Searcher struct {
	matcher *matcher.Matcher
	sink    printer.Sink
	pool    *linebuf.Pool
	opts    Options
	log     Logger
}

// New returns a Searcher. m and sink are shared by every search task.
func New(m *matcher.Matcher, sink printer.Sink, opts Options) *Searcher {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.MaxBufferBytes <= 0 {
		opts.MaxBufferBytes = linebuf.DefaultMaxBufferBytes
	}
	if opts.BinarySampleBytes == 0 {
		opts.BinarySampleBytes = DefaultBinarySampleBytes
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Searcher{
		matcher: m,
		sink:    sink,
		pool:    linebuf.NewPool(opts.MaxBufferBytes, opts.PrewarmBuffers),
		opts:    opts,
		log:     log,
	}
}

// Pool exposes the buffer pool, mainly for tests and diagnostics.
func (s *Searcher) Pool() *linebuf.Pool {
	return s.pool
}

// Search runs every target to completion and returns the folded statistics.
// Repeated targets are searched once. The error, when non-nil, is an
// *UnreachableTargetsError.
func (s *Searcher) Search(targets []Target) (Stats, error) {
	targets = Dedupe(targets)
	results := make([]Stats, len(targets))
	failures := make([]*TargetError, len(targets))

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, t := range targets {
		g.Go(func() error {
			results[i], failures[i] = s.searchTarget(t)
			return nil
		})
	}
	g.Wait()

	var total Stats
	for _, st := range results {
		total.Add(st)
	}

	var unreachable []*TargetError
	for _, f := range failures {
		if f != nil {
			unreachable = append(unreachable, f)
		}
	}
	if len(unreachable) > 0 {
		return total, &UnreachableTargetsError{Targets: unreachable}
	}
	return total, nil
}

func (s *Searcher) searchTarget(t Target) (Stats, *TargetError) {
	if t.Kind == TargetStdin {
		return s.searchStdin(), nil
	}

	info, err := os.Stat(t.Path)
	if err != nil {
		return Stats{}, &TargetError{Path: t.Path, Err: err}
	}
	switch {
	case info.IsDir():
		return s.searchDir(t.Path), nil
	case info.Mode().IsRegular():
		return s.searchFile(t.Path), nil
	default:
		return Stats{}, &TargetError{Path: t.Path, Err: ErrNotSearchable}
	}
}

// searchStdin reads standard input through a fresh, unpooled buffer without
// line numbers.
func (s *Searcher) searchStdin() Stats {
	st := Stats{FilesVisited: 1}
	r := linebuf.NewReader(s.opts.Stdin, linebuf.New(linebuf.DefaultStartSize)).WithLineNumbers(false)
	s.drive(StdinName, r, &st)
	return st
}

func (s *Searcher) searchDir(root string) Stats {
	var mu sync.Mutex
	var total Stats

	c := crawler.New(s.opts.Workers, crawler.HandlerFunc(func(path string) {
		st := s.searchFile(path)
		mu.Lock()
		total.Add(st)
		mu.Unlock()
	}), s.log)

	cs := c.Run(root)

	total.DirsVisited += cs.Dirs
	total.DirsUnreadable += cs.DirsUnreadable
	total.SpecialSkipped += cs.SpecialSkipped
	total.WalkDuration = max(total.WalkDuration, cs.Duration)
	return total
}

// searchFile searches one regular file. Files that cannot be opened or
// decoded are counted and skipped.
func (s *Searcher) searchFile(path string) Stats {
	st := Stats{FilesVisited: 1}

	f, err := os.Open(path)
	if err != nil {
		st.FilesUnreadable = 1
		s.log.LogWarn(fmt.Sprintf("skipping %s: %v", path, err))
		s.sink.Send(printer.EndOfReading(path))
		return st
	}
	defer f.Close()

	var sizeHint int64
	if info, err := f.Stat(); err == nil {
		sizeHint = info.Size()
	}

	var src io.Reader = f
	if s.opts.Decompress && isCompressed(path) {
		dr, release, err := decompress(path, f)
		if err != nil {
			st.FilesUnreadable = 1
			s.log.LogWarn(fmt.Sprintf("skipping %s: %v", path, err))
			s.sink.Send(printer.EndOfReading(path))
			return st
		}
		defer release()
		src = dr
		sizeHint *= compressedGrowth
	}

	s.log.LogTrace(fmt.Sprintf("searching %s (size hint %d bytes)", path, sizeHint))
	r := linebuf.NewReader(src, s.pool.Acquire(sizeHint))
	s.drive(path, r, &st)
	s.pool.Return(r.Take())
	return st
}

// drive reads every line from r, sends matches under name and always ends
// with exactly one EndOfReading for name.
func (s *Searcher) drive(name string, r *linebuf.Reader, st *Stats) {
	defer s.sink.Send(printer.EndOfReading(name))

	var consumed int64
	sample := int64(s.opts.BinarySampleBytes)

	for {
		line, ok, err := r.ReadLine()
		if err != nil {
			st.FilesUnreadable++
			s.log.LogWarn(fmt.Sprintf("stopped reading %s: %v", name, err))
			break
		}
		if !ok {
			break
		}

		if consumed < sample {
			st.BytesSampled += int64(len(line.Text))
			if !utf8.Valid(line.Text) {
				st.SkippedNonUTF8 = 1
				s.log.LogDebug(fmt.Sprintf("skipping %s: not UTF-8 text", name))
				break
			}
		}
		consumed += int64(len(line.Text))

		if s.matcher.IsMatch(bytes.TrimSuffix(line.Text, lineBreak)) {
			st.LinesMatched++
			st.BytesMatched += int64(len(line.Text))
			s.sink.Send(printer.Printable(name, line.Num, bytes.Clone(line.Text)))
		}
	}

	st.BytesRead += r.BytesRead()
}
