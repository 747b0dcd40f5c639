// Package crawler walks a directory tree with a pool of workers and hands
// every regular file it finds to a Handler exactly once.
//
// Workers share one unbounded queue and one atomic pending counter. The
// counter starts at 1 for the root; a directory adds its children before it
// retires itself, and a file retires itself after it has been handled. The
// worker that brings the counter to zero closes the queue, which wakes and
// releases every other worker. Symbolic links are never followed.
package crawler

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harrison/toygrep/internal/logger"
)

// Handler receives each discovered file. It is called concurrently from
// several workers.
type Handler interface {
	HandleFile(path string)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(path string)

// HandleFile calls f(path).
func (f HandlerFunc) HandleFile(path string) {
	f(path)
}

// Logger is the subset of the console logger the crawler needs.
type Logger interface {
	LogDebug(message string)
	LogWarn(message string)
}

// Stats summarises one crawl.
type Stats struct {
	Dirs           int
	Files          int
	DirsUnreadable int
	SpecialSkipped int
	Duration       time.Duration
}

// Crawler runs a fixed number of workers over one directory tree per Run.
type Crawler struct {
	workers int
	handler Handler
	log     Logger
}

// New returns a Crawler with the given worker count (NumCPU when <= 0).
// A nil log discards messages.
func New(workers int, handler Handler, log Logger) *Crawler {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Crawler{
		workers: workers,
		handler: handler,
		log:     log,
	}
}

// Run crawls root and returns once every reachable file has been handled.
// root must be a directory; an unreadable root yields a crawl with
// DirsUnreadable == 1.
func (c *Crawler) Run(root string) Stats {
	began := time.Now()

	q := newQueue()
	q.push(item{path: root, dir: true})

	run := &crawl{
		queue:   q,
		handler: c.handler,
		log:     c.log,
	}
	run.pending.Store(1)

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run.work()
		}()
	}
	wg.Wait()

	return Stats{
		Dirs:           int(run.dirs.Load()),
		Files:          int(run.files.Load()),
		DirsUnreadable: int(run.dirsUnreadable.Load()),
		SpecialSkipped: int(run.special.Load()),
		Duration:       time.Since(began),
	}
}

type item struct {
	path string
	dir  bool
}

// crawl is the state shared by the workers of a single Run.
type crawl struct {
	queue   *queue
	handler Handler
	log     Logger

	pending atomic.Int64

	dirs           atomic.Int64
	files          atomic.Int64
	dirsUnreadable atomic.Int64
	special        atomic.Int64
}

func (r *crawl) work() {
	for {
		it, ok := r.queue.pop()
		if !ok {
			return
		}

		if it.dir {
			r.expand(it.path)
		} else {
			r.files.Add(1)
			r.handler.HandleFile(it.path)
		}

		if r.pending.Add(-1) == 0 {
			r.queue.close()
		}
	}
}

// expand enqueues the children of dir. Every child is counted as pending
// before it becomes visible on the queue.
func (r *crawl) expand(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.dirsUnreadable.Add(1)
		r.log.LogWarn(fmt.Sprintf("skipping unreadable directory %s: %v", dir, err))
		if len(entries) == 0 {
			return
		}
	}
	r.dirs.Add(1)

	children := make([]item, 0, len(entries))
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		switch mode := e.Type(); {
		case mode.IsDir():
			children = append(children, item{path: path, dir: true})
		case mode.IsRegular():
			children = append(children, item{path: path})
		default:
			r.special.Add(1)
			r.log.LogDebug(fmt.Sprintf("skipping %s (%s)", path, describeMode(mode)))
		}
	}
	if len(children) == 0 {
		return
	}

	r.pending.Add(int64(len(children)))
	r.queue.pushAll(children)
}

func describeMode(mode os.FileMode) string {
	switch {
	case mode&os.ModeSymlink != 0:
		return "symlink"
	case mode&os.ModeNamedPipe != 0:
		return "named pipe"
	case mode&os.ModeSocket != 0:
		return "socket"
	case mode&os.ModeDevice != 0:
		return "device"
	default:
		return "irregular file"
	}
}
