// Package printer renders search results on a single dedicated goroutine.
//
// Producers never touch the printer's state: they hold a Sender and push
// Messages into a channel. In Grouped mode lines are buffered per target and
// written as one uninterrupted block when the target's EndOfReading arrives;
// in Immediate mode each line is written as soon as it is received.
package printer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/harrison/toygrep/internal/matcher"
)

// Mode selects how lines are rendered.
type Mode int

const (
	// Immediate writes each line as it arrives.
	Immediate Mode = iota
	// Grouped buffers lines per target and flushes them as one block.
	Grouped
)

// String returns the string representation of Mode.
func (m Mode) String() string {
	if m == Grouped {
		return "grouped"
	}
	return "immediate"
}

// ModeFor picks Immediate for a lone file or stream and Grouped otherwise.
func ModeFor(singleFile bool) Mode {
	if singleFile {
		return Immediate
	}
	return Grouped
}

const defaultQueueSize = 256

// Options configures a Printer.
type Options struct {
	Mode Mode
	// Matcher, when set, is used to colour matched spans.
	Matcher *matcher.Matcher
	// LineNumbers prefixes each line with "N:" when the line carries a number.
	LineNumbers bool
	// Color enables ANSI colours regardless of the output's terminal state.
	Color bool
	// QueueSize is the channel capacity between producers and the printer.
	QueueSize int
}

// Report describes one printer lifetime.
type Report struct {
	Messages      int
	LinesPrinted  int
	BlocksFlushed int
	DecodeErrors  int
	// FirstMessage is the delay between Start and the first message received.
	FirstMessage time.Duration
	// Duration is the time between Start and the channel closing.
	Duration time.Duration
	// Err is the first error returned by the output writer, if any.
	Err error
}

type palette struct {
	lineNum *color.Color
	match   *color.Color
	header  *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		lineNum: color.New(color.FgGreen),
		match:   color.New(color.FgRed, color.Bold),
		header:  color.New(color.FgMagenta),
	}
	for _, c := range []*color.Color{p.lineNum, p.match, p.header} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Printer consumes Messages on its own goroutine.
type Printer struct {
	out    *bufio.Writer
	errOut io.Writer
	opts   Options
	colors palette

	ch   chan Message
	done chan struct{}

	// groups is only touched by the printer goroutine.
	groups map[string][]Message
	report Report
}

// New returns a Printer writing results to out and rendering problems to
// errOut. Call Start to begin consuming.
func New(out, errOut io.Writer, opts Options) *Printer {
	if errOut == nil {
		errOut = io.Discard
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	return &Printer{
		out:    bufio.NewWriter(out),
		errOut: errOut,
		opts:   opts,
		colors: newPalette(opts.Color),
		ch:     make(chan Message, opts.QueueSize),
		done:   make(chan struct{}),
		groups: make(map[string][]Message),
	}
}

// Start launches the printer goroutine and returns the Sender that feeds it.
// It must be called once.
func (p *Printer) Start() *Sender {
	go p.listen(time.Now())
	return &Sender{ch: p.ch}
}

// Wait blocks until the Sender has been closed and every message rendered.
func (p *Printer) Wait() Report {
	<-p.done
	return p.report
}

func (p *Printer) listen(started time.Time) {
	defer close(p.done)

	for msg := range p.ch {
		if p.report.Messages == 0 {
			p.report.FirstMessage = time.Since(started)
		}
		p.report.Messages++
		p.handle(msg)
	}

	// Targets whose end marker never arrived are still shown, in name order.
	names := make([]string, 0, len(p.groups))
	for name := range p.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p.flushTarget(name)
	}

	p.flush()
	p.report.Duration = time.Since(started)
}

func (p *Printer) handle(msg Message) {
	switch msg.Kind {
	case KindDisplay:
		p.out.Write(msg.Text)
		p.flush()
	case KindPrintable:
		if p.opts.Mode == Grouped {
			p.groups[msg.Target] = append(p.groups[msg.Target], msg)
			return
		}
		p.writeLine(msg)
		p.flush()
	case KindEndOfReading:
		if p.opts.Mode == Grouped {
			p.flushTarget(msg.Target)
		}
	}
}

// flushTarget writes every buffered line of target as one block and forgets
// them. Targets without lines produce no output.
func (p *Printer) flushTarget(target string) {
	lines := p.groups[target]
	delete(p.groups, target)
	if len(lines) == 0 {
		return
	}

	if p.report.BlocksFlushed > 0 {
		p.out.WriteByte('\n')
	}
	p.out.WriteString(p.colors.header.Sprint(target))
	p.out.WriteByte('\n')
	for _, msg := range lines {
		p.writeLine(msg)
	}
	p.report.BlocksFlushed++
	p.flush()
}

func (p *Printer) writeLine(msg Message) {
	if p.opts.LineNumbers && msg.LineNum > 0 {
		p.out.WriteString(p.colors.lineNum.Sprintf("%d:", msg.LineNum))
	}

	text := bytes.TrimSuffix(msg.Text, []byte{'\n'})
	bad := false

	if p.opts.Matcher == nil {
		bad = p.writeSegment(nil, text) || bad
	} else {
		start := 0
		for _, m := range p.opts.Matcher.FindMatches(text) {
			bad = p.writeSegment(nil, text[start:m.Start]) || bad
			bad = p.writeSegment(p.colors.match, text[m.Start:m.Stop]) || bad
			start = m.Stop
		}
		bad = p.writeSegment(nil, text[start:]) || bad
	}
	p.out.WriteByte('\n')
	p.report.LinesPrinted++

	if bad {
		p.report.DecodeErrors++
		fmt.Fprintf(p.errOut, "toygrep: %s:%d: line is not valid UTF-8\n", msg.Target, msg.LineNum)
	}
}

// writeSegment writes seg, in c when c is non-nil. Invalid UTF-8 is replaced
// with U+FFFD and reported through the return value.
func (p *Printer) writeSegment(c *color.Color, seg []byte) bool {
	if len(seg) == 0 {
		return false
	}
	invalid := !utf8.Valid(seg)
	if invalid {
		seg = bytes.ToValidUTF8(seg, []byte("�"))
	}
	if c != nil {
		p.out.WriteString(c.Sprint(string(seg)))
	} else {
		p.out.Write(seg)
	}
	return invalid
}

func (p *Printer) flush() {
	if err := p.out.Flush(); err != nil && p.report.Err == nil {
		p.report.Err = err
	}
}

// Sender is the producer side of a Printer. It is safe for concurrent use.
type Sender struct {
	ch   chan<- Message
	once sync.Once
}

// Send queues msg for the printer. It must not be called after Close.
func (s *Sender) Send(msg Message) {
	s.ch <- msg
}

// Close tells the printer no more messages will arrive. Extra calls are
// ignored.
func (s *Sender) Close() {
	s.once.Do(func() { close(s.ch) })
}
