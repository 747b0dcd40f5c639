// Package linebuf provides a growable, line-aware byte buffer for streaming
// input, a reader that yields complete lines from it, and a pool that recycles
// buffers across files.
//
// A Buffer tracks three regions of its backing slice:
//
//	[0, start)    consumed bytes, reclaimed by RollToFront
//	[start, end)  staged bytes not yet handed out as lines
//	[end, len)    writable tail that Fill reads into
//
// and a FIFO of absolute offsets where line-break bytes are known to sit. Lines
// are returned as slices into the backing array, so no copy is made until the
// caller decides to keep one.
package linebuf

import (
	"errors"
	"io"
)

const (
	// DefaultStartSize is the initial size of a buffer built without a hint.
	DefaultStartSize = 8 * 1024

	// MinGrowBytes is the floor applied when an exhausted buffer grows.
	MinGrowBytes = 4 * 1024

	// maxEmptyReads bounds how many (0, nil) reads Fill tolerates before giving up.
	maxEmptyReads = 100
)

// Buffer is a growable byte buffer that exposes complete lines.
//
// A Buffer has a single owner; it is not safe for concurrent use.
type Buffer struct {
	buf       []byte
	lineBreak byte

	// breaks holds absolute offsets of line-break bytes in [start, end).
	// Entries before breakHead have been consumed.
	breaks    []int
	breakHead int

	start int
	end   int
}

// New returns a Buffer with startSize bytes of backing storage and '\n' as
// the line terminator.
func New(startSize int) *Buffer {
	return NewWithBreak(startSize, '\n')
}

// NewWithBreak returns a Buffer that splits lines on lineBreak.
func NewWithBreak(startSize int, lineBreak byte) *Buffer {
	if startSize < 0 {
		startSize = 0
	}
	return &Buffer{
		buf:       make([]byte, startSize),
		lineBreak: lineBreak,
	}
}

// Fill reads once from r into the writable tail, growing the buffer first if
// the tail is empty. It records the offset of every line break it reads and
// reports whether any bytes arrived; false means r is exhausted.
func (b *Buffer) Fill(r io.Reader) (bool, error) {
	b.EnsureCapacity()

	for empty := 0; empty < maxEmptyReads; empty++ {
		n, err := r.Read(b.buf[b.end:])
		if n > 0 {
			b.recordBreaks(b.end, b.end+n)
			b.end += n
			if err != nil && !errors.Is(err, io.EOF) {
				return true, err
			}
			return true, nil
		}
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
	return false, io.ErrNoProgress
}

func (b *Buffer) recordBreaks(from, to int) {
	for i := from; i < to; i++ {
		if b.buf[i] == b.lineBreak {
			b.breaks = append(b.breaks, i)
		}
	}
}

// ConsumeLine returns the oldest complete line, terminator included, and
// marks it consumed. The slice is only valid until the next RollToFront or
// Fill.
func (b *Buffer) ConsumeLine() ([]byte, bool) {
	if !b.HasLine() {
		return nil, false
	}
	brk := b.breaks[b.breakHead]
	b.breakHead++

	line := b.buf[b.start : brk+1]
	b.start = brk + 1
	return line, true
}

// ConsumeRemaining returns every staged byte as a final, unterminated line.
// It is meant for use once the source is exhausted.
func (b *Buffer) ConsumeRemaining() ([]byte, bool) {
	if b.start >= b.end {
		return nil, false
	}
	rest := b.buf[b.start:b.end]
	b.start = b.end
	return rest, true
}

// RollToFront moves the staged region to offset 0 so the space taken by
// consumed lines can be written again.
func (b *Buffer) RollToFront() {
	b.compactBreaks()

	if b.start == b.end {
		b.start, b.end = 0, 0
		b.breaks = b.breaks[:0]
		return
	}
	if b.start == 0 {
		return
	}

	shift := b.start
	copy(b.buf, b.buf[b.start:b.end])
	b.end -= shift
	b.start = 0
	for i := range b.breaks {
		b.breaks[i] -= shift
	}
}

func (b *Buffer) compactBreaks() {
	if b.breakHead == 0 {
		return
	}
	n := copy(b.breaks, b.breaks[b.breakHead:])
	b.breaks = b.breaks[:n]
	b.breakHead = 0
}

// EnsureCapacity grows the backing slice when the writable tail is empty,
// doubling it with a floor of MinGrowBytes. It is a no-op otherwise.
func (b *Buffer) EnsureCapacity() {
	if b.end < len(b.buf) {
		return
	}
	grow := 2 * len(b.buf)
	if grow < MinGrowBytes {
		grow = MinGrowBytes
	}
	next := make([]byte, grow)
	copy(next, b.buf[:b.end])
	b.buf = next
}

// Reset drops all staged bytes and known line breaks. Capacity is kept.
func (b *Buffer) Reset() {
	b.start, b.end = 0, 0
	b.breaks = b.breaks[:0]
	b.breakHead = 0
}

// HasLine reports whether a complete line is staged.
func (b *Buffer) HasLine() bool {
	return b.breakHead < len(b.breaks)
}

// Cap returns the length of the backing slice.
func (b *Buffer) Cap() int {
	return len(b.buf)
}

// Buffered returns the number of staged, unconsumed bytes.
func (b *Buffer) Buffered() int {
	return b.end - b.start
}

// Cursors returns the start and end offsets. Intended for tests and debugging.
func (b *Buffer) Cursors() (start, end int) {
	return b.start, b.end
}

// PendingBreaks returns how many recorded line breaks have not been consumed.
func (b *Buffer) PendingBreaks() int {
	return len(b.breaks) - b.breakHead
}
