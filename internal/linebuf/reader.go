package linebuf

import (
	"errors"
	"io"
)

// ErrTaken is returned by a Reader whose buffer has been handed back with Take.
var ErrTaken = errors.New("linebuf: reader buffer already taken")

// Line is one line produced by a Reader.
type Line struct {
	// Num is the 1-based line number, or 0 when numbering is disabled.
	Num int
	// Text aliases the reader's buffer and includes the terminator when present.
	Text []byte
}

// Reader drives a Buffer over an io.Reader and yields complete lines.
//
// Strategy: fill as much as the source offers, hand out every complete line,
// roll the remainder to the front and fill again. When the source is exhausted
// the unterminated tail, if any, is returned as the final line.
type Reader struct {
	src       io.Reader
	buf       *Buffer
	lineNums  bool
	linesRead int
	bytesRead int64
	exhausted bool
	done      bool
}

// NewReader returns a Reader over src using buf, which the Reader owns until
// Take is called.
func NewReader(src io.Reader, buf *Buffer) *Reader {
	return &Reader{
		src:      src,
		buf:      buf,
		lineNums: true,
	}
}

// WithLineNumbers toggles line numbering and returns the Reader.
func (r *Reader) WithLineNumbers(enabled bool) *Reader {
	r.lineNums = enabled
	return r
}

// ReadLine returns the next line. ok is false once the source is finished;
// every later call also returns ok == false. The returned Text is valid until
// the next call to ReadLine.
func (r *Reader) ReadLine() (line Line, ok bool, err error) {
	if r.buf == nil {
		return Line{}, false, ErrTaken
	}
	if r.done {
		return Line{}, false, nil
	}

	for !r.buf.HasLine() && !r.exhausted {
		r.buf.RollToFront()
		more, err := r.buf.Fill(r.src)
		if err != nil {
			r.done = true
			return Line{}, false, err
		}
		if !more {
			r.exhausted = true
		}
	}

	text, ok := r.buf.ConsumeLine()
	if !ok {
		text, ok = r.buf.ConsumeRemaining()
	}
	if !ok {
		r.done = true
		return Line{}, false, nil
	}

	r.linesRead++
	r.bytesRead += int64(len(text))

	line = Line{Text: text}
	if r.lineNums {
		line.Num = r.linesRead
	}
	return line, true, nil
}

// BytesRead returns the number of bytes handed out as lines so far.
func (r *Reader) BytesRead() int64 {
	return r.bytesRead
}

// LinesRead returns the number of lines handed out so far.
func (r *Reader) LinesRead() int {
	return r.linesRead
}

// Take returns the underlying buffer and detaches it from the Reader. Later
// calls to ReadLine fail with ErrTaken.
func (r *Reader) Take() *Buffer {
	b := r.buf
	r.buf = nil
	return b
}
