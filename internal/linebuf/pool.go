package linebuf

import "sync"

const (
	// DefaultMaxBufferBytes caps the size of a freshly built pooled buffer.
	DefaultMaxBufferBytes = 2_000_000

	// sizeHintSlack is added to a size hint so a file that fits exactly still
	// leaves room for the read that observes end of input.
	sizeHintSlack = 512
)

// Pool recycles Buffers across searches.
//
// Only the free list is guarded. A Buffer handed out by Acquire belongs to
// the caller alone until it is passed back to Return.
type Pool struct {
	mu      sync.Mutex
	free    []*Buffer
	maxSize int
}

// NewPool returns a Pool that never builds a buffer larger than maxSize bytes
// and starts with prewarm idle buffers of DefaultStartSize.
func NewPool(maxSize, prewarm int) *Pool {
	if maxSize <= 0 {
		maxSize = DefaultMaxBufferBytes
	}
	p := &Pool{
		maxSize: maxSize,
		free:    make([]*Buffer, 0, prewarm),
	}
	for i := 0; i < prewarm; i++ {
		p.free = append(p.free, New(min(DefaultStartSize, maxSize)))
	}
	return p
}

// Acquire returns an idle buffer when one exists, otherwise a new buffer
// sized against sizeHint and capped at the pool's maximum. The buffer is
// always reset.
func (p *Pool) Acquire(sizeHint int64) *Buffer {
	p.mu.Lock()
	var b *Buffer
	if n := len(p.free); n > 0 {
		b = p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
	}
	p.mu.Unlock()

	if b != nil {
		b.Reset()
		return b
	}
	return New(p.sizeFor(sizeHint))
}

func (p *Pool) sizeFor(sizeHint int64) int {
	size := int64(MinGrowBytes)
	if sizeHint > 0 {
		size = max(size, sizeHint+sizeHintSlack)
	}
	return int(min(size, int64(p.maxSize)))
}

// Return resets b and makes it available to the next Acquire. A buffer that
// grew past the pool's maximum is dropped instead. The caller must not touch
// b afterwards.
func (p *Pool) Return(b *Buffer) {
	if b == nil || b.Cap() > p.maxSize {
		return
	}
	b.Reset()

	p.mu.Lock()
	p.free = append(p.free, b)
	p.mu.Unlock()
}

// Idle returns the number of buffers waiting in the pool.
func (p *Pool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}
