package crawler

import "sync"

// queue is an unbounded FIFO shared by the workers of one crawl. pop blocks
// while the queue is empty and open; once closed, pop drains nothing further
// and returns false.
type queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []item
	head   int
	closed bool
}

func newQueue() *queue {
	q := &queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *queue) push(it item) {
	q.mu.Lock()
	q.items = append(q.items, it)
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *queue) pushAll(its []item) {
	q.mu.Lock()
	q.items = append(q.items, its...)
	q.mu.Unlock()
	if len(its) == 1 {
		q.cond.Signal()
		return
	}
	q.cond.Broadcast()
}

func (q *queue) pop() (item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.head == len(q.items) && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return item{}, false
	}

	it := q.items[q.head]
	q.items[q.head] = item{}
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return it, true
}

func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}
