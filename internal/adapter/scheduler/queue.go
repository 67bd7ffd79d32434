// Package scheduler provides FrameScheduler implementations: a ticker-driven
// dispatcher for interactive use and a manually stepped one for tests and
// headless rendering.
package scheduler

import (
	"sync"

	"github.com/tejashwikalptaru/govis/internal/ports"
)

// queue holds pending frame requests in submission order.
// Dispatch works on a snapshot, so callbacks requested during a dispatch
// are deferred to the next one.
type queue struct {
	mu      sync.Mutex
	pending map[ports.FrameHandle]ports.FrameCallback
	order   []ports.FrameHandle
	nextID  uint64
}

func newQueue() *queue {
	return &queue{pending: make(map[ports.FrameHandle]ports.FrameCallback)}
}

func (q *queue) add(cb ports.FrameCallback) ports.FrameHandle {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextID++
	h := ports.FrameHandle(q.nextID)
	q.pending[h] = cb
	q.order = append(q.order, h)
	return h
}

func (q *queue) cancel(h ports.FrameHandle) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, h)
}

// batch detaches the current submission order.
func (q *queue) batch() []ports.FrameHandle {
	q.mu.Lock()
	defer q.mu.Unlock()

	b := q.order
	q.order = nil
	return b
}

// take removes and returns the callback for h, if it is still pending.
func (q *queue) take(h ports.FrameHandle) (ports.FrameCallback, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	cb, ok := q.pending[h]
	if ok {
		delete(q.pending, h)
	}
	return cb, ok
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *queue) clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	clear(q.pending)
	q.order = nil
}
