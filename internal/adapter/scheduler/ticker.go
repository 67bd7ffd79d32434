package scheduler

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/govis/internal/ports"
)

// DefaultFPS is the dispatch rate used when none is configured.
const DefaultFPS = 60

// Ticker dispatches frame callbacks from a single goroutine at a fixed rate.
//
// Thread-safety: RequestFrame and CancelFrame may be called from any goroutine,
// including from inside a callback.
type Ticker struct {
	logger   *slog.Logger
	interval time.Duration
	q        *queue

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewTicker starts a dispatcher running at fps frames per second.
// Call Close to stop the dispatcher goroutine.
func NewTicker(fps int, logger *slog.Logger) *Ticker {
	if fps <= 0 {
		fps = DefaultFPS
	}
	t := &Ticker{
		logger:   logger.With(slog.String("component", "scheduler")),
		interval: time.Second / time.Duration(fps),
		q:        newQueue(),
		stop:     make(chan struct{}),
	}

	t.wg.Add(1)
	go t.run()

	return t
}

// RequestFrame schedules cb for the next tick.
func (t *Ticker) RequestFrame(cb ports.FrameCallback) ports.FrameHandle {
	return t.q.add(cb)
}

// CancelFrame drops a pending request.
func (t *Ticker) CancelFrame(h ports.FrameHandle) {
	t.q.cancel(h)
}

// Pending returns the number of callbacks waiting for dispatch.
func (t *Ticker) Pending() int {
	return t.q.len()
}

// Interval returns the time between dispatches.
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// Close stops the dispatcher and drops all pending callbacks.
// It blocks until the dispatcher goroutine has exited and is safe to call more than once.
func (t *Ticker) Close() error {
	t.closeOnce.Do(func() {
		close(t.stop)
	})
	t.wg.Wait()
	t.q.clear()
	return nil
}

func (t *Ticker) run() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case now := <-ticker.C:
			dispatch(t.q, now, t.logger)
		}
	}
}

// dispatch runs one batch. A callback cancelled by an earlier callback in the
// same batch is skipped.
func dispatch(q *queue, now time.Time, logger *slog.Logger) int {
	ran := 0
	for _, h := range q.batch() {
		cb, ok := q.take(h)
		if !ok {
			continue
		}
		invoke(cb, now, logger)
		ran++
	}
	return ran
}

func invoke(cb ports.FrameCallback, now time.Time, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("frame callback panicked", slog.Any("panic", r))
		}
	}()
	cb(now)
}

var _ ports.FrameScheduler = (*Ticker)(nil)
