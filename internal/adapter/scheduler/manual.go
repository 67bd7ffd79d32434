package scheduler

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/govis/internal/ports"
)

// Manual is a FrameScheduler advanced explicitly by Fire.
// Each Fire moves its clock forward by a fixed step, which makes animation
// output reproducible.
type Manual struct {
	logger *slog.Logger
	q      *queue
	step   time.Duration

	mu  sync.Mutex
	now time.Time
}

// NewManual creates a scheduler whose first Fire reports start+step.
func NewManual(start time.Time, step time.Duration, logger *slog.Logger) *Manual {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manual{
		logger: logger,
		q:      newQueue(),
		step:   step,
		now:    start,
	}
}

// RequestFrame schedules cb for the next Fire.
func (m *Manual) RequestFrame(cb ports.FrameCallback) ports.FrameHandle {
	return m.q.add(cb)
}

// CancelFrame drops a pending request.
func (m *Manual) CancelFrame(h ports.FrameHandle) {
	m.q.cancel(h)
}

// Pending returns the number of callbacks waiting for dispatch.
func (m *Manual) Pending() int {
	return m.q.len()
}

// Now returns the timestamp of the most recent Fire.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Fire advances the clock by one step and dispatches the current batch.
// It returns the number of callbacks run.
func (m *Manual) Fire() int {
	m.mu.Lock()
	m.now = m.now.Add(m.step)
	now := m.now
	m.mu.Unlock()

	return dispatch(m.q, now, m.logger)
}

// FireN calls Fire n times and returns the total number of callbacks run.
func (m *Manual) FireN(n int) int {
	total := 0
	for range n {
		total += m.Fire()
	}
	return total
}

var _ ports.FrameScheduler = (*Manual)(nil)
