package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/govis/internal/logger"
	"github.com/tejashwikalptaru/govis/internal/ports"
	"github.com/tejashwikalptaru/govis/internal/testutil"
)

func TestManual_FireRunsPendingOnce(t *testing.T) {
	start := time.Unix(1000, 0)
	m := NewManual(start, 16*time.Millisecond, logger.NewTestLogger())

	var got []time.Time
	m.RequestFrame(func(now time.Time) { got = append(got, now) })
	assert.Equal(t, 1, m.Pending())

	assert.Equal(t, 1, m.Fire())
	assert.Equal(t, 0, m.Pending())
	assert.Equal(t, 0, m.Fire())

	require.Len(t, got, 1)
	assert.Equal(t, start.Add(16*time.Millisecond), got[0])
}

func TestManual_RequestDuringDispatchDeferred(t *testing.T) {
	m := NewManual(time.Unix(0, 0), time.Millisecond, nil)

	var calls int
	var loop ports.FrameCallback
	loop = func(time.Time) {
		calls++
		m.RequestFrame(loop)
	}
	m.RequestFrame(loop)

	assert.Equal(t, 1, m.Fire())
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, m.Pending())

	assert.Equal(t, 3, m.FireN(3))
	assert.Equal(t, 4, calls)
}

func TestManual_Cancel(t *testing.T) {
	m := NewManual(time.Unix(0, 0), time.Millisecond, nil)

	var calls int
	h := m.RequestFrame(func(time.Time) { calls++ })
	m.CancelFrame(h)
	m.CancelFrame(h)
	m.CancelFrame(ports.FrameHandle(999))

	assert.Equal(t, 0, m.Fire())
	assert.Equal(t, 0, calls)
}

func TestManual_CancelWithinBatch(t *testing.T) {
	m := NewManual(time.Unix(0, 0), time.Millisecond, nil)

	var second ports.FrameHandle
	var secondRan bool
	m.RequestFrame(func(time.Time) { m.CancelFrame(second) })
	second = m.RequestFrame(func(time.Time) { secondRan = true })

	assert.Equal(t, 1, m.Fire())
	assert.False(t, secondRan)
}

func TestManual_PanicIsRecovered(t *testing.T) {
	m := NewManual(time.Unix(0, 0), time.Millisecond, logger.NewTestLogger())

	var after bool
	m.RequestFrame(func(time.Time) { panic("draw failed") })
	m.RequestFrame(func(time.Time) { after = true })

	assert.NotPanics(t, func() { m.Fire() })
	assert.True(t, after)
}

func TestTicker_DispatchesAndCloses(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	tk := NewTicker(200, logger.NewTestLogger())
	assert.Equal(t, 5*time.Millisecond, tk.Interval())

	var calls atomic.Int32
	var loop ports.FrameCallback
	loop = func(time.Time) {
		if calls.Add(1) < 5 {
			tk.RequestFrame(loop)
		}
	}
	tk.RequestFrame(loop)

	require.Eventually(t, func() bool { return calls.Load() == 5 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, tk.Pending())

	require.NoError(t, tk.Close())
	require.NoError(t, tk.Close())
}

func TestTicker_CloseDropsPending(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	tk := NewTicker(1, logger.NewTestLogger())
	tk.RequestFrame(func(time.Time) {})
	tk.RequestFrame(func(time.Time) {})

	require.NoError(t, tk.Close())
	assert.Equal(t, 0, tk.Pending())
}
