package ports

import "time"

// FrameHandle identifies a pending frame request. The zero value is never issued.
type FrameHandle uint64

// FrameCallback is invoked once per requested frame with the dispatch timestamp.
type FrameCallback func(now time.Time)

// FrameScheduler is the host's next-frame facility.
//
// Callbacks run on a single dispatcher goroutine, one at a time. A callback that
// requests another frame from inside a dispatch is run on the following frame,
// never re-entrantly.
type FrameScheduler interface {
	// RequestFrame schedules cb for the next frame and returns its handle.
	RequestFrame(cb FrameCallback) FrameHandle

	// CancelFrame removes a pending request. Cancelling an unknown or already
	// dispatched handle is a no-op.
	CancelFrame(h FrameHandle)
}
