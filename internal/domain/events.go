// Package domain defines events for the event-driven architecture.
// Events decouple settings, playback and rendering components.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Playback events
	EventPlaybackChanged EventType = "playback.state_changed"
	EventTrackLoaded     EventType = "track.loaded"

	// Settings events
	EventSettingsUpdated EventType = "settings.updated"

	// Rendering events
	EventLoopStateChanged EventType = "render.loop_state_changed"
	EventRenderFailed     EventType = "render.failed"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// PlaybackChangedEvent is published when playback starts, pauses or stops.
type PlaybackChangedEvent struct {
	baseEvent
	Status   PlaybackStatus
	Position time.Duration
}

// Type returns the event type.
func (e PlaybackChangedEvent) Type() EventType {
	return EventPlaybackChanged
}

// NewPlaybackChangedEvent creates a new PlaybackChangedEvent.
func NewPlaybackChangedEvent(status PlaybackStatus, position time.Duration) PlaybackChangedEvent {
	return PlaybackChangedEvent{
		baseEvent: newBaseEvent(),
		Status:    status,
		Position:  position,
	}
}

// TrackLoadedEvent is published when a track's audio and color hint are ready.
type TrackLoadedEvent struct {
	baseEvent
	Track Track
}

// Type returns the event type.
func (e TrackLoadedEvent) Type() EventType {
	return EventTrackLoaded
}

// NewTrackLoadedEvent creates a new TrackLoadedEvent.
func NewTrackLoadedEvent(track Track) TrackLoadedEvent {
	return TrackLoadedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
	}
}

// SettingsUpdatedEvent is published after a settings patch is applied.
type SettingsUpdatedEvent struct {
	baseEvent
	Previous VisualizationSettings
	Current  VisualizationSettings
}

// Type returns the event type.
func (e SettingsUpdatedEvent) Type() EventType {
	return EventSettingsUpdated
}

// ModeChanged reports whether the update switched the rendering mode.
func (e SettingsUpdatedEvent) ModeChanged() bool {
	return e.Previous.Mode != e.Current.Mode
}

// NewSettingsUpdatedEvent creates a new SettingsUpdatedEvent.
func NewSettingsUpdatedEvent(previous, current VisualizationSettings) SettingsUpdatedEvent {
	return SettingsUpdatedEvent{
		baseEvent: newBaseEvent(),
		Previous:  previous,
		Current:   current,
	}
}

// LoopStateChangedEvent is published when the animation loop starts or stops.
type LoopStateChangedEvent struct {
	baseEvent
	Mode    Mode
	Running bool
}

// Type returns the event type.
func (e LoopStateChangedEvent) Type() EventType {
	return EventLoopStateChanged
}

// NewLoopStateChangedEvent creates a new LoopStateChangedEvent.
func NewLoopStateChangedEvent(mode Mode, running bool) LoopStateChangedEvent {
	return LoopStateChangedEvent{
		baseEvent: newBaseEvent(),
		Mode:      mode,
		Running:   running,
	}
}

// RenderFailedEvent is published when a tick could not draw its frame.
type RenderFailedEvent struct {
	baseEvent
	Mode  Mode
	Error error
}

// Type returns the event type.
func (e RenderFailedEvent) Type() EventType {
	return EventRenderFailed
}

// NewRenderFailedEvent creates a new RenderFailedEvent.
func NewRenderFailedEvent(mode Mode, err error) RenderFailedEvent {
	return RenderFailedEvent{
		baseEvent: newBaseEvent(),
		Mode:      mode,
		Error:     err,
	}
}
