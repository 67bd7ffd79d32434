// Package domain defines domain-specific errors.
// These errors represent rendering and settings failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services and renderers can return.
var (
	// ErrSurfaceUnavailable is returned when a tick fires with no mounted drawing surface.
	ErrSurfaceUnavailable = errors.New("render surface unavailable")

	// ErrInvalidAudioData is returned when a provider yields NaN or infinite values.
	ErrInvalidAudioData = errors.New("invalid audio data")

	// ErrResourceAcquisition is returned when a rendering device or buffer cannot be created.
	ErrResourceAcquisition = errors.New("resource acquisition failed")

	// ErrSettingsInconsistent is returned when a mode-specific setting is missing.
	ErrSettingsInconsistent = errors.New("settings inconsistent")

	// ErrUnknownMode is returned when no renderer is registered for a mode.
	ErrUnknownMode = errors.New("unknown visualization mode")

	// ErrNotInitialized is returned when an operation is attempted on an uninitialized component.
	ErrNotInitialized = errors.New("component not initialized")

	// ErrUnsupportedFormat is returned when an audio file format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrFileNotFound is returned when a file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrNoTrackLoaded is returned when analysis is requested with no PCM loaded.
	ErrNoTrackLoaded = errors.New("no track loaded")

	// ErrInvalidPosition is returned when seeking to an invalid position.
	ErrInvalidPosition = errors.New("invalid playback position")
)

// MissingSurfaceError is returned when a loop operation needs a surface that is not mounted.
type MissingSurfaceError struct {
	Op string // Operation that needed the surface (e.g., "start", "tick", "resize")
}

// Error implements the error interface.
func (e *MissingSurfaceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, ErrSurfaceUnavailable)
}

// Unwrap returns the sentinel error.
func (e *MissingSurfaceError) Unwrap() error {
	return ErrSurfaceUnavailable
}

// NewMissingSurfaceError creates a new MissingSurfaceError.
func NewMissingSurfaceError(op string) *MissingSurfaceError {
	return &MissingSurfaceError{Op: op}
}

// InvalidAudioDataError describes the first offending value in an AudioFrame.
type InvalidAudioDataError struct {
	Field  string // "waveform", "frequency" or "amplitude"
	Index  int    // Index into the array, -1 for scalar fields
	Reason string // Human-readable reason
}

// Error implements the error interface.
func (e *InvalidAudioDataError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid audio data: %s[%d] %s", e.Field, e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid audio data: %s %s", e.Field, e.Reason)
}

// Unwrap returns the sentinel error.
func (e *InvalidAudioDataError) Unwrap() error {
	return ErrInvalidAudioData
}

// NewInvalidAudioDataError creates a new InvalidAudioDataError.
func NewInvalidAudioDataError(field string, index int, reason string) *InvalidAudioDataError {
	return &InvalidAudioDataError{
		Field:  field,
		Index:  index,
		Reason: reason,
	}
}

// ResourceAcquisitionError wraps failures to create rendering resources.
type ResourceAcquisitionError struct {
	Resource string // Resource that could not be acquired (e.g., "device", "mesh")
	Message  string // Error message
	Err      error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *ResourceAcquisitionError) Error() string {
	return fmt.Sprintf("acquire %s failed: %s", e.Resource, e.Message)
}

// Unwrap returns the underlying error.
func (e *ResourceAcquisitionError) Unwrap() error {
	return e.Err
}

// Is matches ErrResourceAcquisition regardless of the wrapped cause.
func (e *ResourceAcquisitionError) Is(target error) bool {
	return target == ErrResourceAcquisition
}

// NewResourceAcquisitionError creates a new ResourceAcquisitionError.
func NewResourceAcquisitionError(resource, message string, err error) *ResourceAcquisitionError {
	return &ResourceAcquisitionError{
		Resource: resource,
		Message:  message,
		Err:      err,
	}
}

// SettingsInconsistencyError reports a missing mode-specific setting and the fallback used.
type SettingsInconsistencyError struct {
	Field    string      // Setting that was missing
	Fallback interface{} // Default value used instead
}

// Error implements the error interface.
func (e *SettingsInconsistencyError) Error() string {
	return fmt.Sprintf("settings inconsistent: %s missing, using %v", e.Field, e.Fallback)
}

// Unwrap returns the sentinel error.
func (e *SettingsInconsistencyError) Unwrap() error {
	return ErrSettingsInconsistent
}

// NewSettingsInconsistencyError creates a new SettingsInconsistencyError.
func NewSettingsInconsistencyError(field string, fallback interface{}) *SettingsInconsistencyError {
	return &SettingsInconsistencyError{
		Field:    field,
		Fallback: fallback,
	}
}

// DecodeError represents a failure turning an audio file into PCM.
type DecodeError struct {
	Op      string // Operation that failed (e.g., "open", "decode")
	Path    string // File path (if applicable)
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("audio %s failed for '%s': %s", e.Op, e.Path, e.Message)
	}
	return fmt.Sprintf("audio %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError creates a new DecodeError.
func NewDecodeError(op, path, message string, err error) *DecodeError {
	return &DecodeError{
		Op:      op,
		Path:    path,
		Message: message,
		Err:     err,
	}
}

// RepositoryError represents an error from a repository.
// This wraps persistence layer errors with additional context.
type RepositoryError struct {
	Op      string // Operation that failed (e.g., "save", "load")
	Type    string // Repository type (e.g., "settings")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s.%s failed: %s", e.Type, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, repoType, message string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Type:    repoType,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string      // Field that failed validation
	Value   interface{} // Value that failed validation
	Message string      // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "SettingsService", "VisualizerService")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
