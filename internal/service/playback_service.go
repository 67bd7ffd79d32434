package service

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
)

// PlaybackService is a playback clock over decoded PCM.
// Nothing is sent to an audio device; the clock only tells the analyzer
// which part of the track to look at.
// All operations are thread-safe via sync.RWMutex.
type PlaybackService struct {
	// Dependencies (injected)
	logger  *slog.Logger
	decoder ports.AudioDecoder
	info    ports.TrackInfoReader
	bus     ports.EventBus
	now     func() time.Time

	// State
	track          *domain.Track
	pcm            *domain.PCM
	status         domain.PlaybackStatus
	offset         time.Duration // position when the clock was last anchored
	anchor         time.Time     // wall time of the last anchor while playing
	updateInterval time.Duration

	// Concurrency control
	mu            sync.RWMutex
	stopUpdate    chan struct{}
	updateRunning bool
	updateWg      sync.WaitGroup
}

// NewPlaybackService creates a new playback service and starts its update routine.
// info may be nil, in which case track metadata comes from the file name.
func NewPlaybackService(
	logger *slog.Logger,
	decoder ports.AudioDecoder,
	info ports.TrackInfoReader,
	bus ports.EventBus,
) *PlaybackService {
	service := &PlaybackService{
		logger:         logger.With(slog.String("component", "playback")),
		decoder:        decoder,
		info:           info,
		bus:            bus,
		now:            time.Now,
		status:         domain.StatusStopped,
		updateInterval: 100 * time.Millisecond,
		stopUpdate:     make(chan struct{}),
	}

	service.logger.Debug("playback service initialized")

	service.startUpdateRoutine()

	return service
}

// SetClock replaces the wall clock used for the playback position.
// Headless rendering drives it from the frame scheduler.
func (s *PlaybackService) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Load decodes the file at path and makes it the current track.
// Any current track is stopped first.
func (s *PlaybackService) Load(path string) (domain.Track, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !s.decoder.Supports(ext) {
		return domain.Track{}, domain.NewDecodeError("load", path, "no decoder for "+ext, domain.ErrUnsupportedFormat)
	}

	// Decode outside the lock; it can take a while for long files.
	pcm, err := s.decoder.Decode(path)
	if err != nil {
		s.logger.Debug("failed to decode track", slog.String("file_path", path), slog.Any("error", err))
		return domain.Track{}, err
	}

	track := s.describe(path)
	track.Duration = pcm.Duration()

	s.mu.Lock()
	wasActive := s.status != domain.StatusStopped
	s.track = &track
	s.pcm = pcm
	s.status = domain.StatusStopped
	s.offset = 0
	s.mu.Unlock()

	s.logger.Info("track loaded",
		slog.String("title", track.Title),
		slog.Duration("duration", track.Duration),
		slog.Int("sample_rate", pcm.SampleRate))

	if wasActive {
		s.bus.Publish(domain.NewPlaybackChangedEvent(domain.StatusStopped, 0))
	}
	s.bus.Publish(domain.NewTrackLoadedEvent(track))

	return track, nil
}

// describe reads metadata, falling back to the file name.
func (s *PlaybackService) describe(path string) domain.Track {
	fallback := domain.Track{
		ID:       uuid.NewString(),
		FilePath: path,
		Title:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}
	if s.info == nil {
		return fallback
	}

	track, err := s.info.Read(path)
	if err != nil {
		s.logger.Debug("no metadata for track", slog.String("file_path", path), slog.Any("error", err))
		return fallback
	}
	if track.ID == "" {
		track.ID = fallback.ID
	}
	if track.Title == "" {
		track.Title = fallback.Title
	}
	track.FilePath = path
	return track
}

// Play starts or resumes playback of the current track.
func (s *PlaybackService) Play() error {
	s.mu.Lock()
	if s.pcm == nil {
		s.mu.Unlock()
		return domain.ErrNoTrackLoaded
	}
	if s.status == domain.StatusPlaying {
		s.mu.Unlock()
		return nil
	}
	// Replaying a finished track starts over.
	if s.offset >= s.pcm.Duration() {
		s.offset = 0
	}
	s.status = domain.StatusPlaying
	s.anchor = s.now()
	position := s.offset
	s.mu.Unlock()

	s.logger.Debug("playback started", slog.Duration("position", position))
	s.bus.Publish(domain.NewPlaybackChangedEvent(domain.StatusPlaying, position))
	return nil
}

// Pause freezes the clock at the current position.
func (s *PlaybackService) Pause() error {
	s.mu.Lock()
	if s.pcm == nil {
		s.mu.Unlock()
		return domain.ErrNoTrackLoaded
	}
	if s.status != domain.StatusPlaying {
		s.mu.Unlock()
		return nil
	}
	s.offset = s.positionLocked()
	s.status = domain.StatusPaused
	position := s.offset
	s.mu.Unlock()

	s.logger.Debug("playback paused", slog.Duration("position", position))
	s.bus.Publish(domain.NewPlaybackChangedEvent(domain.StatusPaused, position))
	return nil
}

// Stop halts playback and rewinds to the start.
func (s *PlaybackService) Stop() error {
	s.mu.Lock()
	if s.status == domain.StatusStopped {
		s.offset = 0
		s.mu.Unlock()
		return nil
	}
	s.status = domain.StatusStopped
	s.offset = 0
	s.mu.Unlock()

	s.logger.Debug("playback stopped")
	s.bus.Publish(domain.NewPlaybackChangedEvent(domain.StatusStopped, 0))
	return nil
}

// Toggle plays when paused or stopped and pauses when playing.
func (s *PlaybackService) Toggle() error {
	if s.Status().IsPlaying() {
		return s.Pause()
	}
	return s.Play()
}

// Seek moves the clock to position.
func (s *PlaybackService) Seek(position time.Duration) error {
	s.mu.Lock()
	if s.pcm == nil {
		s.mu.Unlock()
		return domain.ErrNoTrackLoaded
	}
	if position < 0 || position > s.pcm.Duration() {
		s.mu.Unlock()
		return fmt.Errorf("seek to %s: %w", position, domain.ErrInvalidPosition)
	}
	s.offset = position
	s.anchor = s.now()
	status := s.status
	s.mu.Unlock()

	s.bus.Publish(domain.NewPlaybackChangedEvent(status, position))
	return nil
}

// Position returns the current playback position.
func (s *PlaybackService) Position() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.positionLocked()
}

// positionLocked computes the position. Caller must hold s.mu.
func (s *PlaybackService) positionLocked() time.Duration {
	if s.pcm == nil {
		return 0
	}
	position := s.offset
	if s.status == domain.StatusPlaying {
		position += s.now().Sub(s.anchor)
	}
	return min(position, s.pcm.Duration())
}

// Status returns the current playback status.
func (s *PlaybackService) Status() domain.PlaybackStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status
}

// PCM returns the decoded audio of the current track.
func (s *PlaybackService) PCM() *domain.PCM {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.pcm
}

// Track returns the current track, or false when nothing is loaded.
func (s *PlaybackService) Track() (domain.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.track == nil {
		return domain.Track{}, false
	}
	return *s.track, true
}

// Shutdown stops the update routine.
func (s *PlaybackService) Shutdown() error {
	s.mu.Lock()

	if s.updateRunning {
		close(s.stopUpdate)
		s.updateRunning = false
	}

	// Release lock before waiting for goroutine to exit (to avoid deadlock)
	s.mu.Unlock()

	s.updateWg.Wait()

	return nil
}

// startUpdateRoutine starts a goroutine that detects the end of the track.
func (s *PlaybackService) startUpdateRoutine() {
	s.mu.Lock()
	if s.updateRunning {
		s.mu.Unlock()
		return
	}
	s.updateRunning = true
	s.updateWg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.updateWg.Done()
		ticker := time.NewTicker(s.updateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopUpdate:
				return

			case <-ticker.C:
				s.checkFinished()
			}
		}
	}()
}

// checkFinished stops the clock once it runs past the end of the track.
func (s *PlaybackService) checkFinished() {
	s.mu.Lock()
	if s.status != domain.StatusPlaying || s.pcm == nil {
		s.mu.Unlock()
		return
	}
	end := s.pcm.Duration()
	if s.positionLocked() < end {
		s.mu.Unlock()
		return
	}
	s.status = domain.StatusStopped
	s.offset = end
	s.mu.Unlock()

	s.logger.Debug("track finished")
	s.bus.Publish(domain.NewPlaybackChangedEvent(domain.StatusStopped, end))
}

// Verify that PlaybackService implements the expected interfaces
var _ ports.PCMSource = (*PlaybackService)(nil)

var _ interface {
	Load(string) (domain.Track, error)
	Play() error
	Pause() error
	Stop() error
	Toggle() error
	Seek(time.Duration) error
	Track() (domain.Track, bool)
	Shutdown() error
} = (*PlaybackService)(nil)
