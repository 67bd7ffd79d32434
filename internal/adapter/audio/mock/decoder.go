package mock

import (
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
)

// Decoder is an in-memory AudioDecoder. Files are registered with Add;
// unregistered paths fail with domain.ErrFileNotFound.
//
// Thread-safety: This implementation is thread-safe.
type Decoder struct {
	mu       sync.RWMutex
	files    map[string]*domain.PCM
	decoded  int
	failLoad bool
}

// NewDecoder creates an empty mock decoder.
func NewDecoder() *Decoder {
	return &Decoder{files: make(map[string]*domain.PCM)}
}

// Add registers pcm under path.
func (d *Decoder) Add(path string, pcm *domain.PCM) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.files[path] = pcm
}

// SetFailLoad configures the mock to fail decoding (for testing).
func (d *Decoder) SetFailLoad(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failLoad = fail
}

// Decoded returns how many files were decoded successfully.
func (d *Decoder) Decoded() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.decoded
}

// Decode returns the PCM registered for path.
func (d *Decoder) Decode(path string) (*domain.PCM, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.failLoad {
		return nil, domain.NewDecodeError("decode", path, "mock decode failed", nil)
	}
	pcm, ok := d.files[path]
	if !ok {
		return nil, domain.NewDecodeError("decode", path, "not registered", domain.ErrFileNotFound)
	}
	d.decoded++
	return pcm, nil
}

// Supports accepts the extensions of the real decoders.
func (d *Decoder) Supports(ext string) bool {
	switch strings.ToLower(ext) {
	case ".wav", ".mp3", ".ogg", ".flac":
		return true
	}
	return false
}

// Sine returns a mono sine tone, handy as decoder fixture data.
func Sine(freq float64, sampleRate int, length time.Duration, gain float64) *domain.PCM {
	n := int(length.Seconds() * float64(sampleRate))
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(gain * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return &domain.PCM{Samples: samples, SampleRate: sampleRate, SourceChannels: 1}
}

// TrackInfo is an in-memory TrackInfoReader.
type TrackInfo struct {
	mu     sync.RWMutex
	tracks map[string]domain.Track
}

// NewTrackInfo creates an empty mock track info reader.
func NewTrackInfo() *TrackInfo {
	return &TrackInfo{tracks: make(map[string]domain.Track)}
}

// Add registers the metadata returned for path.
func (r *TrackInfo) Add(path string, track domain.Track) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracks[path] = track
}

// Read returns the registered track, or domain.ErrFileNotFound.
func (r *TrackInfo) Read(path string) (domain.Track, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	track, ok := r.tracks[path]
	if !ok {
		return domain.Track{}, domain.NewDecodeError("read", filepath.Base(path), "no metadata", domain.ErrFileNotFound)
	}
	return track, nil
}

var (
	_ ports.AudioDecoder    = (*Decoder)(nil)
	_ ports.TrackInfoReader = (*TrackInfo)(nil)
)
