// Package mock provides in-memory implementations of the audio ports.
// They are used for testing services without decoding real files, and the
// provider doubles as a demo source when no track is loaded.
package mock

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
)

// Bins is the waveform and frequency length of every synthetic frame.
const Bins = 128

// Provider is a synthetic AudioFeatureProvider.
// While playing it yields a noisy waveform around 0.5..1, a spectrum peaking in
// the mids and an amplitude in 0.7..1; while paused everything drops to a murmur.
//
// Thread-safety: This implementation is thread-safe.
type Provider struct {
	// Dependencies
	logger *slog.Logger
	clock  ports.PlaybackClock

	mu      sync.Mutex
	rng     *rand.Rand
	playing bool
	calls   int

	// Behavior configuration (for testing error scenarios)
	failWith error
	corrupt  bool
}

// NewProvider creates a provider whose noise sequence is fixed by seed.
func NewProvider(seed uint64) *Provider {
	return &Provider{
		logger: slog.New(slog.DiscardHandler),
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// SetLogger sets the logger for this provider.
func (p *Provider) SetLogger(logger *slog.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = logger
}

// SetPlaying switches between the playing and paused data shapes.
// It is ignored while a clock is attached.
func (p *Provider) SetPlaying(playing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = playing
}

// SetClock makes the playing state follow clock.
func (p *Provider) SetClock(clock ports.PlaybackClock) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clock = clock
}

// SetFailure makes AudioData return err until it is reset with nil (for testing).
func (p *Provider) SetFailure(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failWith = err
}

// SetCorrupt makes AudioData emit a NaN in the spectrum (for testing).
func (p *Provider) SetCorrupt(corrupt bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.corrupt = corrupt
}

// Calls returns how many times AudioData was called.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// AudioData returns the next synthetic frame.
func (p *Provider) AudioData() (domain.AudioFrame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	if p.failWith != nil {
		p.logger.Debug("mock provider failing", slog.Any("error", p.failWith))
		return domain.AudioFrame{}, p.failWith
	}

	playing := p.playing
	if p.clock != nil {
		playing = p.clock.Status().IsPlaying()
	}

	frame := domain.AudioFrame{
		Waveform:  make([]float64, Bins),
		Frequency: make([]float64, Bins),
	}

	base, level := 0.0, 0.1
	if playing {
		base, level = 0.5, 0.8
	}
	for i := range Bins {
		frame.Waveform[i] = p.rng.Float64()*0.5 + base
		frame.Frequency[i] = math.Sin(float64(i)/Bins*math.Pi) * level * (p.rng.Float64()*0.4 + 0.6)
	}

	if playing {
		frame.Amplitude = p.rng.Float64()*0.3 + 0.7
	} else {
		frame.Amplitude = p.rng.Float64() * 0.1
	}

	if p.corrupt {
		frame.Frequency[Bins/2] = math.NaN()
	}

	return frame, nil
}

var _ ports.AudioFeatureProvider = (*Provider)(nil)
