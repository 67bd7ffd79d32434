// Package analyzer turns decoded PCM into audio frames for the renderers.
//
// The analysis window always ends at the playback clock's position, so the
// visuals follow play, pause and seek without any audio device involved.
package analyzer

import (
	"fmt"
	"log/slog"
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
)

// Defaults match a browser AnalyserNode feeding 128-value visualizers.
const (
	DefaultFFTSize     = 1024
	DefaultBins        = 128
	DefaultSmoothing   = 0.8
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0
)

// Config tunes the analysis.
type Config struct {
	// FFTSize is the analysis window length in samples. Must be a power of two
	// and a multiple of Bins.
	FFTSize int

	// Bins is the length of both the waveform and the frequency arrays.
	Bins int

	// Smoothing blends each spectrum with the previous one (0 = none, <1).
	Smoothing float64

	// MinDecibels and MaxDecibels map magnitudes onto [0, 1].
	MinDecibels float64
	MaxDecibels float64
}

// DefaultConfig returns the standard analysis settings.
func DefaultConfig() Config {
	return Config{
		FFTSize:     DefaultFFTSize,
		Bins:        DefaultBins,
		Smoothing:   DefaultSmoothing,
		MinDecibels: DefaultMinDecibels,
		MaxDecibels: DefaultMaxDecibels,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.FFTSize <= 0 || c.FFTSize&(c.FFTSize-1) != 0 {
		return fmt.Errorf("fft size must be a power of 2, got %d", c.FFTSize)
	}
	if c.Bins <= 0 || c.FFTSize/2 < c.Bins || (c.FFTSize/2)%c.Bins != 0 {
		return fmt.Errorf("bins must divide fft size/2 (%d), got %d", c.FFTSize/2, c.Bins)
	}
	if c.Smoothing < 0 || c.Smoothing >= 1 {
		return fmt.Errorf("smoothing must be in [0, 1), got %v", c.Smoothing)
	}
	if c.MinDecibels >= c.MaxDecibels {
		return fmt.Errorf("min decibels %v must be below max decibels %v", c.MinDecibels, c.MaxDecibels)
	}
	return nil
}

// workspace holds the pre-allocated buffers of one analysis pass.
type workspace struct {
	input    []float64    // windowed samples
	raw      []float64    // unwindowed samples, for waveform and loudness
	coeffs   []complex128 // FFT output, FFTSize/2+1 values
	smoothed []float64    // smoothed magnitudes, FFTSize/2 values
	window   []float64    // window coefficients
}

// Analyzer is the production AudioFeatureProvider.
//
// Thread-safety: AudioData is safe for concurrent use.
type Analyzer struct {
	logger *slog.Logger
	source ports.PCMSource
	cfg    Config
	fft    *fourier.FFT

	mu   sync.Mutex
	ws   workspace
	last *domain.PCM // track the smoothing state belongs to
}

// New creates an analyzer reading from source.
func New(source ports.PCMSource, cfg Config, logger *slog.Logger) (*Analyzer, error) {
	if source == nil {
		return nil, fmt.Errorf("analyzer: pcm source is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	coeffs := make([]float64, cfg.FFTSize)
	for i := range coeffs {
		coeffs[i] = 1
	}
	window.Hann(coeffs)

	logger.Debug("analyzer initialized",
		slog.Int("fft_size", cfg.FFTSize),
		slog.Int("bins", cfg.Bins),
		slog.Float64("smoothing", cfg.Smoothing))

	return &Analyzer{
		logger: logger.With(slog.String("component", "analyzer")),
		source: source,
		cfg:    cfg,
		fft:    fourier.NewFFT(cfg.FFTSize),
		ws: workspace{
			input:    make([]float64, cfg.FFTSize),
			raw:      make([]float64, cfg.FFTSize),
			coeffs:   make([]complex128, cfg.FFTSize/2+1),
			smoothed: make([]float64, cfg.FFTSize/2),
			window:   coeffs,
		},
	}, nil
}

// AudioData analyzes the window ending at the current playback position.
//
// Returns domain.ErrNoTrackLoaded when the source has no PCM.
func (a *Analyzer) AudioData() (domain.AudioFrame, error) {
	pcm := a.source.PCM()
	if pcm == nil || pcm.SampleRate <= 0 {
		return domain.AudioFrame{}, domain.ErrNoTrackLoaded
	}
	position := a.source.Position()

	a.mu.Lock()
	defer a.mu.Unlock()

	if pcm != a.last {
		clear(a.ws.smoothed)
		a.last = pcm
	}

	end := int(position.Seconds() * float64(pcm.SampleRate))
	a.fill(pcm.Samples, end-a.cfg.FFTSize)

	a.fft.Coefficients(a.ws.coeffs, a.ws.input)
	a.smooth()

	return domain.AudioFrame{
		Waveform:  a.waveform(),
		Frequency: a.spectrum(),
		Amplitude: a.loudness(),
	}, nil
}

// fill copies FFTSize samples starting at start, zero-padding outside the track.
func (a *Analyzer) fill(samples []float32, start int) {
	for i := range a.cfg.FFTSize {
		j := start + i
		v := 0.0
		if j >= 0 && j < len(samples) {
			v = float64(samples[j])
		}
		a.ws.raw[i] = v
		a.ws.input[i] = v * a.ws.window[i]
	}
}

// smooth blends the new magnitudes into the running spectrum.
// The Nyquist coefficient is dropped.
func (a *Analyzer) smooth() {
	tau := a.cfg.Smoothing
	n := float64(a.cfg.FFTSize)
	for k := range a.ws.smoothed {
		mag := cmplx.Abs(a.ws.coeffs[k]) / n
		a.ws.smoothed[k] = tau*a.ws.smoothed[k] + (1-tau)*mag
	}
}

// spectrum groups the smoothed magnitudes into Bins values in [0, 1] on a
// decibel scale, taking the loudest magnitude of each group.
func (a *Analyzer) spectrum() []float64 {
	out := make([]float64, a.cfg.Bins)
	group := len(a.ws.smoothed) / a.cfg.Bins
	span := a.cfg.MaxDecibels - a.cfg.MinDecibels
	for b := range out {
		peak := 0.0
		for _, m := range a.ws.smoothed[b*group : (b+1)*group] {
			peak = max(peak, m)
		}
		if peak <= 0 {
			continue
		}
		db := 20 * math.Log10(peak)
		out[b] = math.Max(0, math.Min(1, (db-a.cfg.MinDecibels)/span))
	}
	return out
}

// waveform reduces the window to Bins points, keeping the sample with the
// largest magnitude in each chunk so transients survive the decimation.
func (a *Analyzer) waveform() []float64 {
	out := make([]float64, a.cfg.Bins)
	chunk := a.cfg.FFTSize / a.cfg.Bins
	for b := range out {
		peak := 0.0
		for _, v := range a.ws.raw[b*chunk : (b+1)*chunk] {
			if math.Abs(v) > math.Abs(peak) {
				peak = v
			}
		}
		out[b] = math.Max(-1, math.Min(1, peak))
	}
	return out
}

// loudness is the window's RMS scaled so a full-scale sine reads 1.
func (a *Analyzer) loudness() float64 {
	sum := 0.0
	for _, v := range a.ws.raw {
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(a.ws.raw)))
	return math.Min(1, rms*math.Sqrt2)
}

// BinFrequency returns the upper edge frequency in Hz of frequency bin b.
func (a *Analyzer) BinFrequency(b, sampleRate int) float64 {
	group := a.cfg.FFTSize / 2 / a.cfg.Bins
	return a.fft.Freq((b+1)*group) * float64(sampleRate)
}

var _ ports.AudioFeatureProvider = (*Analyzer)(nil)
