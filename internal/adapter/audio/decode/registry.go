// Package decode turns audio files into mono PCM for analysis.
//
// Codecs are registered by file extension. The default registry handles WAV,
// MP3, Ogg Vorbis and FLAC through pure Go decoders.
package decode

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
)

// Decoded is interleaved PCM as produced by a codec.
type Decoded struct {
	// Samples are interleaved and normalized to [-1, 1]
	Samples    []float32
	SampleRate int
	Channels   int
}

// Codec decodes one container format.
type Codec interface {
	Decode(r io.ReadSeeker) (Decoded, error)
}

// CodecFunc adapts a function to Codec.
type CodecFunc func(r io.ReadSeeker) (Decoded, error)

// Decode calls f.
func (f CodecFunc) Decode(r io.ReadSeeker) (Decoded, error) { return f(r) }

// Registry maps file extensions to codecs.
//
// Thread-safety: Registry is safe for concurrent use.
type Registry struct {
	logger *slog.Logger

	mu     sync.RWMutex
	codecs map[string]Codec
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		logger: logger.With(slog.String("component", "decoder")),
		codecs: make(map[string]Codec),
	}
}

// NewDefaultRegistry creates a registry with every built-in codec.
func NewDefaultRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	r.Register(".wav", WAV)
	r.Register(".mp3", MP3)
	r.Register(".ogg", Vorbis)
	r.Register(".flac", FLAC)
	return r
}

// Register binds ext (with leading dot, any case) to c, replacing any previous codec.
func (r *Registry) Register(ext string, c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[strings.ToLower(ext)] = c
}

// Supports reports whether a codec is registered for ext.
func (r *Registry) Supports(ext string) bool {
	_, ok := r.codec(ext)
	return ok
}

// Extensions returns the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.codecs))
	for ext := range r.codecs {
		out = append(out, ext)
	}
	slices.Sort(out)
	return out
}

func (r *Registry) codec(ext string) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[strings.ToLower(ext)]
	return c, ok
}

// Decode reads the file at path and mixes it down to mono.
func (r *Registry) Decode(path string) (*domain.PCM, error) {
	ext := filepath.Ext(path)
	c, ok := r.codec(ext)
	if !ok {
		return nil, domain.NewDecodeError("decode", path, "no codec for "+ext, domain.ErrUnsupportedFormat)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewDecodeError("open", path, "file does not exist", domain.ErrFileNotFound)
		}
		return nil, domain.NewDecodeError("open", path, "cannot open file", err)
	}
	defer f.Close()

	d, err := c.Decode(f)
	if err != nil {
		return nil, domain.NewDecodeError("decode", path, "codec failed", err)
	}
	if d.SampleRate <= 0 || d.Channels <= 0 {
		return nil, domain.NewDecodeError("decode", path, "stream has no sample rate or channels", nil)
	}

	pcm := &domain.PCM{
		Samples:        MixDown(d.Samples, d.Channels),
		SampleRate:     d.SampleRate,
		SourceChannels: d.Channels,
	}
	r.logger.Debug("decoded file",
		slog.String("file_path", path),
		slog.Int("sample_rate", pcm.SampleRate),
		slog.Int("channels", d.Channels),
		slog.Duration("duration", pcm.Duration()))
	return pcm, nil
}

// MixDown averages interleaved frames into one channel. A trailing partial
// frame is dropped.
func MixDown(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return slices.Clone(interleaved)
	}
	frames := len(interleaved) / channels
	out := make([]float32, frames)
	inv := 1 / float32(channels)
	for f := range frames {
		sum := float32(0)
		for _, v := range interleaved[f*channels : (f+1)*channels] {
			sum += v
		}
		out[f] = sum * inv
	}
	return out
}

var _ ports.AudioDecoder = (*Registry)(nil)
