// Package domain contains core visualizer models and logic with no external dependencies.
// This package defines the fundamental entities of the GoVis rendering engine.
package domain

import (
	"math"
	"slices"
	"time"
)

// Mode identifies one of the interchangeable rendering modes.
type Mode string

const (
	// ModeWaveform renders mirrored bars from time-domain samples
	ModeWaveform Mode = "waveform"

	// ModeFrequency renders a smoothed spectrum with rounded caps
	ModeFrequency Mode = "frequency"

	// ModeCircular renders rotating radial rings
	ModeCircular Mode = "circular"

	// ModeParticles renders an emitter field with trails
	ModeParticles Mode = "particles"

	// Mode3D renders an orbiting scene of bars around a pulsing sphere
	Mode3D Mode = "3d"
)

// AllModes returns every supported mode in display order.
func AllModes() []Mode {
	return []Mode{ModeWaveform, ModeFrequency, ModeCircular, ModeParticles, Mode3D}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return slices.Contains(AllModes(), m)
}

// String returns the wire name of the mode.
func (m Mode) String() string {
	return string(m)
}

// ParseMode converts a wire name into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", NewValidationError("mode", s, "unknown visualization mode")
	}
	return m, nil
}

// ColorScheme selects where a renderer's palette comes from.
type ColorScheme string

const (
	// SchemeTrack derives colors from the current track's color hint
	SchemeTrack ColorScheme = "track"

	// SchemeCustom uses the user's custom colors
	SchemeCustom ColorScheme = "custom"

	// SchemeSpectrum uses the fixed per-mode default palette
	SchemeSpectrum ColorScheme = "spectrum"
)

// Valid reports whether c is a known color scheme.
func (c ColorScheme) Valid() bool {
	switch c {
	case SchemeTrack, SchemeCustom, SchemeSpectrum:
		return true
	default:
		return false
	}
}

// Settings limits and defaults.
const (
	MinSensitivity     = 1
	MaxSensitivity     = 10
	DefaultSensitivity = 7

	MinParticleDensity     = 10
	MaxParticleDensity     = 200
	DefaultParticleDensity = 50

	MinRotationSpeed     = 0.0
	MaxRotationSpeed     = 5.0
	DefaultRotationSpeed = 1.0

	MaxCustomColors = 4
)

// VisualizationSettings is the user-tunable parameter set shared by all renderers.
// Values are treated as immutable snapshots; use Apply to derive a modified copy.
type VisualizationSettings struct {
	// Mode is the single active rendering mode
	Mode Mode `json:"mode" yaml:"mode"`

	// Sensitivity scales all audio-reactive geometry (1..10)
	Sensitivity int `json:"sensitivity" yaml:"sensitivity"`

	// ColorScheme selects the palette source
	ColorScheme ColorScheme `json:"colorScheme" yaml:"colorScheme"`

	// CustomColors holds up to four "#rrggbb" entries used by SchemeCustom
	CustomColors []string `json:"customColors,omitempty" yaml:"customColors,omitempty"`

	// ParticleDensity controls the particle spawn rate (particles mode only)
	ParticleDensity *int `json:"particleDensity,omitempty" yaml:"particleDensity,omitempty"`

	// RotationSpeed controls the camera orbit rate (3d mode only)
	RotationSpeed *float64 `json:"rotationSpeed,omitempty" yaml:"rotationSpeed,omitempty"`
}

// DefaultSettings returns the settings used on first launch.
func DefaultSettings() VisualizationSettings {
	density := DefaultParticleDensity
	speed := DefaultRotationSpeed
	return VisualizationSettings{
		Mode:            ModeWaveform,
		Sensitivity:     DefaultSensitivity,
		ColorScheme:     SchemeTrack,
		ParticleDensity: &density,
		RotationSpeed:   &speed,
	}
}

// SensitivityFactor returns sensitivity/10, clamped to the valid range.
func (s VisualizationSettings) SensitivityFactor() float64 {
	v := min(max(s.Sensitivity, MinSensitivity), MaxSensitivity)
	return float64(v) / 10
}

// EffectiveParticleDensity returns the configured density, or the default together
// with a SettingsInconsistencyError when the field is missing.
func (s VisualizationSettings) EffectiveParticleDensity() (int, error) {
	if s.ParticleDensity == nil {
		return DefaultParticleDensity, NewSettingsInconsistencyError("particleDensity", DefaultParticleDensity)
	}
	return *s.ParticleDensity, nil
}

// EffectiveRotationSpeed returns the configured rotation speed, or the default together
// with a SettingsInconsistencyError when the field is missing.
func (s VisualizationSettings) EffectiveRotationSpeed() (float64, error) {
	if s.RotationSpeed == nil {
		return DefaultRotationSpeed, NewSettingsInconsistencyError("rotationSpeed", DefaultRotationSpeed)
	}
	return *s.RotationSpeed, nil
}

// Clone returns a deep copy so callers can never alias a published snapshot.
func (s VisualizationSettings) Clone() VisualizationSettings {
	out := s
	out.CustomColors = slices.Clone(s.CustomColors)
	if s.ParticleDensity != nil {
		v := *s.ParticleDensity
		out.ParticleDensity = &v
	}
	if s.RotationSpeed != nil {
		v := *s.RotationSpeed
		out.RotationSpeed = &v
	}
	return out
}

// Validate checks structural constraints. Color syntax is checked by the settings service.
func (s VisualizationSettings) Validate() error {
	if !s.Mode.Valid() {
		return NewValidationError("mode", s.Mode, "unknown visualization mode")
	}
	if s.Sensitivity < MinSensitivity || s.Sensitivity > MaxSensitivity {
		return NewValidationError("sensitivity", s.Sensitivity, "must be between 1 and 10")
	}
	if !s.ColorScheme.Valid() {
		return NewValidationError("colorScheme", s.ColorScheme, "unknown color scheme")
	}
	if len(s.CustomColors) > MaxCustomColors {
		return NewValidationError("customColors", len(s.CustomColors), "at most 4 custom colors are allowed")
	}
	if s.ParticleDensity != nil && (*s.ParticleDensity < MinParticleDensity || *s.ParticleDensity > MaxParticleDensity) {
		return NewValidationError("particleDensity", *s.ParticleDensity, "must be between 10 and 200")
	}
	if s.RotationSpeed != nil {
		v := *s.RotationSpeed
		if math.IsNaN(v) || v < MinRotationSpeed || v > MaxRotationSpeed {
			return NewValidationError("rotationSpeed", v, "must be between 0 and 5")
		}
	}
	return nil
}

// Apply merges a partial update into a copy of s. Fields absent from the patch are kept.
func (s VisualizationSettings) Apply(p SettingsPatch) VisualizationSettings {
	out := s.Clone()
	if p.Mode != nil {
		out.Mode = *p.Mode
	}
	if p.Sensitivity != nil {
		out.Sensitivity = *p.Sensitivity
	}
	if p.ColorScheme != nil {
		out.ColorScheme = *p.ColorScheme
	}
	if p.CustomColors != nil {
		out.CustomColors = slices.Clone(*p.CustomColors)
	}
	if p.ParticleDensity != nil {
		v := *p.ParticleDensity
		out.ParticleDensity = &v
	}
	if p.RotationSpeed != nil {
		v := *p.RotationSpeed
		out.RotationSpeed = &v
	}
	return out
}

// SettingsPatch is a partial settings update. Nil fields are left unchanged.
type SettingsPatch struct {
	Mode            *Mode        `json:"mode,omitempty" yaml:"mode,omitempty"`
	Sensitivity     *int         `json:"sensitivity,omitempty" yaml:"sensitivity,omitempty"`
	ColorScheme     *ColorScheme `json:"colorScheme,omitempty" yaml:"colorScheme,omitempty"`
	CustomColors    *[]string    `json:"customColors,omitempty" yaml:"customColors,omitempty"`
	ParticleDensity *int         `json:"particleDensity,omitempty" yaml:"particleDensity,omitempty"`
	RotationSpeed   *float64     `json:"rotationSpeed,omitempty" yaml:"rotationSpeed,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p SettingsPatch) IsEmpty() bool {
	return p.Mode == nil && p.Sensitivity == nil && p.ColorScheme == nil &&
		p.CustomColors == nil && p.ParticleDensity == nil && p.RotationSpeed == nil
}

// AudioFrame is one snapshot of audio analysis data.
// Waveform and Frequency lengths are fixed for a session; values are normalized.
type AudioFrame struct {
	// Waveform holds time-domain samples in [-1, 1]
	Waveform []float64

	// Frequency holds magnitude bins in [0, 1], low to high
	Frequency []float64

	// Amplitude is the overall loudness in [0, 1]
	Amplitude float64
}

// IsEmpty reports whether the frame carries no samples at all.
func (f AudioFrame) IsEmpty() bool {
	return len(f.Waveform) == 0 && len(f.Frequency) == 0
}

// Validate rejects frames without samples and frames containing NaN or
// infinite values.
func (f AudioFrame) Validate() error {
	if f.IsEmpty() {
		return NewInvalidAudioDataError("frame", -1, "has no samples")
	}
	if !finite(f.Amplitude) {
		return NewInvalidAudioDataError("amplitude", -1, "not a finite number")
	}
	for i, v := range f.Waveform {
		if !finite(v) {
			return NewInvalidAudioDataError("waveform", i, "not a finite number")
		}
	}
	for i, v := range f.Frequency {
		if !finite(v) {
			return NewInvalidAudioDataError("frequency", i, "not a finite number")
		}
	}
	return nil
}

// Clamped returns a copy with every value forced into its documented range.
func (f AudioFrame) Clamped() AudioFrame {
	out := AudioFrame{
		Waveform:  make([]float64, len(f.Waveform)),
		Frequency: make([]float64, len(f.Frequency)),
		Amplitude: clamp(f.Amplitude, 0, 1),
	}
	for i, v := range f.Waveform {
		out.Waveform[i] = clamp(v, -1, 1)
	}
	for i, v := range f.Frequency {
		out.Frequency[i] = clamp(v, 0, 1)
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// TrackColorHint holds the dominant colors extracted from a track's artwork.
// Any entry may be empty when the extractor could not find a matching swatch.
type TrackColorHint struct {
	Vibrant      string `json:"vibrant,omitempty"`
	LightVibrant string `json:"lightVibrant,omitempty"`
	Muted        string `json:"muted,omitempty"`
	DarkMuted    string `json:"darkMuted,omitempty"`
}

// Colors returns the entries in vibrant, lightVibrant, muted, darkMuted order.
// Positions are fixed; an empty entry takes the first entry that is set. It
// returns nil when nothing is set.
func (h TrackColorHint) Colors() []string {
	out := []string{h.Vibrant, h.LightVibrant, h.Muted, h.DarkMuted}
	first := ""
	for _, c := range out {
		if c != "" {
			first = c
			break
		}
	}
	if first == "" {
		return nil
	}
	for i, c := range out {
		if c == "" {
			out[i] = first
		}
	}
	return out
}

// IsEmpty reports whether no entry is set.
func (h TrackColorHint) IsEmpty() bool {
	return h.Vibrant == "" && h.LightVibrant == "" && h.Muted == "" && h.DarkMuted == ""
}

// Track is the minimal track description the visualizer needs.
type Track struct {
	// ID is a unique identifier for the track
	ID string

	// FilePath is the path to the audio file
	FilePath string

	// Title is the song title (from metadata or filename)
	Title string

	// Artist is the performing artist name
	Artist string

	// Album is the album name
	Album string

	// Duration is the total length of the decoded audio
	Duration time.Duration

	// Colors is the optional color hint used by SchemeTrack
	Colors *TrackColorHint
}

// PlaybackStatus represents the current playback state.
type PlaybackStatus int

const (
	// StatusStopped indicates playback is stopped
	StatusStopped PlaybackStatus = iota

	// StatusPlaying indicates playback is active
	StatusPlaying

	// StatusPaused indicates playback is paused
	StatusPaused
)

// String returns a human-readable representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// IsPlaying reports whether the status drives the animation loop.
func (s PlaybackStatus) IsPlaying() bool {
	return s == StatusPlaying
}

// PCM is decoded audio mixed down to mono, ready for analysis.
type PCM struct {
	// Samples are normalized to [-1, 1]
	Samples []float32

	// SampleRate is in Hz
	SampleRate int

	// SourceChannels is the channel count before the mono mixdown
	SourceChannels int
}

// Duration returns the playing time of the samples.
func (p *PCM) Duration() time.Duration {
	if p == nil || p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(p.Samples)) * time.Second / time.Duration(p.SampleRate)
}
