package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// Built-in codecs.
var (
	WAV    Codec = CodecFunc(decodeWAV)
	MP3    Codec = CodecFunc(decodeMP3)
	Vorbis Codec = CodecFunc(decodeVorbis)
	FLAC   Codec = CodecFunc(decodeFLAC)
)

// ErrInvalidWAV is returned for files without a RIFF/WAVE header.
var ErrInvalidWAV = errors.New("invalid WAV file")

func decodeWAV(r io.ReadSeeker) (Decoded, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Decoded{}, ErrInvalidWAV
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Decoded{}, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	depth := int(dec.BitDepth)
	if depth <= 0 || depth > 32 {
		return Decoded{}, fmt.Errorf("unsupported WAV bit depth %d", depth)
	}
	scale := 1 / float32(int64(1)<<(depth-1))

	out := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		if depth == 8 {
			// 8-bit WAV is unsigned
			v -= 128
		}
		out[i] = float32(v) * scale
	}
	return Decoded{Samples: out, SampleRate: int(dec.SampleRate), Channels: int(dec.NumChans)}, nil
}

// mp3Channels is fixed: go-mp3 always emits 16-bit little-endian stereo.
const mp3Channels = 2

func decodeMP3(r io.ReadSeeker) (Decoded, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return Decoded{}, fmt.Errorf("decoding MP3: %w", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return Decoded{}, fmt.Errorf("decoding MP3: %w", err)
	}

	samples := len(raw) / 2
	out := make([]float32, samples)
	for i := range samples {
		out[i] = float32(int16(binary.LittleEndian.Uint16(raw[2*i:]))) / 32768
	}
	return Decoded{Samples: out, SampleRate: dec.SampleRate(), Channels: mp3Channels}, nil
}

func decodeVorbis(r io.ReadSeeker) (Decoded, error) {
	samples, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return Decoded{}, fmt.Errorf("decoding OGG: %w", err)
	}
	return Decoded{Samples: samples, SampleRate: format.SampleRate, Channels: format.Channels}, nil
}

func decodeFLAC(r io.ReadSeeker) (Decoded, error) {
	stream, err := flac.New(r)
	if err != nil {
		return Decoded{}, fmt.Errorf("decoding FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	scale := 1 / float32(int64(1)<<(info.BitsPerSample-1))

	out := make([]float32, 0, int(info.NSamples)*channels)
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Decoded{}, fmt.Errorf("decoding FLAC frame: %w", err)
		}
		n := int(frame.Subframes[0].NSamples)
		for i := range n {
			for ch := range channels {
				out = append(out, float32(frame.Subframes[ch].Samples[i])*scale)
			}
		}
	}
	return Decoded{Samples: out, SampleRate: int(info.SampleRate), Channels: channels}, nil
}
