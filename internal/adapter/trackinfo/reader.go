// Package trackinfo reads display metadata and album-art colors from audio files.
package trackinfo

import (
	"bytes"
	"errors"
	"image"
	_ "image/jpeg" // register JPEG decoder for album art
	_ "image/png"  // register PNG decoder for album art
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/google/uuid"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
)

// Reader implements ports.TrackInfoReader using embedded tags.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a tag reader.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reader{logger: logger.With(slog.String("component", "trackinfo"))}
}

// Read returns the track description for path. Files without tags fall back
// to the file name as title; files without artwork get a nil color hint.
func (r *Reader) Read(path string) (domain.Track, error) {
	track := basicTrack(path)

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Track{}, domain.NewDecodeError("read_info", path, "file does not exist", domain.ErrFileNotFound)
		}
		return domain.Track{}, domain.NewDecodeError("read_info", path, "cannot open file", err)
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		r.logger.Debug("no readable tags", slog.String("file_path", path), slog.Any("error", err))
		return track, nil
	}

	if title := strings.TrimSpace(metadata.Title()); title != "" {
		track.Title = title
	}
	track.Artist = strings.TrimSpace(metadata.Artist())
	track.Album = strings.TrimSpace(metadata.Album())

	if pic := metadata.Picture(); pic != nil && len(pic.Data) > 0 {
		img, _, err := image.Decode(bytes.NewReader(pic.Data))
		if err != nil {
			r.logger.Warn("album art could not be decoded",
				slog.String("file_path", path),
				slog.String("mime_type", pic.MIMEType),
				slog.Any("error", err))
			return track, nil
		}
		track.Colors = ExtractHint(img)
	}

	return track, nil
}

func basicTrack(path string) domain.Track {
	name := filepath.Base(path)
	return domain.Track{
		ID:       uuid.NewString(),
		FilePath: path,
		Title:    strings.TrimSuffix(name, filepath.Ext(name)),
	}
}

var _ ports.TrackInfoReader = (*Reader)(nil)
