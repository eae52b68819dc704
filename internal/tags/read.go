package tags

import (
	"os"
	"strconv"

	"github.com/dhowden/tag"
)

// Read reads tag metadata from a music file. dhowden/tag is tried first,
// then a format-specific reader when it fails.
func Read(path string) (*Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		e := ext(path)
		switch {
		case e == ExtMP3:
			// dhowden/tag has issues with some UTF-16 encoded ID3 tags
			return readMP3WithID3v2Fallback(path)
		case e == ExtFLAC:
			return readFLACWithTaglib(path)
		case isMP4(e), isOgg(e):
			// dhowden/tag can't parse some ffmpeg-created MP4 and Ogg files
			return readWithTaglib(path)
		}
		return nil, err
	}

	track, totalTracks := m.Track()
	disc, totalDiscs := m.Disc()

	t := &Tag{
		Path:        path,
		Title:       m.Title(),
		Artist:      m.Artist(),
		AlbumArtist: m.AlbumArtist(),
		Album:       m.Album(),
		Composer:    m.Composer(),
		Genre:       m.Genre(),
		Date:        yearToDate(m.Year()),
		TrackNumber: track,
		TotalTracks: totalTracks,
		DiscNumber:  disc,
		TotalDiscs:  totalDiscs,
	}

	// dhowden/tag only reports a year; prefer the full date when present.
	switch e := ext(path); {
	case e == ExtMP3:
		readMP3Date(path, t)
	case e == ExtFLAC:
		readFLACDate(path, t)
	}

	t.fillDefaults()
	return t, nil
}

// yearToDate converts a year integer to a date string.
// Returns empty string for year 0.
func yearToDate(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}
