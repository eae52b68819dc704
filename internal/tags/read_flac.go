package tags

import (
	"strings"

	goflac "github.com/go-flac/go-flac"
	"go.senan.xyz/taglib"
)

// readFLACWithTaglib reads FLAC metadata using TagLib when dhowden/tag fails.
func readFLACWithTaglib(path string) (*Tag, error) {
	t, err := readWithTaglib(path)
	if err != nil {
		return nil, err
	}
	readFLACDate(path, t)
	return t, nil
}

// readFLACDate reads DATE, falling back to YEAR, from the Vorbis comments.
func readFLACDate(path string, t *Tag) {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return
	}

	for _, meta := range f.Meta {
		if meta.Type != goflac.VorbisComment {
			continue
		}
		comments := parseVorbisComments(meta.Data)
		if date := comments["DATE"]; date != "" {
			t.Date = date
		} else if year := comments["YEAR"]; year != "" {
			t.Date = year
		}
		return
	}
}

// readWithTaglib reads metadata of any format TagLib understands.
func readWithTaglib(path string) (*Tag, error) {
	rawTags, err := taglib.ReadTags(path)
	if err != nil {
		return nil, err
	}
	tags := taglibTags(rawTags)

	trackNum, trackTotal := tags.parseNumberPair(taglib.TrackNumber)
	discNum, discTotal := tags.parseNumberPair(taglib.DiscNumber)
	if trackTotal == 0 {
		_, trackTotal = parseTrackNumber(tags.get("TOTALTRACKS", "TRACKTOTAL"))
	}
	if discTotal == 0 {
		_, discTotal = parseTrackNumber(tags.get("TOTALDISCS", "DISCTOTAL"))
	}

	t := &Tag{
		Path:        path,
		Title:       tags.get(taglib.Title),
		Artist:      tags.get(taglib.Artist),
		AlbumArtist: tags.get(taglib.AlbumArtist),
		Album:       tags.get(taglib.Album),
		Composer:    tags.get("COMPOSER"),
		Genre:       tags.get(taglib.Genre),
		Date:        tags.get(taglib.Date, "YEAR"),
		TrackNumber: trackNum,
		TotalTracks: trackTotal,
		DiscNumber:  discNum,
		TotalDiscs:  discTotal,
	}
	t.fillDefaults()
	return t, nil
}

// parseVorbisComments parses raw Vorbis comment data into a map.
func parseVorbisComments(data []byte) map[string]string {
	comments := make(map[string]string)

	if len(data) < 4 {
		return comments
	}

	le32 := func(p int) int {
		return int(data[p]) | int(data[p+1])<<8 | int(data[p+2])<<16 | int(data[p+3])<<24
	}

	// vendor string
	pos := 4 + le32(0)
	if pos < 4 || pos+4 > len(data) {
		return comments
	}

	commentCount := le32(pos)
	pos += 4

	for i := 0; i < commentCount && pos+4 <= len(data); i++ {
		commentLen := le32(pos)
		pos += 4

		if commentLen < 0 || pos+commentLen > len(data) {
			break
		}

		comment := string(data[pos : pos+commentLen])
		pos += commentLen

		if key, value, ok := strings.Cut(comment, "="); ok && key != "" {
			comments[strings.ToUpper(key)] = value
		}
	}

	return comments
}
