package tags

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
	"time"
)

func TestTag_Year(t *testing.T) {
	tests := []struct {
		name string
		date string
		want int
	}{
		{"empty", "", 0},
		{"year only", "2023", 2023},
		{"full date", "2023-06-15", 2023},
		{"partial date", "2023-06", 2023},
		{"invalid", "invalid", 0},
		{"short", "23", 23},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag := &Tag{Date: tt.date}
			if got := tag.Year(); got != tt.want {
				t.Errorf("Year() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsMusicFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"song.mp3", true},
		{"song.MP3", true},
		{"song.flac", true},
		{"song.opus", true},
		{"song.ogg", true},
		{"song.oga", true},
		{"song.m4a", true},
		{"song.M4P", true},
		{"song.mp4", true},
		{"song.wav", false},
		{"song.aiff", false},
		{"song", false},
		{"/Users/me/Music/Media/Music/Artist/Album/01 Song.m4a", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsMusicFile(tt.path); got != tt.want {
				t.Errorf("IsMusicFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestParseTrackNumber(t *testing.T) {
	tests := []struct {
		input     string
		wantNum   int
		wantTotal int
	}{
		{"", 0, 0},
		{"5", 5, 0},
		{"5/10", 5, 10},
		{" 3 / 12 ", 3, 12},
		{"invalid", 0, 0},
		{"5/invalid", 5, 0},
		{"invalid/10", 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			num, total := parseTrackNumber(tt.input)
			if num != tt.wantNum || total != tt.wantTotal {
				t.Errorf("parseTrackNumber(%q) = %d, %d, want %d, %d", tt.input, num, total, tt.wantNum, tt.wantTotal)
			}
		})
	}
}

func TestFillDefaults(t *testing.T) {
	tag := &Tag{Path: "/music/01 Intro.mp3", Artist: " Solo Artist "}
	tag.fillDefaults()

	if tag.Title != "01 Intro.mp3" {
		t.Errorf("Title = %q, want file name", tag.Title)
	}
	if tag.Artist != "Solo Artist" || tag.AlbumArtist != "Solo Artist" {
		t.Errorf("Artist = %q, AlbumArtist = %q", tag.Artist, tag.AlbumArtist)
	}
}

func vorbisComments(vendor string, comments ...string) []byte {
	var buf bytes.Buffer
	le := func(n int) { _ = binary.Write(&buf, binary.LittleEndian, uint32(n)) }
	le(len(vendor))
	buf.WriteString(vendor)
	le(len(comments))
	for _, c := range comments {
		le(len(c))
		buf.WriteString(c)
	}
	return buf.Bytes()
}

func TestParseVorbisComments(t *testing.T) {
	data := vorbisComments("reference libFLAC 1.4.3", "TITLE=Halo", "date=2008-11-12", "COMMENT=a=b", "=ignored", "novalue")
	got := parseVorbisComments(data)

	want := map[string]string{"TITLE": "Halo", "DATE": "2008-11-12", "COMMENT": "a=b"}
	if len(got) != len(want) {
		t.Fatalf("parseVorbisComments() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}

func TestParseVorbisComments_Truncated(t *testing.T) {
	data := vorbisComments("vendor", "TITLE=Halo", "ARTIST=Beyoncé")

	for n := range len(data) {
		// must not panic on any prefix
		parseVorbisComments(data[:n])
	}

	if got := parseVorbisComments(data[:len(data)-2]); got["TITLE"] != "Halo" || got["ARTIST"] != "" {
		t.Errorf("parseVorbisComments(truncated) = %v", got)
	}
}

func TestParseStreamInfo(t *testing.T) {
	// 44100 Hz, 2 channels, 16 bits, 441000 samples
	data := make([]byte, 34)
	rate := 44100
	data[10] = byte(rate >> 12)
	data[11] = byte(rate >> 4)
	data[12] = byte(rate<<4) | (1 << 1) // channels-1 = 1
	data[13] = 15 << 4                  // bits-1 = 15
	binary.BigEndian.PutUint32(data[14:18], 441000)

	info, ok := parseStreamInfo(data)
	if !ok {
		t.Fatal("parseStreamInfo() failed")
	}
	if info.SampleRate != 44100 || info.BitDepth != 16 || info.Duration != 10*time.Second {
		t.Errorf("parseStreamInfo() = %+v", info)
	}

	if _, ok := parseStreamInfo(data[:17]); ok {
		t.Error("short block should fail")
	}
	if _, ok := parseStreamInfo(make([]byte, 34)); ok {
		t.Error("zero sample rate should fail")
	}
}

func TestSkipID3v2(t *testing.T) {
	header := []byte{'I', 'D', '3', 4, 0, 0, 0, 0, 0, 5}
	data := append(append(header, 1, 2, 3, 4, 5), []byte("fLaC")...)

	r := bytes.NewReader(data)
	if err := skipID3v2(r); err != nil {
		t.Fatalf("skipID3v2() error = %v", err)
	}
	rest, _ := io.ReadAll(r)
	if string(rest) != "fLaC" {
		t.Errorf("after skip = %q, want fLaC", rest)
	}

	r = bytes.NewReader([]byte("fLaC0000000000"))
	if err := skipID3v2(r); err != nil {
		t.Fatalf("skipID3v2() error = %v", err)
	}
	if pos, _ := r.Seek(0, io.SeekCurrent); pos != 0 {
		t.Errorf("position = %d, want 0 without a tag", pos)
	}
}

func TestReadAudioInfo_UnsupportedFormat(t *testing.T) {
	if _, err := ReadAudioInfo("/music/track.wav"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestRead_NonexistentFile(t *testing.T) {
	if _, err := Read("/nonexistent/path/song.mp3"); err == nil {
		t.Error("expected error for missing file")
	}
}
