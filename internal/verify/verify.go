// Package verify checks decoded track locations against the audio files on
// disk and compares their embedded tags with the library metadata.
package verify

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pitetb/AppMusicLibParser/internal/library"
	"github.com/pitetb/AppMusicLibParser/internal/tags"
)

// Kind classifies a finding.
type Kind int

const (
	Missing Kind = iota
	Unreadable
	TitleMismatch
	ArtistMismatch
	AlbumMismatch
	YearMismatch
	DurationMismatch
)

func (k Kind) String() string {
	switch k {
	case Missing:
		return "missing"
	case Unreadable:
		return "unreadable"
	case TitleMismatch:
		return "title"
	case ArtistMismatch:
		return "artist"
	case AlbumMismatch:
		return "album"
	case YearMismatch:
		return "year"
	case DurationMismatch:
		return "duration"
	default:
		return "unknown"
	}
}

// Finding is one problem with one track.
type Finding struct {
	TrackID uint64
	Title   string
	Path    string
	Kind    Kind
	Want    string // library value
	Got     string // file value
	Err     error
}

// Result summarizes a verification run. Findings follow library order.
type Result struct {
	Checked    int
	NoLocation int
	OK         int
	Findings   []Finding
}

// Count returns the number of findings of kind k.
func (r Result) Count(k Kind) int {
	n := 0
	for _, f := range r.Findings {
		if f.Kind == k {
			n++
		}
	}
	return n
}

// Progress reports how many files have been checked.
type Progress struct {
	Current int
	Total   int
}

// DefaultDurationTolerance is how far a file's duration may drift from the
// library's before it is reported.
const DefaultDurationTolerance = 2 * time.Second

type Options struct {
	Limit             int           // check at most this many located tracks; <= 0 checks all
	Workers           int           // defaults to GOMAXPROCS
	DurationTolerance time.Duration // negative disables the duration check
	Progress          chan<- Progress
	Log               *slog.Logger
}

// Location returns the absolute path of a track's file, preferring the
// decoded URL form. It is empty when the track has no local location.
func Location(t *library.Track) string {
	if strings.HasPrefix(t.FileURL, "/") {
		return t.FileURL
	}
	if t.FilePath != "" {
		return "/" + strings.TrimPrefix(t.FilePath, "/")
	}
	return ""
}

type job struct {
	index int
	track *library.Track
	path  string
}

type outcome struct {
	index    int
	findings []Finding
}

// Run checks the tracks of lib. It returns ctx.Err() if canceled.
func Run(ctx context.Context, lib *library.Library, opts Options) (Result, error) {
	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	tolerance := opts.DurationTolerance
	if tolerance == 0 {
		tolerance = DefaultDurationTolerance
	}

	var res Result
	var jobs []job
	for i := range lib.Tracks {
		t := &lib.Tracks[i]
		path := Location(t)
		if path == "" {
			res.NoLocation++
			continue
		}
		if opts.Limit > 0 && len(jobs) >= opts.Limit {
			break
		}
		jobs = append(jobs, job{index: len(jobs), track: t, path: path})
	}
	total := len(jobs)
	log.Debug("verifying track files", "tracks", total, "no_location", res.NoLocation, "workers", workers)

	workCh := make(chan job)
	resultCh := make(chan outcome, workers)
	var processed atomic.Int64

	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			for j := range workCh {
				findings := check(j.track, j.path, tolerance, log)
				resultCh <- outcome{index: j.index, findings: findings}
				report(opts.Progress, int(processed.Add(1)), total)
			}
		})
	}

	go func() {
		defer close(workCh)
		for _, j := range jobs {
			select {
			case workCh <- j:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	perTrack := make([][]Finding, total)
	for o := range resultCh {
		perTrack[o.index] = o.findings
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	res.Checked = total
	for _, found := range perTrack {
		if len(found) == 0 {
			res.OK++
			continue
		}
		res.Findings = append(res.Findings, found...)
	}
	return res, nil
}

func report(ch chan<- Progress, current, total int) {
	if ch == nil {
		return
	}
	select {
	case ch <- Progress{Current: current, Total: total}:
	default:
	}
}

func check(t *library.Track, path string, tolerance time.Duration, log *slog.Logger) []Finding {
	finding := func(k Kind, want, got string, err error) Finding {
		return Finding{TrackID: t.ID, Title: t.Title, Path: path, Kind: k, Want: want, Got: got, Err: err}
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Finding{finding(Missing, "", "", nil)}
		}
		return []Finding{finding(Unreadable, "", "", err)}
	}

	tag, err := tags.Read(path)
	if err != nil {
		return []Finding{finding(Unreadable, "", "", err)}
	}

	// An untagged file reports its file name as title.
	title := tag.Title
	if title == filepath.Base(path) {
		title = ""
	}

	var out []Finding
	if differ(t.Title, title) {
		out = append(out, finding(TitleMismatch, t.Title, title, nil))
	}
	if differ(t.Artist, tag.Artist) {
		out = append(out, finding(ArtistMismatch, t.Artist, tag.Artist, nil))
	}
	if differ(t.Album, tag.Album) {
		out = append(out, finding(AlbumMismatch, t.Album, tag.Album, nil))
	}
	if y := tag.Year(); t.Year != 0 && y != 0 && t.Year != y {
		out = append(out, finding(YearMismatch, strconv.Itoa(t.Year), strconv.Itoa(y), nil))
	}

	if tolerance > 0 && t.Duration > 0 {
		audio, err := tags.ReadAudioInfo(path)
		if err != nil {
			log.Debug("no stream info", "path", path, "error", err)
		} else if drifted(t.Duration, audio.Duration, tolerance) {
			out = append(out, finding(DurationMismatch,
				t.Duration.Round(time.Second).String(), audio.Duration.Round(time.Second).String(), nil))
		}
	}
	return out
}

// drifted reports whether got is known and further than tolerance from want.
func drifted(want, got, tolerance time.Duration) bool {
	if got <= 0 {
		return false
	}
	d := got - want
	return d > tolerance || d < -tolerance
}

// differ compares folded names. An empty side never differs.
func differ(want, got string) bool {
	if want == "" || got == "" {
		return false
	}
	return library.NormalizeTitle(want) != library.NormalizeTitle(got)
}
