package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/pitetb/AppMusicLibParser/internal/errmsg"
	"github.com/pitetb/AppMusicLibParser/internal/inspect"
	"github.com/pitetb/AppMusicLibParser/internal/library"
	"github.com/pitetb/AppMusicLibParser/internal/report"
	"github.com/pitetb/AppMusicLibParser/internal/search"
	"github.com/pitetb/AppMusicLibParser/internal/store"
	"github.com/pitetb/AppMusicLibParser/internal/ui/spinner"
	"github.com/pitetb/AppMusicLibParser/internal/verify"
)

func commands() []command {
	return []command{
		{
			name:    "info",
			args:    "[FILE]",
			summary: "Show the file header, library totals and the playlist tree",
			run:     runInfo,
		},
		{
			name:    "stats",
			args:    "[FILE]",
			summary: "Show play statistics and the most played tracks",
			flags: func(fs *flag.FlagSet, o *options) {
				fs.IntVarP(&o.top, "top", "t", 0, "number of most played tracks to show (default: report.top)")
			},
			run: runStats,
		},
		{
			name:    "ratings",
			args:    "[FILE]",
			summary: "Show the star rating distribution with examples",
			flags: func(fs *flag.FlagSet, o *options) {
				fs.IntVarP(&o.count, "count", "n", 0, "tracks to show per star level (default: report.examples)")
			},
			run: runRatings,
		},
		{
			name:    "likes",
			args:    "[FILE]",
			summary: "Show liked and disliked tracks",
			flags: func(fs *flag.FlagSet, o *options) {
				fs.IntVarP(&o.examples, "examples", "n", 0, "tracks to show per status (default: report.examples)")
			},
			run: runLikes,
		},
		{
			name:    "search",
			args:    "[FILE] <title>",
			summary: "Find tracks by title",
			flags: func(fs *flag.FlagSet, o *options) {
				fs.BoolVarP(&o.fuzzy, "fuzzy", "f", false, "rank fuzzy matches on title, artist and album")
			fs.BoolVarP(&o.playlists, "playlists", "p", false, "fuzzy match playlist names instead of tracks")
				fs.IntVarP(&o.limit, "limit", "l", 20, "maximum fuzzy or database results")
				fs.StringVar(&o.dbPath, "db", "", "search an exported database instead of decoding a file")
			},
			run: runSearch,
		},
		{
			name:    "compare",
			args:    "<file1> <file2>",
			summary: "Byte diff of two decoded payloads",
			run:     runCompare,
		},
		{
			name:    "dump-offset",
			args:    "<file> <hexOffset>",
			summary: "Hex dump of the decoded payload around an offset",
			flags: func(fs *flag.FlagSet, o *options) {
				fs.IntVarP(&o.radius, "radius", "r", inspect.DefaultRadius, "bytes to show on each side")
			},
			run: runDumpOffset,
		},
		{
			name:    "export",
			args:    "[FILE]",
			summary: "Write the decoded library to a SQLite database",
			flags: func(fs *flag.FlagSet, o *options) {
				fs.StringVar(&o.dbPath, "db", "", "database path (default: export.db_path)")
			},
			run: runExport,
		},
		{
			name:    "verify",
			args:    "[FILE]",
			summary: "Check track files exist and match their embedded tags",
			flags: func(fs *flag.FlagSet, o *options) {
				fs.IntVarP(&o.limit, "limit", "l", 0, "check at most this many tracks (0: all)")
				fs.IntVarP(&o.workers, "workers", "w", 0, "parallel file readers (default: number of CPUs)")
			},
			run: runVerify,
		},
		{
			name:    "diag",
			args:    "[FILE]",
			summary: "Show scanner diagnostics: sections, unknown subtypes, skipped attributes",
			run:     runDiag,
		},
	}
}

// decodeLibrary decodes the library named by args[pos] or the configured default.
func (a *app) decodeLibrary(args []string, pos int) (*library.Library, error) {
	path, err := a.libraryPath(args, pos)
	if err != nil {
		return nil, err
	}
	dec, err := a.decoder()
	if err != nil {
		return nil, err
	}
	lib, err := spinner.Run(a.tty, "Reading library...", func() (*library.Library, error) {
		return dec.DecodeFile(path)
	})
	if err != nil {
		return nil, fail(errmsg.OpLibraryDecode, path, err)
	}
	return lib, nil
}

// decodePayload returns the decoded buffer of the file at path.
func (a *app) decodePayload(path string) ([]byte, error) {
	path, err := existingFile(path)
	if err != nil {
		return nil, err
	}
	dec, err := a.decoder()
	if err != nil {
		return nil, err
	}
	buf, err := spinner.Run(a.tty, "Decoding "+path+"...", func() ([]byte, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		_, buf, err := dec.DecodePayload(data)
		return buf, err
	})
	if err != nil {
		return nil, fail(errmsg.OpPayloadDecode, path, err)
	}
	return buf, nil
}

func maxArgs(args []string, n int) error {
	if len(args) > n {
		return usageError("unexpected arguments: %s", strings.Join(args[n:], " "))
	}
	return nil
}

// orDefault returns v, or def when v is not positive.
func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func runInfo(a *app, _ *options, args []string) error {
	if err := maxArgs(args, 1); err != nil {
		return err
	}
	lib, err := a.decodeLibrary(args, 0)
	if err != nil {
		return err
	}
	fmt.Fprint(a.stdout, report.Info(lib))
	return nil
}

func runStats(a *app, o *options, args []string) error {
	if err := maxArgs(args, 1); err != nil {
		return err
	}
	lib, err := a.decodeLibrary(args, 0)
	if err != nil {
		return err
	}
	fmt.Fprint(a.stdout, report.Stats(lib, orDefault(o.top, a.cfg.Report.Top)))
	return nil
}

func runRatings(a *app, o *options, args []string) error {
	if err := maxArgs(args, 1); err != nil {
		return err
	}
	lib, err := a.decodeLibrary(args, 0)
	if err != nil {
		return err
	}
	fmt.Fprint(a.stdout, report.Ratings(lib, orDefault(o.count, a.cfg.Report.Examples)))
	return nil
}

func runLikes(a *app, o *options, args []string) error {
	if err := maxArgs(args, 1); err != nil {
		return err
	}
	lib, err := a.decodeLibrary(args, 0)
	if err != nil {
		return err
	}
	fmt.Fprint(a.stdout, report.Likes(lib, orDefault(o.examples, a.cfg.Report.Examples)))
	return nil
}

func runSearch(a *app, o *options, args []string) error {
	if len(args) == 0 {
		return usageError("missing title")
	}
	if err := maxArgs(args, 2); err != nil {
		return err
	}
	query := args[len(args)-1]
	fileArgs := args[:len(args)-1]

	if o.dbPath != "" {
		if o.fuzzy || o.playlists {
			return usageError("--db cannot be combined with --fuzzy or --playlists")
		}
		return a.searchDB(o.dbPath, query, o.limit)
	}

	lib, err := a.decodeLibrary(fileArgs, 0)
	if err != nil {
		return err
	}
	if o.playlists {
		fmt.Fprint(a.stdout, report.PlaylistMatches(query, search.Playlists(lib, query, o.limit)))
		return nil
	}
	if o.fuzzy {
		fmt.Fprint(a.stdout, report.FuzzyResults(query, search.Tracks(lib, query, o.limit)))
		return nil
	}
	fmt.Fprint(a.stdout, report.SearchResults(query, lib.SearchTitle(query)))
	return nil
}

func (a *app) searchDB(path, query string, limit int) error {
	path, err := existingFile(path)
	if err != nil {
		return err
	}
	s, err := store.Open(path)
	if err != nil {
		return fail(errmsg.OpExportOpen, path, err)
	}
	defer s.Close()

	info, err := s.Info()
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return usageError("%s holds no exported library", path)
		}
		return fail(errmsg.OpSearch, query, err)
	}
	a.log.Debug("searching export", "source", info.SourcePath, "library", info.LibraryID, "version", info.Version)

	hits, err := s.SearchTracks(query, limit)
	if err != nil {
		return fail(errmsg.OpSearch, query, err)
	}
	tracks := make([]library.Track, len(hits))
	for i, h := range hits {
		tracks[i] = library.Track{ID: h.ID, Title: h.Title, Artist: h.Artist, Album: h.Album}
	}
	fmt.Fprint(a.stdout, report.Hits(query, tracks))
	return nil
}

func runCompare(a *app, _ *options, args []string) error {
	if len(args) != 2 {
		return usageError("compare needs exactly two files")
	}
	bufA, err := a.decodePayload(args[0])
	if err != nil {
		return err
	}
	bufB, err := a.decodePayload(args[1])
	if err != nil {
		return err
	}
	fmt.Fprint(a.stdout, report.Compare(bufA, bufB, inspect.Diff(bufA, bufB)))
	return nil
}

func runDumpOffset(a *app, o *options, args []string) error {
	if len(args) != 2 {
		return usageError("dump-offset needs a file and an offset")
	}
	offset, err := inspect.ParseOffset(args[1])
	if err != nil {
		return usageError("%v", err)
	}
	buf, err := a.decodePayload(args[0])
	if err != nil {
		return err
	}
	if err := inspect.Dump(a.stdout, buf, offset, orDefault(o.radius, inspect.DefaultRadius)); err != nil {
		return fail(errmsg.OpDump, args[0], err)
	}
	return nil
}

func runExport(a *app, o *options, args []string) error {
	if err := maxArgs(args, 1); err != nil {
		return err
	}
	lib, err := a.decodeLibrary(args, 0)
	if err != nil {
		return err
	}

	dbPath := o.dbPath
	if dbPath == "" {
		dbPath = a.cfg.Export.DBPath
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return fail(errmsg.OpExportOpen, dbPath, err)
	}
	defer s.Close()

	if err := s.Export(lib); err != nil {
		return fail(errmsg.OpExportWrite, dbPath, err)
	}
	counts, err := s.Counts()
	if err != nil {
		return fail(errmsg.OpExportWrite, dbPath, err)
	}
	a.log.Info("library exported", "db", dbPath, "tracks", counts["tracks"])
	fmt.Fprint(a.stdout, report.Exported(dbPath, counts))
	return nil
}

func runVerify(a *app, o *options, args []string) error {
	if err := maxArgs(args, 1); err != nil {
		return err
	}
	lib, err := a.decodeLibrary(args, 0)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := verify.Options{
		Limit:             o.limit,
		Workers:           o.workers,
		DurationTolerance: verify.DefaultDurationTolerance,
		Log:               a.log,
	}

	var progressDone chan struct{}
	if a.tty != nil && spinner.IsTerminal(a.tty) {
		progress := make(chan verify.Progress, 16)
		progressDone = make(chan struct{})
		opts.Progress = progress
		go func() {
			defer close(progressDone)
			for p := range progress {
				fmt.Fprintf(a.tty, "\rChecked %d/%d", p.Current, p.Total)
			}
			fmt.Fprint(a.tty, "\r\033[K")
		}()
	}

	res, err := verify.Run(ctx, lib, opts)
	if opts.Progress != nil {
		close(opts.Progress)
		<-progressDone
	}
	if err != nil {
		return fail(errmsg.OpVerify, lib.Path, err)
	}
	fmt.Fprint(a.stdout, report.Verify(res))
	return nil
}

func runDiag(a *app, _ *options, args []string) error {
	if err := maxArgs(args, 1); err != nil {
		return err
	}
	lib, err := a.decodeLibrary(args, 0)
	if err != nil {
		return err
	}
	fmt.Fprint(a.stdout, report.Diagnostics(lib))
	return nil
}
