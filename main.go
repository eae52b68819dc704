package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/pitetb/AppMusicLibParser/internal/config"
	"github.com/pitetb/AppMusicLibParser/internal/errmsg"
	"github.com/pitetb/AppMusicLibParser/internal/logging"
	"github.com/pitetb/AppMusicLibParser/internal/musicdb"
)

const usageHeader = `musicdb reads Apple Music Library.musicdb files.

Usage:
  musicdb <command> [arguments] [flags]

Commands:
`

// errUsage marks errors caused by bad arguments; usage is printed with them.
var errUsage = errors.New("usage")

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// opError ties a failure to the operation shown to the user.
type opError struct {
	op      errmsg.Op
	context string
	err     error
}

func (e *opError) Error() string { return errmsg.FormatWith(e.op, e.context, e.err) }

func (e *opError) Unwrap() error { return e.err }

func fail(op errmsg.Op, context string, err error) error {
	return &opError{op: op, context: context, err: err}
}

type app struct {
	cfg    *config.Config
	log    *slog.Logger
	stdout io.Writer
	stderr io.Writer
	// tty is where the decode spinner draws; nil disables it.
	tty *os.File
}

type command struct {
	name    string
	args    string
	summary string
	flags   func(fs *flag.FlagSet, o *options)
	run     func(a *app, o *options, args []string) error
}

// options holds every command's flags; each command registers the ones it uses.
type options struct {
	top       int
	count     int
	examples  int
	fuzzy     bool
	playlists bool
	limit     int
	dbPath    string
	radius    int
	workers   int
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stdout)
		if len(args) == 0 {
			return 1
		}
		return 0
	}

	cmd, ok := lookup(args[0])
	if !ok {
		fmt.Fprintf(stderr, "Unknown command %q\n\n", args[0])
		printUsage(stderr)
		return 1
	}

	var opts options
	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: musicdb %s %s\n\n%s\n", cmd.name, cmd.args, cmd.summary)
		if fs.HasFlags() {
			fmt.Fprintf(stderr, "\nFlags:\n%s", fs.FlagUsages())
		}
	}
	if cmd.flags != nil {
		cmd.flags(fs, &opts)
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, errmsg.Format(errmsg.OpConfigLoad, err))
		return 1
	}
	log, err := logging.New(stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(stderr, errmsg.Format(errmsg.OpLogSetup, err))
		return 1
	}

	a := &app{cfg: cfg, log: log, stdout: stdout, stderr: stderr}
	if f, ok := stderr.(*os.File); ok {
		a.tty = f
	}
	if err := cmd.run(a, &opts, fs.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "Error: %s\n\n", strings.TrimPrefix(err.Error(), errUsage.Error()+": "))
			fs.Usage()
			return 1
		}
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func lookup(name string) (command, bool) {
	for _, c := range commands() {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printUsage(w io.Writer) {
	cmds := commands()
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].name < cmds[j].name })

	fmt.Fprint(w, usageHeader)
	for _, c := range cmds {
		fmt.Fprintf(w, "  %-12s %s\n", c.name, c.summary)
	}
	fmt.Fprint(w, `
FILE defaults to library_path from the configuration. The decryption key is
read from aes_key in config.toml or the MUSICDB_AES_KEY environment variable.
`)
}

// decoder builds a decoder from the configured key.
func (a *app) decoder() (*musicdb.Decoder, error) {
	key, err := a.cfg.Key()
	if err != nil {
		return nil, fail(errmsg.OpKeyLoad, "", err)
	}
	c, err := musicdb.NewCipher(key)
	if err != nil {
		return nil, fail(errmsg.OpKeyLoad, "", err)
	}
	return musicdb.NewDecoder(c, musicdb.WithLogger(a.log)), nil
}

// libraryPath resolves the optional FILE argument against the configured
// default and checks the file exists.
func (a *app) libraryPath(args []string, pos int) (string, error) {
	path := a.cfg.LibraryPath
	if len(args) > pos {
		path = args[pos]
	}
	if path == "" {
		return "", usageError("no library file given and library_path is not configured")
	}
	return existingFile(path)
}

func existingFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", usageError("file does not exist: %s", path)
		}
		return "", fail(errmsg.OpLibraryDecode, path, err)
	}
	if info.IsDir() {
		return "", usageError("not a file: %s", path)
	}
	return path, nil
}
