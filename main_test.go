package main

import (
	"bytes"
	"compress/zlib"
	"crypto/aes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef"

// writeLibrary writes a minimal library file whose decoded payload starts
// with the end marker, i.e. an empty library.
func writeLibrary(t *testing.T, dir, name string) string {
	t.Helper()

	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	decoded := make([]byte, 512)
	for i := 16; i < len(decoded); i++ {
		decoded[i] = byte(i * 7 % 251)
	}
	_, err := zw.Write(decoded)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	payload := z.Bytes()

	block, err := aes.NewCipher([]byte(testKey))
	require.NoError(t, err)
	for i := 0; i+aes.BlockSize <= len(payload); i += aes.BlockSize {
		block.Encrypt(payload[i:i+aes.BlockSize], payload[i:i+aes.BlockSize])
	}

	header := make([]byte, 160)
	copy(header, "hfma")
	binary.LittleEndian.PutUint32(header[4:], 160)
	binary.LittleEndian.PutUint32(header[8:], uint32(160+len(payload)))
	copy(header[16:], "1.14.3")
	binary.LittleEndian.PutUint64(header[48:], 0xA1B2C3D4E5F60718)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, append(header, payload...), 0o600))
	return path
}

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MUSICDB_AES_KEY", testKey)
	t.Setenv("MUSICDB_LIBRARY_PATH", "")
	t.Setenv("MUSICDB_LOG_LEVEL", "error")
}

func runCLI(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, ansi.Strip(out.String()), errOut.String()
}

func TestRun_Usage(t *testing.T) {
	code, out, _ := runCLI()
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Commands:")
	assert.Contains(t, out, "dump-offset")

	code, out, _ = runCLI("--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "verify")
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, errOut := runCLI("play")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `Unknown command "play"`)
}

func TestRun_BadFlag(t *testing.T) {
	setupEnv(t)
	code, _, errOut := runCLI("stats", "--nope")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown flag")
}

func TestRun_MissingFile(t *testing.T) {
	setupEnv(t)
	code, _, errOut := runCLI("info", filepath.Join(t.TempDir(), "Library.musicdb"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "file does not exist")
	assert.Contains(t, errOut, "Usage: musicdb info [FILE]")
}

func TestRun_NoFileConfigured(t *testing.T) {
	setupEnv(t)
	code, _, errOut := runCLI("stats")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "library_path is not configured")
}

func TestRun_MissingKey(t *testing.T) {
	setupEnv(t)
	t.Setenv("MUSICDB_AES_KEY", "")
	path := writeLibrary(t, t.TempDir(), "Library.musicdb")

	code, _, errOut := runCLI("info", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Failed to load decryption key")
}

func TestRun_NotALibrary(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a library"), 0o600))

	code, _, errOut := runCLI("diag", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Failed to decode library")
}

func TestRun_Info(t *testing.T) {
	setupEnv(t)
	path := writeLibrary(t, t.TempDir(), "Library.musicdb")

	code, out, errOut := runCLI("info", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "A1B2C3D4E5F60718")
	assert.Contains(t, out, "1.14.3")
	assert.Contains(t, out, "Tracks:    0")
}

func TestRun_LibraryPathFromConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("MUSICDB_LIBRARY_PATH", writeLibrary(t, t.TempDir(), "Library.musicdb"))

	code, out, errOut := runCLI("diag")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Reached the end of the buffer")
}

func TestRun_ExportAndSearchDB(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	path := writeLibrary(t, dir, "Library.musicdb")
	db := filepath.Join(dir, "out", "library.db")

	code, out, errOut := runCLI("export", path, "--db", db)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "exported 0 tracks")
	assert.FileExists(t, db)

	code, out, errOut = runCLI("search", "--db", db, "abbey")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, `No track matches "abbey"`)

	empty := filepath.Join(dir, "empty.db")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	code, _, errOut = runCLI("search", "--db", empty, "abbey")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "holds no exported library")
}

func TestRun_Search(t *testing.T) {
	setupEnv(t)
	path := writeLibrary(t, t.TempDir(), "Library.musicdb")

	code, _, errOut := runCLI("search")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "missing title")

	code, out, errOut := runCLI("search", path, "come")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, `No track title contains "come"`)

	code, out, errOut = runCLI("search", "--fuzzy", path, "come")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, `No track matches "come"`)

	code, out, errOut = runCLI("search", "-p", path, "road")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, `No playlist matches "road"`)

	code, _, errOut = runCLI("search", "--db", "x.db", "--fuzzy", "come")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "cannot be combined")
}

func TestRun_CompareAndDump(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	a := writeLibrary(t, dir, "a.musicdb")
	b := writeLibrary(t, dir, "b.musicdb")

	code, out, errOut := runCLI("compare", a, b)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Buffers are identical")

	code, _, errOut = runCLI("compare", a)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "exactly two files")

	code, out, errOut = runCLI("dump-offset", a, "0x10", "--radius", "8")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Offset 0x10, context [0x8-0x18]")
	assert.Contains(t, out, "[70]")

	code, _, errOut = runCLI("dump-offset", a, "zz")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "invalid offset")

	code, _, errOut = runCLI("dump-offset", a, "0x1000")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Failed to dump payload")
}

func TestRun_StatsRatingsLikesVerify(t *testing.T) {
	setupEnv(t)
	path := writeLibrary(t, t.TempDir(), "Library.musicdb")

	for _, args := range [][]string{
		{"stats", path, "--top", "3"},
		{"ratings", path, "-n", "2"},
		{"likes", path},
		{"verify", path, "--limit", "5"},
	} {
		code, _, errOut := runCLI(args...)
		assert.Equal(t, 0, code, "%v: %s", args, errOut)
	}
}

func TestRun_ExtraArguments(t *testing.T) {
	setupEnv(t)
	code, _, errOut := runCLI("info", "a", "b")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unexpected arguments: b")
}
