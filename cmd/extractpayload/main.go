// Development helper: writes the decoded payload of library files to disk
// so they can be inspected with a hex editor.
package main

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pitetb/AppMusicLibParser/internal/config"
	"github.com/pitetb/AppMusicLibParser/internal/musicdb"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <file.musicdb|dir>... ", filepath.Base(os.Args[0]))
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	key, err := cfg.Key()
	if err != nil {
		log.Fatalf("Failed to load key: %v", err)
	}
	c, err := musicdb.NewCipher(key)
	if err != nil {
		log.Fatalf("Failed to create cipher: %v", err)
	}
	dec := musicdb.NewDecoder(c)

	var files []string
	for _, arg := range os.Args[1:] {
		found, err := getLibraryFiles(arg)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", arg, err)
		}
		files = append(files, found...)
	}
	log.Printf("Found %d library files", len(files))

	failed := 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			log.Printf("  ERROR: %v", err)
			failed++
			continue
		}
		h, buf, err := dec.DecodePayload(data)
		if err != nil {
			log.Printf("  ERROR %s: %v", filepath.Base(file), err)
			failed++
			continue
		}

		out := file + ".decoded"
		if err := os.WriteFile(out, buf, 0o644); err != nil {
			log.Printf("  ERROR: %v", err)
			failed++
			continue
		}
		log.Printf("%s: version %s, library %016X, %d bytes -> %s (%d bytes)",
			filepath.Base(file), h.Version, h.LibraryID, len(data), out, len(buf))
	}

	if failed > 0 {
		log.Fatalf("%d of %d files failed", failed, len(files))
	}
}

// getLibraryFiles returns path itself, or the sorted .musicdb files in it
// when it is a directory.
func getLibraryFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".musicdb") {
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}

	sort.Strings(files)
	return files, nil
}
