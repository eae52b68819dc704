package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/pitetb/AppMusicLibParser/internal/musicdb"
)

const (
	appName   = "musicdb"
	envPrefix = "MUSICDB_"
)

type Config struct {
	AESKey      string `koanf:"aes_key"`      // 16 ASCII characters
	LibraryPath string `koanf:"library_path"` // file used when a command gets no path
	LogLevel    string `koanf:"log_level"`    // "debug", "info", "warn" or "error"

	Export ExportConfig `koanf:"export"`
	Report ReportConfig `koanf:"report"`
}

// ExportConfig holds SQLite export settings.
type ExportConfig struct {
	DBPath string `koanf:"db_path"`
}

// ReportConfig holds defaults for report sizes.
type ReportConfig struct {
	Top      int `koanf:"top"`      // most played tracks shown by stats (default: 5)
	Examples int `koanf:"examples"` // tracks listed per group by ratings and likes (default: 10)
}

// Sources lists where configuration is read from.
type Sources struct {
	Files  []string // TOML files, later files win
	DotEnv string   // .env file loaded into the environment; empty to skip
}

// DefaultSources returns the standard lookup order.
func DefaultSources() Sources {
	return Sources{Files: getConfigPaths(), DotEnv: ".env"}
}

func Load() (*Config, error) {
	return LoadFrom(DefaultSources())
}

// LoadFrom reads TOML files in order, then the environment. Variables from
// the .env file never override ones already set in the process.
func LoadFrom(src Sources) (*Config, error) {
	k := koanf.New(".")

	for _, path := range src.Files {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
	}

	if src.DotEnv != "" {
		if err := godotenv.Load(src.DotEnv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", src.DotEnv, err)
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel: "warn",
		Export:   ExportConfig{DBPath: defaultDBPath()},
		Report:   ReportConfig{Top: 5, Examples: 10},
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.LibraryPath = expandPath(cfg.LibraryPath)
	cfg.Export.DBPath = expandPath(cfg.Export.DBPath)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if cfg.Report.Top <= 0 {
		cfg.Report.Top = 5
	}
	if cfg.Report.Examples <= 0 {
		cfg.Report.Examples = 10
	}

	return cfg, nil
}

// envKey maps MUSICDB_EXPORT_DB_PATH to export.db_path.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, section := range []string{"export", "report"} {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return section + "." + rest
		}
	}
	return key
}

// Key returns the validated decryption key.
func (c *Config) Key() ([]byte, error) {
	if c.AESKey == "" {
		return nil, fmt.Errorf("%w: aes_key is not set (config.toml or %sAES_KEY)", musicdb.ErrConfiguration, envPrefix)
	}
	if len(c.AESKey) != musicdb.KeySize {
		return nil, fmt.Errorf("%w: aes_key must be %d characters, got %d", musicdb.ErrConfiguration, musicdb.KeySize, len(c.AESKey))
	}
	for i := 0; i < len(c.AESKey); i++ {
		if c.AESKey[i] >= 0x80 {
			return nil, fmt.Errorf("%w: aes_key must be ASCII, byte %d is 0x%02X", musicdb.ErrConfiguration, i, c.AESKey[i])
		}
	}
	return []byte(c.AESKey), nil
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/musicdb/config.toml
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
}

func defaultDBPath() string {
	return filepath.Join(xdg.DataHome, appName, "library.db")
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
