// Package config loads firedoc settings from a TOML file.
//
// A missing file yields the defaults; keys present in the file override
// them. Command-line flags are applied on top by the CLI.
//
//	[store]
//	backend = "sqlite"
//	path = "~/.firedoc/documents.db"
//
//	[output]
//	format = "text"
//
//	[log]
//	level = "warn"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/roach88/firedoc/internal/store"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the full settings tree.
type Config struct {
	Store  StoreConfig  `toml:"store"`
	Output OutputConfig `toml:"output"`
	Log    LogConfig    `toml:"log"`
}

// StoreConfig selects and locates the substrate.
type StoreConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// OutputConfig controls command output.
type OutputConfig struct {
	Format string `toml:"format"`
}

// LogConfig controls the stderr log handler.
type LogConfig struct {
	Level string `toml:"level"`
}

// Dir returns the firedoc home directory, ~/.firedoc.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".firedoc"), nil
}

// DefaultPath returns ~/.firedoc/config.toml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Default returns the built-in settings. The database lives next to the
// config file; if the home directory is unknown it falls back to the
// working directory.
func Default() *Config {
	dbPath := "firedoc.db"
	if dir, err := Dir(); err == nil {
		dbPath = filepath.Join(dir, "documents.db")
	}
	return &Config{
		Store:  StoreConfig{Backend: store.BackendSQLite, Path: dbPath},
		Output: OutputConfig{Format: FormatText},
		Log:    LogConfig{Level: "warn"},
	}
}

// Load reads file over the defaults. A missing file is not an error.
func Load(file string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %s", file, row, col, derr.Error())
		}
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			return nil, fmt.Errorf("%s: %s", file, strings.TrimSpace(serr.String()))
		}
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	cfg.Store.Path = expandHome(cfg.Store.Path)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return cfg, nil
}

// Save writes c to file, creating its directory.
func (c *Config) Save(file string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(file, data, 0o600)
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case store.BackendSQLite, store.BackendMemory:
	default:
		return fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend)
	}
	if c.Store.Backend == store.BackendSQLite && c.Store.Path == "" {
		return fmt.Errorf("store.path: required for the sqlite backend")
	}
	switch c.Output.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("output.format: unknown format %q", c.Output.Format)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Keys lists the settable keys in file order.
func Keys() []string {
	return []string{"store.backend", "store.path", "output.format", "log.level"}
}

// Get returns the value of a dotted key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "store.backend":
		return c.Store.Backend, nil
	case "store.path":
		return c.Store.Path, nil
	case "output.format":
		return c.Output.Format, nil
	case "log.level":
		return c.Log.Level, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Set assigns a dotted key and re-validates.
func (c *Config) Set(key, val string) error {
	next := *c
	switch key {
	case "store.backend":
		next.Store.Backend = val
	case "store.path":
		next.Store.Path = expandHome(val)
	case "output.format":
		next.Output.Format = val
	case "log.level":
		next.Log.Level = val
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// ParseLevel maps debug, info, warn or error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
