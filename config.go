package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mcnull/keytrack/keystate"
	"go.yaml.in/yaml/v3"
)

// ----------------------------------------------------------------------

const maxConfigFileBytes int64 = 1 << 20 // 1MB

const keyboardEnvVar = "KEYTRACK_KEYBOARD"

// ComboConfig names a key combination to report.
type ComboConfig struct {
	Name string `yaml:"name"`
	Keys string `yaml:"keys"`
}

// Config is the keytrack runtime configuration.
type Config struct {
	// Keyboard is the evdev device path, e.g. /dev/input/by-id/...-event-kbd.
	// KEYTRACK_KEYBOARD overrides it.
	Keyboard string `yaml:"keyboard"`

	// ConflateModifiers rewrites left/right Shift, Control and Alt events to
	// their generic codes before they reach the tracker, the way the game
	// host delivers them.
	ConflateModifiers bool `yaml:"conflate_modifiers"`

	// LegacyKeyUpProbe selects the original cross-wired key-up probe table.
	LegacyKeyUpProbe bool `yaml:"legacy_key_up_probe"`

	LogLevel  string        `yaml:"log_level"`
	ExitCombo string        `yaml:"exit_combo"`
	Combos    []ComboConfig `yaml:"combos"`
}

// watchedCombo is a validated ComboConfig.
type watchedCombo struct {
	name  string
	combo keystate.Combo
}

// ----------------------------------------------------------------------

func DefaultConfig() Config {
	return Config{
		ConflateModifiers: true,
		LogLevel:          "info",
		ExitCombo:         "LeftControl+F12",
	}
}

// ----------------------------------------------------------------------

// DefaultConfigPath returns $XDG_CONFIG_HOME/keytrack/config.yaml, falling
// back to ~/.config and then to the temp dir.
func DefaultConfigPath() string {

	base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))

	if base == "" {
		home, err := os.UserHomeDir()

		if err != nil {
			slog.Warn("[config] using temp dir as config path fallback", "error", err)
			base = os.TempDir()
		} else {
			base = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(base, "keytrack", "config.yaml")
}

// ----------------------------------------------------------------------

// LoadConfig reads the config file at path. A missing or empty file yields
// the defaults. The keyboard env var wins over the file.
func LoadConfig(path string) (Config, error) {

	cfg := DefaultConfig()

	raw, err := readLimitedFile(path, maxConfigFileBytes)

	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("[config] no config file, using defaults", "path", path)
	case err != nil:
		return cfg, err
	case len(raw) > 0:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return DefaultConfig(), fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if keyboard := strings.TrimSpace(os.Getenv(keyboardEnvVar)); keyboard != "" {
		cfg.Keyboard = keyboard
	}

	return cfg, nil
}

func readLimitedFile(path string, limit int64) ([]byte, error) {

	file, err := os.Open(path)

	if err != nil {
		return nil, err
	}

	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, limit+1))

	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if int64(len(raw)) > limit {
		return nil, fmt.Errorf("config %s exceeds %d bytes", path, limit)
	}

	return raw, nil
}

// ----------------------------------------------------------------------

func (cfg Config) logLevel() (slog.Level, error) {
	var level slog.Level
	if cfg.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	return level, nil
}

// ----------------------------------------------------------------------

func (cfg Config) exitCombo() (keystate.Combo, error) {
	combo, err := keystate.ParseCombo(cfg.ExitCombo)
	if err != nil {
		return keystate.Combo{}, fmt.Errorf("exit_combo: %w", err)
	}
	return combo, nil
}

// ----------------------------------------------------------------------

func (cfg Config) watchedCombos() ([]watchedCombo, error) {

	combos := make([]watchedCombo, 0, len(cfg.Combos))
	seen := make(map[string]struct{}, len(cfg.Combos))

	for i, entry := range cfg.Combos {
		name := strings.TrimSpace(entry.Name)

		if name == "" {
			return nil, fmt.Errorf("combos[%d]: name is required", i)
		}

		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("combos[%d]: duplicate name %q", i, name)
		}

		seen[name] = struct{}{}

		combo, err := keystate.ParseCombo(entry.Keys)

		if err != nil {
			return nil, fmt.Errorf("combos[%d] %q: %w", i, name, err)
		}

		combos = append(combos, watchedCombo{name: name, combo: combo})
	}

	return combos, nil
}
