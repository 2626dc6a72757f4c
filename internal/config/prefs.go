package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"portafoglio/internal/core"
)

// Prefs are per-user display defaults kept in a TOML file next to the
// session vault.
type Prefs struct {
	Currency    string `toml:"currency"`
	DefaultKind string `toml:"default_kind"`
	// Budget is the amount used by "budget set" when none is given.
	Budget string `toml:"budget,omitempty"`
}

// DefaultPrefs is used when the file does not exist.
func DefaultPrefs() Prefs {
	return Prefs{Currency: "EUR", DefaultKind: string(core.Expense)}
}

// PrefsPath is prefs.toml in the directory holding the session vault.
func (c *Config) PrefsPath() string {
	return filepath.Join(filepath.Dir(c.SessionDBPath), "prefs.toml")
}

// LoadPrefs reads path, falling back to DefaultPrefs for a missing file
// and for fields left out of it.
func LoadPrefs(path string) (Prefs, error) {
	p := DefaultPrefs()
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("read prefs: %w", err)
	}
	if err := toml.Unmarshal(raw, &p); err != nil {
		return DefaultPrefs(), fmt.Errorf("parse prefs %s: %w", path, err)
	}
	if !core.Kind(p.DefaultKind).Valid() {
		return DefaultPrefs(), fmt.Errorf("prefs %s: default_kind must be income or expense", path)
	}
	return p, nil
}

// SavePrefs writes p to path.
func SavePrefs(path string, p Prefs) error {
	raw, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create prefs directory: %w", err)
	}
	return os.WriteFile(path, raw, 0o600)
}
