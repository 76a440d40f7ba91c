// Package config resolves ndcat's data directory and loads its TOML
// settings file, mirroring the storage-location resolution the teacher
// keeps next to its database layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	dirName      = ".ndcat"
	settingsFile = "settings.toml"

	// DefaultCatalogRefresh is how stale a catalog datafile must be
	// before the Freshness Scheduler re-fetches it.
	DefaultCatalogRefresh = 2 * 24 * time.Hour
	// DefaultCuesheetRefresh is how stale the cuesheet archive must be
	// before it is re-fetched.
	DefaultCuesheetRefresh = 7 * 24 * time.Hour
)

// Settings holds the on-disk overrides a user may set in
// "<data-dir>/settings.toml".
type Settings struct {
	CatalogRefreshDays  int    `toml:"catalog_refresh_days"`
	CuesheetRefreshDays int    `toml:"cuesheet_refresh_days"`
	ChdmanPath          string `toml:"chdman_path"`
}

// CatalogRefresh returns the configured catalog refresh delay, falling
// back to DefaultCatalogRefresh when unset.
func (s Settings) CatalogRefresh() time.Duration {
	if s.CatalogRefreshDays <= 0 {
		return DefaultCatalogRefresh
	}
	return time.Duration(s.CatalogRefreshDays) * 24 * time.Hour
}

// CuesheetRefresh returns the configured cuesheet refresh delay,
// falling back to DefaultCuesheetRefresh when unset.
func (s Settings) CuesheetRefresh() time.Duration {
	if s.CuesheetRefreshDays <= 0 {
		return DefaultCuesheetRefresh
	}
	return time.Duration(s.CuesheetRefreshDays) * 24 * time.Hour
}

// DataDir resolves the directory ndcat stores its catalog and cuesheet
// databases in, creating it if necessary.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory %q: %w", dir, err)
	}
	return dir, nil
}

// Load reads "settings.toml" out of dataDir, returning zero-value
// Settings (meaning: use the defaults) when the file does not exist.
func Load(dataDir string) (Settings, error) {
	path := filepath.Join(dataDir, settingsFile)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read %q: %w", path, err)
	}
	var s Settings
	if err := toml.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("parse %q: %w", path, err)
	}
	return s, nil
}
