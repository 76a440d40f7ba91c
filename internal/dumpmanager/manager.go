// Package dumpmanager composes the Catalog Store, the Cuesheet
// subsystem, and the curator fetchers into the single entry point the
// CLI drives: reconcile the stores against the network, then verify
// dumps on disk against whatever the stores now know.
package dumpmanager

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/retronian/ndcat/internal/catalog"
	"github.com/retronian/ndcat/internal/config"
	"github.com/retronian/ndcat/internal/cuesheet"
	"github.com/retronian/ndcat/internal/curator"
	"github.com/retronian/ndcat/internal/logiqx"
	"github.com/retronian/ndcat/internal/verify"
)

// Manager owns the long-lived stores and the curator client used to
// keep them current.
type Manager struct {
	Catalog   *catalog.Store
	Cuesheets *cuesheet.Store
	Verifier  *verify.Verifier
	source    *curator.Source
	settings  config.Settings
	log       *zap.Logger
}

// Open initializes both stores under dataDir and wires a fresh curator
// client against them.
func Open(ctx context.Context, dataDir string, settings config.Settings, log *zap.Logger) (*Manager, error) {
	catalogStore, err := catalog.Open(ctx, filepath.Join(dataDir, "catalog.db"))
	if err != nil {
		return nil, err
	}
	cuesheetStore, err := cuesheet.Open(ctx, filepath.Join(dataDir, "cuesheets.db"))
	if err != nil {
		catalogStore.Close()
		return nil, err
	}

	client, err := curator.NewClient()
	if err != nil {
		catalogStore.Close()
		cuesheetStore.Close()
		return nil, err
	}
	source := curator.NewSource(client)

	chdmanBin := settings.ChdmanPath
	if chdmanBin == "" {
		chdmanBin = "chdman"
	}
	verifier := verify.New(catalogStore, cuesheetStore, chdmanBin)

	return &Manager{
		Catalog:   catalogStore,
		Cuesheets: cuesheetStore,
		Verifier:  verifier,
		source:    source,
		settings:  settings,
		log:       log,
	}, nil
}

// Close releases both stores.
func (m *Manager) Close() error {
	cuesheetErr := m.Cuesheets.Close()
	catalogErr := m.Catalog.Close()
	if catalogErr != nil {
		return catalogErr
	}
	return cuesheetErr
}

// Sync reconciles the catalog against every tracked console, then the
// PSX cuesheet archive if it has gone stale.
func (m *Manager) Sync(ctx context.Context, now int64) error {
	m.log.Info("reconciling catalog against curators")
	if err := m.Catalog.UpdateAllConsoles(ctx, m.source, m.settings.CatalogRefresh(), now); err != nil {
		m.log.Warn("one or more consoles failed to update", zap.Error(err))
		return err
	}

	const psxSlug = "psx"
	last, known, err := m.Cuesheets.LastUpdated(ctx, psxSlug)
	if err != nil {
		return err
	}
	if known && now-last < m.settings.CuesheetRefresh().Milliseconds() {
		m.log.Debug("psx cuesheets still fresh, skipping")
		return nil
	}

	m.log.Info("refreshing psx cuesheets")
	cues, err := m.source.FetchRedumpCuesheets(ctx, psxSlug)
	if err != nil {
		return err
	}
	imported, skipped, err := m.Cuesheets.ImportCues(ctx, m.Catalog, cues)
	if err != nil {
		return err
	}
	m.log.Info("psx cuesheets refreshed", zap.Int("imported", imported), zap.Int("skipped", skipped))
	return m.Cuesheets.Touch(ctx, psxSlug, now)
}

// ImportFile parses a single datafile on disk and imports it under the
// Datafile identified by name/author.
func (m *Manager) ImportFile(ctx context.Context, path, datafileName string, author catalog.Author, now int64) (catalog.ImportCounts, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return catalog.ImportCounts{}, err
	}
	parsed, err := logiqx.Parse(raw)
	if err != nil {
		return catalog.ImportCounts{}, err
	}
	df, err := m.Catalog.GetOrCreateDatafile(ctx, datafileName, author)
	if err != nil {
		return catalog.ImportCounts{}, err
	}
	return m.Catalog.Import(ctx, df, parsed, now)
}

// VerifyTree walks root and reports the verification status of every
// ordinary file found under it. A file whose verification returns an
// error is logged and left out of the result.
func (m *Manager) VerifyTree(ctx context.Context, root string) (map[string]verify.Status, error) {
	results := make(map[string]verify.Status)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		status, verifyErr := m.Verifier.Verify(ctx, path)
		if verifyErr != nil {
			m.log.Warn("failed to verify dump", zap.String("path", path), zap.Error(verifyErr))
			return nil
		}
		results[path] = status
		return nil
	})
	return results, err
}
