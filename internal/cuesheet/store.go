package cuesheet

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// StorageError wraps a failure talking to the cuesheet database.
type StorageError struct {
	Message string
	Cause   error
}

func (e *StorageError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }

func storageErr(message string, cause error) error {
	return &StorageError{Message: message, Cause: cause}
}

// ROMLookup resolves a ROM filename (as it would appear inside a cue's
// FILE directive) to the sha1 the catalog already has on record for it.
// Cuesheet import uses this to learn which sha1 a neutralized cuesheet
// actually verifies, since Redump's cuesheet archive carries no hashes
// of its own.
type ROMLookup interface {
	LookupROMSHA1ByName(ctx context.Context, name string) (sha1 [20]byte, found bool, err error)
}

// Store is the Cuesheet subsystem: a small SQLite database keyed by
// (console, last_updated) freshness rows and a (sha1, neutralized
// content) table used to verify PSX dumps shipped as .cue/.bin pairs.
type Store struct {
	db *sql.DB
}

// Open initializes (or re-opens) a Cuesheet Store at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, storageErr("failed to open cuesheet DB", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, storageErr("failed to configure cuesheet DB", err)
		}
	}

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS "cuesheets" (
			"console" TEXT NOT NULL UNIQUE,
			"last_updated" INTEGER NOT NULL,
			PRIMARY KEY("console")
		)`,
		`CREATE TABLE IF NOT EXISTS "cues" (
			"sha1" BLOB NOT NULL UNIQUE,
			"content" TEXT NOT NULL,
			PRIMARY KEY("sha1")
		)`,
		`CREATE INDEX IF NOT EXISTS "content_to_cue" ON "cues" ("content")`,
	}
	for _, stmt := range ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, storageErr("failed to create tables in cuesheet DB", err)
		}
	}

	return &Store{db: db}, nil
}

// Close runs a VACUUM and PRAGMA optimize, then releases the connection.
func (s *Store) Close() error {
	if _, err := s.db.Exec("VACUUM"); err != nil {
		s.db.Close()
		return storageErr("failed to vacuum cuesheet DB", err)
	}
	if _, err := s.db.Exec("PRAGMA optimize"); err != nil {
		s.db.Close()
		return storageErr("failed to optimize cuesheet DB", err)
	}
	return s.db.Close()
}

// LastUpdated reports when console's cuesheets were last refreshed, and
// whether that console has ever been refreshed at all.
func (s *Store) LastUpdated(ctx context.Context, console string) (int64, bool, error) {
	var last int64
	err := s.db.QueryRowContext(ctx, "SELECT last_updated FROM cuesheets WHERE console = ?", console).Scan(&last)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, storageErr("failed to retrieve cuesheet freshness", err)
	}
	return last, true, nil
}

// Touch records that console's cuesheets were refreshed at now.
func (s *Store) Touch(ctx context.Context, console string, now int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cuesheets (console, last_updated) VALUES (?, ?)
		 ON CONFLICT(console) DO UPDATE SET last_updated = excluded.last_updated`,
		console, now)
	if err != nil {
		return storageErr("failed to update cuesheet freshness", err)
	}
	return nil
}

// FindSHA1ByContent looks a ROM's sha1 up from a local, already
// neutralized cuesheet — the verifier's actual path: neutralize the
// dump's own cue, find what it matches.
func (s *Store) FindSHA1ByContent(ctx context.Context, content string) ([20]byte, bool, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, "SELECT sha1 FROM cues WHERE content = ?", content).Scan(&raw)
	if err == sql.ErrNoRows {
		return [20]byte{}, false, nil
	}
	if err != nil {
		return [20]byte{}, false, storageErr("failed to retrieve cuesheet", err)
	}
	var sha1 [20]byte
	copy(sha1[:], raw)
	return sha1, true, nil
}

// ImportCues neutralizes and stores every cue in cues (keyed by archive
// filename), resolving each one's verifying sha1 via lookup. A cue
// whose filename doesn't resolve to any known ROM is skipped rather
// than failing the whole import — not every archive member necessarily
// corresponds to a cataloged game yet.
func (s *Store) ImportCues(ctx context.Context, lookup ROMLookup, cues map[string][]byte) (imported, skipped int, err error) {
	for filename, raw := range cues {
		stem := strings.TrimSuffix(filename, filepath.Ext(filename))
		sha1, found, lookupErr := lookup.LookupROMSHA1ByName(ctx, stem+".cue")
		if lookupErr != nil {
			return imported, skipped, lookupErr
		}
		if !found {
			skipped++
			continue
		}
		neutralized := Neutralize(string(raw), stem)
		_, execErr := s.db.ExecContext(ctx,
			`INSERT INTO cues (sha1, content) VALUES (?, ?)
			 ON CONFLICT(sha1) DO UPDATE SET content = excluded.content`,
			sha1[:], neutralized)
		if execErr != nil {
			return imported, skipped, storageErr("failed to store cuesheet", execErr)
		}
		imported++
	}
	return imported, skipped, nil
}
