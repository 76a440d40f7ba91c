package catalog

import (
	"context"

	"github.com/retronian/ndcat/internal/logiqx"
)

// GetOrCreateDatafile fetches (creating on first mention) the Datafile
// identified by name/author, outside of any import transaction — the
// Freshness Scheduler needs this to read the current version and
// last_updated before deciding whether a fetch is even necessary.
func (s *Store) GetOrCreateDatafile(ctx context.Context, name string, author Author) (*Datafile, error) {
	return getOrCreateDatafile(ctx, s, name, author)
}

// TouchDatafile updates only last_updated, for the "already fresh,
// just back off the next check" path.
func (s *Store) TouchDatafile(ctx context.Context, df *Datafile, now int64) error {
	df.LastUpdated = now
	return updateDatafile(ctx, s, df)
}

func convertGame(dfid int64, pg logiqx.Game) *Game {
	g := &Game{
		DFID:       dfid,
		Name:       pg.Name,
		Categories: make([]Category, 0, len(pg.Categories)),
		ROMs:       make([]ROM, 0, len(pg.ROMs)),
	}
	for _, c := range pg.Categories {
		g.Categories = append(g.Categories, CategoryFromString(c))
	}
	for _, r := range pg.ROMs {
		rom := ROM{
			Name:      r.Name,
			Size:      r.Size,
			CRC32:     r.CRC32,
			MD5:       r.MD5,
			SHA1:      r.SHA1,
			HasSHA256: r.HasSHA256,
			SHA256:    r.SHA256,
		}
		if r.HasStatus {
			rom.HasStatus = true
			rom.Status = StatusFromString(r.Status)
		}
		g.ROMs = append(g.ROMs, rom)
	}
	return g
}

// updateGame reconciles an existing (fully loaded) stored game against
// a freshly parsed one. Category churn is persisted unconditionally but
// never counts as a content change; only a ROM set whose content-hash
// identity changed counts as "changed" and bumps the revision.
func updateGame(ctx context.Context, p preparer, existing, incoming *Game) (bool, error) {
	oldCats := newCategorySet(existing.Categories)
	newCats := newCategorySet(incoming.Categories)
	if !oldCats.equal(newCats) {
		if err := replaceCategories(ctx, p, existing.GID, incoming.Categories); err != nil {
			return false, err
		}
		existing.Categories = incoming.Categories
	}

	oldROMs := romSet(existing.ROMs)
	newROMs := romSet(incoming.ROMs)
	romsChanged := !romSetsEqual(oldROMs, newROMs)
	if romsChanged {
		if err := replaceROMs(ctx, p, existing.GID, existing.Name, incoming.ROMs); err != nil {
			return false, err
		}
		if err := bumpRevision(ctx, p, existing.GID); err != nil {
			return false, err
		}
		existing.Revision++
		existing.ROMs = incoming.ROMs
	}
	return romsChanged, nil
}

// Import runs the Differential Importer: it reconciles parsed against
// the games currently stored under df.DFID, commits one transaction
// that leaves the store consistent with parsed, and advances df's
// version/last_updated to now. df is mutated in place to reflect the
// post-import state.
func (s *Store) Import(ctx context.Context, df *Datafile, parsed *logiqx.Datafile, now int64) (ImportCounts, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return ImportCounts{}, err
	}

	counts, err := importGames(ctx, tx, df, parsed, now)
	if err != nil {
		tx.tx.Rollback()
		return ImportCounts{}, err
	}
	if commitErr := tx.tx.Commit(); commitErr != nil {
		return ImportCounts{}, storageErr("failed to commit changes to catalog DB", commitErr)
	}
	return counts, nil
}

func importGames(ctx context.Context, tx *txHandle, df *Datafile, parsed *logiqx.Datafile, now int64) (ImportCounts, error) {
	stored, err := loadStoredGames(ctx, tx, df.DFID)
	if err != nil {
		return ImportCounts{}, err
	}

	var counts ImportCounts
	processed := make(map[string]struct{}, len(parsed.Games))

	for _, pg := range parsed.Games {
		if _, dup := processed[pg.Name]; dup {
			return ImportCounts{}, &DuplicateGameError{Name: pg.Name}
		}
		incoming := convertGame(df.DFID, pg)

		if existing, ok := stored[pg.Name]; ok {
			if err := loadGameDetails(ctx, tx, existing); err != nil {
				return ImportCounts{}, err
			}
			changed, err := updateGame(ctx, tx, existing, incoming)
			if err != nil {
				return ImportCounts{}, err
			}
			if changed {
				counts.Changed++
			} else {
				counts.Unchanged++
			}
			delete(stored, pg.Name)
		} else {
			if err := insertGame(ctx, tx, incoming); err != nil {
				return ImportCounts{}, err
			}
			counts.Added++
		}
		processed[pg.Name] = struct{}{}
	}

	counts.Removed = len(stored)
	for _, g := range stored {
		if err := deleteGame(ctx, tx, g.GID); err != nil {
			return ImportCounts{}, err
		}
	}

	df.Version = parsed.Header.Version
	df.LastUpdated = now
	if err := updateDatafile(ctx, tx, df); err != nil {
		return ImportCounts{}, err
	}

	return counts, nil
}
