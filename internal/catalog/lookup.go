package catalog

import (
	"context"
	"database/sql"

	"github.com/retronian/ndcat/internal/romname"
)

// LookupROMBySHA1 reports whether any cataloged ROM carries sha1. The
// sha1 index makes this O(log N) regardless of catalog size, unlike
// LookupROMSHA1ByName below.
func (s *Store) LookupROMBySHA1(ctx context.Context, sha1 [20]byte) (bool, error) {
	stmt, err := s.prepare(ctx, "SELECT 1 FROM roms WHERE sha1 = ? LIMIT 1")
	if err != nil {
		return false, storageErr("failed to search ROMs in catalog DB", err)
	}
	var found int
	err = stmt.QueryRowContext(ctx, sha1[:]).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, storageErr("failed to search ROMs in catalog DB", err)
	}
	return true, nil
}

// LookupROMSHA1ByName resolves a decompressed ROM filename to the sha1
// recorded for it, scanning every game's ROM set. ROM names are stored
// compressed against their owning game's name, so this cannot use the
// sha1 index and is a linear scan; it exists for the Cuesheet
// subsystem's import path, which runs far less often than verification
// itself.
func (s *Store) LookupROMSHA1ByName(ctx context.Context, name string) ([20]byte, bool, error) {
	stmt, err := s.prepare(ctx, "SELECT g.name, r.name, r.sha1 FROM roms r JOIN games g ON g.gid = r.gid")
	if err != nil {
		return [20]byte{}, false, storageErr("failed to search ROMs in catalog DB", err)
	}
	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return [20]byte{}, false, storageErr("failed to search ROMs in catalog DB", err)
	}
	defer rows.Close()

	for rows.Next() {
		var gameName, romName string
		var sha1 []byte
		if err := rows.Scan(&gameName, &romName, &sha1); err != nil {
			return [20]byte{}, false, storageErr("failed to search ROMs in catalog DB", err)
		}
		if romname.Decompress(romName, gameName) != name {
			continue
		}
		var out [20]byte
		copy(out[:], sha1)
		return out, true, nil
	}
	if err := rows.Err(); err != nil {
		return [20]byte{}, false, storageErr("failed to search ROMs in catalog DB", err)
	}
	return [20]byte{}, false, nil
}
