package catalog

import (
	"context"
	"database/sql"

	"github.com/retronian/ndcat/internal/romname"
)

func crc32ToColumn(crc32 uint32) int64 {
	return int64(int32(crc32))
}

func crc32FromColumn(v int64) uint32 {
	return uint32(int32(v))
}

// loadStoredGames fetches every Game row owned by dfid with just
// (gid, name, revision); categories and roms are left empty and must be
// hydrated on demand via loadGameDetails.
func loadStoredGames(ctx context.Context, p preparer, dfid int64) (map[string]*Game, error) {
	stmt, err := p.prepare(ctx, "SELECT gid, name, revision FROM games WHERE dfid = ?")
	if err != nil {
		return nil, storageErr("failed to retrieve games from catalog DB", err)
	}
	rows, err := stmt.QueryContext(ctx, dfid)
	if err != nil {
		return nil, storageErr("failed to retrieve games from catalog DB", err)
	}
	defer rows.Close()

	games := make(map[string]*Game)
	for rows.Next() {
		g := &Game{DFID: dfid}
		if err := rows.Scan(&g.GID, &g.Name, &g.Revision); err != nil {
			return nil, storageErr("failed to retrieve games from catalog DB", err)
		}
		games[g.Name] = g
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("failed to retrieve games from catalog DB", err)
	}
	return games, nil
}

// loadGameDetails hydrates g.Categories and g.ROMs from the database;
// it is the lazy-load half of loading a stored game.
func loadGameDetails(ctx context.Context, p preparer, g *Game) error {
	catStmt, err := p.prepare(ctx, "SELECT category FROM game_categories WHERE gid = ?")
	if err != nil {
		return storageErr("failed to retrieve game categories from catalog DB", err)
	}
	catRows, err := catStmt.QueryContext(ctx, g.GID)
	if err != nil {
		return storageErr("failed to retrieve game categories from catalog DB", err)
	}
	var categories []Category
	for catRows.Next() {
		var c int
		if err := catRows.Scan(&c); err != nil {
			catRows.Close()
			return storageErr("failed to retrieve game categories from catalog DB", err)
		}
		categories = append(categories, Category(c))
	}
	if err := catRows.Err(); err != nil {
		catRows.Close()
		return storageErr("failed to retrieve game categories from catalog DB", err)
	}
	catRows.Close()
	g.Categories = categories

	romStmt, err := p.prepare(ctx, "SELECT name, status, size, crc32, md5, sha1, sha256 FROM roms WHERE gid = ?")
	if err != nil {
		return storageErr("failed to retrieve ROMs from catalog DB", err)
	}
	romRows, err := romStmt.QueryContext(ctx, g.GID)
	if err != nil {
		return storageErr("failed to retrieve ROMs from catalog DB", err)
	}
	defer romRows.Close()

	var roms []ROM
	for romRows.Next() {
		var (
			name       string
			status     sql.NullInt64
			size       int64
			crc32Col   int64
			md5, sha1  []byte
			sha256     []byte
		)
		if err := romRows.Scan(&name, &status, &size, &crc32Col, &md5, &sha1, &sha256); err != nil {
			return storageErr("failed to retrieve ROMs from catalog DB", err)
		}
		rom := ROM{
			Name:  romname.Decompress(name, g.Name),
			Size:  uint64(size),
			CRC32: crc32FromColumn(crc32Col),
		}
		copy(rom.MD5[:], md5)
		copy(rom.SHA1[:], sha1)
		if status.Valid {
			rom.HasStatus = true
			rom.Status = Status(status.Int64)
		}
		if sha256 != nil {
			rom.HasSHA256 = true
			copy(rom.SHA256[:], sha256)
		}
		roms = append(roms, rom)
	}
	if err := romRows.Err(); err != nil {
		return storageErr("failed to retrieve ROMs from catalog DB", err)
	}
	g.ROMs = roms
	return nil
}

// insertGame inserts a brand-new game row (with its categories and
// roms) and populates g.GID and g.Revision.
func insertGame(ctx context.Context, p preparer, g *Game) error {
	stmt, err := p.prepare(ctx, "INSERT INTO games (dfid, name) VALUES (?, ?) RETURNING gid")
	if err != nil {
		return storageErr("failed to add game to catalog DB", err)
	}
	if err := stmt.QueryRowContext(ctx, g.DFID, g.Name).Scan(&g.GID); err != nil {
		return storageErr("failed to add game to catalog DB", err)
	}
	g.Revision = 0
	if err := replaceCategories(ctx, p, g.GID, g.Categories); err != nil {
		return err
	}
	return replaceROMs(ctx, p, g.GID, g.Name, g.ROMs)
}

// replaceCategories deletes every game_categories row for gid and
// inserts the given set.
func replaceCategories(ctx context.Context, p preparer, gid int64, categories []Category) error {
	delStmt, err := p.prepare(ctx, "DELETE FROM game_categories WHERE gid = ?")
	if err != nil {
		return storageErr("failed to remove game categories from catalog DB", err)
	}
	if _, err := delStmt.ExecContext(ctx, gid); err != nil {
		return storageErr("failed to remove game categories from catalog DB", err)
	}
	if len(categories) == 0 {
		return nil
	}
	insStmt, err := p.prepare(ctx, "INSERT INTO game_categories (gid, category) VALUES (?, ?)")
	if err != nil {
		return storageErr("failed to add game category to catalog DB", err)
	}
	for _, c := range categories {
		if _, err := insStmt.ExecContext(ctx, gid, int(c)); err != nil {
			return storageErr("failed to add game category to catalog DB", err)
		}
	}
	return nil
}

// replaceROMs deletes every roms row for gid and inserts the given set,
// compressing each name against gameName per the ROM-Name Codec.
func replaceROMs(ctx context.Context, p preparer, gid int64, gameName string, roms []ROM) error {
	delStmt, err := p.prepare(ctx, "DELETE FROM roms WHERE gid = ?")
	if err != nil {
		return storageErr("failed to remove ROMs from catalog DB", err)
	}
	if _, err := delStmt.ExecContext(ctx, gid); err != nil {
		return storageErr("failed to remove ROMs from catalog DB", err)
	}
	if len(roms) == 0 {
		return nil
	}
	insStmt, err := p.prepare(ctx, "INSERT INTO roms (gid, name, status, size, crc32, md5, sha1, sha256) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return storageErr("failed to add ROMs to catalog DB", err)
	}
	for _, r := range roms {
		name := romname.Compress(r.Name, gameName)
		var status sql.NullInt64
		if r.HasStatus {
			status = sql.NullInt64{Int64: int64(r.Status), Valid: true}
		}
		var sha256 []byte
		if r.HasSHA256 {
			sha256 = r.SHA256[:]
		}
		if _, err := insStmt.ExecContext(ctx, gid, name, status, int64(r.Size), crc32ToColumn(r.CRC32), r.MD5[:], r.SHA1[:], sha256); err != nil {
			return storageErr("failed to add ROMs to catalog DB", err)
		}
	}
	return nil
}

// bumpRevision increments a game's revision counter by exactly one row;
// any other row count means the game vanished mid-transaction.
func bumpRevision(ctx context.Context, p preparer, gid int64) error {
	stmt, err := p.prepare(ctx, "UPDATE games SET revision = revision + 1 WHERE gid = ?")
	if err != nil {
		return storageErr("failed to update games in catalog DB", err)
	}
	res, err := stmt.ExecContext(ctx, gid)
	if err != nil {
		return storageErr("failed to update games in catalog DB", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return storageErr("failed to update games in catalog DB", err)
	}
	if rows != 1 {
		return &ConsistencyError{Message: "revision bump affected zero rows; game vanished mid-import"}
	}
	return nil
}

// deleteGame removes a game and its owned categories/roms.
func deleteGame(ctx context.Context, p preparer, gid int64) error {
	stmts := []string{
		"DELETE FROM games WHERE gid = ?",
		"DELETE FROM game_categories WHERE gid = ?",
		"DELETE FROM roms WHERE gid = ?",
	}
	for _, query := range stmts {
		stmt, err := p.prepare(ctx, query)
		if err != nil {
			return storageErr("failed to delete game from catalog DB", err)
		}
		if _, err := stmt.ExecContext(ctx, gid); err != nil {
			return storageErr("failed to delete game from catalog DB", err)
		}
	}
	return nil
}
