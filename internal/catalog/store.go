package catalog

import (
	"container/list"
	"context"
	"database/sql"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

const stmtCacheCapacity = 32

// stmtCache is a small bounded LRU of prepared statements keyed by their
// SQL text, mirroring the capacity the underlying SQLite binding is
// configured with on the original store.
type stmtCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

type cacheEntry struct {
	sql  string
	stmt *sql.Stmt
}

func newStmtCache(capacity int) *stmtCache {
	return &stmtCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

func (c *stmtCache) get(ctx context.Context, db *sql.DB, query string) (*sql.Stmt, error) {
	c.mu.Lock()
	if elem, ok := c.entries[query]; ok {
		c.order.MoveToFront(elem)
		stmt := elem.Value.(*cacheEntry).stmt
		c.mu.Unlock()
		return stmt, nil
	}
	c.mu.Unlock()

	stmt, err := db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[query]; ok {
		// another goroutine populated it first; keep that one.
		stmt.Close()
		c.order.MoveToFront(elem)
		return elem.Value.(*cacheEntry).stmt, nil
	}
	elem := c.order.PushFront(&cacheEntry{sql: query, stmt: stmt})
	c.entries[query] = elem
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			entry := oldest.Value.(*cacheEntry)
			delete(c.entries, entry.sql)
			entry.stmt.Close()
		}
	}
	return stmt, nil
}

func (c *stmtCache) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, elem := range c.entries {
		elem.Value.(*cacheEntry).stmt.Close()
	}
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// preparer is satisfied both by a plain Store and by a transaction
// bound to one, so every query helper in this package works identically
// against a connection or an open transaction.
type preparer interface {
	prepare(ctx context.Context, query string) (*sql.Stmt, error)
}

// Store is the Catalog Store: a SQLite-backed connection with schema
// initialization, pragma configuration, and a shared prepared-statement
// cache.
type Store struct {
	db    *sql.DB
	cache *stmtCache
}

func (s *Store) prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	return s.cache.get(ctx, s.db, query)
}

// txHandle adapts an open *sql.Tx to the preparer interface by preparing
// each statement on the transaction itself. The Store's cache is not
// consulted: the pool holds a single connection, which the transaction
// already owns, so preparing through the Store would wait for it forever.
// Statements prepared here are closed when the transaction ends.
type txHandle struct {
	tx    *sql.Tx
	store *Store
}

func (h *txHandle) prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	return h.tx.PrepareContext(ctx, query)
}

// Open initializes (or re-opens) a Catalog Store at path, creating any
// missing tables/indexes and configuring the connection per the
// mandated pragmas.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, storageErr("failed to open catalog DB", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, cache: newStmtCache(stmtCacheCapacity)}

	pragmas := []string{
		"PRAGMA page_size = 16384",
		"PRAGMA cache_size = 2000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, storageErr("failed to configure catalog DB", err)
		}
	}

	changed, err := createSchema(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if changed {
		if _, err := db.ExecContext(ctx, "PRAGMA optimize"); err != nil {
			db.Close()
			return nil, storageErr("failed to optimize catalog DB", err)
		}
	}
	return store, nil
}

func existingObjects(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' OR type = 'index'")
	if err != nil {
		return nil, storageErr("failed to retrieve created tables from catalog DB", err)
	}
	defer rows.Close()
	objects := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storageErr("failed to retrieve created tables from catalog DB", err)
		}
		objects[name] = true
	}
	return objects, rows.Err()
}

func createSchema(ctx context.Context, db *sql.DB) (bool, error) {
	objects, err := existingObjects(ctx, db)
	if err != nil {
		return false, err
	}

	ddl := []struct {
		name string
		stmt string
	}{
		{"datafiles", `CREATE TABLE "datafiles" (
			"dfid" INTEGER NOT NULL UNIQUE,
			"name" TEXT NOT NULL UNIQUE,
			"author" TEXT NOT NULL,
			"version" TEXT NOT NULL,
			"last_updated" INTEGER NOT NULL,
			PRIMARY KEY("dfid")
		)`},
		{"games", `CREATE TABLE "games" (
			"dfid" INTEGER NOT NULL,
			"gid" INTEGER NOT NULL UNIQUE,
			"name" TEXT NOT NULL,
			"revision" INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY("gid")
		)`},
		{"game_categories", `CREATE TABLE "game_categories" (
			"gid" INTEGER NOT NULL,
			"category" INTEGER NOT NULL
		)`},
		{"roms", `CREATE TABLE "roms" (
			"gid" INTEGER NOT NULL,
			"name" TEXT NOT NULL,
			"status" INTEGER,
			"size" INTEGER NOT NULL,
			"crc32" INTEGER NOT NULL,
			"md5" BLOB NOT NULL,
			"sha1" BLOB NOT NULL,
			"sha256" BLOB
		)`},
		{"game_category_index", `CREATE INDEX "game_category_index" ON "game_categories" ("gid" DESC)`},
		{"game_roms", `CREATE INDEX "game_roms" ON "roms" ("gid" DESC)`},
		{"roms_sha1_index", `CREATE INDEX "roms_sha1_index" ON "roms" ("sha1")`},
	}

	changed := false
	for _, d := range ddl {
		if objects[d.name] {
			continue
		}
		if _, err := db.ExecContext(ctx, d.stmt); err != nil {
			return false, storageErr("failed to create tables in catalog DB", err)
		}
		changed = true
	}
	return changed, nil
}

// Close runs a VACUUM and PRAGMA optimize, then releases the
// connection, matching the graceful-shutdown contract in §4.3.
func (s *Store) Close() error {
	s.cache.closeAll()
	if _, err := s.db.Exec("VACUUM"); err != nil {
		s.db.Close()
		return storageErr("failed to vacuum catalog DB", err)
	}
	if _, err := s.db.Exec("PRAGMA optimize"); err != nil {
		s.db.Close()
		return storageErr("failed to optimize catalog DB", err)
	}
	return s.db.Close()
}

// beginTx opens a transaction-scoped preparer; every importer write
// path uses one of these.
func (s *Store) beginTx(ctx context.Context) (*txHandle, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("failed to start transaction in catalog DB", err)
	}
	return &txHandle{tx: tx, store: s}, nil
}
