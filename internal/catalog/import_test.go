package catalog

import (
	"context"
	"testing"

	"github.com/retronian/ndcat/internal/logiqx"
)

func mkROM(name string, size uint64, crc uint32, fill byte) logiqx.ROM {
	r := logiqx.ROM{Name: name, Size: size, CRC32: crc}
	for i := range r.MD5 {
		r.MD5[i] = fill
	}
	for i := range r.SHA1 {
		r.SHA1[i] = fill
	}
	return r
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), t.TempDir()+"/catalog.db")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestImportScenarios walks the same Datafile through a fresh import,
// an idempotent re-import, a ROM content change, a category-only edit,
// and a removal, checking both the returned counters and the revision
// column after each step.
func TestImportScenarios(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	df, err := store.GetOrCreateDatafile(ctx, "Sega - Dreamcast", AuthorRedump)
	if err != nil {
		t.Fatalf("GetOrCreateDatafile: %v", err)
	}

	base := &logiqx.Datafile{
		Header: logiqx.Header{Name: "Sega - Dreamcast", Version: "1"},
		Games: []logiqx.Game{
			{
				Name:       "Foo",
				Categories: []string{"Games"},
				ROMs: []logiqx.ROM{
					mkROM("Foo.bin", 10, 0x1, 0xAA),
					mkROM("Foo (Track 2).bin", 20, 0x2, 0xBB),
				},
			},
		},
	}

	counts, err := store.Import(ctx, df, base, 1000)
	if err != nil {
		t.Fatalf("fresh import: %v", err)
	}
	if counts != (ImportCounts{Added: 1}) {
		t.Fatalf("fresh import counts = %+v, want Added:1", counts)
	}
	if df.Version != "1" || df.LastUpdated != 1000 {
		t.Fatalf("datafile not stamped: %+v", df)
	}

	reimport := *base
	reimport.Header.Version = "2"
	counts, err = store.Import(ctx, df, &reimport, 2000)
	if err != nil {
		t.Fatalf("idempotent reimport: %v", err)
	}
	if counts != (ImportCounts{Unchanged: 1}) {
		t.Fatalf("idempotent reimport counts = %+v, want Unchanged:1", counts)
	}

	romChanged := *base
	romChanged.Header.Version = "3"
	romChanged.Games = []logiqx.Game{
		{
			Name:       "Foo",
			Categories: []string{"Games"},
			ROMs: []logiqx.ROM{
				mkROM("Foo.bin", 10, 0x9, 0xAA), // crc32 changed
				mkROM("Foo (Track 2).bin", 20, 0x2, 0xBB),
			},
		},
	}
	counts, err = store.Import(ctx, df, &romChanged, 3000)
	if err != nil {
		t.Fatalf("rom byte change: %v", err)
	}
	if counts != (ImportCounts{Changed: 1}) {
		t.Fatalf("rom byte change counts = %+v, want Changed:1", counts)
	}
	stored, err := loadStoredGames(ctx, store, df.DFID)
	if err != nil {
		t.Fatalf("loadStoredGames: %v", err)
	}
	if stored["Foo"].Revision != 1 {
		t.Fatalf("revision after rom change = %d, want 1", stored["Foo"].Revision)
	}

	catOnly := *base
	catOnly.Header.Version = "4"
	catOnly.Games = []logiqx.Game{
		{
			Name:       "Foo",
			Categories: []string{"Demos"},
			ROMs:       romChanged.Games[0].ROMs,
		},
	}
	counts, err = store.Import(ctx, df, &catOnly, 4000)
	if err != nil {
		t.Fatalf("category edit only: %v", err)
	}
	if counts != (ImportCounts{Unchanged: 1}) {
		t.Fatalf("category edit only counts = %+v, want Unchanged:1", counts)
	}
	stored, err = loadStoredGames(ctx, store, df.DFID)
	if err != nil {
		t.Fatalf("loadStoredGames: %v", err)
	}
	if stored["Foo"].Revision != 1 {
		t.Fatalf("revision after category-only edit = %d, want unchanged at 1", stored["Foo"].Revision)
	}
	foo := stored["Foo"]
	if err := loadGameDetails(ctx, store, foo); err != nil {
		t.Fatalf("loadGameDetails: %v", err)
	}
	if len(foo.Categories) != 1 || foo.Categories[0] != CategoryDemos {
		t.Fatalf("categories after edit = %+v, want [Demos]", foo.Categories)
	}

	empty := *base
	empty.Header.Version = "5"
	empty.Games = nil
	counts, err = store.Import(ctx, df, &empty, 5000)
	if err != nil {
		t.Fatalf("removal: %v", err)
	}
	if counts != (ImportCounts{Removed: 1}) {
		t.Fatalf("removal counts = %+v, want Removed:1", counts)
	}
}

func TestImportRejectsDuplicateGameName(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	df, err := store.GetOrCreateDatafile(ctx, "Sony - PlayStation", AuthorRedump)
	if err != nil {
		t.Fatalf("GetOrCreateDatafile: %v", err)
	}

	dup := &logiqx.Datafile{
		Header: logiqx.Header{Name: "Sony - PlayStation", Version: "1"},
		Games: []logiqx.Game{
			{Name: "Bar", ROMs: []logiqx.ROM{mkROM("Bar.bin", 1, 0x1, 0x01)}},
			{Name: "Bar", ROMs: []logiqx.ROM{mkROM("Bar.bin", 2, 0x2, 0x02)}},
		},
	}

	_, err = store.Import(ctx, df, dup, 1000)
	if err == nil {
		t.Fatal("expected DuplicateGameError, got nil")
	}
	if _, ok := err.(*DuplicateGameError); !ok {
		t.Fatalf("error = %v (%T), want *DuplicateGameError", err, err)
	}

	if _, err := selectDatafile(ctx, store, "Sony - PlayStation"); err != nil {
		t.Fatalf("selectDatafile after rollback: %v", err)
	}
	stored, err := loadStoredGames(ctx, store, df.DFID)
	if err != nil {
		t.Fatalf("loadStoredGames: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("rolled-back import left %d games, want 0", len(stored))
	}
}
