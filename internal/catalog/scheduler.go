package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/retronian/ndcat/internal/logiqx"
)

// DatafileSource is how the Freshness Scheduler reaches the outside
// world. A concrete implementation fetches and parses curator datafiles;
// the scheduler itself only knows when to call it and what to do with
// what comes back.
type DatafileSource interface {
	// FetchRedump downloads and parses the current Redump datfile for
	// slug.
	FetchRedump(ctx context.Context, slug string) (*logiqx.Datafile, error)
	// FetchNoIntro consults the DAT-o-MATIC selection page for
	// datafileName and, if a listing exists, downloads and parses it.
	// found is false when no such console appears on the selection page.
	FetchNoIntro(ctx context.Context, datafileName string) (parsed *logiqx.Datafile, remoteUpdated int64, found bool, err error)
}

// withNoIntro is the console dispatch order used when the No-Intro batch
// runs this sweep: NoIntro-exclusive consoles are interleaved with the
// consoles both curators cover.
var withNoIntro = []GameConsole{
	ConsoleGB, ConsoleDreamcast, ConsoleGameCube, ConsoleGBC, ConsolePSX,
	ConsolePS2, ConsoleGBA, ConsolePS3, ConsolePSP, ConsoleN64, ConsoleWii,
	ConsoleXbox, ConsoleXbox360,
}

// redumpOnly is the dispatch order used when the No-Intro batch is
// skipped for this sweep: only the Redump-covered consoles run.
var redumpOnly = []GameConsole{
	ConsoleDreamcast, ConsoleGameCube, ConsolePSX, ConsolePS2, ConsolePS3,
	ConsolePSP, ConsoleWii, ConsoleXbox, ConsoleXbox360,
}

// oldestNoIntroDatafileTime reports the oldest last_updated among stored
// No-Intro datafiles, or 0 (the epoch) if none exist yet — matching the
// "never checked" case to "always stale".
func (s *Store) oldestNoIntroDatafileTime(ctx context.Context) (int64, error) {
	stmt, err := s.prepare(ctx, "SELECT MIN(last_updated) FROM datafiles WHERE author = ?")
	if err != nil {
		return 0, storageErr("failed to retrieve datafile meta from catalog DB", err)
	}
	var oldest sql.NullInt64
	if err := stmt.QueryRowContext(ctx, string(AuthorNoIntro)).Scan(&oldest); err != nil {
		return 0, storageErr("failed to retrieve datafile meta from catalog DB", err)
	}
	if !oldest.Valid {
		return 0, nil
	}
	return oldest.Int64, nil
}

// updateRedumpConsole brings one console's Redump-sourced datafile
// current if it has gone stale, doing nothing otherwise.
func (s *Store) updateRedumpConsole(ctx context.Context, source DatafileSource, c GameConsole, refresh time.Duration, now int64) (ImportCounts, error) {
	name, ok := c.RedumpDatafileName()
	if !ok {
		return ImportCounts{}, nil
	}
	df, err := s.GetOrCreateDatafile(ctx, name, AuthorRedump)
	if err != nil {
		return ImportCounts{}, err
	}
	if now-df.LastUpdated < refresh.Milliseconds() {
		return ImportCounts{}, nil
	}

	slug, _ := c.RedumpSlug()
	parsed, err := source.FetchRedump(ctx, slug)
	if err != nil {
		return ImportCounts{}, err
	}
	if df.Version == parsed.Header.Version {
		return ImportCounts{}, s.TouchDatafile(ctx, df, now)
	}
	return s.Import(ctx, df, parsed, now)
}

// updateNoIntroConsole brings one console's No-Intro-sourced datafile
// current if DAT-o-MATIC's published timestamp is newer than what is
// stored; otherwise it only touches last_updated to now.
func (s *Store) updateNoIntroConsole(ctx context.Context, source DatafileSource, c GameConsole, now int64) (ImportCounts, error) {
	name, ok := c.NoIntroDatafileName()
	if !ok {
		return ImportCounts{}, nil
	}
	df, err := s.GetOrCreateDatafile(ctx, name, AuthorNoIntro)
	if err != nil {
		return ImportCounts{}, err
	}

	parsed, remoteUpdated, found, err := source.FetchNoIntro(ctx, name)
	if err != nil {
		return ImportCounts{}, err
	}
	if !found {
		return ImportCounts{}, nil
	}
	if remoteUpdated <= df.LastUpdated {
		return ImportCounts{}, s.TouchDatafile(ctx, df, now)
	}
	return s.Import(ctx, df, parsed, remoteUpdated)
}

// UpdateAllConsoles runs one freshness sweep across every known console.
// The No-Intro selection page is only consulted when the oldest tracked
// No-Intro datafile has gone stale by catalogRefresh; Redump consoles
// are always checked individually. Unlike a single early return on the
// first failing console, every console's error is collected and
// returned together so one curator outage never masks the rest of the
// sweep.
func (s *Store) UpdateAllConsoles(ctx context.Context, source DatafileSource, catalogRefresh time.Duration, now int64) error {
	oldest, err := s.oldestNoIntroDatafileTime(ctx)
	if err != nil {
		return err
	}
	runNoIntro := now-oldest >= catalogRefresh.Milliseconds()

	order := redumpOnly
	if runNoIntro {
		order = withNoIntro
	}

	var result *multierror.Error
	for _, c := range order {
		if _, ok := c.RedumpDatafileName(); ok {
			if _, err := s.updateRedumpConsole(ctx, source, c, catalogRefresh, now); err != nil {
				result = multierror.Append(result, err)
			}
		}
		if runNoIntro {
			if _, ok := c.NoIntroDatafileName(); ok {
				if _, err := s.updateNoIntroConsole(ctx, source, c, now); err != nil {
					result = multierror.Append(result, err)
				}
			}
		}
	}
	return result.ErrorOrNil()
}
