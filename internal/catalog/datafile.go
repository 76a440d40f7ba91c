package catalog

import (
	"context"
	"database/sql"
	"errors"
)

// getOrCreateDatafile fetches the Datafile row named name, creating it
// (with an empty version and last_updated = 0) on first mention. The
// insert-then-reselect is bounded to a single retry: barring concurrent
// writers this database does not support, it always succeeds the first
// time around.
func getOrCreateDatafile(ctx context.Context, p preparer, name string, author Author) (*Datafile, error) {
	df, err := selectDatafile(ctx, p, name)
	if err == nil {
		return df, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	insStmt, prepErr := p.prepare(ctx, "INSERT INTO datafiles (name, author, version, last_updated) VALUES (?, ?, ?, ?)")
	if prepErr != nil {
		return nil, storageErr("failed to update datafile meta in catalog DB", prepErr)
	}
	if _, execErr := insStmt.ExecContext(ctx, name, string(author), "", 0); execErr != nil {
		return nil, storageErr("failed to update datafile meta in catalog DB", execErr)
	}

	df, err = selectDatafile(ctx, p, name)
	if err != nil {
		return nil, storageErr("failed to retrieve datafile meta from catalog DB", err)
	}
	return df, nil
}

func selectDatafile(ctx context.Context, p preparer, name string) (*Datafile, error) {
	stmt, err := p.prepare(ctx, "SELECT dfid, name, author, version, last_updated FROM datafiles WHERE name = ?")
	if err != nil {
		return nil, storageErr("failed to retrieve datafile meta from catalog DB", err)
	}
	var df Datafile
	var author string
	err = stmt.QueryRowContext(ctx, name).Scan(&df.DFID, &df.Name, &author, &df.Version, &df.LastUpdated)
	if err != nil {
		return nil, err
	}
	df.Author = Author(author)
	return &df, nil
}

// updateDatafile writes back version and last_updated; the update must
// affect exactly one row or the datafile's identity invariant has been
// violated mid-import.
func updateDatafile(ctx context.Context, p preparer, df *Datafile) error {
	stmt, err := p.prepare(ctx, "UPDATE datafiles SET version = ?, last_updated = ? WHERE dfid = ?")
	if err != nil {
		return storageErr("failed to update datafile in catalog DB", err)
	}
	res, err := stmt.ExecContext(ctx, df.Version, df.LastUpdated, df.DFID)
	if err != nil {
		return storageErr("failed to update datafile in catalog DB", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return storageErr("failed to update datafile in catalog DB", err)
	}
	if rows != 1 {
		return &ConsistencyError{Message: "datafile update affected zero rows"}
	}
	return nil
}
