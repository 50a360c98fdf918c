package sql

import (
	"context"
	dbsql "database/sql"
	"fmt"

	"github.com/pkg/errors"
)

// MaxSampleInsertionsPerStatement is the maximum number of rows inserted
// with a single insert command by adapters built with NewAdapter. Trying
// to add more results in more insertion commands.
const MaxSampleInsertionsPerStatement = 10

/*
Dialect describes how a database/sql driver expects the statements of an
adapter to be written.
*/
type Dialect struct {
	// CreateSampleTable is the statement creating the samples table
	// if it does not exist.
	CreateSampleTable string
	// Placeholder renders the i-th (0 based) argument of a statement.
	Placeholder func(i int) string
}

type adapter struct {
	db      *dbsql.DB
	dialect Dialect
}

// NewAdapter takes an open database and its Dialect and returns an
// Adapter working on it. Closing the adapter closes the database.
func NewAdapter(db *dbsql.DB, d Dialect) Adapter {
	return &adapter{db: db, dialect: d}
}

func (a *adapter) CreateSampleTable(ctx context.Context) error {
	createStmt, err := a.db.PrepareContext(ctx, a.dialect.CreateSampleTable)
	if err != nil {
		return errors.Wrap(err, "preparing samples creation statement")
	}
	defer createStmt.Close()
	_, err = createStmt.ExecContext(ctx)
	if err != nil {
		return errors.Wrap(err, "ensuring samples table exists")
	}
	return nil
}

func (a *adapter) AddSamples(ctx context.Context, rows []Row) (int, error) {
	inserted := 0
	if len(rows) >= MaxSampleInsertionsPerStatement {
		insertStmt, err := a.db.PrepareContext(ctx, InsertStatement(MaxSampleInsertionsPerStatement, a.dialect.Placeholder))
		if err != nil {
			return 0, errors.Wrapf(err, "preparing insert command for %d samples", MaxSampleInsertionsPerStatement)
		}
		defer insertStmt.Close()
		for len(rows)-inserted >= MaxSampleInsertionsPerStatement {
			chunk := rows[inserted : inserted+MaxSampleInsertionsPerStatement]
			if _, err = insertStmt.ExecContext(ctx, InsertArgs(chunk)...); err != nil {
				return inserted, errors.Wrapf(err, "inserting samples %d to %d", chunk[0].ID, chunk[len(chunk)-1].ID)
			}
			inserted += len(chunk)
		}
	}
	if last := rows[inserted:]; len(last) > 0 {
		_, err := a.db.ExecContext(ctx, InsertStatement(len(last), a.dialect.Placeholder), InsertArgs(last)...)
		if err != nil {
			return inserted, errors.Wrapf(err, "inserting the last %d samples", len(last))
		}
		inserted += len(last)
	}
	return inserted, nil
}

func (a *adapter) IterateOnSamples(ctx context.Context, limit int, lambda func(Row) (bool, error)) error {
	query := "SELECT id, label, features FROM samples ORDER BY id"
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return errors.Wrap(err, "querying samples")
	}
	defer rows.Close()
	for rows.Next() {
		var r Row
		if err = rows.Scan(&r.ID, &r.Label, &r.Features); err != nil {
			return errors.Wrap(err, "scanning sample")
		}
		ok, err := lambda(r)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	if err = rows.Err(); err != nil {
		return errors.Wrap(err, "iterating on samples")
	}
	return rows.Close()
}

func (a *adapter) CountSamples(ctx context.Context) (int, error) {
	var count int
	err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM samples").Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "counting samples")
	}
	return count, nil
}

func (a *adapter) Close() error {
	return a.db.Close()
}
