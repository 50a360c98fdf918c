/*
Package sqlite3adapter provides an implementation of the
Adapter interface in the sql package that works over
an SQLite3 database file.
*/
package sqlite3adapter

import (
	"database/sql"

	// Import of sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	biosql "github.com/viettran-edgeAI/MCU-sub008/pkg/bio/sql"
)

const sampleTableCreateStmt = `CREATE TABLE IF NOT EXISTS samples (
	id INTEGER PRIMARY KEY,
	label INTEGER NOT NULL,
	features BLOB NOT NULL)`

// Dialect is the biosql.Dialect of SQLite3.
var Dialect = biosql.Dialect{
	CreateSampleTable: sampleTableCreateStmt,
	Placeholder:       func(int) string { return "?" },
}

/*
New takes a path to an SQLite3 database file and returns an Adapter that works
on the file's database or an error if it fails to open as an sqlite3 database.
*/
func New(path string) (biosql.Adapter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening sqlite3 database %s", path)
	}
	return biosql.NewAdapter(db, Dialect), nil
}
