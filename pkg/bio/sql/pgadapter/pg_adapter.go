/*
Package pgadapter provides an implementation of the
Adapter interface in the sql package that works
over a PostgreSQL database.
*/
package pgadapter

import (
	"database/sql"
	"strconv"

	// Import of PostgreSQL driver
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	biosql "github.com/viettran-edgeAI/MCU-sub008/pkg/bio/sql"
)

const sampleTableCreateStmt = `CREATE TABLE IF NOT EXISTS samples (
	id BIGINT PRIMARY KEY,
	label SMALLINT NOT NULL,
	features BYTEA NOT NULL)`

// Dialect is the biosql.Dialect of PostgreSQL.
var Dialect = biosql.Dialect{
	CreateSampleTable: sampleTableCreateStmt,
	Placeholder:       func(i int) string { return "$" + strconv.Itoa(i+1) },
}

/*
New takes a PostgreSQL database connection URL and returns
an Adapter that works on the database or an error if it fails to connect to it.
*/
func New(url string) (biosql.Adapter, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, errors.Wrap(err, "opening postgres database")
	}
	return biosql.NewAdapter(db, Dialect), nil
}
