/*
Package sql provides a way to keep quantized datasets on SQL databases.

Samples live in a single samples table with an integer id, an integer
label and the bins of every feature packed one per byte in a blob column.
Adapters hide the dialect of every supported database.
*/
package sql

import (
	"context"
	"fmt"
	"strings"
)

/*
Row is a sample as it is stored in the samples table.

Features holds one byte per feature with its bin.
*/
type Row struct {
	ID       int64
	Label    int
	Features []byte
}

/*
Adapter is an interface providing the methods
needed to keep a dataset on a database backend.
*/
type Adapter interface {
	// CreateSampleTable ensures the samples table exists.
	CreateSampleTable(ctx context.Context) error
	// AddSamples inserts the given rows and returns how many of them
	// were inserted before any error.
	AddSamples(ctx context.Context, rows []Row) (int, error)
	// IterateOnSamples calls lambda with every row in ascending id
	// order, up to limit rows if limit is positive, until lambda returns
	// false or an error.
	IterateOnSamples(ctx context.Context, limit int, lambda func(Row) (bool, error)) error
	// CountSamples returns the number of rows in the samples table.
	CountSamples(ctx context.Context) (int, error)
	// Close releases the database connection.
	Close() error
}

/*
InsertStatement returns a statement inserting n rows in the samples
table, using placeholder to render the i-th (0 based) argument of the
dialect.
*/
func InsertStatement(n int, placeholder func(i int) string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO samples (id, label, features) VALUES ")
	for r := 0; r < n; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "(%s, %s, %s)", placeholder(3*r), placeholder(3*r+1), placeholder(3*r+2))
	}
	return b.String()
}

// InsertArgs returns the arguments of an InsertStatement for the rows.
func InsertArgs(rows []Row) []interface{} {
	args := make([]interface{}, 0, 3*len(rows))
	for _, r := range rows {
		args = append(args, r.ID, r.Label, r.Features)
	}
	return args
}
