package database

import (
	"context"
	"strconv"
	"strings"
)

const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
)

type Row interface {
	Scan(dest ...interface{}) error
}

type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close() error
}

// Tx is the statement surface available inside ExecuteTx. Queries are written
// with `?` placeholders; each driver rebinds them for its dialect.
type Tx interface {
	Exec(ctx context.Context, query string, args ...interface{}) error
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) Row
}

// Driver abstracts the SQL stores the transform reads from and writes to.
type Driver interface {
	Connect(dsn string) error
	Close() error
	Dialect() string
	Exec(ctx context.Context, query string, args ...interface{}) error
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	ExecuteTx(ctx context.Context, txFunc func(tx Tx) error) error

	// AcquireRunLock takes the warehouse-wide advisory lock that keeps two
	// transform runs from interleaving. It does not block: the caller gets
	// false when another run holds the lock.
	AcquireRunLock(ctx context.Context, name string) (bool, error)
	ReleaseRunLock(ctx context.Context, name string) error
}

// Rebind rewrites `?` placeholders to the dialect's native form. MySQL takes
// them as-is; Postgres needs $1..$n.
func Rebind(dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
