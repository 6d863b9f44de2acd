package database

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
)

type MySQLDriver struct {
	db *sql.DB
}

// NewMySQLDriver wraps an already-open handle. Used by tests to inject a
// sqlmock connection.
func NewMySQLDriver(db *sql.DB) *MySQLDriver {
	return &MySQLDriver{db: db}
}

func (md *MySQLDriver) Connect(dsn string) error {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}
	md.db = db
	return nil
}

func (md *MySQLDriver) Close() error {
	return md.db.Close()
}

func (md *MySQLDriver) Dialect() string {
	return DialectMySQL
}

func (md *MySQLDriver) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := md.db.ExecContext(ctx, query, args...)
	return err
}

func (md *MySQLDriver) Query(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	rows, err := md.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &sqlRows{rows: rows}, nil
}

func (md *MySQLDriver) ExecuteTx(ctx context.Context, txFunc func(tx Tx) error) (err error) {
	tx, err := md.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = txFunc(&sqlTx{tx: tx})
	return err
}

func (md *MySQLDriver) AcquireRunLock(ctx context.Context, name string) (bool, error) {
	// Zero timeout: fail immediately when another run holds the lock.
	var got sql.NullInt64
	if err := md.db.QueryRowContext(ctx, "SELECT GET_LOCK(?, 0)", name).Scan(&got); err != nil {
		return false, err
	}
	return got.Valid && got.Int64 == 1, nil
}

func (md *MySQLDriver) ReleaseRunLock(ctx context.Context, name string) error {
	_, err := md.db.ExecContext(ctx, "SELECT RELEASE_LOCK(?)", name)
	return err
}

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := t.tx.ExecContext(ctx, query, args...)
	return err
}

func (t *sqlTx) Query(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &sqlRows{rows: rows}, nil
}

func (t *sqlTx) QueryRow(ctx context.Context, query string, args ...interface{}) Row {
	return t.tx.QueryRowContext(ctx, query, args...)
}

type sqlRows struct {
	rows *sql.Rows
}

func (r *sqlRows) Next() bool {
	return r.rows.Next()
}

func (r *sqlRows) Scan(dest ...interface{}) error {
	return r.rows.Scan(dest...)
}

func (r *sqlRows) Err() error {
	return r.rows.Err()
}

func (r *sqlRows) Close() error {
	return r.rows.Close()
}
