package database

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type PostgresDriver struct {
	conn *pgx.Conn
}

func (pd *PostgresDriver) Connect(dsn string) error {
	conn, err := pgx.Connect(context.Background(), dsn)
	if err != nil {
		return err
	}
	pd.conn = conn
	return nil
}

func (pd *PostgresDriver) Close() error {
	return pd.conn.Close(context.Background())
}

func (pd *PostgresDriver) Dialect() string {
	return DialectPostgres
}

func (pd *PostgresDriver) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := pd.conn.Exec(ctx, Rebind(DialectPostgres, query), args...)
	return err
}

func (pd *PostgresDriver) Query(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	rows, err := pd.conn.Query(ctx, Rebind(DialectPostgres, query), args...)
	if err != nil {
		return nil, err
	}
	return &pgxRows{rows: rows}, nil
}

func (pd *PostgresDriver) ExecuteTx(ctx context.Context, txFunc func(tx Tx) error) (err error) {
	tx, err := pd.conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback(ctx)
			panic(p) // re-panic after rollback
		} else if err != nil {
			tx.Rollback(ctx) // err is non-nil; don't change it
		} else {
			err = tx.Commit(ctx) // err is nil; if Commit returns error, update err
		}
	}()

	err = txFunc(&pgxTx{tx: tx})
	return err
}

func (pd *PostgresDriver) AcquireRunLock(ctx context.Context, name string) (bool, error) {
	var got bool
	err := pd.conn.QueryRow(ctx, "SELECT pg_try_advisory_lock(hashtext($1))", name).Scan(&got)
	if err != nil {
		return false, err
	}
	return got, nil
}

func (pd *PostgresDriver) ReleaseRunLock(ctx context.Context, name string) error {
	_, err := pd.conn.Exec(ctx, "SELECT pg_advisory_unlock(hashtext($1))", name)
	return err
}

type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := t.tx.Exec(ctx, Rebind(DialectPostgres, query), args...)
	return err
}

func (t *pgxTx) Query(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	rows, err := t.tx.Query(ctx, Rebind(DialectPostgres, query), args...)
	if err != nil {
		return nil, err
	}
	return &pgxRows{rows: rows}, nil
}

func (t *pgxTx) QueryRow(ctx context.Context, query string, args ...interface{}) Row {
	return t.tx.QueryRow(ctx, Rebind(DialectPostgres, query), args...)
}

type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool {
	return r.rows.Next()
}

func (r *pgxRows) Scan(dest ...interface{}) error {
	return r.rows.Scan(dest...)
}

func (r *pgxRows) Err() error {
	return r.rows.Err()
}

func (r *pgxRows) Close() error {
	r.rows.Close()
	return nil
}
