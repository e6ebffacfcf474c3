// Package storage is the PostgreSQL persistence layer. A Store hands out
// Queries bound either to the pool (reads) or to a single transaction
// (mutations); the transaction itself is owned by the caller through
// WithinTx and is never committed from inside a query method.
package storage

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Queries returns a read view bound to the connection pool.
func (s *Store) Queries() *Queries {
	return &Queries{q: s.db}
}

// WithinTx runs fn inside one transaction. fn's writes either all commit or
// all roll back; this is the single consistency unit spanning order, bill
// and customer documents.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, q *Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	if err := fn(ctx, &Queries{q: tx}); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit transaction")
}

// Queries is the set of SQL operations, usable against a pool or a
// transaction.
type Queries struct {
	q querier
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation, which is how a lost duplicate-session race surfaces.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
