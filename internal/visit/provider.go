package visit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/evcraddock/sfa-backend/internal/db"
)

// Provider hands out database connections.
type Provider interface {
	Acquire(ctx context.Context) (Conn, error)
}

// Conn is a single connection taken from the pool. Close releases it.
type Conn interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error)
	Close() error
}

// Tx is an open transaction on a Conn.
type Tx interface {
	Exec(ctx context.Context, query string, args ...any) error
	Commit() error
	Rollback() error
}

// SQLProvider is a Provider backed by a database/sql pool.
type SQLProvider struct {
	db *db.DB
}

// NewSQLProvider creates a provider over the given database.
func NewSQLProvider(d *db.DB) *SQLProvider {
	return &SQLProvider{db: d}
}

// Acquire reserves one connection from the pool.
func (p *SQLProvider) Acquire(ctx context.Context) (Conn, error) {
	c, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	return &sqlConn{conn: c, dialect: p.db.Dialect}, nil
}

type sqlConn struct {
	conn    *sql.Conn
	dialect db.Dialect
}

func (c *sqlConn) BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error) {
	tx, err := c.conn.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &sqlTx{tx: tx, dialect: c.dialect}, nil
}

func (c *sqlConn) Close() error {
	return c.conn.Close()
}

type sqlTx struct {
	tx      *sql.Tx
	dialect db.Dialect
}

// Exec runs a statement written with ? placeholders.
func (t *sqlTx) Exec(ctx context.Context, query string, args ...any) error {
	_, err := t.tx.ExecContext(ctx, t.dialect.Rebind(query), args...)
	return err
}

func (t *sqlTx) Commit() error   { return t.tx.Commit() }
func (t *sqlTx) Rollback() error { return t.tx.Rollback() }
