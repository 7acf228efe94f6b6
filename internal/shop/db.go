package shop

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the slice of pgx shared by *pgxpool.Pool, *pgxpool.Conn and
// pgx.Tx. Store writes take it as a parameter so the placement protocol
// can compose them into a single transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Conn is scoped to exactly one logical operation and must be released on
// every exit path.
type Conn interface {
	Begin(ctx context.Context) (Tx, error)
	Release()
}

// ConnProvider yields a usable connection per operation. Injected into the
// placement service instead of a process-global factory so tests can
// substitute doubles.
type ConnProvider interface {
	Acquire(ctx context.Context) (Conn, error)
}

// PoolProvider hands out pooled connections, one per operation.
type PoolProvider struct {
	Pool *pgxpool.Pool
}

func (p *PoolProvider) Acquire(ctx context.Context) (Conn, error) {
	c, err := p.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return &poolConn{c: c}, nil
}

type poolConn struct {
	c *pgxpool.Conn
}

func (pc *poolConn) Begin(ctx context.Context) (Tx, error) {
	return pc.c.Begin(ctx)
}

func (pc *poolConn) Release() {
	pc.c.Release()
}
