// Package store applies idempotent writes to the TransferRoom tables. Every
// upsert is keyed by the upstream external id: insert if absent, otherwise
// overwrite all mutable columns and refresh last_synced_at. Last write wins;
// re-ingesting the same entity never creates a second row.
package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx behavior the store needs. Both *pgxpool.Pool and
// pgx.Tx satisfy it, so the same upsert runs standalone or inside a sub-batch
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
