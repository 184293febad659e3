// Package ingest orchestrates the fetch → decode → upsert loop for each
// entity type. Every flow runs under a sync run audit row: per-record
// failures are counted and sampled but never abort the run, while auth and
// fetch failures close the run as failed before propagating.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/scoutbase/transferroom-sync/internal/store"
	"github.com/scoutbase/transferroom-sync/internal/syncrun"
)

// DB is the database dependency: statement execution plus transaction entry.
// *db.Pool satisfies it.
type DB interface {
	store.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Source yields raw records from the TransferRoom API. *transferroom.Client
// satisfies it.
type Source interface {
	FetchCompetitions(ctx context.Context) ([]json.RawMessage, error)
	FetchPlayers(ctx context.Context, offset, limit int) ([]json.RawMessage, error)
}

// Config carries the batching knobs.
type Config struct {
	PageSize     int // players requested per API page
	SubBatchSize int // records committed per transaction
}

// Pipeline sequences the per-entity sync flows.
type Pipeline struct {
	db     DB
	source Source
	cfg    Config
	logger *slog.Logger
}

// New creates a pipeline. Zero config fields fall back to the upstream page
// size (10000) and the default commit cadence (100).
func New(db DB, source Source, cfg Config, logger *slog.Logger) *Pipeline {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10000
	}
	if cfg.SubBatchSize <= 0 {
		cfg.SubBatchSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{db: db, source: source, cfg: cfg, logger: logger}
}

// withSubBatch runs fn inside one transaction. fn returns only
// infrastructural errors; per-record failures are absorbed inside it via
// savepoints, so a bad record never forces replaying committed work.
func (p *Pipeline) withSubBatch(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin sub-batch: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit sub-batch: %w", err)
	}
	return nil
}

// upsertIsolated runs one record's upsert inside a savepoint. On failure only
// that record's statements roll back; the surrounding sub-batch stays alive.
func upsertIsolated(ctx context.Context, tx pgx.Tx, fn func(sp pgx.Tx) (bool, error)) (bool, error) {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("savepoint: %w", err)
	}
	inserted, err := fn(sp)
	if err != nil {
		_ = sp.Rollback(ctx)
		return false, err
	}
	if err := sp.Commit(ctx); err != nil {
		return false, fmt.Errorf("release savepoint: %w", err)
	}
	return inserted, nil
}

// fail closes the run as failed before propagating err, so an escaping error
// never leaves a run in_progress. The closure uses an uncancelable context:
// the audit row must be written even when err is a cancellation.
func (p *Pipeline) fail(ctx context.Context, run *syncrun.Run, stats *syncrun.Stats, err error) error {
	if closeErr := run.Fail(context.WithoutCancel(ctx), stats, err.Error()); closeErr != nil {
		p.logger.Error("failed to close sync run", "sync_run_id", run.ID, "error", closeErr)
	}
	return err
}
