package syncrun

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"

	"github.com/scoutbase/transferroom-sync/internal/config"
	"github.com/scoutbase/transferroom-sync/internal/store"
)

// Sync types.
const (
	TypeCompetitions = "competitions"
	TypePlayers      = "players"
)

// Run statuses.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Run is one open audit row. It is mutated only through Complete and Fail,
// and at most once: after the first terminal close further closes are no-ops.
type Run struct {
	ID        int64
	Type      string
	StartedAt time.Time

	db     store.DBTX
	logger *slog.Logger
	closed bool
}

// Start opens a new run in in_progress state. It is called before the first
// fetch so an aborted sync still leaves a traceable row.
func Start(ctx context.Context, db store.DBTX, syncType string, logger *slog.Logger) (*Run, error) {
	if logger == nil {
		logger = slog.Default()
	}
	startedAt := time.Now().UTC()

	var id int64
	err := db.QueryRow(ctx, `
		INSERT INTO `+config.SyncRunsTable+` (sync_type, status, started_at)
		VALUES ($1, $2, $3)
		RETURNING sync_run_id`,
		syncType, StatusInProgress, startedAt,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("start sync run: %w", err)
	}

	logger.Info("started sync run", "sync_run_id", id, "sync_type", syncType)
	return &Run{ID: id, Type: syncType, StartedAt: startedAt, db: db, logger: logger}, nil
}

// Complete closes the run as completed with final counters.
func (r *Run) Complete(ctx context.Context, stats *Stats) error {
	return r.close(ctx, StatusCompleted, stats, "")
}

// Fail closes the run as failed, recording the fatal error message alongside
// whatever counters accumulated before the failure.
func (r *Run) Fail(ctx context.Context, stats *Stats, errMsg string) error {
	return r.close(ctx, StatusFailed, stats, errMsg)
}

func (r *Run) close(ctx context.Context, status string, stats *Stats, errMsg string) error {
	if r.closed {
		return nil
	}

	completedAt := time.Now().UTC()
	duration := int(completedAt.Sub(r.StartedAt).Seconds())

	errs := stats.Errors
	if errs == nil {
		errs = []string{}
	}
	metadata, _ := json.Marshal(map[string]any{"errors": errs})

	var msg *string
	if errMsg != "" {
		msg = &errMsg
	}

	_, err := r.db.Exec(ctx, `
		UPDATE `+config.SyncRunsTable+` SET
			status = $1,
			records_fetched = $2,
			records_inserted = $3,
			records_updated = $4,
			records_failed = $5,
			error_message = $6,
			completed_at = $7,
			duration_seconds = $8,
			metadata = $9
		WHERE sync_run_id = $10`,
		status, stats.Fetched, stats.Inserted, stats.Updated, stats.Failed,
		msg, completedAt, duration, metadata, r.ID,
	)
	if err != nil {
		return fmt.Errorf("close sync run %d: %w", r.ID, err)
	}

	r.closed = true
	r.logger.Info("closed sync run",
		"sync_run_id", r.ID, "sync_type", r.Type, "status", status,
		"summary", stats.Summary(), "duration_seconds", duration)
	return nil
}

// Record is one data_sync_runs row as listed by `trsync runs`.
type Record struct {
	ID        int64
	Type      string
	Status    string
	StartedAt time.Time
	Duration  *int
	Fetched   int
	Inserted  int
	Updated   int
	Failed    int
	Error     *string
}

// Recent returns the latest runs, newest first.
func Recent(ctx context.Context, db store.DBTX, limit int) ([]Record, error) {
	rows, err := db.Query(ctx, `
		SELECT sync_run_id, sync_type, status, started_at, duration_seconds,
			records_fetched, records_inserted, records_updated, records_failed,
			error_message
		FROM `+config.SyncRunsTable+`
		ORDER BY started_at DESC, sync_run_id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sync runs: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Type, &rec.Status, &rec.StartedAt,
			&rec.Duration, &rec.Fetched, &rec.Inserted, &rec.Updated,
			&rec.Failed, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
