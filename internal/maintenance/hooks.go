// Package maintenance holds post-sync database housekeeping.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scoutbase/transferroom-sync/internal/config"
)

// AnalyzeSyncTables refreshes planner statistics on the entity tables after a
// bulk sync. A full players run rewrites most of its table, which leaves the
// statistics badly stale. Failures are logged, never fatal: the sync itself
// already succeeded.
func AnalyzeSyncTables(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) {
	tables := []string{
		config.CountriesTable,
		config.CompetitionsTable,
		config.PlayersTable,
	}

	for _, t := range tables {
		start := time.Now()
		_, err := pool.Exec(ctx, "ANALYZE "+t)
		dur := time.Since(start).Round(time.Millisecond)

		if err != nil {
			logger.Warn("Failed to analyze table", "table", t, "duration", dur, "error", err)
			continue
		}
		logger.Info("Analyzed table", "table", t, "duration", dur)
	}
}
