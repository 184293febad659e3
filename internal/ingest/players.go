package ingest

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/scoutbase/transferroom-sync/internal/provider/transferroom"
	"github.com/scoutbase/transferroom-sync/internal/store"
	"github.com/scoutbase/transferroom-sync/internal/syncrun"
)

type playerPage struct {
	records []json.RawMessage
	err     error
}

// SyncPlayers ingests players page by page until the API returns an empty
// page or maxRecords successfully processed records are reached.
// maxRecords <= 0 means no ceiling.
func (p *Pipeline) SyncPlayers(ctx context.Context, maxRecords int) error {
	stats := &syncrun.Stats{}
	run, err := syncrun.Start(ctx, p.db, syncrun.TypePlayers, p.logger)
	if err != nil {
		return err
	}

	if err := p.ingestPlayerPages(ctx, stats, maxRecords); err != nil {
		return p.fail(ctx, run, stats, err)
	}

	p.logger.Info("players ingestion finished", "summary", stats.Summary())
	return run.Complete(ctx, stats)
}

// ingestPlayerPages drives the pagination loop. The next page downloads while
// the current one commits; a single-buffered channel keeps writes in page
// order so counters stay monotonic.
func (p *Pipeline) ingestPlayerPages(ctx context.Context, stats *syncrun.Stats, maxRecords int) error {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pages := make(chan playerPage, 1)
	go func() {
		defer close(pages)
		offset := 0
		for {
			records, err := p.source.FetchPlayers(fetchCtx, offset, p.cfg.PageSize)
			select {
			case pages <- playerPage{records: records, err: err}:
			case <-fetchCtx.Done():
				return
			}
			if err != nil || len(records) == 0 {
				return
			}
			offset += p.cfg.PageSize
		}
	}()

	processed := 0
	for page := range pages {
		if page.err != nil {
			return page.err
		}
		if len(page.records) == 0 {
			p.logger.Info("no more players to fetch")
			return nil
		}

		stats.Fetched += len(page.records)
		p.logger.Info("fetched players page",
			"count", len(page.records), "total_fetched", stats.Fetched)

		reached, err := p.processPlayerPage(ctx, page.records, stats, maxRecords, &processed)
		if err != nil {
			return err
		}
		if reached {
			p.logger.Info("reached max records ceiling", "max_records", maxRecords)
			return nil
		}
	}
	return nil
}

// processPlayerPage upserts one page in sub-batch transactions, isolating
// each record in a savepoint. Returns true once the processed-record ceiling
// is hit.
func (p *Pipeline) processPlayerPage(ctx context.Context, records []json.RawMessage, stats *syncrun.Stats, maxRecords int, processed *int) (bool, error) {
	for start := 0; start < len(records); start += p.cfg.SubBatchSize {
		end := min(start+p.cfg.SubBatchSize, len(records))
		batch := records[start:end]

		var reached bool
		err := p.withSubBatch(ctx, func(tx pgx.Tx) error {
			for _, raw := range batch {
				player, err := transferroom.DecodePlayer(raw)
				if err != nil {
					stats.AddErrorf("decode player: %v", err)
					continue
				}

				inserted, err := upsertIsolated(ctx, tx, func(sp pgx.Tx) (bool, error) {
					return store.UpsertPlayer(ctx, sp, player)
				})
				if err != nil {
					p.logger.Error("failed to upsert player", "tr_id", player.TRID, "error", err)
					stats.AddError(err.Error())
					continue
				}

				if inserted {
					stats.Inserted++
				} else {
					stats.Updated++
				}
				*processed++
				if maxRecords > 0 && *processed >= maxRecords {
					reached = true
					return nil
				}
			}
			return nil
		})
		if err != nil {
			return false, err
		}

		p.logger.Info("committed sub-batch",
			"processed", *processed, "inserted", stats.Inserted,
			"updated", stats.Updated, "failed", stats.Failed)

		if reached {
			return true, nil
		}
	}
	return false, nil
}
