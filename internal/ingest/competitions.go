package ingest

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/scoutbase/transferroom-sync/internal/provider/transferroom"
	"github.com/scoutbase/transferroom-sync/internal/store"
	"github.com/scoutbase/transferroom-sync/internal/syncrun"
)

// LoadCompetitionsFile reads the competition seed file: a JSON array of
// competition records in the upstream schema.
func LoadCompetitionsFile(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read competitions file: %w", err)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse competitions file %s: %w", path, err)
	}
	return records, nil
}

// SyncCompetitions ingests the competition reference list as one batch.
// fetch is the one-shot source: the seed file in the default wiring, the
// live endpoint with --competitions-from-api. The run row opens before fetch
// so even a missing seed file leaves a failed run on record.
func (p *Pipeline) SyncCompetitions(ctx context.Context, fetch func(ctx context.Context) ([]json.RawMessage, error)) error {
	stats := &syncrun.Stats{}
	run, err := syncrun.Start(ctx, p.db, syncrun.TypeCompetitions, p.logger)
	if err != nil {
		return err
	}

	records, err := fetch(ctx)
	if err != nil {
		return p.fail(ctx, run, stats, fmt.Errorf("load competitions: %w", err))
	}
	stats.Fetched = len(records)
	p.logger.Info("loaded competitions", "count", len(records))

	// Decode the whole batch up front: the country map is built from every
	// record before the first competition row is written.
	comps := make([]*transferroom.Competition, 0, len(records))
	for _, raw := range records {
		comp, err := transferroom.DecodeCompetition(raw)
		if err != nil {
			stats.AddErrorf("decode competition: %v", err)
			continue
		}
		comps = append(comps, comp)
	}

	countryMap, err := store.UpsertCountries(ctx, p.db, comps)
	if err != nil {
		return p.fail(ctx, run, stats, err)
	}
	p.logger.Info("upserted countries", "count", len(countryMap))

	for start := 0; start < len(comps); start += p.cfg.SubBatchSize {
		end := min(start+p.cfg.SubBatchSize, len(comps))
		batch := comps[start:end]

		err := p.withSubBatch(ctx, func(tx pgx.Tx) error {
			for _, comp := range batch {
				inserted, err := upsertIsolated(ctx, tx, func(sp pgx.Tx) (bool, error) {
					return store.UpsertCompetition(ctx, sp, comp, countryMap)
				})
				if err != nil {
					p.logger.Error("failed to upsert competition", "id", comp.ID, "error", err)
					stats.AddError(err.Error())
					continue
				}
				if inserted {
					stats.Inserted++
				} else {
					stats.Updated++
				}
			}
			return nil
		})
		if err != nil {
			return p.fail(ctx, run, stats, err)
		}
	}

	p.logger.Info("competitions ingestion finished", "summary", stats.Summary())
	return run.Complete(ctx, stats)
}
