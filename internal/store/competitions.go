package store

import (
	"context"
	"fmt"

	"github.com/scoutbase/transferroom-sync/internal/config"
	"github.com/scoutbase/transferroom-sync/internal/provider/transferroom"
)

// CompetitionCount reports how many competitions have been ingested. The CLI
// checks it before a players-only sync, where an empty table means every
// player's competition link would come out NULL.
func CompetitionCount(ctx context.Context, db DBTX) (int64, error) {
	var n int64
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM `+config.CompetitionsTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("count competitions: %w", err)
	}
	return n, nil
}

// UpsertCompetition writes one competition row keyed by its TransferRoom id.
// countryMap resolves the country FK; an unknown country stores NULL rather
// than failing the record. Returns true when the row was newly inserted.
func UpsertCompetition(ctx context.Context, db DBTX, comp *transferroom.Competition, countryMap map[int64]int64) (bool, error) {
	if comp.ID == 0 {
		return false, fmt.Errorf("competition missing external id")
	}

	var countryID *int64
	if comp.CountryID != nil {
		if internal, ok := countryMap[*comp.CountryID]; ok {
			countryID = &internal
		}
	}

	var inserted bool
	err := db.QueryRow(ctx, `
		INSERT INTO `+config.CompetitionsTable+` (
			transferroom_competition_id, competition_name, country_id,
			transferroom_country_id, country_name, division_level, teams_data,
			avg_team_rating, avg_starter_rating, last_synced_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
		ON CONFLICT (transferroom_competition_id) DO UPDATE SET
			competition_name = EXCLUDED.competition_name,
			country_id = EXCLUDED.country_id,
			transferroom_country_id = EXCLUDED.transferroom_country_id,
			country_name = EXCLUDED.country_name,
			division_level = EXCLUDED.division_level,
			teams_data = EXCLUDED.teams_data,
			avg_team_rating = EXCLUDED.avg_team_rating,
			avg_starter_rating = EXCLUDED.avg_starter_rating,
			updated_at = NOW(),
			last_synced_at = NOW()
		RETURNING (xmax = 0)`,
		comp.ID, comp.CompetitionName, countryID, comp.CountryID, comp.Country,
		comp.DivisionLevel, transferroom.CanonicalJSON(comp.Teams),
		comp.AvgTeamRating, comp.AvgStarterRating,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert competition %d: %w", comp.ID, err)
	}
	return inserted, nil
}
