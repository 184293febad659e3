package store

import (
	"context"
	"fmt"

	"github.com/scoutbase/transferroom-sync/internal/config"
	"github.com/scoutbase/transferroom-sync/internal/provider/transferroom"
)

// UpsertCountries extracts the distinct countries referenced by a competition
// batch and upserts them, returning the TransferRoom country id → internal
// country_id mapping used to resolve competition foreign keys. Built once per
// sync from the full batch, not per row.
func UpsertCountries(ctx context.Context, db DBTX, comps []*transferroom.Competition) (map[int64]int64, error) {
	countries := make(map[int64]string)
	for _, comp := range comps {
		if comp.CountryID == nil || *comp.CountryID == 0 {
			continue
		}
		if comp.Country == nil || *comp.Country == "" {
			continue
		}
		countries[*comp.CountryID] = *comp.Country
	}

	countryMap := make(map[int64]int64, len(countries))
	for externalID, name := range countries {
		var internalID int64
		err := db.QueryRow(ctx, `
			INSERT INTO `+config.CountriesTable+` (transferroom_country_id, country_name)
			VALUES ($1, $2)
			ON CONFLICT (transferroom_country_id) DO UPDATE SET
				country_name = EXCLUDED.country_name,
				updated_at = NOW()
			RETURNING country_id`,
			externalID, name,
		).Scan(&internalID)
		if err != nil {
			return nil, fmt.Errorf("upsert country %d: %w", externalID, err)
		}
		countryMap[externalID] = internalID
	}
	return countryMap, nil
}
