package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/scoutbase/transferroom-sync/internal/config"
	"github.com/scoutbase/transferroom-sync/internal/provider/transferroom"
)

// UpsertPlayer writes one player row keyed by its TransferRoom id, applying
// the field-level normalizations (position expansion, date truncation, nested
// JSON canonicalization) on the way in. The competition FK is resolved by a
// point lookup against already-persisted competitions; a miss stores NULL.
// Returns true when the row was newly inserted.
func UpsertPlayer(ctx context.Context, db DBTX, p *transferroom.Player) (bool, error) {
	if p.TRID == 0 {
		return false, fmt.Errorf("player missing external id")
	}

	var competitionID *int64
	if p.CompetitionID != nil && *p.CompetitionID != 0 {
		var id int64
		err := db.QueryRow(ctx, "competition_id_by_external", *p.CompetitionID).Scan(&id)
		switch {
		case err == nil:
			competitionID = &id
		case errors.Is(err, pgx.ErrNoRows):
			// Competition not ingested yet; a later players run resolves it.
		default:
			return false, fmt.Errorf("resolve competition %d: %w", *p.CompetitionID, err)
		}
	}

	raw := p.Raw
	if len(raw) == 0 {
		raw, _ = json.Marshal(p)
	}

	var inserted bool
	err := db.QueryRow(ctx, `
		INSERT INTO `+config.PlayersTable+` (
			transferroom_player_id, wyscout_id, trmarkt_id, name, birth_date,
			parent_team_id, current_team_id, parent_team, current_team,
			team_history, country, country_id, competition_id,
			transferroom_competition_id, competition, division_level,
			competition_name_mapped, parent_country, parent_country_id,
			parent_competition, parent_division_level, nationality1,
			nationality1_country_id, nationality2, nationality2_country_id,
			first_position, second_position, first_position_full,
			second_position_full, playing_style, preferred_foot,
			contract_expiry, agency, agency_verified, estimated_salary,
			shortlisted, current_club_recent_mins_perc, gbe_score, gbe_result,
			gbe_int_app_pts, gbe_dom_mins_pts, gbe_cont_mins_pts,
			gbe_league_pos_pts, gbe_cont_prog_pts, gbe_league_std_pts, xtv,
			xtv_change_6m_perc, xtv_change_12m_perc, xtv_history, base_value,
			base_value_history, rating, potential, available_sale,
			available_asking_price, available_sell_on, available_loan,
			available_monthly_loan_fee, available_currency, raw_data,
			last_synced_at
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,
			$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
			$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,
			$31,$32,$33,$34,$35,$36,$37,$38,$39,$40,
			$41,$42,$43,$44,$45,$46,$47,$48,$49,$50,
			$51,$52,$53,$54,$55,$56,$57,$58,$59,$60,
			NOW()
		)
		ON CONFLICT (transferroom_player_id) DO UPDATE SET
			wyscout_id = EXCLUDED.wyscout_id,
			trmarkt_id = EXCLUDED.trmarkt_id,
			name = EXCLUDED.name,
			birth_date = EXCLUDED.birth_date,
			parent_team_id = EXCLUDED.parent_team_id,
			current_team_id = EXCLUDED.current_team_id,
			parent_team = EXCLUDED.parent_team,
			current_team = EXCLUDED.current_team,
			team_history = EXCLUDED.team_history,
			country = EXCLUDED.country,
			country_id = EXCLUDED.country_id,
			competition_id = EXCLUDED.competition_id,
			transferroom_competition_id = EXCLUDED.transferroom_competition_id,
			competition = EXCLUDED.competition,
			division_level = EXCLUDED.division_level,
			competition_name_mapped = EXCLUDED.competition_name_mapped,
			parent_country = EXCLUDED.parent_country,
			parent_country_id = EXCLUDED.parent_country_id,
			parent_competition = EXCLUDED.parent_competition,
			parent_division_level = EXCLUDED.parent_division_level,
			nationality1 = EXCLUDED.nationality1,
			nationality1_country_id = EXCLUDED.nationality1_country_id,
			nationality2 = EXCLUDED.nationality2,
			nationality2_country_id = EXCLUDED.nationality2_country_id,
			first_position = EXCLUDED.first_position,
			second_position = EXCLUDED.second_position,
			first_position_full = EXCLUDED.first_position_full,
			second_position_full = EXCLUDED.second_position_full,
			playing_style = EXCLUDED.playing_style,
			preferred_foot = EXCLUDED.preferred_foot,
			contract_expiry = EXCLUDED.contract_expiry,
			agency = EXCLUDED.agency,
			agency_verified = EXCLUDED.agency_verified,
			estimated_salary = EXCLUDED.estimated_salary,
			shortlisted = EXCLUDED.shortlisted,
			current_club_recent_mins_perc = EXCLUDED.current_club_recent_mins_perc,
			gbe_score = EXCLUDED.gbe_score,
			gbe_result = EXCLUDED.gbe_result,
			gbe_int_app_pts = EXCLUDED.gbe_int_app_pts,
			gbe_dom_mins_pts = EXCLUDED.gbe_dom_mins_pts,
			gbe_cont_mins_pts = EXCLUDED.gbe_cont_mins_pts,
			gbe_league_pos_pts = EXCLUDED.gbe_league_pos_pts,
			gbe_cont_prog_pts = EXCLUDED.gbe_cont_prog_pts,
			gbe_league_std_pts = EXCLUDED.gbe_league_std_pts,
			xtv = EXCLUDED.xtv,
			xtv_change_6m_perc = EXCLUDED.xtv_change_6m_perc,
			xtv_change_12m_perc = EXCLUDED.xtv_change_12m_perc,
			xtv_history = EXCLUDED.xtv_history,
			base_value = EXCLUDED.base_value,
			base_value_history = EXCLUDED.base_value_history,
			rating = EXCLUDED.rating,
			potential = EXCLUDED.potential,
			available_sale = EXCLUDED.available_sale,
			available_asking_price = EXCLUDED.available_asking_price,
			available_sell_on = EXCLUDED.available_sell_on,
			available_loan = EXCLUDED.available_loan,
			available_monthly_loan_fee = EXCLUDED.available_monthly_loan_fee,
			available_currency = EXCLUDED.available_currency,
			raw_data = EXCLUDED.raw_data,
			updated_at = NOW(),
			last_synced_at = NOW()
		RETURNING (xmax = 0)`,
		p.TRID, p.WyscoutID, p.TrmarktID, p.Name, transferroom.DateOnly(p.BirthDate),
		p.ParentTeamID, p.CurrentTeamID, p.ParentTeam, p.CurrentTeam,
		transferroom.CanonicalJSON(p.TeamHistory), p.Country, p.CountryID, competitionID,
		p.CompetitionID, p.Competition, p.DivisionLevel,
		p.CompetitionNameMapped, p.ParentCountry, p.ParentCountryID,
		p.ParentCompetition, p.ParentDivisionLevel, p.Nationality1,
		p.Nationality1CountryID, p.Nationality2, p.Nationality2CountryID,
		p.FirstPosition, p.SecondPosition, transferroom.FullPosition(p.FirstPosition),
		transferroom.FullPosition(p.SecondPosition), p.PlayingStyle, p.PreferredFoot,
		transferroom.DateOnly(p.ContractExpiry), p.Agency, p.AgencyVerified, p.EstimatedSalary,
		p.Shortlisted, p.CurrentClubRecentMins, p.GBEScore, p.GBEResult,
		p.GBEIntAppPts, p.GBEDomMinsPts, p.GBEContMinsPts,
		p.GBELeaguePosPts, p.GBEContProgPts, p.GBELeagueStdPts, p.XTV,
		p.XTVChange6mPerc, p.XTVChange12mPerc, transferroom.CanonicalJSON(p.XTVHistory), p.BaseValue,
		transferroom.CanonicalJSON(p.BaseValueHistory), p.Rating, p.Potential, p.AvailableSale,
		p.AvailableAskingPrice, p.AvailableSellOn, p.AvailableLoan,
		p.AvailableMonthlyFee, p.AvailableCurrency, raw,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert player %d: %w", p.TRID, err)
	}
	return inserted, nil
}
