package transferroom

import (
	"strings"

	"github.com/goccy/go-json"
)

// FlexBool is a bool that also accepts the JSON strings "true"/"false" in any
// case. TransferRoom emits boolean flags in both encodings.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = FlexBool(strings.EqualFold(s, "true"))
		return nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*b = FlexBool(v)
	return nil
}

// Competition is one record of the competition reference list, either from
// the seed file or from the /competitions endpoint. Field names follow the
// upstream schema.
type Competition struct {
	ID               int64           `json:"Id"`
	CompetitionName  *string         `json:"CompetitionName"`
	Country          *string         `json:"Country"`
	CountryID        *int64          `json:"CountryId"`
	DivisionLevel    *int            `json:"DivisionLevel"`
	AvgTeamRating    *float64        `json:"AvgTeamRating"`
	AvgStarterRating *float64        `json:"AvgStarterRating"`
	Teams            json.RawMessage `json:"Teams"` // array or JSON-encoded string
}

// Player is one element of the /players response. Field names follow the
// upstream schema; Raw retains the undecoded element for the raw_data column
// so future columns can be backfilled without re-fetching.
type Player struct {
	TRID                  int64           `json:"TR_ID"`
	WyscoutID             *int64          `json:"wyscout_id"`
	TrmarktID             *int64          `json:"trmarkt_id"`
	Name                  *string         `json:"Name"`
	BirthDate             *string         `json:"BirthDate"`
	ParentTeamID          *int64          `json:"ParentTeamId"`
	CurrentTeamID         *int64          `json:"CurrentTeamId"`
	ParentTeam            *string         `json:"ParentTeam"`
	CurrentTeam           *string         `json:"CurrentTeam"`
	TeamHistory           json.RawMessage `json:"TeamHistory"`
	Country               *string         `json:"Country"`
	CountryID             *int64          `json:"CountryId"`
	CompetitionID         *int64          `json:"CompetitionId"`
	Competition           *string         `json:"Competition"`
	DivisionLevel         *int            `json:"DivisionLevel"`
	CompetitionNameMapped *string         `json:"CompetitionName_Mapped"`
	ParentCountry         *string         `json:"ParentCountry"`
	ParentCountryID       *int64          `json:"ParentCountryId"`
	ParentCompetition     *string         `json:"ParentCompetition"`
	ParentDivisionLevel   *int            `json:"ParentDivisionLevel"`
	Nationality1          *string         `json:"Nationality1"`
	Nationality1CountryID *int64          `json:"Nationality1CountryId"`
	Nationality2          *string         `json:"Nationality2"`
	Nationality2CountryID *int64          `json:"Nationality2CountryId"`
	FirstPosition         *string         `json:"FirstPosition"`
	SecondPosition        *string         `json:"SecondPosition"`
	PlayingStyle          *string         `json:"PlayingStyle"`
	PreferredFoot         *string         `json:"PreferredFoot"`
	ContractExpiry        *string         `json:"ContractExpiry"`
	Agency                *string         `json:"Agency"`
	AgencyVerified        *FlexBool       `json:"AgencyVerified"`
	EstimatedSalary       *float64        `json:"EstimatedSalary"`
	Shortlisted           *FlexBool       `json:"Shortlisted"`
	CurrentClubRecentMins *float64        `json:"CurrentClubRecentMinsPerc"`
	GBEScore              *float64        `json:"GBEScore"`
	GBEResult             *string         `json:"GBEResult"`
	GBEIntAppPts          *float64        `json:"GBEIntAppPts"`
	GBEDomMinsPts         *float64        `json:"GBEDomMinsPts"`
	GBEContMinsPts        *float64        `json:"GBEContMinsPts"`
	GBELeaguePosPts       *float64        `json:"GBELeaguePosPts"`
	GBEContProgPts        *float64        `json:"GBEContProgPts"`
	GBELeagueStdPts       *float64        `json:"GBELeagueStdPts"`
	XTV                   *float64        `json:"xTV"`
	XTVChange6mPerc       *float64        `json:"xTVChange6mPerc"`
	XTVChange12mPerc      *float64        `json:"xTVChange12mPerc"`
	XTVHistory            json.RawMessage `json:"xTVHistory"`
	BaseValue             *float64        `json:"BaseValue"`
	BaseValueHistory      json.RawMessage `json:"BaseValueHistory"`
	Rating                *float64        `json:"Rating"`
	Potential             *float64        `json:"Potential"`
	AvailableSale         *FlexBool       `json:"AvailableSale"`
	AvailableAskingPrice  *float64        `json:"AvailableAskingPrice"`
	AvailableSellOn       *float64        `json:"AvailableSellOn"`
	AvailableLoan         *FlexBool       `json:"AvailableLoan"`
	AvailableMonthlyFee   *float64        `json:"AvailableMonthlyLoanFee"`
	AvailableCurrency     *string         `json:"AvailableCurrency"`

	Raw json.RawMessage `json:"-"`
}

// DecodePlayer parses one element of a players page, retaining the original
// bytes. A decode failure is a per-record error: the caller counts it and
// moves on.
func DecodePlayer(data json.RawMessage) (*Player, error) {
	var p Player
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	p.Raw = append(json.RawMessage(nil), data...)
	return &p, nil
}

// DecodeCompetition parses one element of the competition list.
func DecodeCompetition(data json.RawMessage) (*Competition, error) {
	var c Competition
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
