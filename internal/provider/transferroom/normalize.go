package transferroom

import (
	"bytes"
	"time"

	"github.com/goccy/go-json"
)

// positionNames maps TransferRoom position codes to full names.
var positionNames = map[string]string{
	"GK": "Goalkeeper",
	"CB": "Centre-Back",
	"LB": "Left-Back",
	"RB": "Right-Back",
	"DM": "Defensive-Midfield",
	"CM": "Central-Midfield",
	"AM": "Attacking-Midfield",
	"W":  "Winger",
	"F":  "Forward",
}

// FullPosition expands a position code ("CB") to its full name
// ("Centre-Back"). Codes outside the table pass through unchanged; nil and
// empty stay nil.
func FullPosition(code *string) *string {
	if code == nil || *code == "" {
		return nil
	}
	if full, ok := positionNames[*code]; ok {
		return &full
	}
	return code
}

var dateLayouts = []string{
	"2006-01-02T15:04:05", // TransferRoom timestamps carry no zone
	time.RFC3339,
	"2006-01-02",
}

// DateOnly parses an ISO timestamp like "1995-06-26T00:00:00" and truncates
// it to the date. Absent or unparseable input yields nil, never an error.
func DateOnly(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, *s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// CanonicalJSON normalizes a nested field (team history, value history,
// competition teams) for a JSONB column. The API delivers these either as
// structured JSON or as a JSON-encoded string; both forms re-serialize to the
// same canonical bytes. Malformed input yields nil so a bad nested blob never
// sinks the whole record.
func CanonicalJSON(raw json.RawMessage) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil
		}
		trimmed = []byte(s)
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return out
}
