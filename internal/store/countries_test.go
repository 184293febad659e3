package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/scoutbase/transferroom-sync/internal/provider/transferroom"
)

func TestUpsertCountries_DedupesBatch(t *testing.T) {
	comps := []*transferroom.Competition{
		{ID: 1, CountryID: int64Ptr(10), Country: strPtr("Spain")},
		{ID: 2, CountryID: int64Ptr(10), Country: strPtr("Spain")},
		{ID: 3, CountryID: int64Ptr(20), Country: strPtr("Italy")},
		{ID: 4}, // continental competition, no country
		{ID: 5, CountryID: int64Ptr(0), Country: strPtr("Nowhere")},
		{ID: 6, CountryID: int64Ptr(30), Country: strPtr("")},
	}

	db := &fakeDBTX{rowFn: func(sql string, args []any) *fakeRow {
		// Internal id derived from the external id, independent of the
		// iteration order of the batch.
		return &fakeRow{vals: []any{args[0].(int64) + 100}}
	}}

	countryMap, err := UpsertCountries(context.Background(), db, comps)
	if err != nil {
		t.Fatalf("UpsertCountries failed: %v", err)
	}

	if len(db.sqls) != 2 {
		t.Errorf("statements = %d, want 2 (one per distinct country)", len(db.sqls))
	}
	if len(countryMap) != 2 {
		t.Fatalf("countryMap size = %d, want 2", len(countryMap))
	}
	if countryMap[10] != 110 {
		t.Errorf("countryMap[10] = %d, want 110", countryMap[10])
	}
	if countryMap[20] != 120 {
		t.Errorf("countryMap[20] = %d, want 120", countryMap[20])
	}
}

func TestUpsertCountries_EmptyBatch(t *testing.T) {
	db := &fakeDBTX{}

	countryMap, err := UpsertCountries(context.Background(), db, nil)
	if err != nil {
		t.Fatalf("UpsertCountries failed: %v", err)
	}
	if len(countryMap) != 0 {
		t.Errorf("countryMap size = %d, want 0", len(countryMap))
	}
	if len(db.sqls) != 0 {
		t.Errorf("statements = %d, want 0", len(db.sqls))
	}
}

func TestUpsertCountries_ErrorPropagates(t *testing.T) {
	comps := []*transferroom.Competition{
		{ID: 1, CountryID: int64Ptr(10), Country: strPtr("Spain")},
	}

	db := &fakeDBTX{rowFn: func(sql string, args []any) *fakeRow {
		return &fakeRow{err: errors.New("deadlock detected")}
	}}

	_, err := UpsertCountries(context.Background(), db, comps)
	if err == nil {
		t.Fatal("UpsertCountries succeeded, want error")
	}
	if !strings.Contains(err.Error(), "upsert country 10") {
		t.Errorf("error = %v, want upsert country 10 wrapping", err)
	}
}
