package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docverify/reconcile-cli/internal/config"
	"github.com/docverify/reconcile-cli/internal/model"
	"github.com/docverify/reconcile-cli/internal/scorer"
	"github.com/docverify/reconcile-cli/internal/store"
)

// useSQLiteConfig points the global config at a temp SQLite file.
func useSQLiteConfig(t *testing.T) string {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "cmd.db")
	cfg = &config.Config{
		Store: config.StoreConfig{Driver: "sqlite", DatabaseURL: dsn},
		Match: config.MatchConfig{
			DateFormat:    "02/01/2006",
			PassThreshold: 70,
		},
		Batch:  config.BatchConfig{MaxConcurrent: 2},
		Server: config.ServerConfig{Port: 8080},
	}
	return dsn
}

func newTestEnv(t *testing.T) *appEnv {
	t.Helper()
	dsn := useSQLiteConfig(t)
	st, err := store.NewSQLite(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	seedStore(t, st)
	return newEnv(st, scorer.New())
}

// seedStore loads one identity, two parcels and four submissions:
//
//	1: identity matches, village differs from the parcel
//	2: exact parcel tuple with coordinates
//	3: village missing
//	4: exact tuple of the parcel without coordinates
func seedStore(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()
	lat, lon := 13.34, 77.10

	_, err := st.ImportIdentities(ctx, []model.CanonicalIdentityRecord{
		{Name: "Ravi Kumar", Number: "1234", DOB: time.Date(1990, 2, 1, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)

	_, err = st.ImportLand(ctx, []model.CanonicalLandRecord{
		{
			SurveyNo: model.Ptr("42/1"), MeasuringArea: model.Ptr("2 acres"),
			Village: model.Ptr("Hosahalli"), Hobli: model.Ptr("Kasaba"),
			Taluk: model.Ptr("Tumkur"), District: model.Ptr("Tumkur"),
			Latitude: &lat, Longitude: &lon,
			OwnerName: model.Ptr("Ravi Kumar"), IsMainOwner: true,
		},
		{
			SurveyNo: model.Ptr("77"), MeasuringArea: model.Ptr("1 acre"),
			Village: model.Ptr("Kothur"), Hobli: model.Ptr("Kasaba"),
			Taluk: model.Ptr("Tumkur"), District: model.Ptr("Tumkur"),
		},
	})
	require.NoError(t, err)

	parcel := func(id int64, survey, area, village string) model.ExtractedRecord {
		rec := model.ExtractedRecord{
			SubmissionID:  id,
			SurveyNo:      model.Ptr(survey),
			MeasuringArea: model.Ptr(area),
			Hobli:         model.Ptr("Kasaba"),
			Taluk:         model.Ptr("Tumkur"),
			District:      model.Ptr("Tumkur"),
		}
		if village != "" {
			rec.Village = model.Ptr(village)
		}
		return rec
	}

	first := parcel(1, "42/1", "2 acres", "Beladhara")
	first.IdentityName = model.Ptr("Ravi Kumar")
	first.IdentityNumber = model.Ptr("1234")
	first.IdentityDOB = model.Ptr("01/02/1990")

	_, err = st.SaveExtracted(ctx, []model.ExtractedRecord{
		first,
		parcel(2, "42/1", "2 acres", "Hosahalli"),
		parcel(3, "42/1", "2 acres", ""),
		parcel(4, "77", "1 acre", "Kothur"),
	})
	require.NoError(t, err)
}
