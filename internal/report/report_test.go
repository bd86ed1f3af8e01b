package report

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docverify/reconcile-cli/internal/matcher"
	"github.com/docverify/reconcile-cli/internal/model"
	"github.com/docverify/reconcile-cli/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "report.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seed(t *testing.T, st *store.SQLiteStore) {
	t.Helper()
	ctx := context.Background()
	lat, lon := 13.34, 77.10

	_, err := st.ImportIdentities(ctx, []model.CanonicalIdentityRecord{
		{Name: "Ravi Kumar", Number: "1234", DOB: time.Date(1990, 2, 1, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	_, err = st.ImportLand(ctx, []model.CanonicalLandRecord{{
		SurveyNo: model.Ptr("42/1"), MeasuringArea: model.Ptr("2 acres"),
		Village: model.Ptr("Hosahalli"), Hobli: model.Ptr("Kasaba"),
		Taluk: model.Ptr("Tumkur"), District: model.Ptr("Tumkur"),
		Latitude: &lat, Longitude: &lon,
		OwnerName: model.Ptr("Ravi Kumar"), LandType: model.Ptr("Dry"),
		IsMainOwner: true, IsAlienated: true,
	}})
	require.NoError(t, err)
	_, err = st.SaveExtracted(ctx, []model.ExtractedRecord{{
		SubmissionID:   1,
		IdentityName:   model.Ptr("Ravi Kumar"),
		IdentityNumber: model.Ptr("1234"),
		IdentityDOB:    model.Ptr("01/02/1990"),
		TaxNumber:      model.Ptr("NOPE0000X"),
		SurveyNo:       model.Ptr("42/1"),
		MeasuringArea:  model.Ptr("2 acres"),
		Village:        model.Ptr("Beladhara"),
		Hobli:          model.Ptr("Kasaba"),
		Taluk:          model.Ptr("Tumkur"),
		District:       model.Ptr("Tumkur"),
	}})
	require.NoError(t, err)
}

func TestDetail(t *testing.T) {
	st := newTestStore(t)
	seed(t, st)
	ctx := context.Background()
	eng := matcher.NewFromStore(st)

	_, err := eng.Reconcile(ctx, 1)
	require.NoError(t, err)

	d, err := New(st, st, eng).Detail(ctx, 1)
	require.NoError(t, err)
	require.Len(t, d.Fields, 11)

	byField := make(map[model.Field]FieldDetail, len(d.Fields))
	for _, f := range d.Fields {
		byField[f.Field] = f
	}
	assert.Equal(t, "01/02/1990", byField[model.FieldDOB].Canonical)
	assert.Equal(t, model.OutcomeMatch, byField[model.FieldDOB].Outcome)
	assert.Equal(t, "1234", byField[model.FieldIdentityNumber].Canonical)
	assert.Equal(t, model.OutcomeMatch, byField[model.FieldIdentityNumber].Outcome)
	assert.Equal(t, NotAvailable, byField[model.FieldTaxName].Canonical)
	assert.Equal(t, model.OutcomeUnknown, byField[model.FieldTaxName].Outcome)
	assert.Equal(t, "Beladhara", byField[model.FieldVillage].Extracted)
	assert.Equal(t, "Hosahalli", byField[model.FieldVillage].Canonical)
	assert.Equal(t, model.OutcomeMismatch, byField[model.FieldVillage].Outcome)

	// 8 matched of 11: identity x3, survey, area, hobli, taluk, district.
	assert.Equal(t, Statistics{TotalFields: 11, Matched: 8, Mismatched: 3, MatchPercentage: 72.73}, d.Statistics)

	require.NotNil(t, d.Land)
	assert.Equal(t, "Ravi Kumar", d.Land.OwnerName)
	assert.True(t, d.Land.IsMainOwner)
	assert.Equal(t, []string{"alienated"}, d.Land.Encumbrances)
	require.NotNil(t, d.VerifiedAt)
	// 8 of 9 known fields match.
	assert.Equal(t, model.StatusVerified, d.Status)
}

func TestDetail_NotFound(t *testing.T) {
	st := newTestStore(t)
	seed(t, st)
	ctx := context.Background()
	rp := New(st, st, matcher.NewFromStore(st))

	_, err := rp.Detail(ctx, 99)
	assert.ErrorIs(t, err, model.ErrNotFound)

	// Extracted record exists but has never been reconciled.
	_, err = rp.Detail(ctx, 1)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

type failingMatcher struct{ err error }

func (f failingMatcher) Match(context.Context, *model.ExtractedRecord) (*model.MatchReport, error) {
	return nil, f.err
}

func TestDetail_LookupFailure(t *testing.T) {
	st := newTestStore(t)
	seed(t, st)
	ctx := context.Background()
	_, err := matcher.NewFromStore(st).Reconcile(ctx, 1)
	require.NoError(t, err)

	boom := errors.New("connection refused")
	_, err = New(st, st, failingMatcher{err: boom}).Detail(ctx, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, model.IsStoreFailure(err))
}

func TestAnalytics(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)

	mutate := func(status model.Status, risk float64, at time.Time) store.MutateFunc {
		return func(r *model.ReconciliationResult) error {
			r.Status = status
			r.RiskScore = risk
			r.RiskTier = model.TierFor(risk)
			r.VerifiedAt = at
			return nil
		}
	}
	_, err := st.UpsertResult(ctx, 1, mutate(model.StatusVerified, 20, now.AddDate(0, 0, -1)))
	require.NoError(t, err)
	_, err = st.UpsertResult(ctx, 2, mutate(model.StatusRejected, 55, now.AddDate(0, 0, -10)))
	require.NoError(t, err)
	_, err = st.UpsertResult(ctx, 3, mutate(model.StatusRejected, 100, now.AddDate(0, 0, -60)))
	require.NoError(t, err)

	a, err := New(st, st, nil, WithClock(func() time.Time { return now })).Analytics(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, a.TotalResults)
	assert.Equal(t, 1, a.Verified)
	assert.Equal(t, 2, a.Rejected)
	assert.Equal(t, 0, a.Pending)
	assert.Equal(t, 2, a.RecentVerifications)
	assert.Equal(t, RiskDistribution{High: 1, Medium: 1, Low: 1}, a.RiskDistribution)
	assert.Equal(t, DefaultLookbackDays, a.LookbackDays)
	assert.Equal(t, now, a.CollectedAt)
}

func TestStatistics(t *testing.T) {
	out := model.NewOutcomes()
	assert.Equal(t, Statistics{TotalFields: 11, Matched: 0, Mismatched: 11, MatchPercentage: 0}, statistics(out))

	for _, f := range model.ComparableFields[:3] {
		out.Set(f, model.OutcomeMatch)
	}
	out.Set(model.FieldApplicantName, model.OutcomeMatch)
	assert.Equal(t, Statistics{TotalFields: 11, Matched: 3, Mismatched: 8, MatchPercentage: 27.27}, statistics(out))
}
