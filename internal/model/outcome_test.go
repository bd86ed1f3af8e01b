package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogue(t *testing.T) {
	assert.Len(t, AllFields, 14)
	assert.Len(t, ComparableFields, 11)
	assert.Equal(t, []Field{FieldApplicationNumber, FieldApplicantName, FieldApplicantAddress}, PresenceFields)
	assert.Equal(t, FieldIdentityName, AllFields[0])

	assert.True(t, FieldDOB.Valid())
	assert.True(t, FieldDOB.Comparable())
	assert.False(t, FieldApplicantName.Comparable())
	assert.False(t, Field("bogus").Valid())
	assert.Equal(t, "survey_no_match", FieldSurveyNo.Column())

	info, ok := FieldTaxNumber.Info()
	require.True(t, ok)
	assert.Equal(t, SourceTax, info.Source)
}

func TestOutcome_BoolRoundTrip(t *testing.T) {
	for _, o := range []Outcome{OutcomeMatch, OutcomeMismatch, OutcomeUnknown} {
		assert.Equal(t, o, OutcomeFromBool(o.Bool()), o)
	}
	assert.Nil(t, OutcomeUnknown.Bool())
	assert.True(t, OutcomeMatch.Known())
	assert.False(t, OutcomeUnknown.Known())
}

func TestOutcomes_SetGetCount(t *testing.T) {
	out := NewOutcomes()
	assert.Equal(t, len(AllFields), out.Count(OutcomeUnknown))

	out.Set(FieldVillage, OutcomeMatch)
	out.Set(FieldTaluk, OutcomeMismatch)
	assert.Equal(t, OutcomeMatch, out.Get(FieldVillage))
	assert.Equal(t, OutcomeMismatch, out.Get(FieldTaluk))
	assert.Equal(t, 1, out.Count(OutcomeMatch))
	assert.Len(t, out, len(AllFields))

	var sparse Outcomes
	assert.Equal(t, OutcomeUnknown, sparse.Get(FieldVillage))
	sparse.Set(FieldVillage, OutcomeMatch)
	assert.Len(t, sparse, 1)
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		score float64
		want  RiskTier
	}{
		{100, RiskHigh},
		{80, RiskHigh},
		{79.99, RiskMedium},
		{50, RiskMedium},
		{49.99, RiskLow},
		{0, RiskLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.score), tt.score)
	}
}

func TestNewReconciliationResult(t *testing.T) {
	r := NewReconciliationResult(12)
	assert.Equal(t, int64(12), r.SubmissionID)
	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, len(AllFields), r.Outcomes.Count(OutcomeUnknown))
	assert.False(t, r.OverallMatch)
}
