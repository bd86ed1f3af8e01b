package scorer

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docverify/reconcile-cli/internal/model"
)

// outcomesWith builds a catalogue-ordered outcome list with the first
// `match` comparable fields matched, the next `mismatch` mismatched and the
// rest unknown. Presence fields are matched.
func outcomesWith(match, mismatch int) model.Outcomes {
	out := model.NewOutcomes()
	for i, f := range model.ComparableFields {
		switch {
		case i < match:
			out.Set(f, model.OutcomeMatch)
		case i < match+mismatch:
			out.Set(f, model.OutcomeMismatch)
		}
	}
	for _, f := range model.PresenceFields {
		out.Set(f, model.OutcomeMatch)
	}
	return out
}

func TestScore_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		match    int
		mismatch int
		pct      float64
		risk     float64
		verdict  bool
		status   model.Status
		tier     model.RiskTier
	}{
		{"all match", 11, 0, 100, 0, true, model.StatusVerified, model.RiskLow},
		{"exactly seventy", 7, 3, 70, 30, true, model.StatusVerified, model.RiskLow},
		{"just below seventy", 6, 3, 66.67, 33.33, false, model.StatusRejected, model.RiskLow},
		{"half", 5, 5, 50, 50, false, model.StatusRejected, model.RiskMedium},
		{"mostly mismatched", 2, 9, 18.18, 81.82, false, model.StatusRejected, model.RiskHigh},
		{"all mismatched", 0, 11, 0, 100, false, model.StatusRejected, model.RiskHigh},
	}
	s := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := s.Score(outcomesWith(tt.match, tt.mismatch))
			assert.Equal(t, tt.match, sc.Matched)
			assert.Equal(t, tt.match+tt.mismatch, sc.Known)
			assert.InDelta(t, tt.pct, sc.Percentage, 0.001)
			assert.InDelta(t, tt.risk, sc.RiskScore, 0.001)
			assert.Equal(t, tt.verdict, sc.Verdict)
			assert.Equal(t, tt.status, sc.Status)
			assert.Equal(t, tt.tier, sc.Tier)
		})
	}
}

func TestScore_AllUnknownIsRejected(t *testing.T) {
	sc := New().Score(outcomesWith(0, 0))

	assert.Equal(t, 0, sc.Known)
	assert.Equal(t, 0.0, sc.Percentage)
	assert.Equal(t, 100.0, sc.RiskScore)
	assert.False(t, sc.Verdict)
	assert.Equal(t, model.StatusRejected, sc.Status)
	assert.Equal(t, model.RiskHigh, sc.Tier)
}

func TestScore_UnknownShrinksDenominator(t *testing.T) {
	// Only the three land fields known, all matching: 100% despite eight unknowns.
	out := model.NewOutcomes()
	out.Set(model.FieldSurveyNo, model.OutcomeMatch)
	out.Set(model.FieldVillage, model.OutcomeMatch)
	out.Set(model.FieldDistrict, model.OutcomeMatch)

	sc := New().Score(out)
	assert.Equal(t, 3, sc.Known)
	assert.Equal(t, 100.0, sc.Percentage)
	assert.True(t, sc.Verdict)
}

func TestScore_PresenceFieldsIgnoredByDefault(t *testing.T) {
	out := model.NewOutcomes()
	out.Set(model.FieldIdentityNumber, model.OutcomeMismatch)
	out.Set(model.FieldApplicationNumber, model.OutcomeMatch)
	out.Set(model.FieldApplicantName, model.OutcomeMatch)

	sc := New().Score(out)
	assert.Equal(t, 1, sc.Known)
	assert.Equal(t, 0.0, sc.Percentage)
}

func TestScore_OrderIndependent(t *testing.T) {
	s := New(WithPolicy(Weights{
		model.FieldIdentityName:   0.3,
		model.FieldIdentityNumber: 0.7,
		model.FieldDOB:            0.1,
		model.FieldSurveyNo:       1.9,
		model.FieldVillage:        0.2,
		model.FieldTaxNumber:      1.1,
	}))
	base := outcomesWith(4, 5)
	want := s.Score(base)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		shuffled := make(model.Outcomes, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, s.Score(shuffled))
	}
}

func TestScore_Weighted(t *testing.T) {
	w := DefaultWeights()
	w[model.FieldIdentityNumber] = 4

	out := model.NewOutcomes()
	out.Set(model.FieldIdentityNumber, model.OutcomeMatch)
	out.Set(model.FieldIdentityName, model.OutcomeMismatch)

	unweighted := New().Score(out)
	weighted := New(WithPolicy(w)).Score(out)

	assert.Equal(t, 50.0, unweighted.Percentage)
	assert.Equal(t, 80.0, weighted.Percentage)
	assert.True(t, weighted.Verdict)
	assert.Equal(t, model.RiskLow, weighted.Tier)
}

func TestScore_PassThreshold(t *testing.T) {
	s := New(WithPassThreshold(80))
	sc := s.Score(outcomesWith(7, 3))
	assert.False(t, sc.Verdict)
	assert.Equal(t, 80.0, s.PassThreshold())
}

func TestScore_Apply(t *testing.T) {
	r := model.NewReconciliationResult(9)
	New().Score(outcomesWith(11, 0)).Apply(r)

	assert.True(t, r.OverallMatch)
	assert.Equal(t, model.StatusVerified, r.Status)
	assert.Equal(t, 100.0, r.MatchPercentage)
	assert.Equal(t, 0.0, r.RiskScore)
	assert.Equal(t, model.RiskLow, r.RiskTier)
	require.Len(t, r.Outcomes, len(model.AllFields))
}
