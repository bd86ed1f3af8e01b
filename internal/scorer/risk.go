package scorer

import (
	"math"
	"sort"

	"github.com/docverify/reconcile-cli/internal/model"
)

// Policy supplies the weight of each field. Weights is the stock
// implementation; tests and callers may inject their own.
type Policy interface {
	Weight(f model.Field) float64
}

// Score is the aggregate of one set of outcomes.
type Score struct {
	Known         int            `json:"known"`
	Matched       int            `json:"matched"`
	KnownWeight   float64        `json:"known_weight"`
	MatchedWeight float64        `json:"matched_weight"`
	Percentage    float64        `json:"percentage"`
	RiskScore     float64        `json:"risk_score"`
	Verdict       bool           `json:"verdict"`
	Status        model.Status   `json:"status"`
	Tier          model.RiskTier `json:"tier"`
}

// Scorer turns outcomes into a Score under a weight policy.
type Scorer struct {
	policy        Policy
	passThreshold float64
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithPolicy replaces the default unweighted policy.
func WithPolicy(p Policy) Option {
	return func(s *Scorer) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithPassThreshold sets the minimum percentage for a Verified verdict.
func WithPassThreshold(t float64) Option {
	return func(s *Scorer) {
		if t > 0 {
			s.passThreshold = t
		}
	}
}

// New creates a Scorer. Without options it applies the unweighted
// eleven-field rule with a 70% pass threshold.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		policy:        DefaultWeights(),
		passThreshold: DefaultPassThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PassThreshold returns the configured pass threshold.
func (s *Scorer) PassThreshold() float64 {
	return s.passThreshold
}

// Score aggregates outcomes. Unknown outcomes and zero-weight fields count in
// neither numerator nor denominator; with nothing known the percentage is 0.
// The result does not depend on the order of outcomes.
func (s *Scorer) Score(outcomes model.Outcomes) Score {
	sorted := make(model.Outcomes, len(outcomes))
	copy(sorted, outcomes)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Field != sorted[j].Field {
			return sorted[i].Field < sorted[j].Field
		}
		return sorted[i].Outcome < sorted[j].Outcome
	})

	var sc Score
	for _, fo := range sorted {
		if !fo.Outcome.Known() {
			continue
		}
		w := s.policy.Weight(fo.Field)
		if w <= 0 {
			continue
		}
		sc.Known++
		sc.KnownWeight += w
		if fo.Outcome == model.OutcomeMatch {
			sc.Matched++
			sc.MatchedWeight += w
		}
	}

	var pct float64
	if sc.KnownWeight > 0 {
		pct = sc.MatchedWeight * 100 / sc.KnownWeight
	}

	sc.Verdict = pct >= s.passThreshold
	sc.Status = model.StatusRejected
	if sc.Verdict {
		sc.Status = model.StatusVerified
	}
	sc.Percentage = round2(pct)
	sc.RiskScore = round2(100 - pct)
	sc.Tier = model.TierFor(sc.RiskScore)
	return sc
}

// Apply copies the score onto a result, leaving outcomes and timestamps alone.
func (sc Score) Apply(r *model.ReconciliationResult) {
	r.OverallMatch = sc.Verdict
	r.MatchPercentage = sc.Percentage
	r.RiskScore = sc.RiskScore
	r.RiskTier = sc.Tier
	r.Status = sc.Status
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
