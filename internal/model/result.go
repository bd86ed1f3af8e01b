package model

import "time"

// Status is the verdict label stored on a reconciliation result.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusVerified Status = "Verified"
	StatusRejected Status = "Rejected"
)

// RiskTier buckets a risk score for reporting.
type RiskTier string

const (
	RiskHigh   RiskTier = "High"
	RiskMedium RiskTier = "Medium"
	RiskLow    RiskTier = "Low"
)

// Tier thresholds on the risk score (0-100).
const (
	HighRiskThreshold   = 80.0
	MediumRiskThreshold = 50.0
)

// TierFor returns the risk tier for a risk score.
//   - High: score >= 80
//   - Medium: 50 <= score < 80
//   - Low: score < 50
func TierFor(riskScore float64) RiskTier {
	switch {
	case riskScore >= HighRiskThreshold:
		return RiskHigh
	case riskScore >= MediumRiskThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ReconciliationResult is the single persisted verdict for a submission.
type ReconciliationResult struct {
	ID              string    `json:"id"`
	SubmissionID    int64     `json:"submission_id"`
	Outcomes        Outcomes  `json:"outcomes"`
	OverallMatch    bool      `json:"overall_match"`
	MatchPercentage float64   `json:"match_percentage"`
	RiskScore       float64   `json:"risk_score"`
	RiskTier        RiskTier  `json:"risk_tier"`
	Status          Status    `json:"status"`
	VerifiedAt      time.Time `json:"verified_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewReconciliationResult builds the default result for a submission that
// has never been verified.
func NewReconciliationResult(submissionID int64) *ReconciliationResult {
	return &ReconciliationResult{
		SubmissionID: submissionID,
		Outcomes:     NewOutcomes(),
		RiskTier:     RiskLow,
		Status:       StatusPending,
	}
}

// MatchReport is the ephemeral output of one comparison run.
type MatchReport struct {
	SubmissionID int64                    `json:"submission_id"`
	Outcomes     Outcomes                 `json:"outcomes"`
	Extracted    *ExtractedRecord         `json:"-"`
	Identity     *CanonicalIdentityRecord `json:"-"`
	Tax          *CanonicalTaxRecord      `json:"-"`
	Land         *CanonicalLandRecord     `json:"-"`
}
