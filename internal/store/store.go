package store

import (
	"context"
	"time"

	"github.com/docverify/reconcile-cli/internal/model"
)

// SubmissionFilter specifies criteria for listing submissions.
type SubmissionFilter struct {
	// OnlyPending restricts the listing to submissions without a result or
	// whose result is still Pending.
	OnlyPending bool `json:"only_pending,omitempty"`
	Limit       int  `json:"limit,omitempty"`
	Offset      int  `json:"offset,omitempty"`
}

// ResultStats aggregates stored reconciliation results.
type ResultStats struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
	Rejected int `json:"rejected"`
	Pending  int `json:"pending"`
	Recent   int `json:"recent"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// add tallies one result row. Risk tiers only count rows that have been
// verified at least once.
func (s *ResultStats) add(status model.Status, riskScore float64, verifiedAt *time.Time, since time.Time) {
	s.Total++
	switch status {
	case model.StatusVerified:
		s.Verified++
	case model.StatusRejected:
		s.Rejected++
	default:
		s.Pending++
	}
	if verifiedAt == nil {
		return
	}
	if !verifiedAt.Before(since) {
		s.Recent++
	}
	switch model.TierFor(riskScore) {
	case model.RiskHigh:
		s.High++
	case model.RiskMedium:
		s.Medium++
	default:
		s.Low++
	}
}

// MutateFunc updates a result in place inside the store transaction.
type MutateFunc func(r *model.ReconciliationResult) error

// ExtractedStore reads and writes document extraction output.
type ExtractedStore interface {
	// GetExtracted returns nil, nil when the submission has no extracted record.
	GetExtracted(ctx context.Context, submissionID int64) (*model.ExtractedRecord, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]int64, error)
}

// CanonicalStore looks up authoritative records. Every Find method returns
// nil, nil when nothing matches.
type CanonicalStore interface {
	FindIdentity(ctx context.Context, number string) (*model.CanonicalIdentityRecord, error)
	FindTax(ctx context.Context, number string) (*model.CanonicalTaxRecord, error)
	FindLand(ctx context.Context, surveyNo string) (*model.CanonicalLandRecord, error)
	FindLandByIdentity(ctx context.Context, id model.LandIdentity) (*model.CanonicalLandRecord, error)
}

// ResultStore persists at most one reconciliation result per submission.
type ResultStore interface {
	// GetResult returns nil, nil when the submission has no result.
	GetResult(ctx context.Context, submissionID int64) (*model.ReconciliationResult, error)
	// UpsertResult finds or creates the submission's result, applies mutate
	// and persists it in one transaction. If mutate fails nothing is written.
	UpsertResult(ctx context.Context, submissionID int64, mutate MutateFunc) (*model.ReconciliationResult, error)
	ResultStats(ctx context.Context, since time.Time) (*ResultStats, error)
}

// Importer bulk loads records keyed by their natural keys.
type Importer interface {
	SaveExtracted(ctx context.Context, recs []model.ExtractedRecord) (int64, error)
	ImportIdentities(ctx context.Context, recs []model.CanonicalIdentityRecord) (int64, error)
	ImportTax(ctx context.Context, recs []model.CanonicalTaxRecord) (int64, error)
	ImportLand(ctx context.Context, recs []model.CanonicalLandRecord) (int64, error)
}

// Store defines the persistence interface for reconciliation.
type Store interface {
	ExtractedStore
	CanonicalStore
	ResultStore
	Importer

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
