// Package geo resolves a submission's land parcel to stored coordinates by
// joining its extracted land identity against the canonical land records.
package geo

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/docverify/reconcile-cli/internal/metrics"
	"github.com/docverify/reconcile-cli/internal/model"
	"github.com/docverify/reconcile-cli/internal/store"
)

// Outcome labels recorded for each resolution.
const (
	OutcomeResolved        = "resolved"
	OutcomeNotFound        = "not_found"
	OutcomeIncompleteInput = "incomplete_input"
	OutcomeNoCoordinates   = "no_coordinates"
	OutcomeError           = "error"
)

// CorrelatorOption configures a Correlator.
type CorrelatorOption func(*Correlator)

// WithMetrics records resolution outcomes on m.
func WithMetrics(m *metrics.Metrics) CorrelatorOption {
	return func(c *Correlator) {
		c.metrics = m
	}
}

// Correlator finds the canonical land record whose six identity fields equal
// the submission's. It only reads.
type Correlator struct {
	extracted store.ExtractedStore
	canonical store.CanonicalStore
	metrics   *metrics.Metrics
}

// NewCorrelator creates a new Correlator.
func NewCorrelator(ex store.ExtractedStore, cs store.CanonicalStore, opts ...CorrelatorOption) *Correlator {
	c := &Correlator{extracted: ex, canonical: cs}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the coordinates of the submission's land parcel.
//
// Errors:
//   - model.ErrNotFound: no extracted record, or no land record matches all six fields
//   - model.ErrIncompleteInput: a land identity field is blank; the canonical store is not queried
//   - model.ErrCoordinatesUnavailable: the matched record has no coordinates
func (c *Correlator) Resolve(ctx context.Context, submissionID int64) (*model.GeoResolution, error) {
	res, err := c.resolve(ctx, submissionID)
	c.metrics.IncrementGeo(outcomeOf(err))
	if err != nil {
		zap.L().Debug("geo: resolve failed",
			zap.Int64("submission_id", submissionID),
			zap.Error(err),
		)
		return nil, err
	}
	return res, nil
}

func (c *Correlator) resolve(ctx context.Context, submissionID int64) (*model.GeoResolution, error) {
	rec, err := c.extracted.GetExtracted(ctx, submissionID)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: load extracted %d", submissionID)
	}
	if rec == nil {
		return nil, eris.Wrapf(model.ErrNotFound, "geo: no extracted record for submission %d", submissionID)
	}

	id, complete := rec.LandIdentity()
	if !complete {
		return nil, eris.Wrapf(model.ErrIncompleteInput, "geo: submission %d is missing land identity fields", submissionID)
	}

	land, err := c.canonical.FindLandByIdentity(ctx, id.Trimmed())
	if err != nil {
		return nil, eris.Wrapf(err, "geo: find land for submission %d", submissionID)
	}
	if land == nil {
		return nil, eris.Wrapf(model.ErrNotFound, "geo: no land record matches submission %d", submissionID)
	}
	if !land.HasCoordinates() {
		return nil, eris.Wrapf(model.ErrCoordinatesUnavailable, "geo: land record %d", land.ID)
	}

	return &model.GeoResolution{
		SubmissionID: submissionID,
		SurveyNo:     model.Deref(land.SurveyNo),
		Latitude:     *land.Latitude,
		Longitude:    *land.Longitude,
		Land:         land,
	}, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeResolved
	case errors.Is(err, model.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, model.ErrIncompleteInput):
		return OutcomeIncompleteInput
	case errors.Is(err, model.ErrCoordinatesUnavailable):
		return OutcomeNoCoordinates
	default:
		return OutcomeError
	}
}
