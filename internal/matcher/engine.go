// Package matcher reconciles a submission's extracted fields against the
// canonical identity, tax and land records and persists the verdict.
package matcher

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/docverify/reconcile-cli/internal/compare"
	"github.com/docverify/reconcile-cli/internal/metrics"
	"github.com/docverify/reconcile-cli/internal/model"
	"github.com/docverify/reconcile-cli/internal/scorer"
	"github.com/docverify/reconcile-cli/internal/store"
)

// Option configures an Engine.
type Option func(*Engine)

// WithScorer replaces the default unweighted scorer.
func WithScorer(s *scorer.Scorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithDateRule sets how the date of birth is compared.
func WithDateRule(r compare.DateRule) Option {
	return func(e *Engine) {
		e.dates = r
	}
}

// WithClock overrides the clock used to stamp verified-at.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMetrics records outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// Engine runs reconciliations. It holds no per-submission state and is safe
// for concurrent use.
type Engine struct {
	extracted store.ExtractedStore
	canonical store.CanonicalStore
	results   store.ResultStore

	scorer  *scorer.Scorer
	dates   compare.DateRule
	now     func() time.Time
	metrics *metrics.Metrics
}

// New creates an Engine over the given stores.
func New(ex store.ExtractedStore, cs store.CanonicalStore, rs store.ResultStore, opts ...Option) *Engine {
	e := &Engine{
		extracted: ex,
		canonical: cs,
		results:   rs,
		scorer:    scorer.New(),
		dates:     compare.DefaultDateRule(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewFromStore creates an Engine backed by a single Store.
func NewFromStore(st store.Store, opts ...Option) *Engine {
	return New(st, st, st, opts...)
}

// Reconcile compares the submission's extracted record with the canonical
// records, scores the outcomes and overwrites the submission's single
// result. It returns model.ErrNotFound when there is no extracted record.
// Store failures abort the run and nothing is written.
func (e *Engine) Reconcile(ctx context.Context, submissionID int64) (*model.ReconciliationResult, error) {
	start := time.Now()
	log := zap.L().With(zap.Int64("submission_id", submissionID))

	res, err := e.reconcile(ctx, submissionID)
	if err != nil {
		e.metrics.IncrementReconcileError()
		return nil, err
	}

	e.metrics.ObserveReconciliation(string(res.Status), res.RiskScore, time.Since(start))
	log.Info("matcher: reconciled",
		zap.String("status", string(res.Status)),
		zap.Float64("match_percentage", res.MatchPercentage),
		zap.Float64("risk_score", res.RiskScore),
		zap.String("risk_tier", string(res.RiskTier)),
	)
	return res, nil
}

func (e *Engine) reconcile(ctx context.Context, submissionID int64) (*model.ReconciliationResult, error) {
	rec, err := e.extracted.GetExtracted(ctx, submissionID)
	if err != nil {
		return nil, eris.Wrapf(err, "matcher: load extracted %d", submissionID)
	}
	if rec == nil {
		return nil, eris.Wrapf(model.ErrNotFound, "matcher: no extracted record for submission %d", submissionID)
	}

	report, err := e.Match(ctx, rec)
	if err != nil {
		return nil, err
	}
	score := e.scorer.Score(report.Outcomes)

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "matcher: cancelled before write")
	}

	verifiedAt := e.now()
	res, err := e.results.UpsertResult(ctx, submissionID, func(r *model.ReconciliationResult) error {
		r.Outcomes = append(model.Outcomes(nil), report.Outcomes...)
		score.Apply(r)
		r.VerifiedAt = verifiedAt
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "matcher: write result %d", submissionID)
	}
	return res, nil
}

// Match looks up the canonical records for rec and compares every field. It
// writes nothing.
func (e *Engine) Match(ctx context.Context, rec *model.ExtractedRecord) (*model.MatchReport, error) {
	report := &model.MatchReport{SubmissionID: rec.SubmissionID, Extracted: rec}

	g, gctx := errgroup.WithContext(ctx)
	if key := model.Deref(rec.IdentityNumber); !model.IsBlank(key) {
		g.Go(func() error {
			r, err := e.canonical.FindIdentity(gctx, key)
			report.Identity = r
			return eris.Wrap(err, "matcher: identity lookup")
		})
	}
	if key := model.Deref(rec.TaxNumber); !model.IsBlank(key) {
		g.Go(func() error {
			r, err := e.canonical.FindTax(gctx, key)
			report.Tax = r
			return eris.Wrap(err, "matcher: tax lookup")
		})
	}
	if key := model.Deref(rec.SurveyNo); !model.IsBlank(key) {
		g.Go(func() error {
			r, err := e.canonical.FindLand(gctx, key)
			report.Land = r
			return eris.Wrap(err, "matcher: land lookup")
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Outcomes = e.compareFields(rec, report)
	return report, nil
}

// compareFields fills one outcome per catalogue field. Fields whose
// canonical record is absent stay unknown.
func (e *Engine) compareFields(rec *model.ExtractedRecord, report *model.MatchReport) model.Outcomes {
	out := model.NewOutcomes()

	if id := report.Identity; id != nil {
		out.Set(model.FieldIdentityName, compare.Text(rec.IdentityName, &id.Name))
		out.Set(model.FieldIdentityNumber, compare.Text(rec.IdentityNumber, &id.Number))
		out.Set(model.FieldDOB, e.dates.Compare(rec.IdentityDOB, &id.DOB))
	}
	if tax := report.Tax; tax != nil {
		out.Set(model.FieldTaxName, compare.Text(rec.TaxName, &tax.Name))
		out.Set(model.FieldTaxNumber, compare.Text(rec.TaxNumber, &tax.Number))
	}
	if land := report.Land; land != nil {
		out.Set(model.FieldSurveyNo, compare.Text(rec.SurveyNo, land.SurveyNo))
		out.Set(model.FieldMeasuringArea, compare.Text(rec.MeasuringArea, land.MeasuringArea))
		out.Set(model.FieldVillage, compare.Text(rec.Village, land.Village))
		out.Set(model.FieldHobli, compare.Text(rec.Hobli, land.Hobli))
		out.Set(model.FieldTaluk, compare.Text(rec.Taluk, land.Taluk))
		out.Set(model.FieldDistrict, compare.Text(rec.District, land.District))
	}

	out.Set(model.FieldApplicationNumber, compare.Presence(rec.ApplicationNumber))
	out.Set(model.FieldApplicantName, compare.Presence(rec.ApplicantName))
	out.Set(model.FieldApplicantAddress, compare.Presence(rec.ApplicantAddress))
	return out
}
