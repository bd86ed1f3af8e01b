// Package report builds read-only views over stored reconciliation results:
// the per-submission detail view and the aggregate analytics snapshot.
package report

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"

	"github.com/docverify/reconcile-cli/internal/compare"
	"github.com/docverify/reconcile-cli/internal/model"
	"github.com/docverify/reconcile-cli/internal/store"
)

// NotAvailable is shown when no canonical value exists for a field.
const NotAvailable = "Data Not Available"

// DefaultLookbackDays is the window for recent verification counts.
const DefaultLookbackDays = 30

// Matcher performs the read-only canonical lookups for a submission.
type Matcher interface {
	Match(ctx context.Context, rec *model.ExtractedRecord) (*model.MatchReport, error)
}

// Reporter builds detail and analytics views.
type Reporter struct {
	extracted store.ExtractedStore
	results   store.ResultStore
	matcher   Matcher
	dates     compare.DateRule
	now       func() time.Time
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithDateRule sets how canonical dates are rendered in the detail view.
func WithDateRule(r compare.DateRule) Option {
	return func(rp *Reporter) { rp.dates = r }
}

// WithClock overrides the clock used for the analytics window.
func WithClock(now func() time.Time) Option {
	return func(rp *Reporter) {
		if now != nil {
			rp.now = now
		}
	}
}

// New creates a Reporter.
func New(ex store.ExtractedStore, rs store.ResultStore, m Matcher, opts ...Option) *Reporter {
	rp := &Reporter{
		extracted: ex,
		results:   rs,
		matcher:   m,
		dates:     compare.DefaultDateRule(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(rp)
	}
	return rp
}

// FieldDetail shows one comparable field side by side with its stored outcome.
type FieldDetail struct {
	Field     model.Field   `json:"field"`
	Label     string        `json:"label"`
	Extracted string        `json:"extracted"`
	Canonical string        `json:"canonical"`
	Outcome   model.Outcome `json:"outcome"`
}

// Statistics summarises the comparable fields of one result. Mismatched is
// every comparable field that did not match, unknowns included.
type Statistics struct {
	TotalFields     int     `json:"total_fields"`
	Matched         int     `json:"matched"`
	Mismatched      int     `json:"mismatched"`
	MatchPercentage float64 `json:"match_percentage"`
}

// LandDetails carries ownership and encumbrance attributes of the parcel.
type LandDetails struct {
	OwnerName        string   `json:"owner_name"`
	Extent           string   `json:"extent"`
	LandType         string   `json:"land_type"`
	OwnershipType    string   `json:"ownership_type"`
	IsMainOwner      bool     `json:"is_main_owner"`
	IsGovtRestricted bool     `json:"is_govt_restricted"`
	IsCourtStay      bool     `json:"is_court_stay"`
	IsAlienated      bool     `json:"is_alienated"`
	AnyTransaction   bool     `json:"any_transaction"`
	Encumbrances     []string `json:"encumbrances,omitempty"`
}

// Detail is the verification detail view for one submission.
type Detail struct {
	SubmissionID int64          `json:"submission_id"`
	Status       model.Status   `json:"status"`
	OverallMatch bool           `json:"overall_match"`
	RiskScore    float64        `json:"risk_score"`
	RiskTier     model.RiskTier `json:"risk_tier"`
	VerifiedAt   *time.Time     `json:"verified_at,omitempty"`
	Fields       []FieldDetail  `json:"fields"`
	Statistics   Statistics     `json:"statistics"`
	Land         *LandDetails   `json:"land,omitempty"`
}

// Detail returns the detail view. It requires both an extracted record and a
// stored result and returns model.ErrNotFound otherwise.
func (rp *Reporter) Detail(ctx context.Context, submissionID int64) (*Detail, error) {
	rec, err := rp.extracted.GetExtracted(ctx, submissionID)
	if err != nil {
		return nil, eris.Wrapf(err, "report: load extracted %d", submissionID)
	}
	if rec == nil {
		return nil, eris.Wrapf(model.ErrNotFound, "report: no extracted record for submission %d", submissionID)
	}
	res, err := rp.results.GetResult(ctx, submissionID)
	if err != nil {
		return nil, eris.Wrapf(err, "report: load result %d", submissionID)
	}
	if res == nil {
		return nil, eris.Wrapf(model.ErrNotFound, "report: no result for submission %d", submissionID)
	}

	m, err := rp.matcher.Match(ctx, rec)
	if err != nil {
		return nil, eris.Wrapf(err, "report: canonical lookup %d", submissionID)
	}

	d := &Detail{
		SubmissionID: submissionID,
		Status:       res.Status,
		OverallMatch: res.OverallMatch,
		RiskScore:    res.RiskScore,
		RiskTier:     res.RiskTier,
	}
	if !res.VerifiedAt.IsZero() {
		v := res.VerifiedAt
		d.VerifiedAt = &v
	}

	extracted, canonical := rp.values(m)
	for _, f := range model.ComparableFields {
		info, _ := f.Info()
		d.Fields = append(d.Fields, FieldDetail{
			Field:     f,
			Label:     info.Label,
			Extracted: model.Deref(extracted[f]),
			Canonical: orNotAvailable(canonical[f]),
			Outcome:   res.Outcomes.Get(f),
		})
	}
	d.Statistics = statistics(res.Outcomes)
	if m.Land != nil {
		d.Land = landDetails(m.Land)
	}
	return d, nil
}

func (rp *Reporter) values(m *model.MatchReport) (extracted, canonical map[model.Field]*string) {
	rec := m.Extracted
	extracted = map[model.Field]*string{
		model.FieldIdentityName:   rec.IdentityName,
		model.FieldIdentityNumber: rec.IdentityNumber,
		model.FieldDOB:            rec.IdentityDOB,
		model.FieldTaxName:        rec.TaxName,
		model.FieldTaxNumber:      rec.TaxNumber,
		model.FieldSurveyNo:       rec.SurveyNo,
		model.FieldMeasuringArea:  rec.MeasuringArea,
		model.FieldVillage:        rec.Village,
		model.FieldHobli:          rec.Hobli,
		model.FieldTaluk:          rec.Taluk,
		model.FieldDistrict:       rec.District,
	}
	canonical = make(map[model.Field]*string, len(model.ComparableFields))
	if id := m.Identity; id != nil {
		canonical[model.FieldIdentityName] = &id.Name
		canonical[model.FieldIdentityNumber] = &id.Number
		canonical[model.FieldDOB] = rp.dates.Render(&id.DOB)
	}
	if tax := m.Tax; tax != nil {
		canonical[model.FieldTaxName] = &tax.Name
		canonical[model.FieldTaxNumber] = &tax.Number
	}
	if l := m.Land; l != nil {
		canonical[model.FieldSurveyNo] = l.SurveyNo
		canonical[model.FieldMeasuringArea] = l.MeasuringArea
		canonical[model.FieldVillage] = l.Village
		canonical[model.FieldHobli] = l.Hobli
		canonical[model.FieldTaluk] = l.Taluk
		canonical[model.FieldDistrict] = l.District
	}
	return extracted, canonical
}

func orNotAvailable(s *string) string {
	if s == nil || model.IsBlank(*s) {
		return NotAvailable
	}
	return *s
}

func statistics(out model.Outcomes) Statistics {
	total := len(model.ComparableFields)
	matched := 0
	for _, f := range model.ComparableFields {
		if out.Get(f) == model.OutcomeMatch {
			matched++
		}
	}
	st := Statistics{TotalFields: total, Matched: matched, Mismatched: total - matched}
	if total > 0 {
		st.MatchPercentage = math.Round(float64(matched)*100/float64(total)*100) / 100
	}
	return st
}

func landDetails(l *model.CanonicalLandRecord) *LandDetails {
	return &LandDetails{
		OwnerName:        model.Deref(l.OwnerName),
		Extent:           model.Deref(l.Extent),
		LandType:         model.Deref(l.LandType),
		OwnershipType:    model.Deref(l.OwnershipType),
		IsMainOwner:      l.IsMainOwner,
		IsGovtRestricted: l.IsGovtRestricted,
		IsCourtStay:      l.IsCourtStay,
		IsAlienated:      l.IsAlienated,
		AnyTransaction:   l.AnyTransaction,
		Encumbrances:     l.Encumbrances(),
	}
}
