package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/docverify/reconcile-cli/internal/model"
)

var extractedColumns = []string{
	"submission_id",
	"identity_name", "identity_number", "identity_dob",
	"tax_name", "tax_number", "tax_dob",
	"survey_no", "measuring_area", "village", "hobli", "taluk", "district",
	"application_number", "applicant_name", "applicant_address",
}

func extractedValues(r *model.ExtractedRecord) []any {
	return []any{
		r.SubmissionID,
		r.IdentityName, r.IdentityNumber, r.IdentityDOB,
		r.TaxName, r.TaxNumber, r.TaxDOB,
		r.SurveyNo, r.MeasuringArea, r.Village, r.Hobli, r.Taluk, r.District,
		r.ApplicationNumber, r.ApplicantName, r.ApplicantAddress,
	}
}

// extractedDest returns scan targets matching extractedColumns plus created_at.
func extractedDest(r *model.ExtractedRecord) []any {
	return []any{
		&r.SubmissionID,
		&r.IdentityName, &r.IdentityNumber, &r.IdentityDOB,
		&r.TaxName, &r.TaxNumber, &r.TaxDOB,
		&r.SurveyNo, &r.MeasuringArea, &r.Village, &r.Hobli, &r.Taluk, &r.District,
		&r.ApplicationNumber, &r.ApplicantName, &r.ApplicantAddress,
		&r.CreatedAt,
	}
}

var landKeyColumns = []string{"survey_no", "measuring_area", "village", "hobli", "taluk", "district"}

var landColumns = append(append([]string{}, landKeyColumns...),
	"latitude", "longitude",
	"owner_name", "extent", "land_type", "ownership_type",
	"is_main_owner", "is_govt_restricted", "is_court_stay", "is_alienated", "any_transaction",
	"remarks",
)

func landValues(l *model.CanonicalLandRecord) []any {
	return []any{
		l.SurveyNo, l.MeasuringArea, l.Village, l.Hobli, l.Taluk, l.District,
		l.Latitude, l.Longitude,
		l.OwnerName, l.Extent, l.LandType, l.OwnershipType,
		l.IsMainOwner, l.IsGovtRestricted, l.IsCourtStay, l.IsAlienated, l.AnyTransaction,
		l.Remarks,
	}
}

// landDest returns scan targets for id, landColumns and created_at.
func landDest(l *model.CanonicalLandRecord) []any {
	return []any{
		&l.ID,
		&l.SurveyNo, &l.MeasuringArea, &l.Village, &l.Hobli, &l.Taluk, &l.District,
		&l.Latitude, &l.Longitude,
		&l.OwnerName, &l.Extent, &l.LandType, &l.OwnershipType,
		&l.IsMainOwner, &l.IsGovtRestricted, &l.IsCourtStay, &l.IsAlienated, &l.AnyTransaction,
		&l.Remarks,
		&l.CreatedAt,
	}
}

var landSelect = "SELECT id, " + strings.Join(landColumns, ", ") + ", created_at FROM canonical_land"

// resultColumns lists the reconciliation_results columns in write order: one
// nullable boolean per field in catalogue order between the keys and the score.
func resultColumns() []string {
	cols := []string{"id", "submission_id"}
	for _, f := range model.AllFields {
		cols = append(cols, f.Column())
	}
	return append(cols,
		"overall_match", "match_percentage", "risk_score", "risk_tier",
		"status", "verified_at", "created_at",
	)
}

func resultValues(r *model.ReconciliationResult) []any {
	vals := []any{r.ID, r.SubmissionID}
	for _, f := range model.AllFields {
		vals = append(vals, r.Outcomes.Get(f).Bool())
	}
	var verifiedAt *time.Time
	if !r.VerifiedAt.IsZero() {
		v := r.VerifiedAt
		verifiedAt = &v
	}
	return append(vals,
		r.OverallMatch, r.MatchPercentage, r.RiskScore, string(r.RiskTier),
		string(r.Status), verifiedAt, r.CreatedAt,
	)
}

type scannable interface {
	Scan(dest ...any) error
}

// scanResult reads a row selected with resultColumns. The driver's
// no-rows error is returned unwrapped.
func scanResult(row scannable) (*model.ReconciliationResult, error) {
	var (
		r          model.ReconciliationResult
		tier       string
		status     string
		verifiedAt *time.Time
	)
	matches := make([]*bool, len(model.AllFields))

	dest := []any{&r.ID, &r.SubmissionID}
	for i := range matches {
		dest = append(dest, &matches[i])
	}
	dest = append(dest,
		&r.OverallMatch, &r.MatchPercentage, &r.RiskScore, &tier,
		&status, &verifiedAt, &r.CreatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	r.Outcomes = make(model.Outcomes, len(model.AllFields))
	for i, f := range model.AllFields {
		r.Outcomes[i] = model.FieldOutcome{Field: f, Outcome: model.OutcomeFromBool(matches[i])}
	}
	r.RiskTier = model.RiskTier(tier)
	r.Status = model.Status(status)
	if verifiedAt != nil {
		r.VerifiedAt = verifiedAt.UTC()
	}
	return &r, nil
}

// resultUpsertSQL builds the insert for one result row. Conflicts on
// submission_id overwrite everything except the row identity and created_at.
func resultUpsertSQL(placeholder func(i int) string) string {
	cols := resultColumns()
	ph := make([]string, len(cols))
	var sets []string
	for i, c := range cols {
		ph[i] = placeholder(i + 1)
		switch c {
		case "id", "submission_id", "created_at":
		default:
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}
	return fmt.Sprintf(
		"INSERT INTO reconciliation_results (%s) VALUES (%s) ON CONFLICT (submission_id) DO UPDATE SET %s",
		strings.Join(cols, ", "), strings.Join(ph, ", "), strings.Join(sets, ", "),
	)
}

func resultSelectSQL() string {
	return "SELECT " + strings.Join(resultColumns(), ", ") + " FROM reconciliation_results"
}

func resultColumnsDDL(boolType string) string {
	var b strings.Builder
	for _, f := range model.AllFields {
		fmt.Fprintf(&b, "\t%s %s,\n", f.Column(), boolType)
	}
	return b.String()
}

func pgPlaceholder(i int) string { return fmt.Sprintf("$%d", i) }

func sqlitePlaceholder(int) string { return "?" }
