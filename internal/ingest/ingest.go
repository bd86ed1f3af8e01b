// Package ingest turns header-mapped tabular rows into extracted and
// canonical records and hands them to the store's bulk importer.
package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/docverify/reconcile-cli/internal/compare"
	"github.com/docverify/reconcile-cli/internal/fetcher"
	"github.com/docverify/reconcile-cli/internal/model"
	"github.com/docverify/reconcile-cli/internal/store"
)

// Kind names the record type held by an import file.
type Kind string

const (
	KindIdentity  Kind = "identity"
	KindTax       Kind = "tax"
	KindLand      Kind = "land"
	KindExtracted Kind = "extracted"
)

// Kinds lists the accepted import kinds.
var Kinds = []Kind{KindIdentity, KindTax, KindLand, KindExtracted}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", eris.Errorf("ingest: unknown kind %q (want identity, tax, land or extracted)", s)
}

// Options tunes value parsing.
type Options struct {
	// DateLayouts are tried in order for date columns.
	DateLayouts []string
}

func (o Options) layouts() []string {
	if len(o.DateLayouts) > 0 {
		return o.DateLayouts
	}
	return compare.DefaultDateLayouts
}

// RowError reports a data row that could not be decoded.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Batch holds the decoded records of one file. Only the slice matching Kind
// is populated.
type Batch struct {
	Kind       Kind
	Extracted  []model.ExtractedRecord
	Identities []model.CanonicalIdentityRecord
	Tax        []model.CanonicalTaxRecord
	Land       []model.CanonicalLandRecord
	Skipped    []RowError
}

// Len is the number of decoded records.
func (b *Batch) Len() int {
	switch b.Kind {
	case KindExtracted:
		return len(b.Extracted)
	case KindIdentity:
		return len(b.Identities)
	case KindTax:
		return len(b.Tax)
	case KindLand:
		return len(b.Land)
	}
	return 0
}

var requiredColumns = map[Kind][]string{
	KindIdentity:  {"number", "name", "dob"},
	KindTax:       {"number", "name"},
	KindLand:      {"survey_no", "measuring_area", "village", "hobli", "taluk", "district"},
	KindExtracted: {"submission_id"},
}

// Decode reads a header row followed by data rows. Rows that fail to decode
// are recorded in Skipped; a missing required column or a source error
// aborts the whole batch.
func Decode(ctx context.Context, kind Kind, rows <-chan fetcher.Row, errs <-chan error, opts Options) (*Batch, error) {
	b := &Batch{Kind: kind}

	var cols columns
	for row := range rows {
		if cols == nil {
			cols = mapColumns(row.Cells)
			if missing := cols.missing(requiredColumns[kind]...); len(missing) > 0 {
				drain(rows)
				return nil, eris.Errorf("ingest: %s file is missing columns: %s", kind, strings.Join(missing, ", "))
			}
			continue
		}
		if err := b.decodeRow(cols, row, opts); err != nil {
			b.Skipped = append(b.Skipped, RowError{Line: row.Line, Err: err})
		}
	}
	for err := range errs {
		if err != nil {
			return nil, eris.Wrap(err, "ingest: read rows")
		}
	}
	if ctx.Err() != nil {
		return nil, eris.Wrap(ctx.Err(), "ingest: decode")
	}
	if cols == nil {
		return nil, eris.Errorf("ingest: %s file has no header row", kind)
	}
	return b, nil
}

func drain(rows <-chan fetcher.Row) {
	for range rows {
	}
}

func (b *Batch) decodeRow(c columns, row fetcher.Row, opts Options) error {
	r := row.Cells
	switch b.Kind {
	case KindIdentity:
		rec, err := decodeIdentity(c, r, opts.layouts())
		if err != nil {
			return err
		}
		b.Identities = append(b.Identities, rec)
	case KindTax:
		rec, err := decodeTax(c, r, opts.layouts())
		if err != nil {
			return err
		}
		b.Tax = append(b.Tax, rec)
	case KindLand:
		rec, err := decodeLand(c, r)
		if err != nil {
			return err
		}
		b.Land = append(b.Land, rec)
	case KindExtracted:
		rec, err := decodeExtracted(c, r)
		if err != nil {
			return err
		}
		b.Extracted = append(b.Extracted, rec)
	default:
		return eris.Errorf("unknown kind %q", b.Kind)
	}
	return nil
}

func decodeIdentity(c columns, r []string, layouts []string) (model.CanonicalIdentityRecord, error) {
	rec := model.CanonicalIdentityRecord{
		Number: c.get(r, "number"),
		Name:   c.get(r, "name"),
	}
	if rec.Number == "" {
		return rec, eris.New("number is blank")
	}
	dob, err := parseDate(c.get(r, "dob"), layouts)
	if err != nil {
		return rec, err
	}
	if dob == nil {
		return rec, eris.New("dob is blank")
	}
	rec.DOB = *dob
	return rec, nil
}

func decodeTax(c columns, r []string, layouts []string) (model.CanonicalTaxRecord, error) {
	rec := model.CanonicalTaxRecord{
		Number: c.get(r, "number"),
		Name:   c.get(r, "name"),
	}
	if rec.Number == "" {
		return rec, eris.New("number is blank")
	}
	dob, err := parseDate(c.get(r, "dob"), layouts)
	if err != nil {
		return rec, err
	}
	rec.DOB = dob
	return rec, nil
}

func decodeLand(c columns, r []string) (model.CanonicalLandRecord, error) {
	rec := model.CanonicalLandRecord{
		SurveyNo:      c.optional(r, "survey_no"),
		MeasuringArea: c.optional(r, "measuring_area"),
		Village:       c.optional(r, "village"),
		Hobli:         c.optional(r, "hobli"),
		Taluk:         c.optional(r, "taluk"),
		District:      c.optional(r, "district"),
		OwnerName:     c.optional(r, "owner_name"),
		Extent:        c.optional(r, "extent"),
		LandType:      c.optional(r, "land_type"),
		OwnershipType: c.optional(r, "ownership_type"),
		Remarks:       c.optional(r, "remarks"),
	}

	var err error
	if rec.Latitude, err = parseFloat(c.get(r, "latitude", "lat")); err != nil {
		return rec, eris.Wrap(err, "latitude")
	}
	if rec.Longitude, err = parseFloat(c.get(r, "longitude", "lon", "lng")); err != nil {
		return rec, eris.Wrap(err, "longitude")
	}
	if rec.Latitude != nil && (*rec.Latitude < -90 || *rec.Latitude > 90) {
		return rec, eris.Errorf("latitude %v out of range", *rec.Latitude)
	}
	if rec.Longitude != nil && (*rec.Longitude < -180 || *rec.Longitude > 180) {
		return rec, eris.Errorf("longitude %v out of range", *rec.Longitude)
	}

	flags := []struct {
		col string
		dst *bool
	}{
		{"is_main_owner", &rec.IsMainOwner},
		{"is_govt_restricted", &rec.IsGovtRestricted},
		{"is_court_stay", &rec.IsCourtStay},
		{"is_alienated", &rec.IsAlienated},
		{"any_transaction", &rec.AnyTransaction},
	}
	for _, f := range flags {
		v, err := parseBool(c.get(r, f.col))
		if err != nil {
			return rec, eris.Wrap(err, f.col)
		}
		*f.dst = v
	}
	return rec, nil
}

func decodeExtracted(c columns, r []string) (model.ExtractedRecord, error) {
	raw := c.get(r, "submission_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return model.ExtractedRecord{}, eris.Errorf("invalid submission_id %q", raw)
	}
	return model.ExtractedRecord{
		SubmissionID:      id,
		IdentityName:      c.optional(r, "identity_name"),
		IdentityNumber:    c.optional(r, "identity_number"),
		IdentityDOB:       c.optional(r, "identity_dob"),
		TaxName:           c.optional(r, "tax_name"),
		TaxNumber:         c.optional(r, "tax_number"),
		TaxDOB:            c.optional(r, "tax_dob"),
		SurveyNo:          c.optional(r, "survey_no"),
		MeasuringArea:     c.optional(r, "measuring_area"),
		Village:           c.optional(r, "village"),
		Hobli:             c.optional(r, "hobli"),
		Taluk:             c.optional(r, "taluk"),
		District:          c.optional(r, "district"),
		ApplicationNumber: c.optional(r, "application_number"),
		ApplicantName:     c.optional(r, "applicant_name"),
		ApplicantAddress:  c.optional(r, "applicant_address"),
	}, nil
}

// Load writes the batch through imp and returns the number of rows stored.
func Load(ctx context.Context, imp store.Importer, b *Batch) (int64, error) {
	var (
		n   int64
		err error
	)
	switch b.Kind {
	case KindIdentity:
		n, err = imp.ImportIdentities(ctx, b.Identities)
	case KindTax:
		n, err = imp.ImportTax(ctx, b.Tax)
	case KindLand:
		n, err = imp.ImportLand(ctx, b.Land)
	case KindExtracted:
		n, err = imp.SaveExtracted(ctx, b.Extracted)
	default:
		return 0, eris.Errorf("ingest: unknown kind %q", b.Kind)
	}
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: load %s", b.Kind)
	}
	return n, nil
}

// Summary reports the outcome of one file import.
type Summary struct {
	Kind    Kind
	Path    string
	Decoded int
	Stored  int64
	Skipped []RowError
}

// File streams src, decodes it as kind and loads it through imp.
func File(ctx context.Context, imp store.Importer, kind Kind, src fetcher.Source, opts Options) (*Summary, error) {
	rows, errs, err := fetcher.Stream(ctx, src)
	if err != nil {
		return nil, err
	}
	b, err := Decode(ctx, kind, rows, errs, opts)
	if err != nil {
		return nil, err
	}

	for _, skip := range b.Skipped {
		zap.L().Warn("ingest: skipped row",
			zap.String("file", src.Path),
			zap.Int("line", skip.Line),
			zap.Error(skip.Err),
		)
	}

	sum := &Summary{Kind: kind, Path: src.Path, Decoded: b.Len(), Skipped: b.Skipped}
	if b.Len() == 0 {
		return sum, nil
	}
	sum.Stored, err = Load(ctx, imp, b)
	if err != nil {
		return nil, err
	}
	zap.L().Info("ingest: file loaded",
		zap.String("kind", string(kind)),
		zap.String("file", src.Path),
		zap.Int("decoded", sum.Decoded),
		zap.Int64("stored", sum.Stored),
		zap.Int("skipped", len(sum.Skipped)),
	)
	return sum, nil
}
