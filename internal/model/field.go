package model

// Field names one reconciled attribute of a submission. The string value is
// the stable key used in JSON and as the prefix of the persisted column.
type Field string

// Comparable fields, checked against a canonical record.
const (
	FieldIdentityName   Field = "identity_name"
	FieldIdentityNumber Field = "identity_number"
	FieldDOB            Field = "dob"
	FieldTaxName        Field = "tax_name"
	FieldTaxNumber      Field = "tax_number"
	FieldSurveyNo       Field = "survey_no"
	FieldMeasuringArea  Field = "measuring_area"
	FieldVillage        Field = "village"
	FieldHobli          Field = "hobli"
	FieldTaluk          Field = "taluk"
	FieldDistrict       Field = "district"
)

// Presence-only fields, matched when the extracted value is non-blank.
const (
	FieldApplicationNumber Field = "application_number"
	FieldApplicantName     Field = "applicant_name"
	FieldApplicantAddress  Field = "applicant_address"
)

// Source identifies which canonical record a comparable field is checked
// against.
type Source string

const (
	SourceIdentity Source = "identity"
	SourceTax      Source = "tax"
	SourceLand     Source = "land"
	SourcePresence Source = "presence"
)

// FieldInfo describes one entry of the fixed field catalogue.
type FieldInfo struct {
	Field  Field
	Source Source
	Label  string
}

// Catalogue is the fixed, ordered set of fields. Comparison, scoring,
// persistence and reporting all iterate it, so the fields compared and the
// fields counted cannot drift apart.
var Catalogue = []FieldInfo{
	{FieldIdentityName, SourceIdentity, "Identity name"},
	{FieldIdentityNumber, SourceIdentity, "Identity number"},
	{FieldDOB, SourceIdentity, "Date of birth"},
	{FieldTaxName, SourceTax, "Tax card name"},
	{FieldTaxNumber, SourceTax, "Tax card number"},
	{FieldSurveyNo, SourceLand, "Survey number"},
	{FieldMeasuringArea, SourceLand, "Measuring area"},
	{FieldVillage, SourceLand, "Village"},
	{FieldHobli, SourceLand, "Hobli"},
	{FieldTaluk, SourceLand, "Taluk"},
	{FieldDistrict, SourceLand, "District"},
	{FieldApplicationNumber, SourcePresence, "Application number"},
	{FieldApplicantName, SourcePresence, "Applicant name"},
	{FieldApplicantAddress, SourcePresence, "Applicant address"},
}

var (
	// AllFields lists every field in catalogue order.
	AllFields []Field
	// ComparableFields lists the eleven fields checked against canonical data.
	ComparableFields []Field
	// PresenceFields lists the fields that are only checked for presence.
	PresenceFields []Field

	infoByField map[Field]FieldInfo
)

func init() {
	infoByField = make(map[Field]FieldInfo, len(Catalogue))
	for _, s := range Catalogue {
		infoByField[s.Field] = s
		AllFields = append(AllFields, s.Field)
		if s.Source == SourcePresence {
			PresenceFields = append(PresenceFields, s.Field)
		} else {
			ComparableFields = append(ComparableFields, s.Field)
		}
	}
}

// Info returns the catalogue entry for f.
func (f Field) Info() (FieldInfo, bool) {
	s, ok := infoByField[f]
	return s, ok
}

// Valid reports whether f is part of the catalogue.
func (f Field) Valid() bool {
	_, ok := infoByField[f]
	return ok
}

// Column returns the persisted column name holding f's outcome.
func (f Field) Column() string {
	return string(f) + "_match"
}

// Comparable reports whether f is checked against a canonical record.
func (f Field) Comparable() bool {
	s, ok := infoByField[f]
	return ok && s.Source != SourcePresence
}
