package model

import (
	"strings"
	"time"
)

// ExtractedRecord holds the fields parsed from a submission's documents.
// A nil field was not extracted; it is not the same as an empty string.
type ExtractedRecord struct {
	SubmissionID int64 `json:"submission_id"`

	IdentityName   *string `json:"identity_name,omitempty"`
	IdentityNumber *string `json:"identity_number,omitempty"`
	IdentityDOB    *string `json:"identity_dob,omitempty"`

	TaxName   *string `json:"tax_name,omitempty"`
	TaxNumber *string `json:"tax_number,omitempty"`
	TaxDOB    *string `json:"tax_dob,omitempty"`

	SurveyNo      *string `json:"survey_no,omitempty"`
	MeasuringArea *string `json:"measuring_area,omitempty"`
	Village       *string `json:"village,omitempty"`
	Hobli         *string `json:"hobli,omitempty"`
	Taluk         *string `json:"taluk,omitempty"`
	District      *string `json:"district,omitempty"`

	ApplicationNumber *string `json:"application_number,omitempty"`
	ApplicantName     *string `json:"applicant_name,omitempty"`
	ApplicantAddress  *string `json:"applicant_address,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// LandIdentity returns the six fields that identify a land parcel and
// whether all of them are present and non-blank.
func (r *ExtractedRecord) LandIdentity() (LandIdentity, bool) {
	id := LandIdentity{
		SurveyNo:      Deref(r.SurveyNo),
		MeasuringArea: Deref(r.MeasuringArea),
		Village:       Deref(r.Village),
		Hobli:         Deref(r.Hobli),
		Taluk:         Deref(r.Taluk),
		District:      Deref(r.District),
	}
	return id, id.Complete()
}

// LandIdentity is the full tuple used for geo-correlation.
type LandIdentity struct {
	SurveyNo      string
	MeasuringArea string
	Village       string
	Hobli         string
	Taluk         string
	District      string
}

// Complete reports whether every part of the tuple is non-blank.
func (l LandIdentity) Complete() bool {
	for _, v := range []string{l.SurveyNo, l.MeasuringArea, l.Village, l.Hobli, l.Taluk, l.District} {
		if IsBlank(v) {
			return false
		}
	}
	return true
}

// Trimmed returns the tuple with surrounding whitespace removed.
func (l LandIdentity) Trimmed() LandIdentity {
	return LandIdentity{
		SurveyNo:      strings.TrimSpace(l.SurveyNo),
		MeasuringArea: strings.TrimSpace(l.MeasuringArea),
		Village:       strings.TrimSpace(l.Village),
		Hobli:         strings.TrimSpace(l.Hobli),
		Taluk:         strings.TrimSpace(l.Taluk),
		District:      strings.TrimSpace(l.District),
	}
}

// CanonicalIdentityRecord is the issuing authority's identity card record.
type CanonicalIdentityRecord struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Number    string    `json:"number"`
	DOB       time.Time `json:"dob"`
	CreatedAt time.Time `json:"created_at"`
}

// CanonicalTaxRecord is the issuing authority's tax card record.
type CanonicalTaxRecord struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Number    string     `json:"number"`
	DOB       *time.Time `json:"dob,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// CanonicalLandRecord is the land registry's encumbrance record.
type CanonicalLandRecord struct {
	ID            int64    `json:"id"`
	SurveyNo      *string  `json:"survey_no,omitempty"`
	MeasuringArea *string  `json:"measuring_area,omitempty"`
	Village       *string  `json:"village,omitempty"`
	Hobli         *string  `json:"hobli,omitempty"`
	Taluk         *string  `json:"taluk,omitempty"`
	District      *string  `json:"district,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`

	OwnerName        *string `json:"owner_name,omitempty"`
	Extent           *string `json:"extent,omitempty"`
	LandType         *string `json:"land_type,omitempty"`
	OwnershipType    *string `json:"ownership_type,omitempty"`
	IsMainOwner      bool    `json:"is_main_owner"`
	IsGovtRestricted bool    `json:"is_govt_restricted"`
	IsCourtStay      bool    `json:"is_court_stay"`
	IsAlienated      bool    `json:"is_alienated"`
	AnyTransaction   bool    `json:"any_transaction"`
	Remarks          *string `json:"remarks,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// HasCoordinates reports whether both latitude and longitude are stored.
func (l *CanonicalLandRecord) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Encumbrances lists the restriction flags raised on the parcel.
func (l *CanonicalLandRecord) Encumbrances() []string {
	var flags []string
	if l.IsGovtRestricted {
		flags = append(flags, "govt_restricted")
	}
	if l.IsCourtStay {
		flags = append(flags, "court_stay")
	}
	if l.IsAlienated {
		flags = append(flags, "alienated")
	}
	if l.AnyTransaction {
		flags = append(flags, "prior_transaction")
	}
	return flags
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Ptr returns a pointer to s.
func Ptr(s string) *string {
	return &s
}

// IsBlank reports whether s is empty after trimming whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
