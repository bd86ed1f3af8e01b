package model

// Outcome is the tri-state result of comparing one field.
type Outcome string

const (
	OutcomeMatch    Outcome = "match"
	OutcomeMismatch Outcome = "mismatch"
	OutcomeUnknown  Outcome = "unknown"
)

// Known reports whether the outcome took part in a comparison.
func (o Outcome) Known() bool {
	return o == OutcomeMatch || o == OutcomeMismatch
}

// Bool maps the outcome onto a nullable boolean: nil for unknown.
func (o Outcome) Bool() *bool {
	switch o {
	case OutcomeMatch:
		v := true
		return &v
	case OutcomeMismatch:
		v := false
		return &v
	default:
		return nil
	}
}

// OutcomeFromBool is the inverse of Outcome.Bool.
func OutcomeFromBool(b *bool) Outcome {
	switch {
	case b == nil:
		return OutcomeUnknown
	case *b:
		return OutcomeMatch
	default:
		return OutcomeMismatch
	}
}

// FieldOutcome pairs a field with its outcome.
type FieldOutcome struct {
	Field   Field   `json:"field"`
	Outcome Outcome `json:"outcome"`
}

// Outcomes is an ordered collection of field outcomes.
type Outcomes []FieldOutcome

// NewOutcomes returns one unknown outcome per catalogue field, in order.
func NewOutcomes() Outcomes {
	out := make(Outcomes, len(AllFields))
	for i, f := range AllFields {
		out[i] = FieldOutcome{Field: f, Outcome: OutcomeUnknown}
	}
	return out
}

// Get returns the outcome recorded for f, or unknown if f is absent.
func (o Outcomes) Get(f Field) Outcome {
	for _, fo := range o {
		if fo.Field == f {
			return fo.Outcome
		}
	}
	return OutcomeUnknown
}

// Set records outcome for f, appending f if it is not present yet.
func (o *Outcomes) Set(f Field, outcome Outcome) {
	for i := range *o {
		if (*o)[i].Field == f {
			(*o)[i].Outcome = outcome
			return
		}
	}
	*o = append(*o, FieldOutcome{Field: f, Outcome: outcome})
}

// Count returns how many outcomes equal want.
func (o Outcomes) Count(want Outcome) int {
	n := 0
	for _, fo := range o {
		if fo.Outcome == want {
			n++
		}
	}
	return n
}
