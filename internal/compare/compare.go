// Package compare implements the per-field comparison rules used when
// reconciling extracted document values against canonical records.
package compare

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/docverify/reconcile-cli/internal/model"
)

// DefaultDateFormat is the canonical textual rendering of a date of birth.
const DefaultDateFormat = "02/01/2006"

// DefaultDateLayouts are the layouts accepted for extracted dates in strict mode.
var DefaultDateLayouts = []string{
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2006-01-02",
	"2 Jan 2006",
	"02 Jan 2006",
}

// Normalize trims surrounding whitespace and applies Unicode case folding.
func Normalize(s string) string {
	// A Caser is stateful; one per call keeps Normalize safe for concurrent use.
	return cases.Fold().String(strings.TrimSpace(s))
}

// Equal reports whether a and b are equal after normalization.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Text compares an extracted value with its canonical counterpart. A nil
// value compares as blank, so one blank side and one non-blank side is a
// mismatch. Record-level unknowns are decided by the caller.
func Text(extracted, canonical *string) model.Outcome {
	if Equal(model.Deref(extracted), model.Deref(canonical)) {
		return model.OutcomeMatch
	}
	return model.OutcomeMismatch
}

// Presence matches when v is non-blank. It never yields unknown.
func Presence(v *string) model.Outcome {
	if model.IsBlank(model.Deref(v)) {
		return model.OutcomeMismatch
	}
	return model.OutcomeMatch
}

// DateRule compares an extracted date string with a canonical date.
//
// By default the canonical date is rendered with Format and compared as text,
// so "1990-05-01" does not match a canonical 01/05/1990. Strict switches to
// calendar-date equality after parsing the extracted value with Layouts.
type DateRule struct {
	Strict  bool
	Format  string
	Layouts []string
}

// DefaultDateRule returns the legacy text comparison rule.
func DefaultDateRule() DateRule {
	return DateRule{Format: DefaultDateFormat, Layouts: DefaultDateLayouts}
}

// Render formats a canonical date with the rule's format, or nil when absent.
func (r DateRule) Render(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	format := r.Format
	if format == "" {
		format = DefaultDateFormat
	}
	s := t.Format(format)
	return &s
}

// Compare returns the outcome for an extracted date against a canonical one.
func (r DateRule) Compare(extracted *string, canonical *time.Time) model.Outcome {
	if !r.Strict {
		return Text(extracted, r.Render(canonical))
	}

	raw := strings.TrimSpace(model.Deref(extracted))
	if raw == "" || canonical == nil || canonical.IsZero() {
		if raw == "" && (canonical == nil || canonical.IsZero()) {
			return model.OutcomeMatch
		}
		return model.OutcomeMismatch
	}

	parsed, ok := r.parse(raw)
	if !ok {
		return model.OutcomeMismatch
	}
	y1, m1, d1 := parsed.Date()
	y2, m2, d2 := canonical.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return model.OutcomeMatch
	}
	return model.OutcomeMismatch
}

func (r DateRule) parse(s string) (time.Time, bool) {
	layouts := r.Layouts
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
