package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/docverify/reconcile-cli/internal/model"
	"github.com/docverify/reconcile-cli/internal/report"
)

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatResult writes one reconciliation verdict with its field outcomes.
func formatResult(out io.Writer, r *model.ReconciliationResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Submission:\t%d\n", r.SubmissionID)
	_, _ = fmt.Fprintf(w, "Status:\t%s\n", r.Status)
	_, _ = fmt.Fprintf(w, "Match:\t%.2f%%\n", r.MatchPercentage)
	_, _ = fmt.Fprintf(w, "Risk:\t%.2f (%s)\n", r.RiskScore, r.RiskTier)
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "FIELD\tOUTCOME")
	_, _ = fmt.Fprintln(w, "-----\t-------")
	for _, fo := range r.Outcomes {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", fo.Field, fo.Outcome)
	}
	_ = w.Flush()
}

// formatDetail writes the verification detail view.
func formatDetail(out io.Writer, d *report.Detail) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Submission:\t%d\n", d.SubmissionID)
	_, _ = fmt.Fprintf(w, "Status:\t%s\n", d.Status)
	_, _ = fmt.Fprintf(w, "Risk:\t%.2f (%s)\n", d.RiskScore, d.RiskTier)
	_, _ = fmt.Fprintf(w, "Matched:\t%d/%d (%.2f%%)\n", d.Statistics.Matched, d.Statistics.TotalFields, d.Statistics.MatchPercentage)
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "FIELD\tEXTRACTED\tCANONICAL\tOUTCOME")
	_, _ = fmt.Fprintln(w, "-----\t---------\t---------\t-------")
	for _, f := range d.Fields {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Label, f.Extracted, f.Canonical, f.Outcome)
	}
	if d.Land != nil {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintf(w, "Owner:\t%s\n", d.Land.OwnerName)
		_, _ = fmt.Fprintf(w, "Ownership:\t%s\n", d.Land.OwnershipType)
		_, _ = fmt.Fprintf(w, "Encumbrances:\t%v\n", d.Land.Encumbrances)
	}
	_ = w.Flush()
}

// formatAnalytics writes aggregate result counts.
func formatAnalytics(out io.Writer, a *report.Analytics) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total results:\t%d\n", a.TotalResults)
	_, _ = fmt.Fprintf(w, "Verified:\t%d\n", a.Verified)
	_, _ = fmt.Fprintf(w, "Rejected:\t%d\n", a.Rejected)
	_, _ = fmt.Fprintf(w, "Pending:\t%d\n", a.Pending)
	_, _ = fmt.Fprintf(w, "Last %d days:\t%d\n", a.LookbackDays, a.RecentVerifications)
	_, _ = fmt.Fprintf(w, "Risk high/medium/low:\t%d/%d/%d\n",
		a.RiskDistribution.High, a.RiskDistribution.Medium, a.RiskDistribution.Low)
	_ = w.Flush()
}
