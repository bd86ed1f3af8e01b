package report

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// RiskDistribution counts verified results per risk tier.
type RiskDistribution struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Analytics is a point-in-time view of all stored results.
type Analytics struct {
	TotalResults        int              `json:"total_results"`
	Verified            int              `json:"verified"`
	Rejected            int              `json:"rejected"`
	Pending             int              `json:"pending"`
	RecentVerifications int              `json:"recent_verifications"`
	RiskDistribution    RiskDistribution `json:"risk_distribution"`

	// Metadata.
	LookbackDays int       `json:"lookback_days"`
	CollectedAt  time.Time `json:"collected_at"`
}

// Analytics gathers result counts; recent verifications are those stamped
// within the last lookbackDays (DefaultLookbackDays when <= 0).
func (rp *Reporter) Analytics(ctx context.Context, lookbackDays int) (*Analytics, error) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	now := rp.now()
	since := now.AddDate(0, 0, -lookbackDays)

	st, err := rp.results.ResultStats(ctx, since)
	if err != nil {
		return nil, eris.Wrap(err, "report: result stats")
	}

	return &Analytics{
		TotalResults:        st.Total,
		Verified:            st.Verified,
		Rejected:            st.Rejected,
		Pending:             st.Pending,
		RecentVerifications: st.Recent,
		RiskDistribution: RiskDistribution{
			High:   st.High,
			Medium: st.Medium,
			Low:    st.Low,
		},
		LookbackDays: lookbackDays,
		CollectedAt:  now,
	}, nil
}
