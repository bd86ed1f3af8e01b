package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docverify/reconcile-cli/internal/model"
	"github.com/docverify/reconcile-cli/internal/report"
)

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestBuildRouter_Health(t *testing.T) {
	env := newTestEnv(t)
	h := buildRouter(env, nil)

	rr := do(t, h, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "ok", decode[map[string]string](t, rr)["status"])

	require.NoError(t, env.Store.Close())
	rr = do(t, h, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestBuildRouter_Verify(t *testing.T) {
	h := buildRouter(newTestEnv(t), nil)

	rr := do(t, h, http.MethodPost, "/verify/1")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decode[model.ReconciliationResult](t, rr)
	assert.Equal(t, int64(1), res.SubmissionID)
	assert.Equal(t, model.StatusVerified, res.Status)
	assert.InDelta(t, 88.89, res.MatchPercentage, 0.001)
	assert.Equal(t, model.RiskLow, res.RiskTier)

	// Repeat verification keeps one result.
	rr = do(t, h, http.MethodPost, "/verify/1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, res.ID, decode[model.ReconciliationResult](t, rr).ID)
}

func TestBuildRouter_VerifyErrors(t *testing.T) {
	h := buildRouter(newTestEnv(t), nil)

	rr := do(t, h, http.MethodPost, "/verify/99")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not found", decode[map[string]string](t, rr)["error"])

	for _, path := range []string{"/verify/abc", "/verify/0", "/verify/-3"} {
		rr = do(t, h, http.MethodPost, path)
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
	}

	rr = do(t, h, http.MethodGet, "/verify/1")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestBuildRouter_Geolocation(t *testing.T) {
	h := buildRouter(newTestEnv(t), nil)

	rr := do(t, h, http.MethodGet, "/geolocation/2")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	geo := decode[model.GeoResolution](t, rr)
	assert.Equal(t, "42/1", geo.SurveyNo)
	assert.InDelta(t, 13.34, geo.Latitude, 1e-9)
	assert.InDelta(t, 77.10, geo.Longitude, 1e-9)

	rr = do(t, h, http.MethodGet, "/geolocation/2?format=geojson")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/geo+json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), `"Point"`)
	assert.Contains(t, rr.Body.String(), `"survey_no":"42/1"`)
}

func TestBuildRouter_GeolocationErrors(t *testing.T) {
	h := buildRouter(newTestEnv(t), nil)

	tests := []struct {
		path string
		want int
	}{
		{"/geolocation/1", http.StatusNotFound},            // village does not match any parcel
		{"/geolocation/3", http.StatusBadRequest},          // village missing
		{"/geolocation/4", http.StatusUnprocessableEntity}, // parcel without coordinates
		{"/geolocation/99", http.StatusNotFound},
		{"/geolocation/x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		rr := do(t, h, http.MethodGet, tt.path)
		assert.Equal(t, tt.want, rr.Code, tt.path)
	}
}

func TestBuildRouter_VerificationResults(t *testing.T) {
	h := buildRouter(newTestEnv(t), nil)

	// Not reconciled yet.
	rr := do(t, h, http.MethodGet, "/verification-results/1")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/verify/1").Code)

	rr = do(t, h, http.MethodGet, "/verification-results/1")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	d := decode[report.Detail](t, rr)
	assert.Len(t, d.Fields, 11)
	assert.Equal(t, report.Statistics{TotalFields: 11, Matched: 8, Mismatched: 3, MatchPercentage: 72.73}, d.Statistics)
	require.NotNil(t, d.Land)
	assert.Equal(t, "Ravi Kumar", d.Land.OwnerName)
}

func TestBuildRouter_Analytics(t *testing.T) {
	h := buildRouter(newTestEnv(t), nil)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/verify/1").Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/verify/2").Code)

	rr := do(t, h, http.MethodGet, "/analytics?days=7")
	require.Equal(t, http.StatusOK, rr.Code)
	a := decode[report.Analytics](t, rr)
	assert.Equal(t, 2, a.TotalResults)
	assert.Equal(t, 2, a.Verified+a.Rejected)
	assert.Equal(t, 2, a.RecentVerifications)
	assert.Equal(t, 7, a.LookbackDays)

	rr = do(t, h, http.MethodGet, "/analytics?days=abc")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBuildRouter_Metrics(t *testing.T) {
	h := buildRouter(newTestEnv(t), nil)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/verify/1").Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/geolocation/2").Code)

	rr := do(t, h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `reconcile_reconciliations_total{status="Verified"} 1`)
	assert.Contains(t, body, `reconcile_geo_resolutions_total{outcome="resolved"} 1`)
}

func TestBuildRouter_CORS(t *testing.T) {
	h := buildRouter(newTestEnv(t), []string{"https://review.example.org"})

	req := httptest.NewRequest(http.MethodOptions, "/verify/1", nil)
	req.Header.Set("Origin", "https://review.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "https://review.example.org", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://elsewhere.example.org")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", eris.Wrap(model.ErrNotFound, "matcher: load"), http.StatusNotFound},
		{"incomplete", eris.Wrap(model.ErrIncompleteInput, "geo"), http.StatusBadRequest},
		{"no coordinates", model.ErrCoordinatesUnavailable, http.StatusUnprocessableEntity},
		{"refused", fmt.Errorf("postgres: find identity: %w", syscall.ECONNREFUSED), http.StatusServiceUnavailable},
		{"locked", errors.New("sqlite: upsert result: database is locked"), http.StatusServiceUnavailable},
		{"other", errors.New("postgres: scan result: bad column"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}
