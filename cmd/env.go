package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"

	"github.com/docverify/reconcile-cli/internal/compare"
	"github.com/docverify/reconcile-cli/internal/geo"
	"github.com/docverify/reconcile-cli/internal/matcher"
	"github.com/docverify/reconcile-cli/internal/metrics"
	"github.com/docverify/reconcile-cli/internal/report"
	"github.com/docverify/reconcile-cli/internal/resilience"
	"github.com/docverify/reconcile-cli/internal/scorer"
	"github.com/docverify/reconcile-cli/internal/store"
)

// appEnv holds the store and the services built on it for one command.
type appEnv struct {
	Store    store.Store
	Engine   *matcher.Engine
	Geo      *geo.Correlator
	Reports  *report.Reporter
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates the config for mode, opens and migrates the store and
// wires the services. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	sc, err := buildScorer()
	if err != nil {
		return nil, err
	}

	st, err := resilience.DoVal(ctx, resilience.ConnectRetryConfig(), func(ctx context.Context) (store.Store, error) {
		return initStore(ctx)
	})
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	return newEnv(st, sc), nil
}

// newEnv wires services over an open store.
func newEnv(st store.Store, sc *scorer.Scorer) *appEnv {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	dates := dateRule()

	engine := matcher.NewFromStore(st,
		matcher.WithScorer(sc),
		matcher.WithDateRule(dates),
		matcher.WithMetrics(m),
	)
	return &appEnv{
		Store:    st,
		Engine:   engine,
		Geo:      geo.NewCorrelator(st, st, geo.WithMetrics(m)),
		Reports:  report.New(st, st, engine, report.WithDateRule(dates)),
		Metrics:  m,
		Registry: reg,
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func dateRule() compare.DateRule {
	rule := compare.DateRule{
		Strict:  cfg.Match.StrictDateEquality,
		Format:  cfg.Match.DateFormat,
		Layouts: cfg.Match.DateLayouts,
	}
	if rule.Format == "" {
		rule.Format = compare.DefaultDateFormat
	}
	if len(rule.Layouts) == 0 {
		rule.Layouts = compare.DefaultDateLayouts
	}
	return rule
}

// buildScorer applies the weights file when configured; its pass threshold
// wins over match.pass_threshold.
func buildScorer() (*scorer.Scorer, error) {
	if cfg.Match.WeightsFile == "" {
		return scorer.New(scorer.WithPassThreshold(cfg.Match.PassThreshold)), nil
	}
	w, threshold, err := scorer.LoadWeights(cfg.Match.WeightsFile)
	if err != nil {
		return nil, err
	}
	return scorer.New(scorer.WithPolicy(w), scorer.WithPassThreshold(threshold)), nil
}
