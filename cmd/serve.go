package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docverify/reconcile-cli/internal/model"
	"github.com/docverify/reconcile-cli/internal/resilience"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the verification HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(env, cfg.Server.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// buildRouter mounts the verification endpoints on a chi router.
func buildRouter(env *appEnv, origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := env.Store.Ping(r.Context()); err != nil {
			zap.L().Warn("health check failed", zap.Error(err))
			writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSONStatus(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/verify/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := submissionID(w, r)
		if !ok {
			return
		}
		res, err := env.Engine.Reconcile(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSONStatus(w, http.StatusOK, res)
	})

	r.Get("/geolocation/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := submissionID(w, r)
		if !ok {
			return
		}
		res, err := env.Geo.Resolve(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if r.URL.Query().Get("format") == "geojson" {
			feature, err := res.Feature()
			if err != nil {
				writeError(w, r, err)
				return
			}
			w.Header().Set("Content-Type", "application/geo+json")
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(feature)
			return
		}
		writeJSONStatus(w, http.StatusOK, res)
	})

	r.Get("/verification-results/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := submissionID(w, r)
		if !ok {
			return
		}
		d, err := env.Reports.Detail(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSONStatus(w, http.StatusOK, d)
	})

	r.Get("/analytics", func(w http.ResponseWriter, r *http.Request) {
		days := 0
		if raw := r.URL.Query().Get("days"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeJSONStatus(w, http.StatusBadRequest, map[string]string{"error": "days must be a positive integer"})
				return
			}
			days = n
		}
		a, err := env.Reports.Analytics(r.Context(), days)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSONStatus(w, http.StatusOK, a)
	})

	if env.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(env.Registry, promhttp.HandlerOpts{}))
	}

	return r
}

func submissionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSONStatus(w, http.StatusBadRequest, map[string]string{"error": "invalid submission id"})
		return 0, false
	}
	return id, true
}

// statusFor maps core errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrIncompleteInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrCoordinatesUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		return 499
	case resilience.IsTransient(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var errorMessages = map[int]string{
	http.StatusNotFound:            "not found",
	http.StatusBadRequest:          "incomplete land details",
	http.StatusUnprocessableEntity: "coordinates not available for this land record",
	http.StatusServiceUnavailable:  "store temporarily unavailable",
	499:                            "request cancelled",
	http.StatusInternalServerError: "internal error",
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeJSONStatus(w, status, map[string]string{"error": errorMessages[status]})
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
