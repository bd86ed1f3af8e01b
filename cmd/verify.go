package main

import (
	"context"
	"errors"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/docverify/reconcile-cli/internal/model"
	"github.com/docverify/reconcile-cli/internal/resilience"
	"github.com/docverify/reconcile-cli/internal/store"
)

var (
	verifySubmission int64
	verifyAll        bool
	verifyPending    bool
	verifyLimit      int
	verifyJSON       bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Reconcile one submission or a batch of submissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if verifySubmission <= 0 && !verifyAll {
			return eris.New("one of --submission or --all is required")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "verify")
		if err != nil {
			return err
		}
		defer env.Close()

		if verifySubmission > 0 {
			res, err := env.Engine.Reconcile(ctx, verifySubmission)
			if err != nil {
				return eris.Wrapf(err, "verify submission %d", verifySubmission)
			}
			if verifyJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			formatResult(cmd.OutOrStdout(), res)
			return nil
		}

		ids, err := env.Store.ListSubmissions(ctx, store.SubmissionFilter{
			OnlyPending: verifyPending,
			Limit:       verifyLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list submissions")
		}

		sum, err := verifyBatch(ctx, ids, cfg.Batch.MaxConcurrent, cfg.Batch.RatePerSec, env.Engine.Reconcile)
		if err != nil {
			return err
		}
		if verifyJSON {
			return writeJSON(cmd.OutOrStdout(), sum)
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().Int64Var(&verifySubmission, "submission", 0, "submission id to reconcile")
	verifyCmd.Flags().BoolVar(&verifyAll, "all", false, "reconcile every submission with extracted data")
	verifyCmd.Flags().BoolVar(&verifyPending, "pending", false, "with --all, only submissions without a final verdict")
	verifyCmd.Flags().IntVar(&verifyLimit, "limit", 0, "with --all, max number of submissions (0 = no limit)")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(verifyCmd)
}

// reconcileFunc is the callback signature for reconciling one submission.
type reconcileFunc func(ctx context.Context, submissionID int64) (*model.ReconciliationResult, error)

// batchSummary counts the verdicts of a batch run.
type batchSummary struct {
	Total    int   `json:"total"`
	Verified int64 `json:"verified"`
	Rejected int64 `json:"rejected"`
	NotFound int64 `json:"not_found"`
	Failed   int64 `json:"failed"`
}

// verifyBatch reconciles ids concurrently, paced at ratePerSec (0 = no limit).
// A failed submission is logged and counted and does not stop the batch;
// transient store failures are retried first. Only cancellation is returned.
func verifyBatch(ctx context.Context, ids []int64, concurrency int, ratePerSec float64, reconcile reconcileFunc) (*batchSummary, error) {
	sum := &batchSummary{Total: len(ids)}
	if len(ids) == 0 {
		zap.L().Info("no submissions to verify")
		return sum, nil
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	limiter := rate.NewLimiter(limit, max(int(ratePerSec), 1))

	zap.L().Info("verifying batch",
		zap.Int("submissions", len(ids)),
		zap.Int("concurrency", concurrency),
		zap.Float64("rate_per_sec", ratePerSec),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var verified, rejected, notFound, failed atomic.Int64

	for _, id := range ids {
		if err := limiter.Wait(gctx); err != nil {
			break
		}
		g.Go(func() error {
			log := zap.L().With(zap.Int64("submission_id", id))

			retry := resilience.DefaultRetryConfig()
			retry.OnRetry = resilience.RetryLogger("reconcile", zap.Int64("submission_id", id))
			res, err := resilience.DoVal(gctx, retry, func(ctx context.Context) (*model.ReconciliationResult, error) {
				return reconcile(ctx, id)
			})
			switch {
			case errors.Is(err, model.ErrNotFound):
				notFound.Add(1)
				log.Warn("no extracted record")
				return nil
			case err != nil:
				failed.Add(1)
				log.Error("reconciliation failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			if res.Status == model.StatusVerified {
				verified.Add(1)
			} else {
				rejected.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch verification")
	}

	sum.Verified = verified.Load()
	sum.Rejected = rejected.Load()
	sum.NotFound = notFound.Load()
	sum.Failed = failed.Load()

	if ctx.Err() != nil {
		return sum, eris.Wrap(ctx.Err(), "batch verification interrupted")
	}

	zap.L().Info("batch complete",
		zap.Int("total", sum.Total),
		zap.Int64("verified", sum.Verified),
		zap.Int64("rejected", sum.Rejected),
		zap.Int64("not_found", sum.NotFound),
		zap.Int64("failed", sum.Failed),
	)
	return sum, nil
}
