package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/huangsam/devscore/core"
	"github.com/huangsam/devscore/internal/telemetry"
	"github.com/huangsam/devscore/schema"
	"github.com/spf13/cobra"
)

// watchCmd recomputes scores on a schedule and serves Prometheus metrics.
var watchCmd = &cobra.Command{
	Use:   "watch <period-type>",
	Short: "Recompute scores on an interval and serve metrics.",
	Long: `Run devscore as a long-lived process that recomputes the current and
previous period on a fixed interval. Serves /metrics (Prometheus) and
/healthz endpoints while running. Stops cleanly on SIGINT/SIGTERM.

Examples:
  # Refresh weekly scores every 15 minutes (the default)
  devscore watch weekly

  # Hourly refresh with a custom metrics port
  devscore watch daily --interval 1h --metrics-addr :9100`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		granularity, err := schema.ParseGranularity(args[0])
		if err != nil {
			return err
		}

		metrics := telemetry.New()
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok\n"))
		})
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "addr", cfg.MetricsAddr, "error", err)
			}
		}()

		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		runOnce := func() {
			start := time.Now()
			err := engine.ComputeLatest(ctx, granularity, cfg.RuleID)
			metrics.ObserveComputeRun(time.Since(start), err)
			if err != nil {
				slog.Error("scheduled computation failed", "granularity", granularity, "error", err)
				return
			}
			keys, err := core.LatestPeriodKeys(granularity, time.Now().UTC())
			if err != nil || len(keys) == 0 {
				return
			}
			snapshot, err := store.GetSnapshot(ctx, granularity, keys[len(keys)-1])
			if err == nil && snapshot != nil {
				metrics.SetRankedUsers(len(snapshot.Entries))
			}
		}

		slog.Info("watch started",
			"granularity", granularity, "interval", cfg.Interval, "metrics_addr", cfg.MetricsAddr)
		runOnce()

		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				slog.Info("watch stopping")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			case <-ticker.C:
				runOnce()
			}
		}
	},
}
