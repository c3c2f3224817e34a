package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"nbdt-analysis/internal/analysis"
	"nbdt-analysis/internal/config"
	"nbdt-analysis/internal/dataset"
	"nbdt-analysis/internal/evaluator"
	"nbdt-analysis/internal/metrics"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "nbdt-analyze",
		Short:        "Replay recorded model outputs through NBDT analyzers",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newAnalyzersCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var cfgPath string
	var o config.Overrides

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an analyzer over recorded output shards",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg.ApplyOverrides(o)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfgPath, "config", "configs/analyze.yaml", "Path to YAML config")
	f.StringVar(&o.Analyzer, "analyzer", "", "Override analyzer name")
	f.StringVar(&o.Metric, "metric", "", "Override metric name")
	f.StringVar(&o.PathGraph, "path-graph", "", "Override hierarchy file")
	f.StringVar(&o.TestRoot, "test-root", "", "Override directory of recorded output shards")
	f.IntVar(&o.Epochs, "epochs", 0, "Number of epochs to replay")
	f.IntVar(&o.BatchSize, "batch-size", 0, "Batch size")
	f.IntVar(&o.LogEvery, "log-every", 0, "Log every N test batches")
	f.StringVar(&o.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	f.StringVar(&o.MetricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file after the run")
	return cmd
}

func newAnalyzersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyzers",
		Short: "List analyzers and the options each accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, v := range analysis.Variants() {
				fmt.Fprintf(w, "%-28s %s\n", v.Name, strings.Join(v.Accepts, ","))
			}
			fmt.Fprintf(w, "\nmetrics: %s\n", strings.Join(metrics.Names(), ", "))
			return nil
		},
	}
}

func run(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	lvl, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: lvl})).
		With("run_id", uuid.NewString(), "analyzer", cfg.Analyzer)

	a, err := analysis.New(cfg.Analyzer, analyzerOptions(cfg, stdout))
	if err != nil {
		return err
	}

	shards, err := dataset.DiscoverShards(cfg.TestRoot)
	if err != nil {
		return err
	}
	logger.Info("shards discovered", "root", cfg.TestRoot, "shards", len(shards), "dataset", cfg.Dataset)

	reg := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(reg)

	err = evaluator.Run(ctx, evaluator.RunConfig{
		Analyzer:     a,
		AnalyzerName: cfg.Analyzer,
		Shards:       shards,
		StartEpoch:   cfg.StartEpoch,
		Epochs:       cfg.Epochs,
		TrainPhase:   cfg.TrainPhase,
		BatchSize:    cfg.BatchSize,
		LogEvery:     cfg.LogEvery,
		Logger:       logger,
		Recorder:     recorder,
	})
	if err != nil {
		logger.Error("analysis failed", "error", err)
		return err
	}

	if cfg.MetricsTextfile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsTextfile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		logger.Debug("metrics written", "path", cfg.MetricsTextfile)
	}
	return nil
}

// analyzerOptions binds only the config keys the analyzer declares.
func analyzerOptions(cfg *config.Config, out io.Writer) analysis.Options {
	opts := analysis.Options{Out: out, GraphRoot: cfg.GraphRoot}
	if analysis.Accepts(cfg.Analyzer, analysis.OptClasses) {
		opts.Classes = cfg.Classes
	}
	if analysis.Accepts(cfg.Analyzer, analysis.OptDataset) {
		opts.Dataset = cfg.Dataset
	}
	if analysis.Accepts(cfg.Analyzer, analysis.OptPathGraph) {
		opts.PathGraph = cfg.PathGraph
	}
	if analysis.Accepts(cfg.Analyzer, analysis.OptPathWNIDs) {
		opts.PathWNIDs = cfg.PathWNIDs
	}
	if analysis.Accepts(cfg.Analyzer, analysis.OptMetric) {
		opts.Metric = cfg.Metric
	}
	return opts
}
