// Package evaluator drives an analyzer through the epoch lifecycle while
// replaying recorded model outputs batch by batch.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"nbdt-analysis/internal/analysis"
	"nbdt-analysis/internal/dataset"
	"nbdt-analysis/internal/metrics"
	"nbdt-analysis/internal/model"
)

const phaseTest = "test"

// RunConfig captures the knobs required by the evaluation loop.
type RunConfig struct {
	Analyzer     analysis.Analyzer
	AnalyzerName string
	Shards       []string
	StartEpoch   int
	Epochs       int
	// TrainPhase brackets each epoch's test phase with StartTrain/EndTrain.
	// Training itself happens elsewhere, so no batches are replayed there.
	TrainPhase bool
	BatchSize  int
	LogEvery   int
	Logger     *slog.Logger
	Recorder   *metrics.Recorder
}

// Run calls the analyzer for every epoch in order: StartEpoch, optionally
// StartTrain/EndTrain, StartTest, UpdateBatch per batch, EndTest, EndEpoch.
// The first analyzer error aborts the run.
func Run(ctx context.Context, cfg RunConfig) error {
	if cfg.Analyzer == nil {
		return errors.New("evaluator: analyzer is nil")
	}
	if cfg.BatchSize <= 0 {
		return errors.New("evaluator: batch size must be > 0")
	}
	if cfg.Epochs <= 0 {
		return errors.New("evaluator: epochs must be > 0")
	}
	if len(cfg.Shards) == 0 {
		return errors.New("evaluator: no shards")
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = 50
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	a := cfg.Analyzer
	for epoch := cfg.StartEpoch; epoch < cfg.StartEpoch+cfg.Epochs; epoch++ {
		a.StartEpoch(epoch)
		if cfg.TrainPhase {
			if err := a.StartTrain(epoch); err != nil {
				return fmt.Errorf("epoch %d: start train: %w", epoch, err)
			}
			if err := a.EndTrain(epoch); err != nil {
				return fmt.Errorf("epoch %d: end train: %w", epoch, err)
			}
		}
		if err := a.StartTest(epoch); err != nil {
			return fmt.Errorf("epoch %d: start test: %w", epoch, err)
		}
		samples, err := runTest(ctx, cfg, epoch)
		if err != nil {
			return fmt.Errorf("epoch %d: %w", epoch, err)
		}
		if err := a.EndTest(epoch); err != nil {
			return fmt.Errorf("epoch %d: end test: %w", epoch, err)
		}
		if err := a.EndEpoch(epoch); err != nil {
			return fmt.Errorf("epoch %d: end epoch: %w", epoch, err)
		}
		cfg.Logger.Info("epoch complete", "epoch", epoch, "samples", samples)
	}
	return nil
}

type testRun struct {
	cfg    RunConfig
	epoch  int
	window metrics.Window
	step   int
	total  int
}

func runTest(ctx context.Context, cfg RunConfig, epoch int) (int, error) {
	run := &testRun{cfg: cfg, epoch: epoch}
	for _, shard := range cfg.Shards {
		if err := run.shard(ctx, shard); err != nil {
			return run.total, fmt.Errorf("%s: %w", shard, err)
		}
	}
	return run.total, nil
}

func (r *testRun) shard(ctx context.Context, path string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	samplesCh, errCh := dataset.StreamShard(ctx, path, 0)
	for done := false; !done; {
		startLoad := time.Now()
		batch, last, err := nextBatch(ctx, samplesCh, errCh, r.cfg.BatchSize)
		if err != nil {
			return err
		}
		done = last
		if batch.Size() == 0 {
			continue
		}
		if err := r.update(batch, time.Since(startLoad)); err != nil {
			return err
		}
	}
	if err, ok := <-errCh; ok && err != nil {
		return err
	}
	return nil
}

func (r *testRun) update(batch model.Batch, loadTime time.Duration) error {
	startAnalyze := time.Now()
	stat, err := r.cfg.Analyzer.UpdateBatch(batch.Outputs, batch.Targets)
	if err != nil {
		return fmt.Errorf("update batch %d: %w", r.step+1, err)
	}
	analyzeTime := time.Since(startAnalyze)

	r.step++
	r.total += batch.Size()
	r.window.Record(batch.Size(), loadTime, analyzeTime, stat.Name, stat.Value)
	r.cfg.Recorder.ObserveBatch(phaseTest, batch.Size(), analyzeTime, r.cfg.AnalyzerName, stat.Name, stat.Value)

	if r.step%r.cfg.LogEvery == 0 {
		attrs := append([]any{"epoch", r.epoch, "batch", r.step}, r.window.Snapshot().LogAttrs()...)
		r.cfg.Logger.Info("test progress", attrs...)
	}
	return nil
}

// nextBatch collects up to batchSize samples. last is true once the shard is
// exhausted; the returned batch may then be partial or empty.
func nextBatch(ctx context.Context, samples <-chan dataset.Sample, errs <-chan error, batchSize int) (model.Batch, bool, error) {
	keys := make([]string, 0, batchSize)
	logits := make([][]float64, 0, batchSize)
	labels := make([]int, 0, batchSize)
	last := false
	for !last && len(labels) < batchSize {
		select {
		case <-ctx.Done():
			return model.Batch{}, false, ctx.Err()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return model.Batch{}, false, err
			}
		case sample, ok := <-samples:
			if !ok {
				last = true
				continue
			}
			keys = append(keys, sample.Key)
			logits = append(logits, sample.Logits)
			labels = append(labels, sample.Label)
		}
	}
	if len(labels) == 0 {
		return model.Batch{}, last, nil
	}
	batch, err := model.NewBatch(keys, logits, labels)
	return batch, last, err
}
