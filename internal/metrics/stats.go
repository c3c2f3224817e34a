package metrics

import "time"

// Window accumulates timing stats and the latest analyzer stat across
// evaluated batches.
type Window struct {
	samples  int
	load     time.Duration
	analyze  time.Duration
	batches  int
	statName string
	stat     float64
}

// Record adds a batch measurement. An empty statName keeps the previously
// reported stat, since not every batch reports one.
func (w *Window) Record(batchSize int, loadTime, analyzeTime time.Duration, statName string, stat float64) {
	w.samples += batchSize
	w.load += loadTime
	w.analyze += analyzeTime
	w.batches++
	if statName != "" {
		w.statName = statName
		w.stat = stat
	}
}

// Snapshot returns aggregated metrics and resets the timing counters. The
// last stat carries over into the next window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{
		Batches:  w.batches,
		Samples:  w.samples,
		StatName: w.statName,
		Stat:     w.stat,
	}
	total := w.load + w.analyze
	if total > 0 {
		snap.SamplesPerSec = float64(w.samples) / total.Seconds()
	}
	if w.batches > 0 {
		snap.AvgLoadMS = (w.load.Seconds() * 1000) / float64(w.batches)
		snap.AvgAnalyzeMS = (w.analyze.Seconds() * 1000) / float64(w.batches)
	}

	w.samples = 0
	w.load = 0
	w.analyze = 0
	w.batches = 0
	return snap
}

// Snapshot represents loggable metrics for one window of batches.
type Snapshot struct {
	Batches       int
	Samples       int
	SamplesPerSec float64
	AvgLoadMS     float64
	AvgAnalyzeMS  float64
	StatName      string
	Stat          float64
}

// LogAttrs flattens the snapshot into slog key/value pairs. The stat is
// included under its own name when one has been reported.
func (s Snapshot) LogAttrs() []any {
	attrs := []any{
		"batches", s.Batches,
		"samples", s.Samples,
		"samples_per_sec", round2(s.SamplesPerSec),
		"load_ms", round2(s.AvgLoadMS),
		"analyze_ms", round2(s.AvgAnalyzeMS),
	}
	if s.StatName != "" {
		attrs = append(attrs, s.StatName, s.Stat)
	}
	return attrs
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
