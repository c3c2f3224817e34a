package analysis

import (
	"errors"
	"fmt"

	"nbdt-analysis/internal/metrics"
	"nbdt-analysis/internal/rules"
	"nbdt-analysis/internal/tensor"
)

// DefaultMetric is used when no metric name is configured.
const DefaultMetric = "top1"

// ErrNoSamples is returned when accuracy is requested before any sample was counted.
var ErrNoSamples = errors.New("analysis: no samples counted")

// DecisionRules scores model outputs after passing them through embedded
// decision rules. Hard and soft variants differ only in the injected rules
// and the display name.
type DecisionRules struct {
	Noop
	Name   string
	rules  rules.Rules
	metric metrics.Metric
}

// NewDecisionRules resolves metricName and wraps r.
func NewDecisionRules(name string, r rules.Rules, metricName string, classes []string) (*DecisionRules, error) {
	if metricName == "" {
		metricName = DefaultMetric
	}
	m, err := metrics.Lookup(metricName)
	if err != nil {
		return nil, err
	}
	return &DecisionRules{Noop: *NewNoop(classes), Name: name, rules: r, metric: m}, nil
}

// NewHardEmbeddedDecisionRules evaluates with hard rules over h.
func NewHardEmbeddedDecisionRules(h *rules.Hierarchy, metricName string, classes []string) (*DecisionRules, error) {
	return NewDecisionRules("NBDT-Hard", rules.NewHard(h), metricName, classes)
}

// NewSoftEmbeddedDecisionRules evaluates with soft rules over h.
func NewSoftEmbeddedDecisionRules(h *rules.Hierarchy, metricName string, classes []string) (*DecisionRules, error) {
	return NewDecisionRules("NBDT-Soft", rules.NewSoft(h), metricName, classes)
}

func (a *DecisionRules) StartTest(epoch int) error {
	if err := a.Noop.StartTest(epoch); err != nil {
		return err
	}
	a.metric.Clear()
	return nil
}

// UpdateBatch returns the running accuracy percentage.
func (a *DecisionRules) UpdateBatch(outputs *tensor.Tensor, targets []int) (Stat, error) {
	predicted, err := a.rules.Forward(outputs)
	if err != nil {
		return Stat{}, fmt.Errorf("%s: %w", a.Name, err)
	}
	if err := a.metric.Forward(predicted, targets); err != nil {
		return Stat{}, fmt.Errorf("%s: %w", a.Name, err)
	}
	if a.metric.Total() == 0 {
		return Stat{}, ErrNoSamples
	}
	return Stat{Name: "accuracy", Value: RunningAccuracy(a.metric.Correct(), a.metric.Total())}, nil
}

func (a *DecisionRules) EndTest(epoch int) error {
	if err := a.Noop.EndTest(epoch); err != nil {
		return err
	}
	correct, total := a.metric.Correct(), a.metric.Total()
	if total == 0 {
		return ErrNoSamples
	}
	fmt.Fprintf(a.writer(), "%s Accuracy: %s%%, %d/%d\n",
		a.Name, formatFloat(FinalAccuracy(correct, total)), correct, total)
	return nil
}

// Metric exposes the accumulator.
func (a *DecisionRules) Metric() metrics.Metric { return a.metric }

// RunningAccuracy is the per-batch accuracy: the ratio is rounded to four
// places before scaling to a percentage, so the result may carry float noise.
func RunningAccuracy(correct, total int) float64 {
	return roundTo(float64(correct)/float64(total), 4) * 100
}

// FinalAccuracy is the end-of-test percentage rounded to two places.
func FinalAccuracy(correct, total int) float64 {
	return roundTo(float64(correct)/float64(total)*100, 2)
}
