package metrics

import (
	"errors"
	"fmt"
	"sort"

	"nbdt-analysis/internal/tensor"
)

// ErrUnknownMetric is returned by Lookup for unregistered names.
var ErrUnknownMetric = errors.New("metrics: unknown metric")

// Metric accumulates correct/total counts over evaluated batches.
type Metric interface {
	Clear()
	Forward(outputs *tensor.Tensor, targets []int) error
	Correct() int
	Total() int
}

// TopK counts a sample as correct when its target is among the k
// highest-scoring classes.
type TopK struct {
	K       int
	correct int
	total   int
}

// NewTopK returns a cleared top-k accumulator.
func NewTopK(k int) *TopK {
	return &TopK{K: k}
}

func (m *TopK) Clear() {
	m.correct = 0
	m.total = 0
}

func (m *TopK) Forward(outputs *tensor.Tensor, targets []int) error {
	preds, err := outputs.TopK(m.K)
	if err != nil {
		return fmt.Errorf("top%d: %w", m.K, err)
	}
	if len(preds) != len(targets) {
		return fmt.Errorf("top%d: %d predictions for %d targets", m.K, len(preds), len(targets))
	}
	for i, row := range preds {
		for _, p := range row {
			if p == targets[i] {
				m.correct++
				break
			}
		}
	}
	m.total += len(targets)
	return nil
}

func (m *TopK) Correct() int { return m.correct }
func (m *TopK) Total() int   { return m.total }

var registry = map[string]func() Metric{
	"top1": func() Metric { return NewTopK(1) },
	"top2": func() Metric { return NewTopK(2) },
	"top3": func() Metric { return NewTopK(3) },
	"top4": func() Metric { return NewTopK(4) },
	"top5": func() Metric { return NewTopK(5) },
}

// Lookup constructs the metric registered under name.
func Lookup(name string) (Metric, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
	return ctor(), nil
}

// Names lists registered metric names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
