package analysis

import (
	"fmt"

	"nbdt-analysis/internal/tensor"
)

// IgnoredSentinel marks a sample the tree evaluator declined to classify.
// It appears in the first output channel.
const IgnoredSentinel = -1

// IgnoredSamples counts samples flagged with IgnoredSentinel during a test phase.
type IgnoredSamples struct {
	Noop
	ignored int
	active  bool
}

// NewIgnoredSamples returns an ignored-sample counter.
func NewIgnoredSamples(classes []string) *IgnoredSamples {
	return &IgnoredSamples{Noop: *NewNoop(classes)}
}

func (a *IgnoredSamples) StartTest(epoch int) error {
	if err := a.Noop.StartTest(epoch); err != nil {
		return err
	}
	a.ignored = 0
	a.active = true
	return nil
}

// UpdateBatch adds the batch's ignored samples to the running total and
// returns the total.
func (a *IgnoredSamples) UpdateBatch(outputs *tensor.Tensor, targets []int) (Stat, error) {
	if !a.active {
		return Stat{}, ErrNotStarted
	}
	first, err := outputs.Channel(0)
	if err != nil {
		return Stat{}, fmt.Errorf("ignored samples: %w", err)
	}
	a.ignored += first.Count(IgnoredSentinel)
	return Stat{Name: "ignored", Value: float64(a.ignored)}, nil
}

func (a *IgnoredSamples) EndTest(epoch int) error {
	if err := a.Noop.EndTest(epoch); err != nil {
		return err
	}
	if !a.active {
		return ErrNotStarted
	}
	fmt.Fprintf(a.writer(), "Ignored Samples: %d\n", a.ignored)
	return nil
}

// Ignored is the running count for the current test phase.
func (a *IgnoredSamples) Ignored() int { return a.ignored }
