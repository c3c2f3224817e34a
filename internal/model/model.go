package model

import (
	"fmt"

	"nbdt-analysis/internal/tensor"
)

// Batch is one minibatch of recorded model outputs and their labels.
type Batch struct {
	Keys    []string
	Outputs *tensor.Tensor
	Targets []int
}

// Size is the number of samples in the batch.
func (b Batch) Size() int { return len(b.Targets) }

// NewBatch stacks per-sample logit rows into a [N, C] outputs tensor.
func NewBatch(keys []string, logits [][]float64, targets []int) (Batch, error) {
	if len(logits) != len(targets) {
		return Batch{}, fmt.Errorf("batch: %d logit rows for %d targets", len(logits), len(targets))
	}
	outputs, err := tensor.FromRows(logits)
	if err != nil {
		return Batch{}, fmt.Errorf("batch: %w", err)
	}
	return Batch{Keys: keys, Outputs: outputs, Targets: targets}, nil
}
