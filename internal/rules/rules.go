package rules

import (
	"fmt"
	"math"

	"nbdt-analysis/internal/tensor"
)

// Rules transforms leaf logits into decision-tree-adjusted predictions.
type Rules interface {
	Forward(outputs *tensor.Tensor) (*tensor.Tensor, error)
}

// Hard follows the highest scoring child from the root down to one leaf.
// Output rows are one-hot on the reached class.
type Hard struct {
	h *Hierarchy
}

// NewHard returns hard decision rules over h.
func NewHard(h *Hierarchy) *Hard { return &Hard{h: h} }

func (r *Hard) Forward(outputs *tensor.Tensor) (*tensor.Tensor, error) {
	n, err := checkOutputs(outputs, r.h)
	if err != nil {
		return nil, err
	}
	k := r.h.NumClasses
	out := make([]float64, n*k)
	for i := 0; i < n; i++ {
		row := outputs.Row(i)
		node := r.h.Root
		for !node.IsLeaf() {
			logits := childLogits(row, node)
			best := 0
			for j := 1; j < len(logits); j++ {
				if logits[j] > logits[best] {
					best = j
				}
			}
			node = node.Children[best]
		}
		out[i*k+node.class] = 1
	}
	return tensor.New([]int{n, k}, out)
}

// Soft weighs every root-to-leaf path by the product of child softmax
// probabilities along it.
type Soft struct {
	h *Hierarchy
}

// NewSoft returns soft decision rules over h.
func NewSoft(h *Hierarchy) *Soft { return &Soft{h: h} }

func (r *Soft) Forward(outputs *tensor.Tensor) (*tensor.Tensor, error) {
	n, err := checkOutputs(outputs, r.h)
	if err != nil {
		return nil, err
	}
	k := r.h.NumClasses
	out := make([]float64, n*k)
	for i := 0; i < n; i++ {
		spread(outputs.Row(i), r.h.Root, 1, out[i*k:(i+1)*k])
	}
	return tensor.New([]int{n, k}, out)
}

func spread(row []float64, node *Node, p float64, dst []float64) {
	if node.IsLeaf() {
		dst[node.class] = p
		return
	}
	probs := softmax(childLogits(row, node))
	for j, child := range node.Children {
		spread(row, child, p*probs[j], dst)
	}
}

// childLogits averages the leaf logits beneath each child of node.
func childLogits(row []float64, node *Node) []float64 {
	logits := make([]float64, len(node.Children))
	for j, child := range node.Children {
		var sum float64
		for _, c := range child.leaves {
			sum += row[c]
		}
		logits[j] = sum / float64(len(child.leaves))
	}
	return logits
}

func softmax(x []float64) []float64 {
	hi := math.Inf(-1)
	for _, v := range x {
		if v > hi {
			hi = v
		}
	}
	out := make([]float64, len(x))
	var sum float64
	for i, v := range x {
		out[i] = math.Exp(v - hi)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func checkOutputs(outputs *tensor.Tensor, h *Hierarchy) (int, error) {
	if outputs.Rank() != 2 || outputs.Dim(1) != h.NumClasses {
		return 0, fmt.Errorf("%w: decision rules need [N, %d] outputs, got %v",
			tensor.ErrShape, h.NumClasses, outputs.Shape())
	}
	return outputs.Dim(0), nil
}
