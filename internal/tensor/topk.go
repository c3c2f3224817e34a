package tensor

import (
	"fmt"
	"sort"
)

// TopK returns, for every row of a rank-2 tensor, the column indices of the
// k largest values in descending order. Equal values keep the lower index first.
func (t *Tensor) TopK(k int) ([][]int, error) {
	if t.Rank() != 2 {
		return nil, fmt.Errorf("%w: top-k needs rank 2, got %d", ErrShape, t.Rank())
	}
	width := t.shape[1]
	if k <= 0 || k > width {
		return nil, fmt.Errorf("%w: k=%d out of range for %d classes", ErrShape, k, width)
	}
	out := make([][]int, t.shape[0])
	idx := make([]int, width)
	for i := range out {
		row := t.Row(i)
		for j := range idx {
			idx[j] = j
		}
		sort.SliceStable(idx, func(a, b int) bool { return row[idx[a]] > row[idx[b]] })
		out[i] = append([]int(nil), idx[:k]...)
	}
	return out, nil
}
