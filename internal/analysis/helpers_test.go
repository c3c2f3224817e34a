package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nbdt-analysis/internal/tensor"
)

func rows(t *testing.T, r ...[]float64) *tensor.Tensor {
	t.Helper()
	x, err := tensor.FromRows(r)
	require.NoError(t, err)
	return x
}

// oneHot builds [N, k] outputs whose arg-max is preds[i].
func oneHot(t *testing.T, k int, preds ...int) *tensor.Tensor {
	t.Helper()
	r := make([][]float64, len(preds))
	for i, p := range preds {
		r[i] = make([]float64, k)
		r[i][p] = 1
	}
	return rows(t, r...)
}
