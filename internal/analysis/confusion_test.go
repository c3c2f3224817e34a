package analysis

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"nbdt-analysis/internal/tensor"
)

func startedConfusion(t *testing.T, classes ...string) *ConfusionMatrix {
	t.Helper()
	a, err := NewConfusionMatrix(classes)
	require.NoError(t, err)
	a.StartEpoch(0)
	require.NoError(t, a.StartTest(0))
	return a
}

func TestConfusionMatrixUpdate(t *testing.T) {
	a := startedConfusion(t, "cat", "dog")

	stat, err := a.UpdateBatch(oneHot(t, 2, 0, 1, 1), []int{0, 1, 0})
	require.NoError(t, err)
	assert.False(t, stat.Valid())

	want := mat.NewDense(2, 2, []float64{1, 1, 0, 1})
	assert.True(t, mat.Equal(want, a.Matrix()), "got %v", mat.Formatted(a.Matrix()))
}

func TestConfusionMatrixSkipsHigherRankPredictions(t *testing.T) {
	a := startedConfusion(t, "cat", "dog")

	// [N=2, C=2, crops=2] reduces to [2, 2] predictions
	outputs, err := tensor.New([]int{2, 2, 2}, []float64{1, 0, 0, 1, 0, 1, 1, 0})
	require.NoError(t, err)

	_, err = a.UpdateBatch(outputs, []int{0, 1})
	require.NoError(t, err)
	assert.Zero(t, mat.Sum(a.Matrix()))
}

func TestConfusionMatrixStartTrainUnsupported(t *testing.T) {
	a, err := NewConfusionMatrix([]string{"a"})
	require.NoError(t, err)
	a.StartEpoch(1)

	assert.ErrorIs(t, a.StartTrain(1), ErrNotImplemented)
	assert.ErrorIs(t, a.StartTrain(2), ErrEpochMismatch)
}

func TestConfusionMatrixResetsEachTest(t *testing.T) {
	a := startedConfusion(t, "a", "b")
	_, err := a.UpdateBatch(oneHot(t, 2, 1), []int{0})
	require.NoError(t, err)

	a.StartEpoch(1)
	require.NoError(t, a.StartTest(1))
	assert.Zero(t, mat.Sum(a.Matrix()))
}

func TestConfusionMatrixRequiresStartTest(t *testing.T) {
	a, err := NewConfusionMatrix([]string{"a", "b"})
	require.NoError(t, err)
	_, err = a.UpdateBatch(oneHot(t, 2, 1), []int{0})
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestConfusionMatrixRejectsOutOfRangeLabel(t *testing.T) {
	a := startedConfusion(t, "a", "b")
	_, err := a.UpdateBatch(oneHot(t, 2, 1), []int{5})
	assert.Error(t, err)
}

func TestUpdateConfusionPairsShorterLength(t *testing.T) {
	m := mat.NewDense(2, 2, nil)
	require.NoError(t, UpdateConfusion(m, []int{1, 1, 1}, []int{0}))
	assert.Equal(t, 1.0, mat.Sum(m))
}

func TestRecallAndPrecision(t *testing.T) {
	a := startedConfusion(t, "a", "b")
	a.m = mat.NewDense(2, 2, []float64{2, 0, 1, 1})

	recall, err := a.Recall()
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(recall, mat.NewDense(2, 2, []float64{1, 0, 0.5, 0.5}), 1e-12))

	precision, err := a.Precision()
	require.NoError(t, err)
	wantP := mat.NewDense(2, 2, []float64{2.0 / 3, 0, 1.0 / 3, 1})
	assert.True(t, mat.EqualApprox(precision, wantP, 1e-12))
}

func TestRecallZeroRowIsNaN(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{0, 0, 1, 1})
	recall := NormalizeConfusion(m, 1)
	assert.True(t, math.IsNaN(recall.At(0, 0)))
	assert.Equal(t, 0.5, recall.At(1, 1))
}

func TestConfusionMatrixEndTestPrintsRecall(t *testing.T) {
	a := startedConfusion(t, "cat", "dog")
	var out bytes.Buffer
	a.SetOutput(&out)

	_, err := a.UpdateBatch(oneHot(t, 2, 0, 0, 0, 1), []int{0, 0, 1, 1})
	require.NoError(t, err)
	require.NoError(t, a.EndTest(0))

	assert.Equal(t,
		"[1.000 0.000] cat\n"+
			"[0.500 0.500] dog\n"+
			"[1.000 0.500] (diagonal)\n",
		out.String())
}

func TestRecallAndPrecisionBeforeStartTest(t *testing.T) {
	a, err := NewConfusionMatrix([]string{"a", "b"})
	require.NoError(t, err)

	_, err = a.Recall()
	assert.ErrorIs(t, err, ErrNotStarted)
	_, err = a.Precision()
	assert.ErrorIs(t, err, ErrNotStarted)

	a.StartEpoch(0)
	assert.ErrorIs(t, a.EndTest(0), ErrNotStarted)
}
