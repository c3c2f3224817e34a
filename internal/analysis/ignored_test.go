package analysis

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnoredSamplesCountsSentinel(t *testing.T) {
	a := NewIgnoredSamples(nil)
	var out bytes.Buffer
	a.SetOutput(&out)
	a.StartEpoch(0)
	require.NoError(t, a.StartTest(0))

	stat, err := a.UpdateBatch(rows(t,
		[]float64{-1, 0.2},
		[]float64{3, -1},
		[]float64{-1, 0.5},
	), []int{0, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, Stat{Name: "ignored", Value: 2}, stat)

	stat, err = a.UpdateBatch(rows(t, []float64{-1, 1}), []int{1})
	require.NoError(t, err)
	assert.Equal(t, 3.0, stat.Value)

	require.NoError(t, a.EndTest(0))
	assert.Equal(t, "Ignored Samples: 3\n", out.String())
}

func TestIgnoredSamplesResetsEachTest(t *testing.T) {
	a := NewIgnoredSamples(nil)
	a.SetOutput(&bytes.Buffer{})
	a.StartEpoch(0)
	require.NoError(t, a.StartTest(0))
	_, err := a.UpdateBatch(rows(t, []float64{-1}), []int{0})
	require.NoError(t, err)

	a.StartEpoch(1)
	require.NoError(t, a.StartTest(1))
	assert.Zero(t, a.Ignored())
}

func TestIgnoredSamplesRequiresStartTest(t *testing.T) {
	a := NewIgnoredSamples(nil)
	_, err := a.UpdateBatch(rows(t, []float64{-1}), []int{0})
	assert.ErrorIs(t, err, ErrNotStarted)
}
