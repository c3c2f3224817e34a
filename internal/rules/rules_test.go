package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nbdt-analysis/internal/tensor"
)

const animalsYAML = `
label: root
children:
  - label: pets
    children:
      - label: cat
      - label: dog
  - label: bird
`

var animals = []string{"cat", "dog", "bird"}

func TestParseResolvesLeaves(t *testing.T) {
	h, err := Parse([]byte(animalsYAML), animals)
	require.NoError(t, err)
	assert.Equal(t, 3, h.NumClasses)
	assert.Equal(t, -1, h.Root.Class())
	assert.Equal(t, 2, h.Root.Children[1].Class())
	assert.ElementsMatch(t, []int{0, 1}, h.Root.Children[0].leaves)
}

func TestParseAcceptsJSON(t *testing.T) {
	doc := `{"label":"root","children":[{"label":"a"},{"label":"b"}]}`
	h, err := Parse([]byte(doc), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, h.Root.Children, 2)
}

func TestBuildRejectsBadTrees(t *testing.T) {
	cases := map[string]string{
		"unknown leaf":  "label: root\nchildren:\n  - label: cat\n  - label: dog\n  - label: fish\n",
		"missing class": "label: root\nchildren:\n  - label: cat\n  - label: dog\n",
		"duplicate":     "label: root\nchildren:\n  - label: cat\n  - label: cat\n  - label: dog\n  - label: bird\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc), animals)
			assert.ErrorIs(t, err, ErrHierarchy)
		})
	}
}

func TestLoadWNIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wnids.txt")
	require.NoError(t, os.WriteFile(path, []byte("n01\n\nn02\n"), 0o644))
	ids, err := LoadWNIDs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"n01", "n02"}, ids)
}

func TestHardFollowsBestChild(t *testing.T) {
	h, err := Parse([]byte(animalsYAML), animals)
	require.NoError(t, err)

	// pets mean = (0+3)/2 = 1.5 > bird 1.0, then dog > cat
	// pets mean = (0.2+0.4)/2 = 0.3 < bird 5.0
	outputs, err := tensor.FromRows([][]float64{
		{0, 3, 1},
		{0.2, 0.4, 5},
	})
	require.NoError(t, err)

	got, err := NewHard(h).Forward(outputs)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0, 0, 0, 1}, got.Data())
}

func TestSoftProducesDistribution(t *testing.T) {
	h, err := Parse([]byte(animalsYAML), animals)
	require.NoError(t, err)

	outputs, err := tensor.FromRows([][]float64{{1, 1, 1}})
	require.NoError(t, err)

	got, err := NewSoft(h).Forward(outputs)
	require.NoError(t, err)
	// equal logits: 0.5 to pets then 0.5 each leaf, 0.5 to bird
	assert.InDeltaSlice(t, []float64{0.25, 0.25, 0.5}, got.Data(), 1e-9)
}

func TestFlatSoftIsSoftmax(t *testing.T) {
	h, err := Flat([]string{"a", "b"})
	require.NoError(t, err)

	outputs, err := tensor.FromRows([][]float64{{0, 0}})
	require.NoError(t, err)
	got, err := NewSoft(h).Forward(outputs)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, got.Data(), 1e-9)
}

func TestRulesRejectWrongWidth(t *testing.T) {
	h, err := Flat(animals)
	require.NoError(t, err)
	outputs, err := tensor.FromRows([][]float64{{1, 2}})
	require.NoError(t, err)

	_, err = NewHard(h).Forward(outputs)
	assert.ErrorIs(t, err, tensor.ErrShape)
	_, err = NewSoft(h).Forward(outputs)
	assert.ErrorIs(t, err, tensor.ErrShape)
}
