package analysis

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"nbdt-analysis/internal/tensor"
)

// ConfusionMatrix accumulates a k×k grid of counts, rows indexed by true
// label and columns by predicted label. It only supports the test phase.
type ConfusionMatrix struct {
	Noop
	k int
	m *mat.Dense
}

// NewConfusionMatrix returns a confusion matrix analyzer over classes.
func NewConfusionMatrix(classes []string) (*ConfusionMatrix, error) {
	if len(classes) == 0 {
		return nil, errors.New("confusion matrix: no classes")
	}
	return &ConfusionMatrix{Noop: *NewNoop(classes), k: len(classes)}, nil
}

func (a *ConfusionMatrix) StartTrain(epoch int) error {
	if err := a.Noop.StartTrain(epoch); err != nil {
		return err
	}
	return fmt.Errorf("%w: confusion matrix start_train", ErrNotImplemented)
}

func (a *ConfusionMatrix) StartTest(epoch int) error {
	if err := a.Noop.StartTest(epoch); err != nil {
		return err
	}
	a.m = mat.NewDense(a.k, a.k, nil)
	return nil
}

// UpdateBatch counts arg-max predictions against targets. Batches whose
// predictions are not one-dimensional are skipped without error.
func (a *ConfusionMatrix) UpdateBatch(outputs *tensor.Tensor, targets []int) (Stat, error) {
	if a.m == nil {
		return Stat{}, ErrNotStarted
	}
	predicted, err := outputs.ArgMax()
	if err != nil {
		return Stat{}, fmt.Errorf("confusion matrix: %w", err)
	}
	if predicted.Rank() == 1 {
		if err := UpdateConfusion(a.m, predicted.Ints(), targets); err != nil {
			return Stat{}, err
		}
	}
	return Stat{}, nil
}

func (a *ConfusionMatrix) EndTest(epoch int) error {
	if err := a.Noop.EndTest(epoch); err != nil {
		return err
	}
	recall, err := a.Recall()
	if err != nil {
		return err
	}
	w := a.writer()
	for i, cls := range a.Classes {
		fmt.Fprintf(w, "%s %s\n", formatVector(mat.Row(nil, i, recall)), cls)
	}
	diag := make([]float64, a.k)
	for i := range diag {
		diag[i] = recall.At(i, i)
	}
	fmt.Fprintf(w, "%s (diagonal)\n", formatVector(diag))
	return nil
}

// Matrix returns the live count grid, nil before the first StartTest.
func (a *ConfusionMatrix) Matrix() *mat.Dense { return a.m }

// Recall normalizes each row of the grid by its sum.
func (a *ConfusionMatrix) Recall() (*mat.Dense, error) {
	if a.m == nil {
		return nil, ErrNotStarted
	}
	return NormalizeConfusion(a.m, 1), nil
}

// Precision normalizes each column of the grid by its sum.
func (a *ConfusionMatrix) Precision() (*mat.Dense, error) {
	if a.m == nil {
		return nil, ErrNotStarted
	}
	return NormalizeConfusion(a.m, 0), nil
}

// UpdateConfusion increments m[label][pred] for each paired prediction and
// label. Extra entries in the longer slice are ignored.
func UpdateConfusion(m *mat.Dense, preds, labels []int) error {
	rows, cols := m.Dims()
	n := min(len(preds), len(labels))
	for i := 0; i < n; i++ {
		pred, label := preds[i], labels[i]
		if label < 0 || label >= rows || pred < 0 || pred >= cols {
			return fmt.Errorf("confusion matrix: label %d / prediction %d outside %dx%d grid", label, pred, rows, cols)
		}
		m.Set(label, pred, m.At(label, pred)+1)
	}
	return nil
}

// NormalizeConfusion divides every entry by its row sum (axis 1) or column
// sum (axis 0). A zero sum produces NaN entries.
func NormalizeConfusion(m *mat.Dense, axis int) *mat.Dense {
	rows, cols := m.Dims()
	var totals []float64
	if axis == 1 {
		totals = make([]float64, rows)
		for i := range totals {
			totals[i] = mat.Sum(m.RowView(i))
		}
	} else {
		totals = make([]float64, cols)
		for j := range totals {
			totals[j] = mat.Sum(m.ColView(j))
		}
	}
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(i, j int, v float64) float64 {
		if axis == 1 {
			return v / totals[i]
		}
		return v / totals[j]
	}, m)
	return out
}
