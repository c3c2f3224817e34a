package tensor

import (
	"errors"
	"fmt"
)

// ErrShape reports a tensor whose shape does not fit the requested operation.
var ErrShape = errors.New("tensor: shape mismatch")

// Tensor is a dense row-major array of float64 values.
type Tensor struct {
	shape []int
	data  []float64
}

// New wraps data in a tensor of the given shape. The data slice is not copied.
func New(shape []int, data []float64) (*Tensor, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("%w: empty shape", ErrShape)
	}
	size := 1
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("%w: negative dimension in %v", ErrShape, shape)
		}
		size *= d
	}
	if size != len(data) {
		return nil, fmt.Errorf("%w: shape %v needs %d values, got %d", ErrShape, shape, size, len(data))
	}
	return &Tensor{shape: append([]int(nil), shape...), data: data}, nil
}

// FromRows builds a rank-2 tensor from equally sized rows.
func FromRows(rows [][]float64) (*Tensor, error) {
	if len(rows) == 0 {
		return New([]int{0, 0}, nil)
	}
	width := len(rows[0])
	data := make([]float64, 0, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrShape, i, len(row), width)
		}
		data = append(data, row...)
	}
	return New([]int{len(rows), width}, data)
}

// Shape returns a copy of the tensor's dimensions.
func (t *Tensor) Shape() []int { return append([]int(nil), t.shape...) }

// Rank is the number of dimensions.
func (t *Tensor) Rank() int { return len(t.shape) }

// Dim returns the size of dimension i.
func (t *Tensor) Dim(i int) int { return t.shape[i] }

// Data exposes the underlying row-major values.
func (t *Tensor) Data() []float64 { return t.data }

// Row returns row i of a rank-2 tensor without copying.
func (t *Tensor) Row(i int) []float64 {
	w := t.shape[1]
	return t.data[i*w : (i+1)*w]
}

// split views the tensor as [outer, d1, inner] around dimension 1.
func (t *Tensor) split() (outer, mid, inner int, err error) {
	if len(t.shape) < 2 {
		return 0, 0, 0, fmt.Errorf("%w: dimension 1 out of range for rank %d", ErrShape, len(t.shape))
	}
	inner = 1
	for _, d := range t.shape[2:] {
		inner *= d
	}
	return t.shape[0], t.shape[1], inner, nil
}

// reducedShape is the shape with dimension 1 removed.
func (t *Tensor) reducedShape() []int {
	out := make([]int, 0, len(t.shape)-1)
	out = append(out, t.shape[0])
	return append(out, t.shape[2:]...)
}

// ArgMax reduces dimension 1 to the index of its largest value. The first
// maximum wins on ties.
func (t *Tensor) ArgMax() (*Tensor, error) {
	outer, mid, inner, err := t.split()
	if err != nil {
		return nil, err
	}
	if mid == 0 {
		return nil, fmt.Errorf("%w: arg-max over empty dimension", ErrShape)
	}
	out := make([]float64, outer*inner)
	for a := 0; a < outer; a++ {
		for r := 0; r < inner; r++ {
			base := a*mid*inner + r
			best := 0
			for j := 1; j < mid; j++ {
				if t.data[base+j*inner] > t.data[base+best*inner] {
					best = j
				}
			}
			out[a*inner+r] = float64(best)
		}
	}
	return New(t.reducedShape(), out)
}

// Channel selects index c along dimension 1, dropping that dimension.
func (t *Tensor) Channel(c int) (*Tensor, error) {
	outer, mid, inner, err := t.split()
	if err != nil {
		return nil, err
	}
	if c < 0 || c >= mid {
		return nil, fmt.Errorf("%w: channel %d out of range [0,%d)", ErrShape, c, mid)
	}
	out := make([]float64, 0, outer*inner)
	for a := 0; a < outer; a++ {
		start := a*mid*inner + c*inner
		out = append(out, t.data[start:start+inner]...)
	}
	return New(t.reducedShape(), out)
}

// Count returns how many elements equal v.
func (t *Tensor) Count(v float64) int {
	n := 0
	for _, x := range t.data {
		if x == v {
			n++
		}
	}
	return n
}

// Ints flattens the tensor into integers, truncating toward zero.
func (t *Tensor) Ints() []int {
	out := make([]int, len(t.data))
	for i, x := range t.data {
		out[i] = int(x)
	}
	return out
}
