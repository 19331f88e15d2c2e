package tensor

import (
	"fmt"

	"github.com/corgi-go/corgi/numeric"
)

// Reshape returns a new Tensor with a different shape sharing the same
// underlying values; the element count must stay the same.
func (t *Tensor) Reshape(dims []int) (*Tensor, error) {
	size, err := product(dims)
	if err != nil {
		return nil, err
	}

	if size != len(t.values) {
		return nil, fmt.Errorf("%w: cannot reshape %v (%d elements) into %v (%d elements)",
			ErrShapeMismatch, t.dims, len(t.values), dims, size)
	}

	return &Tensor{dims: append([]int(nil), dims...), values: t.values}, nil
}

// TrailingDims returns the last n dimensions, or an error if the tensor has
// fewer than n dimensions.
func TrailingDims(dims []int, n int) ([]int, error) {
	if len(dims) < n {
		return nil, fmt.Errorf("%w: rank %d, need at least %d dimensions", ErrDimMismatch, len(dims), n)
	}

	return dims[len(dims)-n:], nil
}

// ZeroLike builds a zero-filled Tensor with the same shape as t.
func ZeroLike(t *Tensor) *Tensor {
	out := make([]numeric.Float, len(t.values))

	return &Tensor{dims: append([]int(nil), t.dims...), values: out}
}

// OnesLike builds a Tensor of ones with the same shape as t, used to
// synthesize the default seed gradient for Backward.
func OnesLike(t *Tensor) *Tensor {
	out := make([]numeric.Float, len(t.values))
	for i := range out {
		out[i] = 1
	}

	return &Tensor{dims: append([]int(nil), t.dims...), values: out}
}
