// Package tensor implements the immutable, shared-ownership n-dimensional
// array value layer that corgi's autodiff graph is built on top of.
package tensor

import (
	"fmt"

	"github.com/corgi-go/corgi/numeric"
)

// Tensor is a dense, row-major, n-dimensional array of numeric.Float values.
// A Tensor's dims and values are immutable once constructed: operators
// never write through a Tensor they did not just allocate, so sharing a
// Tensor between multiple graph nodes is always safe aliasing.
type Tensor struct {
	dims   []int
	values []numeric.Float
}

// Dims returns the tensor's shape. The returned slice must not be mutated.
func (t *Tensor) Dims() []int {
	return t.dims
}

// Values returns a defensive copy of the tensor's flat, row-major values.
// Copying keeps a tracked node's recorded values observationally immutable
// even if a caller mutates what Values returns.
func (t *Tensor) Values() []numeric.Float {
	cp := make([]numeric.Float, len(t.values))
	copy(cp, t.values)

	return cp
}

// raw returns the tensor's backing slice without copying, for internal use
// by kernels that only ever read it.
func (t *Tensor) raw() []numeric.Float {
	return t.values
}

// ValuesRef returns the tensor's backing slice without copying. Callers
// outside this package (the ops kernels and the BLAS fast path) may read it
// but must never write through it — Tensor's immutability contract is a
// convention enforced by discipline at this one boundary, not by the type
// system.
func (t *Tensor) ValuesRef() []numeric.Float {
	return t.raw()
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.dims)
}

// Len returns the total element count.
func (t *Tensor) Len() int {
	return len(t.values)
}

// New builds a Tensor from an explicit shape and flat value slice. The
// value slice is taken by reference, not copied: callers that construct a
// fresh slice for this purpose (the common case) pay no copy cost.
func New(dims []int, values []numeric.Float) (*Tensor, error) {
	size, err := product(dims)
	if err != nil {
		return nil, err
	}

	if len(values) != size {
		return nil, fmt.Errorf("%w: shape %v needs %d values, got %d", ErrShapeMismatch, dims, size, len(values))
	}

	return &Tensor{dims: append([]int(nil), dims...), values: values}, nil
}

// FromFlat builds a rank-1 Tensor of shape [len(values)].
func FromFlat(values []numeric.Float) *Tensor {
	return &Tensor{dims: []int{len(values)}, values: values}
}

// FromShape builds a zero-filled Tensor of the given shape.
func FromShape(dims []int) (*Tensor, error) {
	size, err := product(dims)
	if err != nil {
		return nil, err
	}

	return &Tensor{dims: append([]int(nil), dims...), values: make([]numeric.Float, size)}, nil
}

// FromNested builds a Tensor by stacking rows that must all share the same
// shape; the outer shape is the row count prepended to the shared row
// shape.
func FromNested(rows []*Tensor) (*Tensor, error) {
	if len(rows) == 0 {
		return &Tensor{dims: []int{0}, values: nil}, nil
	}

	first := rows[0].dims
	for _, row := range rows[1:] {
		if !dimsEqual(row.dims, first) {
			return nil, fmt.Errorf("%w: row shape %v does not match %v", ErrShapeMismatch, row.dims, first)
		}
	}

	dims := append([]int{len(rows)}, first...)
	values := make([]numeric.Float, 0, len(rows)*len(rows[0].values))
	for _, row := range rows {
		values = append(values, row.values...)
	}

	return &Tensor{dims: dims, values: values}, nil
}

// Scalar builds a rank-1, single-element Tensor of shape [1].
func Scalar(v numeric.Float) *Tensor {
	return &Tensor{dims: []int{1}, values: []numeric.Float{v}}
}

// Ones builds a Tensor of the given shape filled with 1.
func Ones(dims []int) (*Tensor, error) {
	size, err := product(dims)
	if err != nil {
		return nil, err
	}

	values := make([]numeric.Float, size)
	for i := range values {
		values[i] = 1
	}

	return &Tensor{dims: append([]int(nil), dims...), values: values}, nil
}

// Equal reports whether two tensors have identical shape and values.
// Sharing is aliasing, not identity: equality never compares pointers.
func (t *Tensor) Equal(other *Tensor) bool {
	if other == nil {
		return false
	}

	if !dimsEqual(t.dims, other.dims) {
		return false
	}

	for i, v := range t.values {
		if v != other.values[i] {
			return false
		}
	}

	return true
}

// String renders the tensor's shape and flat values for debugging.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor(dims=%v, values=%v)", t.dims, t.values)
}

func dimsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func product(dims []int) (int, error) {
	size := 1
	for _, d := range dims {
		if d <= 0 {
			return 0, fmt.Errorf("%w: dimension %d must be positive", ErrShapeMismatch, d)
		}

		size *= d
	}

	return size, nil
}
