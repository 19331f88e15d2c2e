// Package corgi is the public prelude: the small set of names a caller
// building and differentiating arrays actually needs, re-exported from
// tensor/autodiff/ops so callers write corgi.Arr and corgi.Add instead of
// reaching into the subpackages directly.
package corgi

import (
	"github.com/corgi-go/corgi/autodiff"
	"github.com/corgi-go/corgi/ops"
	"github.com/corgi-go/corgi/tensor"
)

// Array is a node in the differentiable tape: a tensor value plus
// whatever bookkeeping reverse-mode differentiation needs to project a
// gradient back onto it.
type Array struct {
	*autodiff.Node
}

// Arr builds a tracked, rank-1 Array from a flat list of values — the Go
// analogue of the original `arr!` macro, which likewise only ever
// constructed a flat vector.
func Arr(values ...float64) *Array {
	return &Array{autodiff.TrackedLeaf(tensor.FromFlat(values))}
}

// New builds a tracked Array with an explicit shape.
func New(dims []int, values []float64) (*Array, error) {
	val, err := tensor.New(dims, values)
	if err != nil {
		return nil, err
	}

	return &Array{autodiff.TrackedLeaf(val)}, nil
}

// Untracked builds an Array that does not record graph edges — for
// constants and data that should never receive a gradient.
func Untracked(dims []int, values []float64) (*Array, error) {
	val, err := tensor.New(dims, values)
	if err != nil {
		return nil, err
	}

	return &Array{autodiff.Leaf(val)}, nil
}

// Backward runs reverse-mode differentiation from a, seeding the root
// gradient with seed (or all-ones, matching a's shape, if seed is nil).
func (a *Array) Backward(seed *tensor.Tensor) error {
	return autodiff.Backward(a.Node, seed)
}

func wrap(n *autodiff.Node, err error) (*Array, error) {
	if err != nil {
		return nil, err
	}

	return &Array{n}, nil
}

// Add returns a+b element-wise.
func Add(a, b *Array) (*Array, error) {
	return wrap(ops.Add(a.Node, b.Node))
}

// Mul returns a*b element-wise.
func Mul(a, b *Array) (*Array, error) {
	return wrap(ops.Mul(a.Node, b.Node))
}

// MatMul returns the (batched) matrix product of a and b, optionally
// treating either operand's trailing two dimensions as transposed.
func MatMul(a, b *Array, aTranspose, bTranspose bool) (*Array, error) {
	return wrap(ops.MatMul(a.Node, b.Node, aTranspose, bTranspose))
}

// Reshape returns a view of a under a new shape with the same element
// count.
func Reshape(a *Array, dims []int) (*Array, error) {
	return wrap(ops.Reshape(a.Node, dims))
}

// Conv computes a 2D convolution of image by filters with the given
// per-axis strides, via unroll/matmul/expand.
func Conv(image, filters *Array, strideRows, strideCols int) (*Array, error) {
	return wrap(ops.Conv(image.Node, filters.Node, strideRows, strideCols))
}
