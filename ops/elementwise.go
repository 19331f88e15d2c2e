// Package ops implements the operator kernels that build autodiff.Node
// values out of other nodes: element-wise arithmetic, transpose-aware
// matrix multiplication, and convolution expressed as unroll, matmul, and
// expand. Every kernel here pairs a forward computation with a BackwardOp
// that projects an upstream gradient back onto its operands.
package ops

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/corgi-go/corgi/autodiff"
	"github.com/corgi-go/corgi/tensor"
)

// Add returns a node computing a+b element-wise. a and b must share a shape;
// broadcasting is not supported.
func Add(a, b *autodiff.Node) (*autodiff.Node, error) {
	if !dimsEqual(a.Dims(), b.Dims()) {
		return nil, fmt.Errorf("%w: add operands %v and %v", tensor.ErrShapeMismatch, a.Dims(), b.Dims())
	}

	sum := a.Values()
	floats.Add(sum, b.Values())

	val, err := tensor.New(a.Dims(), sum)
	if err != nil {
		return nil, err
	}

	return autodiff.New(val, []*autodiff.Node{a, b}, addOp{}), nil
}

// addOp projects an upstream gradient straight through to both operands:
// d(a+b)/da = d(a+b)/db = 1.
type addOp struct{}

func (addOp) Apply(children []*autodiff.Node, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	return []*tensor.Tensor{
		autodiff.DeltaFor(children, 0, grad),
		autodiff.DeltaFor(children, 1, grad),
	}, nil
}

// Mul returns a node computing a*b element-wise. a and b must share a shape;
// broadcasting is not supported.
func Mul(a, b *autodiff.Node) (*autodiff.Node, error) {
	if !dimsEqual(a.Dims(), b.Dims()) {
		return nil, fmt.Errorf("%w: mul operands %v and %v", tensor.ErrShapeMismatch, a.Dims(), b.Dims())
	}

	prod := a.Values()
	floats.Mul(prod, b.Values())

	val, err := tensor.New(a.Dims(), prod)
	if err != nil {
		return nil, err
	}

	return autodiff.New(val, []*autodiff.Node{a, b}, mulOp{}), nil
}

// mulOp projects an upstream gradient by the product rule:
// d(a*b)/da = grad*b, d(a*b)/db = grad*a.
type mulOp struct{}

func (mulOp) Apply(children []*autodiff.Node, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	deltaA := elementwiseMul(grad, children[1].Value())
	deltaB := elementwiseMul(grad, children[0].Value())

	return []*tensor.Tensor{
		autodiff.DeltaFor(children, 0, deltaA),
		autodiff.DeltaFor(children, 1, deltaB),
	}, nil
}

func elementwiseMul(x, y *tensor.Tensor) *tensor.Tensor {
	out := x.Values()
	floats.Mul(out, y.Values())

	// x and y share shape by construction of the forward pass that built
	// this node's children, so New cannot fail here.
	t, _ := tensor.New(x.Dims(), out)

	return t
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
