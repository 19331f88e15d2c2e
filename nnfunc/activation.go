// Package nnfunc provides the activation, cost, and initializer function
// families that layers and optimizers are built from. None of these are
// part of the core tape — each one is an ordinary tracked node built from
// the same autodiff.New/BackwardOp machinery ops uses, parameterized by a
// scalar function and its derivative.
package nnfunc

import (
	"math"

	"github.com/corgi-go/corgi/autodiff"
	"github.com/corgi-go/corgi/tensor"
)

// Activation is a named, differentiable element-wise function over a node.
type Activation func(*autodiff.Node) (*autodiff.Node, error)

// ReLU zeroes negative elements and passes positive ones through unchanged.
func ReLU(n *autodiff.Node) (*autodiff.Node, error) {
	return unary(n, relu, reluGrad)
}

// Sigmoid computes the logistic function element-wise.
func Sigmoid(n *autodiff.Node) (*autodiff.Node, error) {
	return unary(n, sigmoid, sigmoidGrad)
}

// Tanh computes the hyperbolic tangent element-wise.
func Tanh(n *autodiff.Node) (*autodiff.Node, error) {
	return unary(n, math.Tanh, tanhGrad)
}

// LeakyReLU scales negative elements by alpha instead of zeroing them.
func LeakyReLU(n *autodiff.Node, alpha float64) (*autodiff.Node, error) {
	return unary(n,
		func(x float64) float64 { return leakyReLU(x, alpha) },
		func(x float64) float64 { return leakyReLUGrad(x, alpha) },
	)
}

func relu(x float64) float64 {
	if x > 0 {
		return x
	}

	return 0
}

func reluGrad(x float64) float64 {
	if x > 0 {
		return 1
	}

	return 0
}

func leakyReLU(x, alpha float64) float64 {
	if x > 0 {
		return x
	}

	return x * alpha
}

func leakyReLUGrad(x, alpha float64) float64 {
	if x > 0 {
		return 1
	}

	return alpha
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func sigmoidGrad(x float64) float64 {
	s := sigmoid(x)

	return s * (1 - s)
}

func tanhGrad(x float64) float64 {
	th := math.Tanh(x)

	return 1 - th*th
}

// unary builds a node applying fn element-wise to n's value, with backward
// projecting grad*fn'(x) onto n.
func unary(n *autodiff.Node, fn, grad func(float64) float64) (*autodiff.Node, error) {
	in := n.Values()
	out := make([]float64, len(in))

	for i, v := range in {
		out[i] = fn(v)
	}

	val, err := tensor.New(n.Dims(), out)
	if err != nil {
		return nil, err
	}

	return autodiff.New(val, []*autodiff.Node{n}, unaryOp{fn: grad}), nil
}

type unaryOp struct {
	fn func(float64) float64
}

func (op unaryOp) Apply(children []*autodiff.Node, upstream *tensor.Tensor) ([]*tensor.Tensor, error) {
	if !children[0].Tracked() {
		return []*tensor.Tensor{nil}, nil
	}

	x := children[0].Values()
	u := upstream.ValuesRef()
	out := make([]float64, len(x))

	for i, v := range x {
		out[i] = u[i] * op.fn(v)
	}

	delta, err := tensor.New(children[0].Dims(), out)
	if err != nil {
		return nil, err
	}

	return []*tensor.Tensor{delta}, nil
}
