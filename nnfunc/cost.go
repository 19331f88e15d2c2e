package nnfunc

import (
	"fmt"

	"github.com/corgi-go/corgi/autodiff"
	"github.com/corgi-go/corgi/tensor"
)

// MSE computes the mean squared error between predictions and targets,
// reducing to a single-element tensor. targets is typically untracked.
func MSE(predictions, targets *autodiff.Node) (*autodiff.Node, error) {
	if !dimsEqual(predictions.Dims(), targets.Dims()) {
		return nil, fmt.Errorf("%w: predictions %v vs targets %v", tensor.ErrShapeMismatch, predictions.Dims(), targets.Dims())
	}

	p := predictions.Values()
	t := targets.Values()

	var sum float64

	for i := range p {
		d := p[i] - t[i]
		sum += d * d
	}

	n := float64(len(p))

	loss, err := tensor.New([]int{1}, []float64{sum / n})
	if err != nil {
		return nil, err
	}

	return autodiff.New(loss, []*autodiff.Node{predictions, targets}, mseOp{}), nil
}

type mseOp struct{}

func (mseOp) Apply(children []*autodiff.Node, upstream *tensor.Tensor) ([]*tensor.Tensor, error) {
	predictions, targets := children[0], children[1]

	p := predictions.Values()
	t := targets.Values()
	n := float64(len(p))
	scale := upstream.ValuesRef()[0] * 2 / n

	out := make([]*tensor.Tensor, 2)

	if predictions.Tracked() {
		grad := make([]float64, len(p))
		for i := range p {
			grad[i] = scale * (p[i] - t[i])
		}

		gradTensor, err := tensor.New(predictions.Dims(), grad)
		if err != nil {
			return nil, err
		}

		out[0] = gradTensor
	}

	if targets.Tracked() {
		grad := make([]float64, len(t))
		for i := range t {
			grad[i] = -scale * (p[i] - t[i])
		}

		gradTensor, err := tensor.New(targets.Dims(), grad)
		if err != nil {
			return nil, err
		}

		out[1] = gradTensor
	}

	return out, nil
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
