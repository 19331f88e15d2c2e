package nnfunc

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/corgi-go/corgi/tensor"
)

// Initializer fills a weight tensor of the given shape with an initial
// distribution suited to the fan-in/fan-out of a layer.
type Initializer func(dims []int, fanIn, fanOut int) (*tensor.Tensor, error)

// Xavier (Glorot) initialization samples uniformly from
// [-limit, limit] where limit = sqrt(6/(fanIn+fanOut)). Suited to
// tanh/sigmoid activations.
func Xavier(dims []int, fanIn, fanOut int) (*tensor.Tensor, error) {
	limit := math.Sqrt(6.0 / (float64(fanIn) + float64(fanOut)))

	return uniformDims(dims, limit)
}

// He initialization samples from a zero-mean normal distribution with
// stddev = sqrt(2/fanIn). Suited to ReLU-family activations.
func He(dims []int, fanIn, _ int) (*tensor.Tensor, error) {
	stddev := math.Sqrt(2.0 / float64(fanIn))

	n, err := dimsProduct(dims)
	if err != nil {
		return nil, err
	}

	values := make([]float64, n)
	for i := range values {
		// #nosec G404 - math/rand is acceptable for ML weight initialization
		values[i] = rand.NormFloat64() * stddev
	}

	return tensor.New(dims, values)
}

// Uniform samples every element independently from [-scale, scale].
func Uniform(scale float64) Initializer {
	return func(dims []int, _, _ int) (*tensor.Tensor, error) {
		return uniformDims(dims, scale)
	}
}

// Zeros fills the tensor with zero values — the conventional bias init.
func Zeros(dims []int, _, _ int) (*tensor.Tensor, error) {
	n, err := dimsProduct(dims)
	if err != nil {
		return nil, err
	}

	return tensor.New(dims, make([]float64, n))
}

func uniformDims(dims []int, limit float64) (*tensor.Tensor, error) {
	n, err := dimsProduct(dims)
	if err != nil {
		return nil, err
	}

	values := make([]float64, n)
	for i := range values {
		// #nosec G404 - math/rand is acceptable for ML weight initialization
		values[i] = (rand.Float64()*2 - 1) * limit
	}

	return tensor.New(dims, values)
}

func dimsProduct(dims []int) (int, error) {
	n := 1
	for _, d := range dims {
		if d <= 0 {
			return 0, fmt.Errorf("%w: dimension %d must be positive", tensor.ErrShapeMismatch, d)
		}

		n *= d
	}

	return n, nil
}
