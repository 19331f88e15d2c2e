// Package layer provides parameterized building blocks — Dense, Conv2D —
// that own their weights as tracked autodiff leaves and compose ops/nnfunc
// calls into a single Forward step.
package layer

import (
	"fmt"

	"github.com/corgi-go/corgi/autodiff"
	"github.com/corgi-go/corgi/internal/params"
	"github.com/corgi-go/corgi/nnfunc"
	"github.com/corgi-go/corgi/ops"
)

// Dense is a fully connected layer: y = activation(W^T x + b). Its weight
// and bias slots are held in *params.Param boxes rather than bare
// *autodiff.Node fields so an optimizer step can swap in an updated leaf
// between training iterations without Dense exposing its field layout.
type Dense struct {
	name           string
	weights        *params.Param
	bias           *params.Param
	activation     nnfunc.Activation
	inputFeatures  int
	outputFeatures int
}

// DenseOpt is a functional option for configuring a Dense layer at
// construction time.
type DenseOpt func(*Dense) error

// WithBias enables a bias term initialized by init (Zeros if nil).
func WithBias(init nnfunc.Initializer) DenseOpt {
	return func(d *Dense) error {
		if init == nil {
			init = nnfunc.Zeros
		}

		val, err := init([]int{d.outputFeatures}, d.inputFeatures, d.outputFeatures)
		if err != nil {
			return fmt.Errorf("dense %s: bias init: %w", d.name, err)
		}

		d.bias = &params.Param{Name: d.name + ".bias", Value: autodiff.TrackedLeaf(val)}

		return nil
	}
}

// WithoutBias disables the bias term.
func WithoutBias() DenseOpt {
	return func(d *Dense) error {
		d.bias = nil

		return nil
	}
}

// WithActivation attaches an element-wise activation applied after the
// (optional) bias add.
func WithActivation(activation nnfunc.Activation) DenseOpt {
	return func(d *Dense) error {
		d.activation = activation

		return nil
	}
}

// WithWeightInit overrides the default Xavier initializer for the weight
// matrix.
func WithWeightInit(init nnfunc.Initializer) DenseOpt {
	return func(d *Dense) error {
		val, err := init([]int{d.inputFeatures, d.outputFeatures}, d.inputFeatures, d.outputFeatures)
		if err != nil {
			return fmt.Errorf("dense %s: weight init: %w", d.name, err)
		}

		d.weights = &params.Param{Name: d.name + ".weights", Value: autodiff.TrackedLeaf(val)}

		return nil
	}
}

// NewDense creates a Dense layer with Xavier-initialized weights and a
// zero bias by default; opts can replace either or attach an activation.
func NewDense(name string, inputFeatures, outputFeatures int, opts ...DenseOpt) (*Dense, error) {
	if name == "" {
		return nil, fmt.Errorf("dense layer name must not be empty")
	}

	if inputFeatures <= 0 || outputFeatures <= 0 {
		return nil, fmt.Errorf("dense %s: input and output features must be positive", name)
	}

	d := &Dense{
		name:           name,
		inputFeatures:  inputFeatures,
		outputFeatures: outputFeatures,
	}

	weights, err := nnfunc.Xavier([]int{inputFeatures, outputFeatures}, inputFeatures, outputFeatures)
	if err != nil {
		return nil, fmt.Errorf("dense %s: weight init: %w", name, err)
	}

	d.weights = &params.Param{Name: name + ".weights", Value: autodiff.TrackedLeaf(weights)}

	if err := WithBias(nnfunc.Zeros)(d); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Forward computes activation(x*W + b) for a single input vector x of
// shape [inputFeatures]. x is lifted to a [1, inputFeatures] row matrix for
// the matmul so that weights receive a proper outer-product gradient
// (corgi's matmul only forms a matrix adjoint when both operands are rank
// 2 or higher), then the [1, outputFeatures] result is reshaped back down
// to a plain vector before the bias add, which needs matching ranks since
// this tape does not broadcast.
func (d *Dense) Forward(x *autodiff.Node) (*autodiff.Node, error) {
	if len(x.Dims()) != 1 || x.Dims()[0] != d.inputFeatures {
		return nil, fmt.Errorf("dense %s: expected input shape [%d], got %v", d.name, d.inputFeatures, x.Dims())
	}

	row, err := ops.Reshape(x, []int{1, d.inputFeatures})
	if err != nil {
		return nil, fmt.Errorf("dense %s: reshape input: %w", d.name, err)
	}

	linear, err := ops.MatMul(row, d.weights.Value, false, false)
	if err != nil {
		return nil, fmt.Errorf("dense %s: matmul: %w", d.name, err)
	}

	linear, err = ops.Reshape(linear, []int{d.outputFeatures})
	if err != nil {
		return nil, fmt.Errorf("dense %s: reshape output: %w", d.name, err)
	}

	out := linear
	if d.bias != nil {
		out, err = ops.Add(out, d.bias.Value)
		if err != nil {
			return nil, fmt.Errorf("dense %s: bias add: %w", d.name, err)
		}
	}

	if d.activation != nil {
		out, err = d.activation(out)
		if err != nil {
			return nil, fmt.Errorf("dense %s: activation: %w", d.name, err)
		}
	}

	return out, nil
}

// Parameters returns every parameter box this layer owns, in a stable
// order (weights, then bias if present), so an optimizer can read each
// one's current gradient and replace its Value in place.
func (d *Dense) Parameters() []*params.Param {
	all := []*params.Param{d.weights}
	if d.bias != nil {
		all = append(all, d.bias)
	}

	return all
}

// Name returns the layer's configured name.
func (d *Dense) Name() string {
	return d.name
}
