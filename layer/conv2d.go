package layer

import (
	"fmt"

	"github.com/corgi-go/corgi/autodiff"
	"github.com/corgi-go/corgi/internal/params"
	"github.com/corgi-go/corgi/nnfunc"
	"github.com/corgi-go/corgi/ops"
)

// Conv2D is a 2D convolution layer: y = activation(conv(x, filters)), built
// entirely from ops.Conv (unroll/matmul/expand) rather than a bespoke
// kernel. It carries no bias, unlike Dense: a per-filter bias would need to
// broadcast across the output's row/col extent, which this tape never does
// (see Dense.Forward's comment on the same constraint), and no op exists to
// expand a [numFilters] vector up to [numFilters, rowStrideCount,
// colStrideCount] without inventing a broadcasting primitive the spec
// excludes.
type Conv2D struct {
	name       string
	filters    *params.Param
	activation nnfunc.Activation
	strideRows int
	strideCols int
}

// Conv2DOpt is a functional option for configuring a Conv2D layer at
// construction time.
type Conv2DOpt func(*Conv2D) error

// WithConvActivation attaches an element-wise activation applied after the
// convolution.
func WithConvActivation(activation nnfunc.Activation) Conv2DOpt {
	return func(c *Conv2D) error {
		c.activation = activation

		return nil
	}
}

// WithFilterInit overrides the default He initializer for the filter bank.
func WithFilterInit(init nnfunc.Initializer) Conv2DOpt {
	return func(c *Conv2D) error {
		dims := c.filters.Value.Dims()

		fanIn := dims[1] * dims[2] * dims[3]
		fanOut := dims[0] * dims[2] * dims[3]

		val, err := init(dims, fanIn, fanOut)
		if err != nil {
			return fmt.Errorf("conv2d %s: filter init: %w", c.name, err)
		}

		c.filters = &params.Param{Name: c.name + ".filters", Value: autodiff.TrackedLeaf(val)}

		return nil
	}
}

// NewConv2D creates a Conv2D layer with He-initialized filters of shape
// [numFilters, depth, filterRows, filterCols].
func NewConv2D(name string, numFilters, depth, filterRows, filterCols, strideRows, strideCols int, opts ...Conv2DOpt) (*Conv2D, error) {
	if name == "" {
		return nil, fmt.Errorf("conv2d layer name must not be empty")
	}

	if numFilters <= 0 || depth <= 0 || filterRows <= 0 || filterCols <= 0 {
		return nil, fmt.Errorf("conv2d %s: filter dimensions must be positive", name)
	}

	if strideRows <= 0 || strideCols <= 0 {
		return nil, fmt.Errorf("conv2d %s: strides must be positive", name)
	}

	c := &Conv2D{
		name:       name,
		strideRows: strideRows,
		strideCols: strideCols,
	}

	dims := []int{numFilters, depth, filterRows, filterCols}
	fanIn := depth * filterRows * filterCols
	fanOut := numFilters * filterRows * filterCols

	filters, err := nnfunc.He(dims, fanIn, fanOut)
	if err != nil {
		return nil, fmt.Errorf("conv2d %s: filter init: %w", name, err)
	}

	c.filters = &params.Param{Name: name + ".filters", Value: autodiff.TrackedLeaf(filters)}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Forward computes activation(conv(x, filters)) for an input of shape
// [depth, rows, cols], producing [numFilters, rowStrideCount,
// colStrideCount].
func (c *Conv2D) Forward(x *autodiff.Node) (*autodiff.Node, error) {
	dims := x.Dims()
	if len(dims) != 3 {
		return nil, fmt.Errorf("conv2d %s: expected input rank 3 [depth, rows, cols], got %v", c.name, dims)
	}

	filterDepth := c.filters.Value.Dims()[1]
	if dims[0] != filterDepth {
		return nil, fmt.Errorf("conv2d %s: expected input depth %d, got %d", c.name, filterDepth, dims[0])
	}

	out, err := ops.Conv(x, c.filters.Value, c.strideRows, c.strideCols)
	if err != nil {
		return nil, fmt.Errorf("conv2d %s: conv: %w", c.name, err)
	}

	if c.activation != nil {
		out, err = c.activation(out)
		if err != nil {
			return nil, fmt.Errorf("conv2d %s: activation: %w", c.name, err)
		}
	}

	return out, nil
}

// Parameters returns the filter bank parameter box.
func (c *Conv2D) Parameters() []*params.Param {
	return []*params.Param{c.filters}
}

// Name returns the layer's configured name.
func (c *Conv2D) Name() string {
	return c.name
}
