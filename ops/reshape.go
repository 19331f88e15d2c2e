package ops

import (
	"github.com/corgi-go/corgi/autodiff"
	"github.com/corgi-go/corgi/tensor"
)

// Reshape returns a node viewing n's value under a new shape with the same
// element count. The backward projection reshapes the upstream gradient
// back to n's original shape, since reshape carries no other information.
func Reshape(n *autodiff.Node, dims []int) (*autodiff.Node, error) {
	val, err := n.Value().Reshape(dims)
	if err != nil {
		return nil, err
	}

	op := reshapeOp{original: append([]int(nil), n.Dims()...)}

	return autodiff.New(val, []*autodiff.Node{n}, op), nil
}

type reshapeOp struct {
	original []int
}

func (op reshapeOp) Apply(children []*autodiff.Node, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	if !children[0].Tracked() {
		return []*tensor.Tensor{nil}, nil
	}

	delta, err := grad.Reshape(op.original)
	if err != nil {
		return nil, err
	}

	return []*tensor.Tensor{delta}, nil
}
