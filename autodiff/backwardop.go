package autodiff

import "github.com/corgi-go/corgi/tensor"

// BackwardOp is the per-node gradient projection: given the node's
// children (as recorded at construction time) and the upstream gradient
// delivered to the node, it returns one entry per child — nil meaning that
// child structurally does not receive a gradient (it is untracked, or the
// op has nothing to say about it), a tensor meaning a real contribution of
// exactly that child's shape.
//
// spec.md §9 prefers this tagged-variant representation over a closure.
// The implementations in this module are the ops kernels (add, mul,
// matmul, reshape, unroll, roll, expand-conv) and the nnfunc activation
// and MSE ops; each is a small struct carrying the parameters its
// projection needs.
type BackwardOp interface {
	Apply(children []*Node, grad *tensor.Tensor) ([]*tensor.Tensor, error)
}

// DeltaFor returns grad for child i if it is tracked, nil otherwise — the
// shared "does this slot receive a contribution" rule every op applies.
func DeltaFor(children []*Node, i int, grad *tensor.Tensor) *tensor.Tensor {
	if !children[i].tracked {
		return nil
	}

	return grad
}
