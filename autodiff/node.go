// Package autodiff implements the reverse-mode tape: a Node owns its
// forward value, its operands, and (when tracked) a BackwardOp value
// capable of projecting an incoming gradient into per-operand gradients.
// Backward walks the implicit graph in reverse with one goroutine per
// newly discovered node, rendezvousing contributions through a per-node
// inbox channel exactly as spec.md §4.6/§5 describe.
package autodiff

import (
	"sync"

	"github.com/corgi-go/corgi/tensor"
)

// Node is the sole graph-bearing entity: a tensor value plus whatever
// bookkeeping reverse-mode differentiation needs. Sharing a *Node between
// multiple parents is the common case, not an exception — the graph is a
// DAG, never forced into a tree.
type Node struct {
	value      *tensor.Tensor
	children   []*Node
	backwardOp BackwardOp
	tracked    bool

	mu            sync.Mutex
	consumerCount int
	inbox         chan *tensor.Tensor
	gradient      *tensor.Tensor
}

// Leaf wraps a tensor as an untracked, childless node. Use Tracked to make
// it participate in a subsequent graph.
func Leaf(value *tensor.Tensor) *Node {
	return &Node{value: value}
}

// TrackedLeaf wraps a tensor as a tracked, childless node — the normal way
// to introduce a user-supplied input or parameter that should receive
// gradients.
func TrackedLeaf(value *tensor.Tensor) *Node {
	return &Node{value: value, tracked: true}
}

// Value returns the node's forward tensor value.
func (n *Node) Value() *tensor.Tensor {
	return n.value
}

// Dims returns the shape of the node's value.
func (n *Node) Dims() []int {
	return n.value.Dims()
}

// Values returns a defensive copy of the node's flat values.
func (n *Node) Values() []float64 {
	return n.value.Values()
}

// At returns the value at a coordinate vector into the node's tensor,
// using the same row-major convention as tensor.AtCoord.
func (n *Node) At(indices ...int) (float64, error) {
	return n.value.AtCoord(indices)
}

// Tracked reports whether this node currently records graph edges when it
// participates in further operators.
func (n *Node) Tracked() bool {
	return n.tracked
}

// StartTracking marks the node as tracked for future operator composition.
// It does not retroactively attach children or a backward op.
func (n *Node) StartTracking() {
	n.tracked = true
}

// StopTracking marks the node as untracked: operators consuming it as an
// operand will sever the graph edge at this point.
func (n *Node) StopTracking() {
	n.tracked = false
}

// Children returns the node's forward-pass operands. Empty for leaves.
func (n *Node) Children() []*Node {
	return n.children
}

// BackwardOp returns the node's backward projection, or nil for a leaf.
func (n *Node) BackwardOp() BackwardOp {
	return n.backwardOp
}

// Gradient returns the gradient set by the most recent Backward call that
// reached this node, or nil if none has run yet.
func (n *Node) Gradient() *tensor.Tensor {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.gradient
}

// New builds an interior node from its forward value. If every operand in
// children is untracked, the returned node is itself untracked and carries
// no children or backward op — the subgraph is severed right here, exactly
// as spec.md §4.5 and §4.7 require. Otherwise the node records children
// and op for the later reverse traversal.
func New(value *tensor.Tensor, children []*Node, op BackwardOp) *Node {
	anyTracked := false

	for _, c := range children {
		if c.tracked {
			anyTracked = true

			break
		}
	}

	if !anyTracked {
		return &Node{value: value}
	}

	return &Node{value: value, children: children, backwardOp: op, tracked: true}
}
