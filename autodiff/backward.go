package autodiff

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/corgi-go/corgi/tensor"
)

// propagation is the state shared by every visit and worker goroutine
// spawned during a single Backward call: the first fatal error observed,
// recorded once and surfaced only after every worker has joined.
type propagation struct {
	mu  sync.Mutex
	err error
}

func (p *propagation) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err == nil {
		p.err = err
	}
}

func (p *propagation) firstErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.err
}

// Backward drives the two-phase reverse traversal from root. A nil seed
// defaults to a tensor of ones shaped like root's value. Backward returns
// ErrDoubleBackward if root already holds a gradient from a prior call,
// and ErrShapeMismatch if seed's shape does not match root's.
func Backward(root *Node, seed *tensor.Tensor) error {
	if root.Gradient() != nil {
		return ErrDoubleBackward
	}

	if seed == nil {
		seed = tensor.OnesLike(root.value)
	} else if !dimsEqual(seed.Dims(), root.value.Dims()) {
		return fmt.Errorf("%w: seed shape %v does not match root shape %v", tensor.ErrShapeMismatch, seed.Dims(), root.value.Dims())
	}

	propagateConsumers(root)

	prop := &propagation{}
	root.visit(seed, prop)

	return prop.firstErr()
}

// propagateConsumers is phase 1: a depth-first walk that increments each
// tracked child's consumer count once per edge. Untracked children are
// left out of the count entirely — they never get visited in phase 2, so
// counting them would leave their would-be contributors waiting forever.
// Every incoming edge of a shared node is counted, but the walk descends
// into that node only on its first discovery, so the edges below it are
// counted once rather than once per path: the graph is a DAG, not a tree.
func propagateConsumers(n *Node) {
	for _, child := range n.children {
		if !child.tracked {
			continue
		}

		child.mu.Lock()
		child.consumerCount++
		first := child.consumerCount == 1
		child.mu.Unlock()

		if first {
			propagateConsumers(child)
		}
	}
}

// visit is phase 2 for a single node: project grad through the node's
// backward op, deliver each per-child contribution (spawning or signaling
// that child's worker), record the node's gradient, and block until every
// worker spawned here has joined.
func (n *Node) visit(grad *tensor.Tensor, prop *propagation) {
	var deltas []*tensor.Tensor

	switch {
	case n.backwardOp != nil:
		var err error

		deltas, err = n.backwardOp.Apply(n.children, grad)
		if err != nil {
			prop.setErr(err)
			deltas = zeroFallback(n.children)
		}
	case len(n.children) != 0:
		prop.setErr(fmt.Errorf("%w", ErrNotDifferentiable))
		deltas = zeroFallback(n.children)
	default:
		deltas = nil
	}

	var wg sync.WaitGroup

	for i, child := range n.children {
		if !child.tracked {
			continue
		}

		delta := deltas[i]
		if delta == nil {
			continue
		}

		child.mu.Lock()

		if child.inbox == nil {
			inbox := make(chan *tensor.Tensor)
			child.inbox = inbox
			child.mu.Unlock()

			wg.Add(1)

			go func(c *Node, first *tensor.Tensor, inbox chan *tensor.Tensor) {
				defer wg.Done()
				runWorker(c, first, inbox, prop)
			}(child, delta, inbox)
		} else {
			inbox := child.inbox
			child.mu.Unlock()
			inbox <- delta
		}
	}

	n.mu.Lock()
	n.gradient = grad
	n.mu.Unlock()

	wg.Wait()
}

// runWorker owns a single child's accumulation: it decrements the child's
// consumer count for each contribution received (starting with first),
// sums contributions commutatively, and once the count reaches zero,
// recurses into the child's own visit with the accumulated total.
func runWorker(c *Node, first *tensor.Tensor, inbox chan *tensor.Tensor, prop *propagation) {
	acc := first.Values()

	c.mu.Lock()
	c.consumerCount--
	remaining := c.consumerCount
	c.mu.Unlock()

	for remaining > 0 {
		next := <-inbox
		floats.Add(acc, next.Values())

		c.mu.Lock()
		c.consumerCount--
		remaining = c.consumerCount
		c.mu.Unlock()
	}

	total, err := tensor.New(c.value.Dims(), acc)
	if err != nil {
		prop.setErr(err)

		return
	}

	c.visit(total, prop)
}

// zeroFallback returns a zero tensor per tracked child (nil for untracked
// ones) so a node that failed to compute real deltas still lets every
// downstream worker reach consumer-count zero and quiesce, guaranteeing
// Backward always returns instead of deadlocking on the first error.
func zeroFallback(children []*Node) []*tensor.Tensor {
	out := make([]*tensor.Tensor, len(children))

	for i, c := range children {
		if !c.tracked {
			continue
		}

		out[i] = tensor.ZeroLike(c.value)
	}

	return out
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
