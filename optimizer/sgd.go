// Package optimizer steps a model's parameters against the gradients a
// prior autodiff.Backward call deposited on them.
package optimizer

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/corgi-go/corgi/autodiff"
	"github.com/corgi-go/corgi/internal/params"
	"github.com/corgi-go/corgi/tensor"
)

// SGD implements plain stochastic gradient descent: value -= lr*grad.
type SGD struct {
	learningRate float64
}

// NewSGD creates an SGD optimizer with the given learning rate.
func NewSGD(learningRate float64) *SGD {
	return &SGD{learningRate: learningRate}
}

// Step updates every parameter in store that carries a gradient, in
// place, by installing a fresh tracked leaf in its Param, ready for the
// next forward pass (the prior leaf's gradient can never be reset, since
// autodiff.Backward rejects a second call on the same node).
func (s *SGD) Step(store *params.Store) error {
	for _, p := range store.All() {
		grad := p.Value.Gradient()
		if grad == nil {
			continue
		}

		updated := p.Value.Values()
		floats.AddScaled(updated, -s.learningRate, grad.Values())

		newValue, err := tensor.New(p.Value.Dims(), updated)
		if err != nil {
			return fmt.Errorf("optimizer: sgd step on %s: %w", p.Name, err)
		}

		p.Value = autodiff.TrackedLeaf(newValue)
	}

	return nil
}
