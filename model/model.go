// Package model composes Layers into a single forward pass and collects
// their trainable parameters for an optimizer to step over.
package model

import (
	"fmt"

	"github.com/corgi-go/corgi/autodiff"
	"github.com/corgi-go/corgi/internal/params"
)

// Layer is anything that transforms one node into another and owns zero
// or more trainable parameters.
type Layer interface {
	Forward(x *autodiff.Node) (*autodiff.Node, error)
	Parameters() []*params.Param
	Name() string
}

// Sequential runs a fixed list of layers one after another, feeding each
// layer's output as the next layer's input.
type Sequential struct {
	layers []Layer
}

// NewSequential builds a model from layers in forward-pass order.
func NewSequential(layers ...Layer) *Sequential {
	return &Sequential{layers: layers}
}

// Forward runs x through every layer in order.
func (s *Sequential) Forward(x *autodiff.Node) (*autodiff.Node, error) {
	out := x

	for _, l := range s.layers {
		var err error

		out, err = l.Forward(out)
		if err != nil {
			return nil, fmt.Errorf("model: layer %s: %w", l.Name(), err)
		}
	}

	return out, nil
}

// ParamStore builds a named parameter registry for the whole model: each
// layer already names its own parameters (e.g. "fc1.weights"), so the
// store just collects them in layer order for an optimizer or checkpoint
// to address by that stable key.
func (s *Sequential) ParamStore() *params.Store {
	store := params.NewStore()

	for _, l := range s.layers {
		for _, p := range l.Parameters() {
			store.Register(p)
		}
	}

	return store
}
