package optimizer

import (
	"fmt"
	"math"

	"github.com/corgi-go/corgi/autodiff"
	"github.com/corgi-go/corgi/internal/params"
	"github.com/corgi-go/corgi/tensor"
)

// Adam implements the Adam optimizer: per-parameter first and second
// moment estimates of the gradient, bias-corrected each step.
type Adam struct {
	learningRate float64
	beta1        float64
	beta2        float64
	epsilon      float64

	step int
	m    map[string][]float64
	v    map[string][]float64
}

// NewAdam creates an Adam optimizer with the conventional defaults
// (beta1=0.9, beta2=0.999, epsilon=1e-8) unless overridden.
func NewAdam(learningRate float64, opts ...AdamOpt) *Adam {
	a := &Adam{
		learningRate: learningRate,
		beta1:        0.9,
		beta2:        0.999,
		epsilon:      1e-8,
		m:            make(map[string][]float64),
		v:            make(map[string][]float64),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// AdamOpt configures optional Adam hyperparameters.
type AdamOpt func(*Adam)

// WithBetas overrides the default moment decay rates.
func WithBetas(beta1, beta2 float64) AdamOpt {
	return func(a *Adam) {
		a.beta1 = beta1
		a.beta2 = beta2
	}
}

// WithEpsilon overrides the default numerical-stability constant.
func WithEpsilon(epsilon float64) AdamOpt {
	return func(a *Adam) {
		a.epsilon = epsilon
	}
}

// Step updates every parameter in store that carries a gradient, in
// place, using the standard Adam update rule.
func (a *Adam) Step(store *params.Store) error {
	a.step++

	biasCorrection1 := 1 - math.Pow(a.beta1, float64(a.step))
	biasCorrection2 := 1 - math.Pow(a.beta2, float64(a.step))

	for _, p := range store.All() {
		grad := p.Value.Gradient()
		if grad == nil {
			continue
		}

		g := grad.Values()

		m, ok := a.m[p.Name]
		if !ok {
			m = make([]float64, len(g))
			a.m[p.Name] = m
		}

		v, ok := a.v[p.Name]
		if !ok {
			v = make([]float64, len(g))
			a.v[p.Name] = v
		}

		values := p.Value.Values()

		for i, gi := range g {
			m[i] = a.beta1*m[i] + (1-a.beta1)*gi
			v[i] = a.beta2*v[i] + (1-a.beta2)*gi*gi

			mHat := m[i] / biasCorrection1
			vHat := v[i] / biasCorrection2

			values[i] -= a.learningRate * mHat / (math.Sqrt(vHat) + a.epsilon)
		}

		newValue, err := tensor.New(p.Value.Dims(), values)
		if err != nil {
			return fmt.Errorf("optimizer: adam step on %s: %w", p.Name, err)
		}

		p.Value = autodiff.TrackedLeaf(newValue)
	}

	return nil
}
