package nnfunc_test

import (
	"math"
	"testing"

	"github.com/corgi-go/corgi/autodiff"
	"github.com/corgi-go/corgi/internal/testutils"
	"github.com/corgi-go/corgi/nnfunc"
	"github.com/corgi-go/corgi/tensor"
)

func mustTensor(t *testing.T, dims []int, values []float64) *tensor.Tensor {
	t.Helper()

	tt, err := tensor.New(dims, values)
	testutils.AssertNoError(t, err, "tensor.New: %v")

	return tt
}

func TestReLUForwardAndBackward(t *testing.T) {
	x := autodiff.TrackedLeaf(mustTensor(t, []int{4}, []float64{-2, -0.5, 0, 3}))

	y, err := nnfunc.ReLU(x)
	testutils.AssertNoError(t, err, "ReLU: %v")
	testutils.AssertFloatSliceEqual(t, []float64{0, 0, 0, 3}, y.Values(), "ReLU forward %v")

	testutils.AssertNoError(t, autodiff.Backward(y, nil), "Backward: %v")
	testutils.AssertFloatSliceEqual(t, []float64{0, 0, 0, 1}, x.Gradient().Values(), "ReLU backward %v")
}

func TestLeakyReLUForwardAndBackward(t *testing.T) {
	x := autodiff.TrackedLeaf(mustTensor(t, []int{3}, []float64{-2, 0, 3}))

	y, err := nnfunc.LeakyReLU(x, 0.1)
	testutils.AssertNoError(t, err, "LeakyReLU: %v")
	testutils.AssertFloatSliceEqual(t, []float64{-0.2, 0, 3}, y.Values(), "LeakyReLU forward %v")

	testutils.AssertNoError(t, autodiff.Backward(y, nil), "Backward: %v")
	testutils.AssertFloatSliceEqual(t, []float64{0.1, 0.1, 1}, x.Gradient().Values(), "LeakyReLU backward %v")
}

func TestSigmoidForwardAndBackward(t *testing.T) {
	x := autodiff.TrackedLeaf(mustTensor(t, []int{1}, []float64{0}))

	y, err := nnfunc.Sigmoid(x)
	testutils.AssertNoError(t, err, "Sigmoid: %v")
	testutils.AssertFloatSliceEqual(t, []float64{0.5}, y.Values(), "Sigmoid(0) must be 0.5")

	testutils.AssertNoError(t, autodiff.Backward(y, nil), "Backward: %v")
	testutils.AssertFloatSliceEqual(t, []float64{0.25}, x.Gradient().Values(), "Sigmoid'(0) must be 0.25")
}

func TestTanhForwardAndBackward(t *testing.T) {
	x := autodiff.TrackedLeaf(mustTensor(t, []int{1}, []float64{0}))

	y, err := nnfunc.Tanh(x)
	testutils.AssertNoError(t, err, "Tanh: %v")
	testutils.AssertFloatSliceEqual(t, []float64{0}, y.Values(), "Tanh(0) must be 0")

	testutils.AssertNoError(t, autodiff.Backward(y, nil), "Backward: %v")
	testutils.AssertFloatSliceEqual(t, []float64{1}, x.Gradient().Values(), "Tanh'(0) must be 1")

	x2 := autodiff.TrackedLeaf(mustTensor(t, []int{1}, []float64{1.5}))

	y2, err := nnfunc.Tanh(x2)
	testutils.AssertNoError(t, err, "Tanh: %v")
	want := math.Tanh(1.5)
	testutils.AssertFloatSliceEqual(t, []float64{want}, y2.Values(), "Tanh(1.5) %v")
}

func TestUntrackedInputProducesNilGradient(t *testing.T) {
	x := autodiff.Leaf(mustTensor(t, []int{2}, []float64{1, -1}))

	y, err := nnfunc.ReLU(x)
	testutils.AssertNoError(t, err, "ReLU: %v")
	testutils.AssertFalse(t, y.Tracked(), "ReLU of an untracked leaf must itself be untracked")
}
