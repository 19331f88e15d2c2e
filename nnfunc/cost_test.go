package nnfunc_test

import (
	"testing"

	"github.com/corgi-go/corgi/autodiff"
	"github.com/corgi-go/corgi/internal/testutils"
	"github.com/corgi-go/corgi/nnfunc"
)

func TestMSEForwardAndBackward(t *testing.T) {
	predictions := autodiff.TrackedLeaf(mustTensor(t, []int{4}, []float64{1, 2, 3, 4}))
	targets := autodiff.Leaf(mustTensor(t, []int{4}, []float64{1, 1, 1, 1}))

	loss, err := nnfunc.MSE(predictions, targets)
	testutils.AssertNoError(t, err, "MSE: %v")
	testutils.AssertFloatSliceEqual(t, []float64{3.5}, loss.Values(), "MSE forward %v")

	testutils.AssertNoError(t, autodiff.Backward(loss, nil), "Backward: %v")
	testutils.AssertFloatSliceEqual(t, []float64{0, 0.5, 1, 1.5}, predictions.Gradient().Values(), "MSE backward %v")
}

func TestMSEShapeMismatch(t *testing.T) {
	predictions := autodiff.TrackedLeaf(mustTensor(t, []int{2}, []float64{1, 2}))
	targets := autodiff.Leaf(mustTensor(t, []int{3}, []float64{1, 1, 1}))

	_, err := nnfunc.MSE(predictions, targets)
	testutils.AssertError(t, err, "expected shape mismatch error")
}
