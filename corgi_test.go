package corgi_test

import (
	"testing"

	"github.com/corgi-go/corgi"
	"github.com/corgi-go/corgi/internal/testutils"
)

func TestArrAddBackward(t *testing.T) {
	a := corgi.Arr(1, 2, 3)
	b := corgi.Arr(4, 5, 6)

	c, err := corgi.Add(a, b)
	testutils.AssertNoError(t, err, "Add: %v")
	testutils.AssertFloatSliceEqual(t, []float64{5, 7, 9}, c.Values(), "Add forward %v")

	testutils.AssertNoError(t, c.Backward(nil), "Backward: %v")
	testutils.AssertFloatSliceEqual(t, []float64{1, 1, 1}, a.Gradient().Values(), "a.grad %v")
	testutils.AssertFloatSliceEqual(t, []float64{1, 1, 1}, b.Gradient().Values(), "b.grad %v")
}

func TestArrMatMulShape(t *testing.T) {
	a, err := corgi.New([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	testutils.AssertNoError(t, err, "New: %v")

	b, err := corgi.New([]int{3, 2}, []float64{1, 0, 0, 1, 1, 1})
	testutils.AssertNoError(t, err, "New: %v")

	c, err := corgi.MatMul(a, b, false, false)
	testutils.AssertNoError(t, err, "MatMul: %v")
	testutils.AssertEqualSlice(t, []int{2, 2}, c.Dims(), "MatMul shape %v")
}

func TestArrAtAndTracking(t *testing.T) {
	a := corgi.Arr(10, 20, 30)

	v, err := a.At(1)
	testutils.AssertNoError(t, err, "At: %v")
	testutils.AssertEqual(t, 20.0, v, "At(1) %v")

	testutils.AssertTrue(t, a.Tracked(), "Arr should be tracked by default")
	a.StopTracking()
	testutils.AssertFalse(t, a.Tracked(), "StopTracking should flip Tracked")
}

func TestUntrackedArrSeversGraph(t *testing.T) {
	a, err := corgi.Untracked([]int{2}, []float64{1, 2})
	testutils.AssertNoError(t, err, "Untracked: %v")

	b, err := corgi.Untracked([]int{2}, []float64{3, 4})
	testutils.AssertNoError(t, err, "Untracked: %v")

	c, err := corgi.Add(a, b)
	testutils.AssertNoError(t, err, "Add: %v")
	testutils.AssertFalse(t, c.Tracked(), "sum of untracked arrays must be untracked")
}
