package tensor

import (
	"errors"
	"testing"

	"github.com/corgi-go/corgi/internal/testutils"
)

func TestNewFlat(t *testing.T) {
	tn := FromFlat([]float64{1, 2, 3})
	testutils.AssertEqualSlice(t, []int{3}, tn.Dims(), "shape")
	testutils.AssertFloatSliceEqual(t, []float64{1, 2, 3}, tn.Values(), "values")
}

func TestFromShapeZeroed(t *testing.T) {
	tn, err := FromShape([]int{3, 2})
	testutils.AssertNoError(t, err, "FromShape should not error: %v")
	testutils.AssertEqual(t, 6, tn.Len(), "length")

	for i := 0; i < tn.Len(); i++ {
		v, _ := tn.At(i)
		testutils.AssertEqual(t, 0.0, v, "zero-filled value")
	}
}

func TestFromNested(t *testing.T) {
	rows := []*Tensor{
		FromFlat([]float64{0, 1}),
		FromFlat([]float64{2, 3}),
		FromFlat([]float64{4, 5}),
	}

	matrix, err := FromNested(rows)
	testutils.AssertNoError(t, err, "FromNested should not error: %v")
	testutils.AssertEqualSlice(t, []int{3, 2}, matrix.Dims(), "shape")
	testutils.AssertFloatSliceEqual(t, []float64{0, 1, 2, 3, 4, 5}, matrix.Values(), "values")
}

func TestFromNestedMismatch(t *testing.T) {
	rows := []*Tensor{
		FromFlat([]float64{0, 1}),
		FromFlat([]float64{2, 3, 4}),
	}

	_, err := FromNested(rows)
	testutils.AssertError(t, err, "expected ErrShapeMismatch")

	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestEqual(t *testing.T) {
	a := FromFlat([]float64{1, 2, 3})
	b := FromFlat([]float64{1, 2, 3})
	c := FromFlat([]float64{1, 2, 4})

	testutils.AssertTrue(t, a.Equal(b), "equal tensors should compare equal")
	testutils.AssertFalse(t, a.Equal(c), "differing tensors should not compare equal")
}

func TestAtCoordRowMajor(t *testing.T) {
	matrix, _ := New([]int{2, 3}, []float64{0, 1, 2, 3, 4, 5})

	v, err := matrix.AtCoord([]int{1, 2})
	testutils.AssertNoError(t, err, "AtCoord should not error: %v")
	testutils.AssertEqual(t, 5.0, v, "row-major flattening")
}

func TestAtCoordInvalidIndex(t *testing.T) {
	matrix, _ := New([]int{2, 3}, []float64{0, 1, 2, 3, 4, 5})

	_, err := matrix.AtCoord([]int{2, 0})
	testutils.AssertError(t, err, "expected out-of-bounds error")

	if !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex, got %v", err)
	}
}

func TestReshape(t *testing.T) {
	flat := FromFlat([]float64{1, 2, 3, 4, 5, 6})

	reshaped, err := flat.Reshape([]int{2, 3})
	testutils.AssertNoError(t, err, "Reshape should not error: %v")
	testutils.AssertEqualSlice(t, []int{2, 3}, reshaped.Dims(), "shape")

	_, err = flat.Reshape([]int{4, 2})
	testutils.AssertError(t, err, "expected shape mismatch on incompatible reshape")
}

func TestValuesIsDefensiveCopy(t *testing.T) {
	tn := FromFlat([]float64{1, 2, 3})
	vals := tn.Values()
	vals[0] = 99

	again, _ := tn.At(0)
	testutils.AssertEqual(t, 1.0, again, "mutating Values() result must not affect the tensor")
}
