package tensor

import (
	"fmt"

	"github.com/corgi-go/corgi/numeric"
)

// At returns the value at a flat row-major index.
func (t *Tensor) At(index int) (numeric.Float, error) {
	if index < 0 || index >= len(t.values) {
		return 0, fmt.Errorf("%w: flat index %d out of bounds for length %d", ErrInvalidIndex, index, len(t.values))
	}

	return t.values[index], nil
}

// AtCoord returns the value at a coordinate vector, using the row-major
// flattening convention index(i0,...,in-1) = ((i0*d1+i1)*d2+i2)...*dn-1+in-1.
func (t *Tensor) AtCoord(coords []int) (numeric.Float, error) {
	flat, err := FlattenIndex(coords, t.dims)
	if err != nil {
		return 0, err
	}

	return t.values[flat], nil
}

// FlattenIndex converts a coordinate vector into a flat row-major index,
// validating rank and per-axis bounds.
func FlattenIndex(coords []int, dims []int) (int, error) {
	if len(coords) != len(dims) {
		return 0, fmt.Errorf("%w: %d coordinates for rank %d tensor", ErrInvalidIndex, len(coords), len(dims))
	}

	flat := 0
	for i, c := range coords {
		if c < 0 || c >= dims[i] {
			return 0, fmt.Errorf("%w: coordinate %d out of bounds for axis %d of size %d", ErrInvalidIndex, c, i, dims[i])
		}

		flat = flat*dims[i] + c
	}

	return flat, nil
}

// FlattenIndexUnchecked is FlattenIndex without bounds validation, for
// callers that have already established the index is in range. It indexes
// dims by every position of coords, so coords must not be longer than dims.
func FlattenIndexUnchecked(coords []int, dims []int) int {
	flat := 0
	for i, c := range coords {
		flat = flat*dims[i] + c
	}

	return flat
}
