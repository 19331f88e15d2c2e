package ops

import (
	"fmt"

	"github.com/corgi-go/corgi/autodiff"
	"github.com/corgi-go/corgi/internal/accel"
	"github.com/corgi-go/corgi/tensor"
)

// MatMul returns a node computing the (batched) matrix product of a and b.
// aTranspose and bTranspose each request that the corresponding operand's
// trailing two dimensions be treated as transposed without materializing a
// transposed copy. Leading dimensions beyond the trailing two are treated as
// batch dimensions and must agree between a and b.
func MatMul(a, b *autodiff.Node, aTranspose, bTranspose bool) (*autodiff.Node, error) {
	val, err := matmulValues(a.Value(), b.Value(), aTranspose, bTranspose)
	if err != nil {
		return nil, err
	}

	op := matmulOp{aTranspose: aTranspose, bTranspose: bTranspose}

	return autodiff.New(val, []*autodiff.Node{a, b}, op), nil
}

// matmulOp projects an upstream gradient through a matmul(a, b, aT, bT) by
// the standard adjoint formulas, re-deriving each transpose combination so
// that the same matmulValues kernel computes both the forward value and the
// two backward projections.
type matmulOp struct {
	aTranspose, bTranspose bool
}

func (op matmulOp) Apply(children []*autodiff.Node, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	a, b := children[0], children[1]

	var deltaA, deltaB *tensor.Tensor

	if a.Tracked() {
		var err error

		if op.aTranspose {
			deltaA, err = matmulValues(b.Value(), grad, op.bTranspose, true)
		} else {
			deltaA, err = matmulValues(grad, b.Value(), false, !op.bTranspose)
		}

		if err != nil {
			return nil, err
		}
	}

	if b.Tracked() {
		var err error

		if op.bTranspose {
			deltaB, err = matmulValues(grad, a.Value(), true, op.aTranspose)
		} else {
			deltaB, err = matmulValues(a.Value(), grad, !op.aTranspose, false)
		}

		if err != nil {
			return nil, err
		}
	}

	return []*tensor.Tensor{
		autodiff.DeltaFor(children, 0, deltaA),
		autodiff.DeltaFor(children, 1, deltaB),
	}, nil
}

// matmulValues is the shape-handling, transpose-aware matmul kernel shared
// by the forward pass and both backward projections. Batch dimensions
// (everything before the trailing two) are driven off a's shape and must
// line up between a and b; this mirrors the operand contract the rest of
// this module assumes rather than implementing general broadcasting.
func matmulValues(a, b *tensor.Tensor, aTranspose, bTranspose bool) (*tensor.Tensor, error) {
	rankA, rankB := a.Rank(), b.Rank()

	batchRank := min(rankA, rankB) - 2
	if batchRank < 0 {
		batchRank = 0
	}

	outputRows := 1
	if rankA >= 2 {
		if aTranspose {
			outputRows = a.Dims()[rankA-1]
		} else {
			outputRows = a.Dims()[rankA-2]
		}
	}

	outputCols := 1
	if rankB >= 2 {
		if bTranspose {
			outputCols = b.Dims()[rankB-2]
		} else {
			outputCols = b.Dims()[rankB-1]
		}
	}

	sumLen := 1
	if !(rankA < 2 && aTranspose) {
		if aTranspose {
			sumLen = a.Dims()[rankA-2]
		} else {
			sumLen = a.Dims()[rankA-1]
		}
	}

	// B's effective inner dimension is the axis matmulFlat actually walks
	// when contracting against a; it must agree with sumLen (a's effective
	// inner dimension) or the flat index math below reads past b's rows.
	bInner := 1
	if rankB >= 2 {
		if bTranspose {
			bInner = b.Dims()[rankB-1]
		} else {
			bInner = b.Dims()[rankB-2]
		}
	} else {
		bInner = b.Dims()[0]
	}

	if sumLen != bInner {
		return nil, fmt.Errorf("%w: matmul inner dimension %d (from a %v, aTranspose=%t) does not match %d (from b %v, bTranspose=%t)",
			tensor.ErrDimMismatch, sumLen, a.Dims(), aTranspose, bInner, b.Dims(), bTranspose)
	}

	outputDims := append([]int(nil), a.Dims()[:batchRank]...)
	if outputRows == 1 {
		outputDims = append(outputDims, outputCols)
	} else {
		outputDims = append(outputDims, outputRows, outputCols)
	}

	outputLength := 1
	for _, d := range outputDims {
		outputLength *= d
	}

	outputValues := make([]float64, outputLength)

	batchCount := 1
	for i := 0; i < rankA-2; i++ {
		batchCount *= a.Dims()[i]
	}

	av, bv := a.ValuesRef(), b.ValuesRef()

	// The un-batched rank-2 case is the one that matters for performance
	// (it is what every layer forward/backward pass bottoms out in), so it
	// is routed through BLAS rather than the general nested-loop kernel
	// below, which stays in charge of batching and the vector-operand
	// edge cases BLAS doesn't model directly.
	if rankA == 2 && rankB == 2 {
		accel.Gemm(aTranspose, bTranspose, outputRows, outputCols, sumLen, av, bv, outputValues)

		return tensor.New(outputDims, outputValues)
	}

	indices := make([]int, batchRank)

	for n := 0; n < batchCount; n++ {
		offset := flattenBatchOffset(append(append([]int(nil), indices...), 0, 0), a.Dims())
		offsetB := flattenBatchOffset(append(append([]int(nil), indices...), 0, 0), b.Dims())
		outputOffset := flattenBatchOffset(append(append([]int(nil), indices...), 0, 0), outputDims)

		matmulFlat(outputValues, outputRows, outputCols, sumLen, 0, outputOffset, av[offset:], bv[offsetB:], aTranspose, bTranspose)

		for j := 0; j < len(indices); j++ {
			current := len(indices) - j - 1
			if indices[current] == a.Dims()[current]-1 {
				indices[current] = 0
			} else {
				indices[current]++

				break
			}
		}
	}

	return tensor.New(outputDims, outputValues)
}

// flattenBatchOffset flattens a batch-coordinate vector against dims,
// stopping at whichever of the two runs out first. indices always carries
// the trailing [0, 0] for the row/col axes; when dims is shorter (a vector
// operand), those trailing coordinates are simply dropped rather than
// indexing past the end of dims.
func flattenBatchOffset(indices, dims []int) int {
	acc := indices[0]

	for i := 1; i < len(indices) && i < len(dims); i++ {
		acc = acc*dims[i] + indices[i]
	}

	return acc
}

// matmulFlat computes one output_rows x output_cols tile of a matrix
// product starting at offset in both a and b's flat values, writing into
// values starting at outputOffset.
func matmulFlat(values []float64, outputRows, outputCols, sumLen, offset, outputOffset int, a, b []float64, aTranspose, bTranspose bool) {
	for r := 0; r < outputRows; r++ {
		for j := 0; j < outputCols; j++ {
			sum := 0.0

			for k := 0; k < sumLen; k++ {
				var aIdx, bIdx int

				if aTranspose {
					aIdx = offset + k*outputRows + r
				} else {
					aIdx = offset + r*sumLen + k
				}

				if bTranspose {
					bIdx = offset + j*sumLen + k
				} else {
					bIdx = offset + k*outputCols + j
				}

				sum += a[aIdx] * b[bIdx]
			}

			values[outputOffset+r*outputCols+j] = sum
		}
	}
}
