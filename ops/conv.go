package ops

import (
	"fmt"

	"github.com/corgi-go/corgi/autodiff"
	"github.com/corgi-go/corgi/tensor"
)

// Unroll performs the im2col transform: for every output position (r, c) it
// copies the (depth x filterRows x filterCols) patch starting there into one
// row of a new matrix of shape (rowStrideCount*colStrideCount,
// depth*filterRows*filterCols). image's last three axes are interpreted as
// (depth, rows, cols); any leading axes are carried through as a batch
// prefix.
func Unroll(image *autodiff.Node, strideRows, strideCols, filterRows, filterCols int) (*autodiff.Node, error) {
	dims := image.Dims()

	n := len(dims)
	if n < 3 {
		return nil, fmt.Errorf("%w: unroll needs at least 3 dimensions, got %d", tensor.ErrDimMismatch, n)
	}

	imageDepth, imageRows, imageCols := dims[n-3], dims[n-2], dims[n-1]

	val, err := unrollValues(image.Value(), strideRows, strideCols, filterRows, filterCols)
	if err != nil {
		return nil, err
	}

	op := unrollOp{
		imageDepth: imageDepth, imageRows: imageRows, imageCols: imageCols,
		strideRows: strideRows, strideCols: strideCols,
		filterRows: filterRows, filterCols: filterCols,
	}

	return autodiff.New(val, []*autodiff.Node{image}, op), nil
}

// unrollOp's adjoint is Roll: it scatters each unrolled row back into the
// patch position it came from, summing contributions where patches overlap.
type unrollOp struct {
	imageDepth, imageRows, imageCols       int
	strideRows, strideCols                 int
	filterRows, filterCols                 int
}

func (op unrollOp) Apply(children []*autodiff.Node, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	if !children[0].Tracked() {
		return []*tensor.Tensor{nil}, nil
	}

	delta, err := rollValues(grad, op.imageDepth, op.imageRows, op.imageCols, op.strideRows, op.strideCols, op.filterRows, op.filterCols)
	if err != nil {
		return nil, err
	}

	return []*tensor.Tensor{delta}, nil
}

// Roll is the adjoint of Unroll: it scatters each row of an unrolled matrix
// back into the (depth, imageRows, imageCols) patch position it was copied
// from, summing overlapping contributions. It is meaningful as a forward
// operation only for the non-overlapping, stride-covers-filter case (where
// it recovers the original image); in gradient flow it is used generally.
func Roll(unrolled *autodiff.Node, imageDepth, imageRows, imageCols, strideRows, strideCols, filterRows, filterCols int) (*autodiff.Node, error) {
	val, err := rollValues(unrolled.Value(), imageDepth, imageRows, imageCols, strideRows, strideCols, filterRows, filterCols)
	if err != nil {
		return nil, err
	}

	op := rollOp{
		strideRows: strideRows, strideCols: strideCols,
		filterRows: filterRows, filterCols: filterCols,
	}

	return autodiff.New(val, []*autodiff.Node{unrolled}, op), nil
}

type rollOp struct {
	strideRows, strideCols int
	filterRows, filterCols int
}

func (op rollOp) Apply(children []*autodiff.Node, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	if !children[0].Tracked() {
		return []*tensor.Tensor{nil}, nil
	}

	delta, err := unrollValues(grad, op.strideRows, op.strideCols, op.filterRows, op.filterCols)
	if err != nil {
		return nil, err
	}

	return []*tensor.Tensor{delta}, nil
}

func unrollValues(image *tensor.Tensor, strideRows, strideCols, filterRows, filterCols int) (*tensor.Tensor, error) {
	dims := image.Dims()

	n := len(dims)
	if n < 3 {
		return nil, fmt.Errorf("%w: unroll needs at least 3 dimensions, got %d", tensor.ErrDimMismatch, n)
	}

	imageDepth, imageRows, imageCols := dims[n-3], dims[n-2], dims[n-1]

	rowStrideCount := (imageRows-filterRows)/strideRows + 1
	colStrideCount := (imageCols-filterCols)/strideCols + 1
	unrolledCount := rowStrideCount * colStrideCount
	unrolledSize := filterRows * filterCols

	batchDims := dims[:n-3]
	batchCount := batchProduct(batchDims)
	sliceIn := imageDepth * imageRows * imageCols
	sliceOut := unrolledCount * imageDepth * unrolledSize

	outputDims := append(append([]int(nil), batchDims...), unrolledCount, imageDepth*unrolledSize)

	values := image.ValuesRef()
	out := make([]float64, batchCount*sliceOut)

	for b := 0; b < batchCount; b++ {
		inBase := b * sliceIn
		outBase := b * sliceOut
		outputIndex := 0

		for r := 0; r < rowStrideCount; r++ {
			for c := 0; c < colStrideCount; c++ {
				for k := 0; k < imageDepth; k++ {
					for m := 0; m < filterRows; m++ {
						rowIndex := m + strideRows*r

						for fc := 0; fc < filterCols; fc++ {
							colIndex := fc + strideCols*c
							inputIndex := colIndex + imageCols*(rowIndex+imageRows*k)
							out[outBase+outputIndex] = values[inBase+inputIndex]
							outputIndex++
						}
					}
				}
			}
		}
	}

	return tensor.New(outputDims, out)
}

func rollValues(unrolled *tensor.Tensor, imageDepth, imageRows, imageCols, strideRows, strideCols, filterRows, filterCols int) (*tensor.Tensor, error) {
	dims := unrolled.Dims()

	n := len(dims)
	if n < 2 {
		return nil, fmt.Errorf("%w: roll needs at least 2 dimensions, got %d", tensor.ErrDimMismatch, n)
	}

	unrolledCount := dims[n-2]
	unrolledSize := dims[n-1] / imageDepth
	colStrideCount := (imageCols-filterCols)/strideCols + 1

	batchDims := dims[:n-2]
	batchCount := batchProduct(batchDims)
	sliceIn := unrolledCount * dims[n-1]
	sliceOut := imageDepth * imageRows * imageCols

	outputDims := append(append([]int(nil), batchDims...), imageDepth, imageRows, imageCols)

	values := unrolled.ValuesRef()
	out := make([]float64, batchCount*sliceOut)

	for b := 0; b < batchCount; b++ {
		inBase := b * sliceIn
		outBase := b * sliceOut

		for i := 0; i < imageDepth; i++ {
			depthOffset := i * imageRows * imageCols
			skipped := i * filterRows * filterCols

			for j := 0; j < unrolledCount; j++ {
				strideRowIndex, strideColIndex := j/colStrideCount, j%colStrideCount
				strideOffset := strideCols*strideColIndex + imageCols*strideRows*strideRowIndex

				for k := 0; k < unrolledSize; k++ {
					filterRowIndex, filterColIndex := k/filterCols, k%filterCols
					filterOffset := filterColIndex + imageCols*filterRowIndex

					outputIndex := strideOffset + filterOffset + depthOffset
					inputIndex := k + skipped + unrolledSize*imageDepth*j

					// += rather than =: overlapping patches (stride smaller
					// than the filter) must accumulate their contributions
					// here, since Roll's only real use is as Unroll's
					// adjoint, where every unrolled copy of a source
					// position carries an independent gradient term.
					out[outBase+outputIndex] += values[inBase+inputIndex]
				}
			}
		}
	}

	return tensor.New(outputDims, out)
}

// ExpandConv reorders an (..., rowStrideCount*colStrideCount, filterCount)
// matmul result into (..., filterCount, rowStrideCount, colStrideCount), the
// shape a convolution's caller expects.
func ExpandConv(t *autodiff.Node, rowStrideCount, colStrideCount int) (*autodiff.Node, error) {
	dims := t.Dims()
	if len(dims) < 2 {
		return nil, fmt.Errorf("%w: expand-conv needs at least 2 dimensions, got %d", tensor.ErrDimMismatch, len(dims))
	}

	filterCount := dims[len(dims)-1]
	skipSize := t.Value().Len() / filterCount

	values := t.Value().ValuesRef()
	out := make([]float64, len(values))

	idx := 0
	for k := 0; k < filterCount; k++ {
		for i := 0; i < skipSize; i++ {
			out[idx] = values[k+filterCount*i]
			idx++
		}
	}

	outputDims := append(append([]int(nil), dims[:len(dims)-2]...), filterCount, rowStrideCount, colStrideCount)

	val, err := tensor.New(outputDims, out)
	if err != nil {
		return nil, err
	}

	op := expandConvOp{filterCount: filterCount, skipSize: skipSize, originalDims: append([]int(nil), dims...)}

	return autodiff.New(val, []*autodiff.Node{t}, op), nil
}

type expandConvOp struct {
	filterCount, skipSize int
	originalDims          []int
}

func (op expandConvOp) Apply(children []*autodiff.Node, grad *tensor.Tensor) ([]*tensor.Tensor, error) {
	if !children[0].Tracked() {
		return []*tensor.Tensor{nil}, nil
	}

	values := grad.ValuesRef()
	out := make([]float64, len(values))

	idx := 0
	for k := 0; k < op.filterCount; k++ {
		for i := 0; i < op.skipSize; i++ {
			out[k+op.filterCount*i] = values[idx]
			idx++
		}
	}

	delta, err := tensor.New(op.originalDims, out)
	if err != nil {
		return nil, err
	}

	return []*tensor.Tensor{delta}, nil
}

// Conv computes the image convolution of image with filters, expressed as
// unroll -> matmul -> expand. image's last three axes are (depth, rows,
// cols); filters' last three axes are (depth, filterRows, filterCols), with
// any remaining leading axis serving as the filter count.
func Conv(image, filters *autodiff.Node, strideRows, strideCols int) (*autodiff.Node, error) {
	imgDims := image.Dims()
	filterDims := filters.Dims()

	if len(imgDims) < 3 || len(filterDims) < 3 {
		return nil, fmt.Errorf("%w: conv needs at least 3 dimensions", tensor.ErrDimMismatch)
	}

	n := len(imgDims)
	imageDepth, imageRows, imageCols := imgDims[n-3], imgDims[n-2], imgDims[n-1]

	fn := len(filterDims)
	filterRows, filterCols := filterDims[fn-2], filterDims[fn-1]

	rowStrideCount := (imageRows-filterRows)/strideRows + 1
	colStrideCount := (imageCols-filterCols)/strideCols + 1

	unrolled, err := Unroll(image, strideRows, strideCols, filterRows, filterCols)
	if err != nil {
		return nil, err
	}

	unrolledDims := unrolled.Dims()
	unrolledSize := unrolledDims[len(unrolledDims)-1] / imageDepth

	filterBatch := fn - 3
	if filterBatch < 0 {
		filterBatch = 0
	}

	filterMatrixDims := append(append([]int(nil), filterDims[:filterBatch]...), unrolledSize*imageDepth)

	filterMatrix, err := Reshape(filters, filterMatrixDims)
	if err != nil {
		return nil, err
	}

	convolved, err := MatMul(unrolled, filterMatrix, false, true)
	if err != nil {
		return nil, err
	}

	return ExpandConv(convolved, rowStrideCount, colStrideCount)
}

func batchProduct(dims []int) int {
	product := 1
	for _, d := range dims {
		product *= d
	}

	return product
}
