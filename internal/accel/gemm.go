// Package accel wraps gonum's BLAS bindings behind the narrow shape the
// core matmul kernel needs: a single, transpose-aware, row-major,
// rank-2 matrix product. It has no dependency on tensor or autodiff and
// exists purely as an optional fast path matmul can fall back from.
package accel

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
)

// Gemm computes c = a*b (or the transposed variants requested by
// aTranspose/bTranspose) for row-major, contiguous, rank-2 operands. a has
// m*k values, b has k*n values, c has m*n values and is overwritten.
func Gemm(aTranspose, bTranspose bool, m, n, k int, a, b, c []float64) {
	aTrans, bTrans := blas.NoTrans, blas.NoTrans

	rowsA, colsA, strideA := m, k, k
	if aTranspose {
		aTrans = blas.Trans
		rowsA, colsA, strideA = k, m, m
	}

	rowsB, colsB, strideB := k, n, n
	if bTranspose {
		bTrans = blas.Trans
		rowsB, colsB, strideB = n, k, k
	}

	A := blas64.General{Rows: rowsA, Cols: colsA, Data: a, Stride: strideA}
	B := blas64.General{Rows: rowsB, Cols: colsB, Data: b, Stride: strideB}
	C := blas64.General{Rows: m, Cols: n, Data: c, Stride: n}

	blas64.Gemm(aTrans, bTrans, 1, A, B, 0, C)
}
