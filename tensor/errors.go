package tensor

import "errors"

// ErrShapeMismatch is returned when a nested construction contains rows of
// unequal shape, or when two operands of an element-wise operation disagree
// on shape.
var ErrShapeMismatch = errors.New("tensor: shape mismatch")

// ErrInvalidIndex is returned when a flat or coordinate index is out of
// bounds for a tensor.
var ErrInvalidIndex = errors.New("tensor: invalid index")

// ErrDimMismatch is returned when a contraction (matmul, convolution) finds
// its operand dimensions incompatible.
var ErrDimMismatch = errors.New("tensor: dimension mismatch")
