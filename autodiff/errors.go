package autodiff

import "errors"

// ErrNotDifferentiable is returned when the traversal reaches a node that
// has children but no backward op to project an upstream gradient through
// them.
var ErrNotDifferentiable = errors.New("autodiff: node is not differentiable")

// ErrDoubleBackward is returned when Backward is called again on a node
// that already holds a gradient from a previous call, without an
// intervening fresh forward pass.
var ErrDoubleBackward = errors.New("autodiff: backward already called on this graph")
