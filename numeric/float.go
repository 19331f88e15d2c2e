// Package numeric defines the scalar real type the rest of the module
// operates over.
package numeric

// Float is the scalar real type used by every tensor value. The source
// implementation parameterizes over 32- and 64-bit reals; that choice is
// treated here as an external, fixed parameter rather than a generic type
// argument threaded through every package.
type Float = float64
