// Package term provides the expression tree for tracefold.
//
// Every node is a Term: a sealed interface implemented only by the variants
// in this package (Float, Fraction, Param, Atom, Diagonal, Delta, Marker,
// Sum, Product, Trace and Contraction). Algorithms switch over the concrete
// type; an unknown variant is a programming error and panics.
//
// This package imports nothing internal. Every other internal package
// builds on it.
//
// # Ownership
//
// A Term is never shared between two parents. Transforms either mutate a
// Term they uniquely own (Reduce, Simplify) or return a freshly built tree
// (Expand, Clone). Callers that need to keep an input intact Clone it first.
//
// # Canonical form
//
// After Reduce:
//   - No Sum directly contains a Sum, no Product directly contains a Product
//   - No child container holds exactly one child
//   - Trace and Contraction never unwrap themselves
//
// # Rendering
//
// String() renders the debug form used by tests and log output, for
// example " {A} {K_up_( 0, 1 )} {1 / 2} ". It is never parsed back;
// checkpoints use Marshal/Unmarshal (canonical JSON).
package term
