// Package engine executes foldr programs.
//
// A program is a flat, ordered list of steps. Execution is a sequential fold
// over one state document:
//
//  1. A fresh state.State is seeded with the caller's inputs under "inputs"
//     and an empty "temp" section.
//  2. Each step's operation is evaluated as a pure function of the current
//     document, and the result is written with state.Set(output_path).
//  3. The first failure aborts the run with an *ExecutionError naming the
//     step. Writes already applied are not rolled back; the caller discards
//     the attempt.
//  4. Output extraction keeps the document entries named by the output
//     schema's top-level properties. When none match, the whole document is
//     returned and the result is marked degraded.
//
// Execution is single-threaded, synchronous and in-memory. There is no
// network or file I/O and no cancellation inside a run; bound run time with
// WithMaxSteps or by limiting program length. Separate runs share nothing,
// so callers may execute many programs in parallel on one Engine.
//
// CRITICAL: arithmetic hazards follow different policies per operation.
// Scalar Divide fails with DIVISION_BY_ZERO, while Calculate writes 0 for a
// zero per-element divisor. Min and Max of an empty array return +Inf and
// -Inf, which serialize as null.
package engine
