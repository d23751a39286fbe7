// Package ir provides the value and program types for foldr.
//
// This package contains type definitions and their wire codecs only. All
// other internal packages import ir; ir imports nothing internal. This keeps
// the program model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - IRValue is sealed: null, string, number (float64), bool, array, object
//   - Operation is sealed: one struct per step kind, matched exhaustively
//   - All JSON tags use snake_case
//   - Programs are immutable once built; repair produces a new Program
package ir
