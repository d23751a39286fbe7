// Package harness runs fixture suites against programs.
//
// A fixture is a named input document plus the output keys a correct
// program must produce for it:
//
//	fixtures:
//	  - name: two_items
//	    input: {items: [{price: 10}, {price: 5}]}
//	    expected_output_keys: [total]
//
// # Judgement
//
// A fixture passes only when the execution:
//   - returns no error
//   - returns a non-degraded output (some output schema property matched)
//   - contains every expected output key
//
// Output values are not compared. Use RunWithGolden to pin exact outputs.
//
// # Validation Loop
//
// Validate runs a suite up to Options.MaxAttempts times. Between failing
// rounds it hands the program and the failure report to a Repairer and
// continues with the program it returns. The harness never edits programs
// itself.
//
// # Determinism
//
// Fixtures run concurrently (errgroup, Options.Parallelism) but results,
// logs and recorded runs are emitted in fixture order, so a recorded session
// numbers its runs identically on every invocation.
package harness
