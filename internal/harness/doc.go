// Package harness runs differential scenario suites.
//
// A scenario is a YAML file naming a CUE program, the backends to run it
// on, and its inputs: either literal cases (optionally with expected
// results) or a random block with a seed and an optional validator
// program. For example:
//
//	name: add_dual
//	description: compiled agrees with reference on add
//	program: programs/add.cue
//	backends: dual
//	cases:
//	  - args: "bits[32]:0x42; bits[32]:0x123"
//	    expect: "bits[32]:0x165"
//
// Scenarios that exercise failure paths set expect_failure to a substring
// of the diagnostic they should produce; such a scenario passes only when
// the run fails with that text.
//
// Every scenario runs against a fresh in-memory store with sequential run
// ids, so its result lines and verdict are reproducible. Result.Snapshot
// renders them as canonical JSON for golden comparison, both here in
// tests (RunWithGolden) and by the irdiff test command.
package harness
