// Package store provides SQLite-backed durable storage for irdiff runs.
//
// The store is an append-mostly log with:
//   - Runs: one row per invocation of the comparator
//   - Outcomes: one row per evaluated argument tuple of a run
//   - Counterexamples: failing tuples, deduplicated across runs
//
// # Identity and Ordering
//
//   - Runs are identified by UUIDv7 strings; seq gives insertion order
//   - Outcomes are keyed by (run_id, idx) and read back in idx order
//   - Counterexamples are keyed by ir.ArgsDigest, so the same failing
//     tuple for the same function is stored once (ON CONFLICT DO NOTHING)
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
