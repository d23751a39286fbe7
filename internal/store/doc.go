// Package store provides SQLite-backed durable storage for foldr run logs.
//
// The store is an append-only log with:
//   - Programs: content-addressed program bodies keyed by ir.ProgramHash
//   - Runs: one row per execution, grouped into sessions
//
// # Critical Patterns
//
// Logical identity and time
//   - Runs are ordered by seq INTEGER (logical clock), NEVER timestamps
//   - Run IDs are ir.RunID(session, program_hash, input_hash, seq)
//
// Deterministic query results
//   - All run queries MUST include: ORDER BY seq ASC, id ASC COLLATE BINARY
//   - Ensures identical results across replays
//
// Canonical storage
//   - Program bodies, inputs and outputs are stored as RFC 8785 canonical JSON
//   - Replay compares outputs byte-for-byte
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
