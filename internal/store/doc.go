// Package store provides SQLite-backed durable storage for todoracle.
//
// The store holds two independent data sets:
//   - Items: the persisted list of the in-process reference application,
//     namespaced by application instance (app_id)
//   - Run log: scenario runs and their steps, with the persistence snapshot
//     observed after each step
//
// # Ordering
//
// Items are ordered by position. Steps are ordered by seq, the run's logical
// clock, never by wall time, so a recorded run reads back in execution order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
