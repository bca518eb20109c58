// Package store provides SQLite-backed persistence for room snapshots.
//
// Snapshots are stored whole as JSON documents keyed by (room, key) with
// a monotonically increasing per-row version. Writers must present the
// version they read; a mismatch returns ErrStale. Apply wraps the
// get/merge/put cycle in a bounded optimistic retry loop, which is the
// only safe way for concurrent writers to share a key.
//
// Rows may carry a TTL. An expired row behaves exactly like a missing
// one: reads return ErrNotFound and a create-only Put may claim the key.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store
