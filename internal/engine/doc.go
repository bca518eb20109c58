// Package engine implements the operation merge and conflict-resolution
// engine for room snapshots.
//
// One merge pass takes the current snapshot and a batch of client
// operations, prunes stale history, deduplicates by operation id,
// orders deterministically by client timestamp, applies each operation
// through its handler against a working copy of the domain state,
// records conflicts for every rejected operation, and returns a new
// snapshot plus a diff for client notification.
//
// The merge is synchronous and single-threaded per invocation and holds
// no state between calls; all durable state round-trips through the
// store package. Operation-level failures never abort the batch: they
// become Conflict records and processing continues. Only a malformed
// batch is rejected wholesale, before any state is touched.
package engine
