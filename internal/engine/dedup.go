package engine

import (
	"sort"

	"github.com/roach88/roomledger/internal/ledger"
)

// dedupAndOrder filters previously processed operations and sorts the
// remainder deterministically.
//
// Filtering is by operation id against the snapshot's processed-op log,
// which makes batches idempotent under at-least-once delivery and client
// retries. Duplicates within the batch itself keep the first occurrence.
//
// Ordering is ascending by client timestamp, stable with respect to the
// original batch order on ties. Client timestamps are unvalidated, so
// this is a deterministic tie-break, not a causality guarantee: the same
// set of operations always applies in the same order regardless of
// arrival order.
func dedupAndOrder(snap *ledger.Snapshot, ops []ledger.Operation) []ledger.Operation {
	seen := make(map[string]bool, len(ops))
	fresh := make([]ledger.Operation, 0, len(ops))
	for _, op := range ops {
		if seen[op.ID] || snap.Processed(op.ID) {
			continue
		}
		seen[op.ID] = true
		fresh = append(fresh, op)
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].Timestamp < fresh[j].Timestamp
	})
	return fresh
}
