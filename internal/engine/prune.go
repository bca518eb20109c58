package engine

import (
	"slices"
	"time"

	"github.com/roach88/roomledger/internal/ledger"
)

// prune trims processed-op and conflict logs past the operation
// retention window and drops expired notifications.
//
// Windows slide from merge execution time; entries are stamped with the
// merge clock when recorded (never the client operation timestamp), so
// the dedup guarantee genuinely covers the full retention window. It
// runs at the start of a merge pass, before dedup.
// TRADEOFF: an operation replayed after the window is no longer
// deduplicated and will be reapplied, re-entering the log.
func (e *Engine) prune(snap *ledger.Snapshot, now time.Time) {
	opCutoff := now.Add(-e.opRetention).UnixMilli()
	snap.ProcessedOps = slices.DeleteFunc(snap.ProcessedOps, func(p ledger.ProcessedOp) bool {
		return p.Timestamp < opCutoff
	})
	snap.Conflicts = slices.DeleteFunc(snap.Conflicts, func(c ledger.Conflict) bool {
		return c.Timestamp < opCutoff
	})

	notifCutoff := now.Add(-e.notifRetention).UnixMilli()
	snap.State.Notifications = slices.DeleteFunc(snap.State.Notifications, func(n ledger.Notification) bool {
		return n.Timestamp < notifCutoff
	})
}
