package engine

import (
	"log/slog"
	"time"

	"github.com/roach88/roomledger/internal/ledger"
)

// Merge runs one merge pass: it applies the operation batch to a working
// copy of the snapshot and returns the new snapshot plus a diff.
//
// The input snapshot is never mutated. A malformed batch returns a
// *BatchError and leaves everything untouched; individual operation
// failures become Conflict records and never abort the batch.
func (e *Engine) Merge(snap *ledger.Snapshot, ops []ledger.Operation) (*ledger.Snapshot, *ledger.Diff, error) {
	if err := checkBatch(ops); err != nil {
		return nil, nil, err
	}
	if snap == nil {
		snap = ledger.NewSnapshot()
	}

	now := e.now()
	r := &run{
		eng:  e,
		snap: snap.Clone(),
		now:  now,
		diff: &ledger.Diff{},
	}

	// Prune before dedup: an operation replayed past the retention
	// window must be reapplied, not matched against a stale log entry.
	e.prune(r.snap, now)
	fresh := dedupAndOrder(r.snap, ops)
	slog.Debug("merge pass starting",
		"batch", len(ops),
		"fresh", len(fresh),
		"vtick", r.snap.State.VTick,
	)

	for i := range fresh {
		op := &fresh[i]
		rej := r.applySafe(op)

		// Every non-duplicate operation enters the dedup log, conflicted
		// or not, so a retry of a rejected operation is dropped silently
		// instead of producing a second conflict record.
		r.snap.ProcessedOps = append(r.snap.ProcessedOps, ledger.ProcessedOp{
			ID:        op.ID,
			Timestamp: now.UnixMilli(),
			Type:      op.Type,
			UserID:    op.UserID,
		})

		if rej != nil {
			conflict := ledger.Conflict{
				OpID:      op.ID,
				Kind:      rej.kind,
				Message:   rej.msg,
				Timestamp: now.UnixMilli(),
				UserID:    op.UserID,
			}
			r.snap.Conflicts = append(r.snap.Conflicts, conflict)
			r.diff.Conflicts = append(r.diff.Conflicts, conflict)
			slog.Debug("operation rejected",
				"op", op.ID,
				"type", op.Type,
				"kind", rej.kind,
				"reason", rej.msg,
			)
			continue
		}

		r.snap.State.VTick++
	}

	r.snap.LastUpdate = now.UnixMilli()

	slog.Info("merge pass complete",
		"applied", len(fresh)-len(r.diff.Conflicts),
		"conflicts", len(r.diff.Conflicts),
		"vtick", r.snap.State.VTick,
	)
	return r.snap, r.diff, nil
}

// checkBatch validates the batch envelope. Any malformed operation
// rejects the whole request: partial application of a batch the client
// assembled as a unit would be worse than refusing it.
func checkBatch(ops []ledger.Operation) error {
	for i, op := range ops {
		switch {
		case op.ID == "":
			return &BatchError{Index: i, Message: "id is required"}
		case op.Type == "":
			return &BatchError{Index: i, Message: "type is required"}
		case op.UserID == "":
			return &BatchError{Index: i, Message: "userId is required"}
		case op.Timestamp <= 0:
			return &BatchError{Index: i, Message: "timestamp must be positive"}
		}
	}
	return nil
}

// run carries the working state of one merge pass.
type run struct {
	eng  *Engine
	snap *ledger.Snapshot
	now  time.Time
	diff *ledger.Diff
}

// applySafe dispatches one operation, converting a handler panic into an
// error-kind conflict so a single bad operation cannot take down the
// batch.
func (r *run) applySafe(op *ledger.Operation) (rej *reject) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("operation handler panicked",
				"op", op.ID,
				"type", op.Type,
				"user", op.UserID,
				"panic", p,
			)
			rej = rejectf(ledger.ConflictError, "internal error: %v", p)
		}
	}()
	return r.apply(op)
}

// newID delegates to the engine's id generator.
func (r *run) newID() string {
	return r.eng.idGen.Generate()
}

// tx appends a ledger entry (newest first) and records it in the diff.
// Suppressed for silent operations.
func (r *run) tx(op *ledger.Operation, t ledger.Transaction) {
	if op.Silent {
		return
	}
	t.ID = r.newID()
	t.Timestamp = r.now.UnixMilli()
	r.snap.State.PrependTx(t)
	r.diff.NewTxs = append(r.diff.NewTxs, t)
}

// notify appends an ephemeral notification. Suppressed for silent
// operations.
func (r *run) notify(op *ledger.Operation, to, content, kind string) {
	if op.Silent {
		return
	}
	n := ledger.Notification{
		ID:        r.newID(),
		Timestamp: r.now.UnixMilli(),
		To:        to,
		Content:   content,
		Type:      kind,
	}
	r.snap.State.PrependNotification(n)
	r.diff.Notifications = append(r.diff.Notifications, n)
}

// user resolves the issuing user, rejecting when unknown.
func (r *run) user(id string) (*ledger.User, *reject) {
	u := r.snap.State.User(id)
	if u == nil {
		return nil, rejectf(ledger.ConflictNotFound, "user %s not found", id)
	}
	return u, nil
}

// touchListing records a listing update in the diff, replacing an
// earlier entry for the same listing within this pass.
func (r *run) touchListing(l *ledger.Listing) {
	for i := range r.diff.UpdatedListings {
		if r.diff.UpdatedListings[i].ID == l.ID {
			r.diff.UpdatedListings[i] = *l
			return
		}
	}
	r.diff.UpdatedListings = append(r.diff.UpdatedListings, *l)
}

// touchRight records a right update in the diff, replacing an earlier
// entry for the same right within this pass.
func (r *run) touchRight(rt *ledger.Right) {
	for i := range r.diff.UpdatedRights {
		if r.diff.UpdatedRights[i].ID == rt.ID {
			r.diff.UpdatedRights[i] = *rt
			return
		}
	}
	r.diff.UpdatedRights = append(r.diff.UpdatedRights, *rt)
}
