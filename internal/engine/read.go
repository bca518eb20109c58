package engine

import "github.com/roach88/roomledger/internal/ledger"

// ReadResult is what a polling client receives when the snapshot has
// advanced past its last seen version.
type ReadResult struct {
	State         *ledger.State         `json:"state"`
	LastUpdate    int64                 `json:"lastUpdate"`
	ProcessedOps  []ledger.ProcessedOp  `json:"processedOps"`
	Conflicts     []ledger.Conflict     `json:"conflicts"`
	Notifications []ledger.Notification `json:"notifications"`
}

// Read returns the current state and recent diff fields, or nil when
// the snapshot's version is not newer than the client's.
//
// The result is built from a clone: callers may hold it across later
// merges without aliasing the live snapshot.
func (e *Engine) Read(snap *ledger.Snapshot, sinceVersion int64) *ReadResult {
	if snap == nil || snap.State == nil || snap.State.VTick <= sinceVersion {
		return nil
	}

	c := snap.Clone()
	return &ReadResult{
		State:         c.State,
		LastUpdate:    c.LastUpdate,
		ProcessedOps:  c.ProcessedOps,
		Conflicts:     c.Conflicts,
		Notifications: c.State.Notifications,
	}
}
