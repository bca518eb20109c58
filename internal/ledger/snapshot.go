package ledger

import "slices"

// Snapshot is the full persisted document for one room/key pair: domain
// state plus the dedup and conflict logs.
//
// A snapshot is read once, cloned, mutated by exactly one merge pass,
// and written back whole. It is never partially written: a merge either
// fully succeeds or leaves the stored snapshot untouched.
type Snapshot struct {
	State        *State        `json:"state"`
	LastUpdate   int64         `json:"lastUpdate"` // epoch millis of last merge
	ProcessedOps []ProcessedOp `json:"processedOps"`
	Conflicts    []Conflict    `json:"conflicts"`
}

// NewSnapshot creates an empty snapshot, as written on first use of a
// room/key pair.
func NewSnapshot() *Snapshot {
	return &Snapshot{State: NewState()}
}

// Clone deep-copies the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		LastUpdate:   s.LastUpdate,
		ProcessedOps: slices.Clone(s.ProcessedOps),
		Conflicts:    slices.Clone(s.Conflicts),
	}
	if s.State != nil {
		out.State = s.State.Clone()
	} else {
		out.State = NewState()
	}
	return out
}

// Processed reports whether an operation id is already in the dedup log.
func (s *Snapshot) Processed(opID string) bool {
	for i := range s.ProcessedOps {
		if s.ProcessedOps[i].ID == opID {
			return true
		}
	}
	return false
}
