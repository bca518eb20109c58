package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/roomledger/internal/ledger"
)

// ExportFormatVersion tags exported documents so a future import can
// refuse or migrate old shapes.
const ExportFormatVersion = 1

// ErrExistingData is returned by Import when the target snapshot already
// holds state and the caller did not request an overwrite.
var ErrExistingData = errors.New("snapshot already contains data")

// ExportDoc is the bulk export envelope: the domain state verbatim plus
// metadata. Processed-op and conflict logs are excluded: they are
// operational history of one room, not portable state.
type ExportDoc struct {
	FormatVersion int           `json:"formatVersion"`
	ExportedAt    int64         `json:"exportedAt"` // epoch millis
	State         *ledger.State `json:"state"`
}

// Export serializes the snapshot's state with metadata. Pure
// serialization: no merge semantics, no mutation of the snapshot.
func (e *Engine) Export(snap *ledger.Snapshot) *ExportDoc {
	if snap == nil {
		snap = ledger.NewSnapshot()
	}
	c := snap.Clone()
	return &ExportDoc{
		FormatVersion: ExportFormatVersion,
		ExportedAt:    e.now().UnixMilli(),
		State:         c.State,
	}
}

// Import replaces the snapshot's state wholesale and resets both logs.
// Returns ErrExistingData when the snapshot is non-empty and overwrite
// was not requested. The input snapshot is not mutated.
func (e *Engine) Import(snap *ledger.Snapshot, doc *ExportDoc, overwrite bool) (*ledger.Snapshot, error) {
	if doc == nil || doc.State == nil {
		return nil, fmt.Errorf("import: document has no state")
	}
	if doc.FormatVersion != ExportFormatVersion {
		return nil, fmt.Errorf("import: unsupported format version %d", doc.FormatVersion)
	}
	if snap != nil && snap.State != nil && !stateEmpty(snap.State) && !overwrite {
		return nil, ErrExistingData
	}

	out := &ledger.Snapshot{
		State:      doc.State.Clone(),
		LastUpdate: e.now().UnixMilli(),
	}
	// The house account must survive an import of foreign state.
	if out.State.House() == nil {
		out.State.Users = append(out.State.Users, ledger.User{
			ID:   ledger.HouseID,
			Name: ledger.HouseName,
		})
	}
	return out, nil
}

// stateEmpty reports whether a state holds nothing beyond the house
// account.
func stateEmpty(s *ledger.State) bool {
	for i := range s.Users {
		if s.Users[i].ID != ledger.HouseID {
			return false
		}
	}
	return len(s.Txs) == 0 && len(s.Listings) == 0 && len(s.Rights) == 0
}
