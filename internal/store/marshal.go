package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/roomledger/internal/ledger"
)

// marshalSnapshot converts a snapshot to JSON TEXT for storage.
func marshalSnapshot(snap *ledger.Snapshot) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(data), nil
}

// unmarshalSnapshot parses stored JSON TEXT back into a snapshot.
// A snapshot persisted without state (never merged) gets a fresh one so
// callers never see a nil State.
func unmarshalSnapshot(data string) (*ledger.Snapshot, error) {
	var snap ledger.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snap.State == nil {
		snap.State = ledger.NewState()
	}
	return &snap, nil
}
