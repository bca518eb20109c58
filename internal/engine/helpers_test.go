package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/roomledger/internal/ledger"
	"github.com/roach88/roomledger/internal/testutil"
)

// testStart is the frozen wall clock for deterministic merges.
var testStart = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestEngine builds a fully deterministic engine: frozen clock,
// sequential ids, losing roulette rolls unless overridden.
func newTestEngine(t *testing.T, opts ...Option) (*Engine, *testutil.FixedClock) {
	t.Helper()
	clock := testutil.NewFixedClock(testStart)
	base := []Option{
		WithNow(clock.Now),
		WithIDGenerator(testutil.NewSeqIDGenerator("gen")),
		WithRoller(NewFixedRoller(RollRange - 1)),
	}
	return New(append(base, opts...)...), clock
}

// seedSnapshot builds a snapshot with pre-registered users.
// Users are added directly to state; ids double as names.
func seedSnapshot(users ...ledger.User) *ledger.Snapshot {
	snap := ledger.NewSnapshot()
	snap.State.Users = append(snap.State.Users, users...)
	return snap
}

func user(id string, balance int64) ledger.User {
	return ledger.User{ID: id, Name: id, Balance: balance}
}

// op builds an operation with a JSON payload from a map.
func op(t *testing.T, id string, typ ledger.OpType, userID string, ts int64, payload map[string]any) ledger.Operation {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		raw = b
	}
	return ledger.Operation{
		ID:        id,
		Type:      typ,
		Payload:   raw,
		Timestamp: ts,
		UserID:    userID,
	}
}

// mergeOK runs a merge that must not fail at the batch level.
func mergeOK(t *testing.T, e *Engine, snap *ledger.Snapshot, ops ...ledger.Operation) (*ledger.Snapshot, *ledger.Diff) {
	t.Helper()
	out, diff, err := e.Merge(snap, ops)
	require.NoError(t, err)
	return out, diff
}

// requireConflict asserts the diff carries exactly one conflict of the
// given kind for the given operation id.
func requireConflict(t *testing.T, diff *ledger.Diff, opID string, kind ledger.ConflictKind) {
	t.Helper()
	require.Len(t, diff.Conflicts, 1, "expected exactly one conflict")
	require.Equal(t, opID, diff.Conflicts[0].OpID)
	require.Equal(t, kind, diff.Conflicts[0].Kind)
}

// ts returns an operation timestamp n seconds after the test start.
func ts(n int) int64 {
	return testStart.Add(time.Duration(n) * time.Second).UnixMilli()
}
