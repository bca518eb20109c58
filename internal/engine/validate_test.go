package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/roomledger/internal/ledger"
)

func TestValidateBatch_AcceptsWellFormedEnvelopes(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{"empty batch", `{"operations": []}`},
		{"no payload", `{"operations": [
			{"id": "op-1", "type": "morning_claim", "timestamp": 1717243200000, "userId": "u-1"}
		]}`},
		{"with payload and silent", `{"operations": [
			{"id": "op-1", "type": "transfer", "timestamp": 1717243200000, "userId": "u-1",
			 "payload": {"to": "u-2", "amount": 500}, "silent": true}
		]}`},
		{"unknown op type passes the envelope", `{"operations": [
			{"id": "op-1", "type": "defragment", "timestamp": 1717243200000, "userId": "u-1"}
		]}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NoError(t, ValidateBatch([]byte(tc.raw)))
		})
	}
}

func TestValidateBatch_RejectsMalformedEnvelopes(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{"not json", `{"operations": [`},
		{"operations not a list", `{"operations": {}}`},
		{"missing id", `{"operations": [
			{"type": "transfer", "timestamp": 1, "userId": "u-1"}
		]}`},
		{"empty id", `{"operations": [
			{"id": "", "type": "transfer", "timestamp": 1, "userId": "u-1"}
		]}`},
		{"empty userId", `{"operations": [
			{"id": "op-1", "type": "transfer", "timestamp": 1, "userId": ""}
		]}`},
		{"zero timestamp", `{"operations": [
			{"id": "op-1", "type": "transfer", "timestamp": 0, "userId": "u-1"}
		]}`},
		{"timestamp as string", `{"operations": [
			{"id": "op-1", "type": "transfer", "timestamp": "soon", "userId": "u-1"}
		]}`},
		{"payload not an object", `{"operations": [
			{"id": "op-1", "type": "transfer", "timestamp": 1, "userId": "u-1", "payload": 7}
		]}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, ValidateBatch([]byte(tc.raw)))
		})
	}
}

func TestDecodeBatch_YieldsTypedOperations(t *testing.T) {
	raw := []byte(`{"operations": [
		{"id": "op-1", "type": "transfer", "timestamp": 1717243200000, "userId": "u-1",
		 "payload": {"to": "u-2", "amount": 500}},
		{"id": "op-2", "type": "morning_claim", "timestamp": 1717243201000, "userId": "u-2"}
	]}`)

	ops, err := DecodeBatch(raw)
	require.NoError(t, err)
	require.Len(t, ops, 2)

	assert.Equal(t, "op-1", ops[0].ID)
	assert.Equal(t, ledger.OpTransfer, ops[0].Type)
	assert.JSONEq(t, `{"to": "u-2", "amount": 500}`, string(ops[0].Payload))
	assert.Equal(t, ledger.OpMorningClaim, ops[1].Type)
	assert.Nil(t, ops[1].Payload)
}

func TestDecodeBatch_ValidatedEndToEnd(t *testing.T) {
	// A decoded batch feeds straight into Merge.
	e, _ := newTestEngine(t)
	snap := seedSnapshot(user("u-1", 10000), user("u-2", 0))

	ops, err := DecodeBatch([]byte(`{"operations": [
		{"id": "op-1", "type": "transfer", "timestamp": 1717243200000, "userId": "u-1",
		 "payload": {"to": "u-2", "amount": 500}}
	]}`))
	require.NoError(t, err)

	out, diff, err := e.Merge(snap, ops)
	require.NoError(t, err)
	assert.Empty(t, diff.Conflicts)
	assert.Equal(t, int64(500), out.State.User("u-2").Balance)
}
