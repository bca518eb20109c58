package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState_HasHouseAccount(t *testing.T) {
	s := NewState()

	house := s.House()
	require.NotNil(t, house, "house account must exist from creation")
	assert.Equal(t, HouseID, house.ID)
	assert.Equal(t, int64(0), house.Balance, "house starts empty")
}

func TestState_UserLookup(t *testing.T) {
	s := NewState()
	s.Users = append(s.Users, User{ID: "u1", Name: "Alice", Balance: 100})

	require.NotNil(t, s.User("u1"))
	assert.Nil(t, s.User("missing"))

	// Lookup by name is normalized: case and NFC form are irrelevant.
	assert.NotNil(t, s.UserByName("alice"))
	assert.NotNil(t, s.UserByName("  ALICE  "))
	assert.Nil(t, s.UserByName("bob"))
}

func TestNormalizeName_NFCAndCase(t *testing.T) {
	// U+00E9 (é) vs e + combining acute must normalize equally.
	composed := "café"
	decomposed := "café"
	assert.Equal(t, NormalizeName(composed), NormalizeName(decomposed))
}

func TestListing_TakeAndRelease(t *testing.T) {
	l := Listing{ID: "l1", Qty: 2, Active: true}

	require.True(t, l.InStock())
	l.TakeUnit()
	assert.Equal(t, 1, l.Sold)
	assert.True(t, l.Active, "still in stock after first sale")

	l.TakeUnit()
	assert.Equal(t, 2, l.Sold)
	assert.False(t, l.Active, "sold out forces inactive")
	assert.False(t, l.InStock())

	l.ReleaseUnit()
	assert.Equal(t, 1, l.Sold)
	assert.True(t, l.Active, "release reasserts active when capacity remains")
}

func TestState_Clone_NoAliasing(t *testing.T) {
	s := NewState()
	s.Users = append(s.Users, User{ID: "u1", Name: "Alice", Balance: 100})
	s.Listings = append(s.Listings, Listing{ID: "l1", Qty: 1, Active: true})
	s.VTick = 7

	c := s.Clone()
	c.User("u1").Balance = 999
	c.Listing("l1").Active = false
	c.VTick = 8
	c.Users = append(c.Users, User{ID: "u2"})

	assert.Equal(t, int64(100), s.User("u1").Balance, "clone mutation must not leak")
	assert.True(t, s.Listing("l1").Active)
	assert.Equal(t, int64(7), s.VTick)
	assert.Len(t, s.Users, 2) // house + u1
}

func TestState_TotalBalance(t *testing.T) {
	s := NewState()
	s.Users = append(s.Users,
		User{ID: "a", Balance: 100},
		User{ID: "b", Balance: 250},
	)
	s.House().Balance = 50

	assert.Equal(t, int64(400), s.TotalBalance())
}

func TestState_PrependTx_NewestFirst(t *testing.T) {
	s := NewState()
	s.PrependTx(Transaction{ID: "t1"})
	s.PrependTx(Transaction{ID: "t2"})

	require.Len(t, s.Txs, 2)
	assert.Equal(t, "t2", s.Txs[0].ID, "ledger is reverse-chronological")
}

func TestSnapshot_Processed(t *testing.T) {
	snap := NewSnapshot()
	assert.False(t, snap.Processed("op-1"))

	snap.ProcessedOps = append(snap.ProcessedOps, ProcessedOp{ID: "op-1"})
	assert.True(t, snap.Processed("op-1"))
}

func TestSnapshot_Clone_NilStateDefaults(t *testing.T) {
	snap := &Snapshot{}
	c := snap.Clone()

	require.NotNil(t, c.State)
	assert.NotNil(t, c.State.House())
}
