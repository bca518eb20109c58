package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/roomledger/internal/ledger"
)

func TestRegisterUser_GrantsStartingBalance(t *testing.T) {
	e, _ := newTestEngine(t)

	out, diff := mergeOK(t, e, ledger.NewSnapshot(),
		op(t, "op-1", ledger.OpRegisterUser, "u-1", ts(1), map[string]any{"name": "Alice"}),
	)

	u := out.State.User("u-1")
	require.NotNil(t, u)
	assert.Equal(t, ledger.StartingBalance, u.Balance)
	assert.Equal(t, "Alice", u.Name)

	require.Len(t, diff.NewTxs, 1)
	assert.Equal(t, ledger.TxMint, diff.NewTxs[0].Type)
	assert.Equal(t, ledger.StartingBalance, diff.NewTxs[0].Amount)
}

func TestRegisterUser_NameConflicts(t *testing.T) {
	e, _ := newTestEngine(t)
	snap := ledger.NewSnapshot()

	testCases := []struct {
		name    string
		payload map[string]any
		kind    ledger.ConflictKind
	}{
		{"missing name", map[string]any{}, ledger.ConflictBadPayload},
		{"reserved house name", map[string]any{"name": "house"}, ledger.ConflictBusiness},
		{"reserved house name cased", map[string]any{"name": "HOUSE"}, ledger.ConflictBusiness},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, diff := mergeOK(t, e, snap,
				op(t, "op-"+tc.name, ledger.OpRegisterUser, "u-x", ts(1), tc.payload),
			)
			requireConflict(t, diff, "op-"+tc.name, tc.kind)
		})
	}
}

func TestRegisterUser_DuplicateNameNormalized(t *testing.T) {
	e, _ := newTestEngine(t)

	out, _ := mergeOK(t, e, ledger.NewSnapshot(),
		op(t, "op-1", ledger.OpRegisterUser, "u-1", ts(1), map[string]any{"name": "Alice"}),
	)
	_, diff := mergeOK(t, e, out,
		op(t, "op-2", ledger.OpRegisterUser, "u-2", ts(2), map[string]any{"name": "  alice "}),
	)

	requireConflict(t, diff, "op-2", ledger.ConflictBusiness)
}

func TestTransfer_Conflicts(t *testing.T) {
	e, _ := newTestEngine(t)

	testCases := []struct {
		name    string
		userID  string
		payload map[string]any
		kind    ledger.ConflictKind
	}{
		{"unknown sender", "ghost", map[string]any{"to": "b", "amount": 10}, ledger.ConflictNotFound},
		{"unknown recipient", "a", map[string]any{"to": "ghost", "amount": 10}, ledger.ConflictNotFound},
		{"zero amount", "a", map[string]any{"to": "b", "amount": 0}, ledger.ConflictBadPayload},
		{"negative amount", "a", map[string]any{"to": "b", "amount": -5}, ledger.ConflictBadPayload},
		{"insufficient funds", "a", map[string]any{"to": "b", "amount": 10001}, ledger.ConflictInsufficientFunds},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			snap := seedSnapshot(user("a", 10000), user("b", 10000))
			out, diff := mergeOK(t, e, snap,
				op(t, "op-1", ledger.OpTransfer, tc.userID, ts(1), tc.payload),
			)
			requireConflict(t, diff, "op-1", tc.kind)
			assert.Equal(t, int64(10000), out.State.User("a").Balance, "no partial debit")
		})
	}
}

func TestTransfer_NotifiesRecipient(t *testing.T) {
	e, _ := newTestEngine(t)
	snap := seedSnapshot(user("a", 10000), user("b", 10000))

	_, diff := mergeOK(t, e, snap,
		op(t, "op-1", ledger.OpTransfer, "a", ts(1), map[string]any{"to": "b", "amount": 500}),
	)

	require.Len(t, diff.Notifications, 1)
	assert.Equal(t, "b", diff.Notifications[0].To)
	assert.Equal(t, "transfer", diff.Notifications[0].Type)
}

func TestTransfer_SilentSuppressesLedgerAndNotifications(t *testing.T) {
	e, _ := newTestEngine(t)
	snap := seedSnapshot(user("a", 10000), user("b", 10000))

	silent := op(t, "op-1", ledger.OpTransfer, "a", ts(1), map[string]any{"to": "b", "amount": 500})
	silent.Silent = true

	out, diff := mergeOK(t, e, snap, silent)

	assert.Equal(t, int64(9500), out.State.User("a").Balance, "state change still applies")
	assert.Empty(t, diff.NewTxs)
	assert.Empty(t, diff.Notifications)
	assert.Empty(t, out.State.Txs)
}

func TestMorningClaim_FirstClaim(t *testing.T) {
	e, _ := newTestEngine(t)
	snap := seedSnapshot(user("a", 1000))

	out, diff := mergeOK(t, e, snap,
		op(t, "op-1", ledger.OpMorningClaim, "a", ts(1), nil),
	)

	u := out.State.User("a")
	assert.Equal(t, 1, u.Streak)
	assert.Equal(t, int64(1000+ClaimBase), u.Balance)
	assert.Equal(t, "2024-06-01", u.LastClaimDate)
	require.Len(t, diff.NewTxs, 1)
	assert.Equal(t, ledger.TxMint, diff.NewTxs[0].Type)
}

func TestMorningClaim_SameDayRejected(t *testing.T) {
	e, _ := newTestEngine(t)
	snap := seedSnapshot(user("a", 1000))

	out, _ := mergeOK(t, e, snap,
		op(t, "op-1", ledger.OpMorningClaim, "a", ts(1), nil),
	)
	_, diff := mergeOK(t, e, out,
		op(t, "op-2", ledger.OpMorningClaim, "a", ts(3600), nil),
	)

	requireConflict(t, diff, "op-2", ledger.ConflictBusiness)
}

func TestMorningClaim_StreakGrowsAndCaps(t *testing.T) {
	e, _ := newTestEngine(t)
	snap := seedSnapshot(user("a", 0))

	day := func(n int) int64 {
		return testStart.AddDate(0, 0, n).UnixMilli()
	}

	var balance int64
	for i := 0; i < 10; i++ {
		var diff *ledger.Diff
		snap, diff = mergeOK(t, e, snap,
			op(t, "op-"+string(rune('a'+i)), ledger.OpMorningClaim, "a", day(i), nil),
		)
		require.Empty(t, diff.Conflicts)

		streak := i + 1
		if streak > MaxStreak {
			streak = MaxStreak
		}
		balance += ClaimBase + ClaimStep*int64(streak-1)
	}

	u := snap.State.User("a")
	assert.Equal(t, 10, u.Streak, "raw streak keeps counting")
	assert.Equal(t, balance, u.Balance, "bonus is capped at MaxStreak")
}

func TestMorningClaim_GapResetsStreak(t *testing.T) {
	e, _ := newTestEngine(t)
	snap := seedSnapshot(user("a", 0))

	snap, _ = mergeOK(t, e, snap, op(t, "op-1", ledger.OpMorningClaim, "a", testStart.UnixMilli(), nil))
	snap, _ = mergeOK(t, e, snap, op(t, "op-2", ledger.OpMorningClaim, "a", testStart.AddDate(0, 0, 1).UnixMilli(), nil))
	// Skip a day.
	snap, _ = mergeOK(t, e, snap, op(t, "op-3", ledger.OpMorningClaim, "a", testStart.AddDate(0, 0, 3).UnixMilli(), nil))

	assert.Equal(t, 1, snap.State.User("a").Streak)
}

func TestRoulette_LosingRoll(t *testing.T) {
	e, _ := newTestEngine(t) // default roller always loses
	snap := seedSnapshot(user("a", 1000))

	out, diff := mergeOK(t, e, snap,
		op(t, "op-1", ledger.OpRoulette, "a", ts(1), nil),
	)

	assert.Equal(t, int64(900), out.State.User("a").Balance)
	assert.Equal(t, RouletteFee, out.State.House().Balance)
	require.Len(t, diff.NewTxs, 1, "entry fee only, no payout tx")
}

func TestRoulette_TierPayoutCappedAtHouse(t *testing.T) {
	// Roll 150 pays 500, but the house only holds the 100 entry fee.
	e, _ := newTestEngine(t, WithRoller(NewFixedRoller(150)))
	snap := seedSnapshot(user("a", 1000))

	out, _ := mergeOK(t, e, snap,
		op(t, "op-1", ledger.OpRoulette, "a", ts(1), nil),
	)

	assert.Equal(t, int64(1000), out.State.User("a").Balance, "payout capped at house balance")
	assert.Equal(t, int64(0), out.State.House().Balance)
}

func TestRoulette_JackpotDrainsHouse(t *testing.T) {
	e, _ := newTestEngine(t, WithRoller(NewFixedRoller(42)))
	snap := seedSnapshot(user("a", 1000))
	snap.State.House().Balance = 5000

	out, diff := mergeOK(t, e, snap,
		op(t, "op-1", ledger.OpRoulette, "a", ts(1), nil),
	)

	assert.Equal(t, int64(0), out.State.House().Balance, "jackpot zeroes the house")
	assert.Equal(t, int64(1000-RouletteFee+5000+RouletteFee), out.State.User("a").Balance)
	require.Len(t, diff.NewTxs, 2)
	assert.Equal(t, "roulette jackpot", diff.NewTxs[1].Memo)
}

func TestRoulette_InsufficientEntryFee(t *testing.T) {
	e, _ := newTestEngine(t)
	snap := seedSnapshot(user("a", RouletteFee-1))

	_, diff := mergeOK(t, e, snap,
		op(t, "op-1", ledger.OpRoulette, "a", ts(1), nil),
	)

	requireConflict(t, diff, "op-1", ledger.ConflictInsufficientFunds)
}

func TestRoulette_ConservesTotalSupply(t *testing.T) {
	rolls := []int{42, 150, 900, 3000, 9999, 50, 2500}
	e, _ := newTestEngine(t, WithRoller(NewFixedRoller(rolls...)))
	snap := seedSnapshot(user("a", 5000), user("b", 5000))
	total := snap.State.TotalBalance()

	for i, who := range []string{"a", "b", "a", "b", "a", "b", "a"} {
		var diff *ledger.Diff
		snap, diff = mergeOK(t, e, snap,
			op(t, "op-"+string(rune('0'+i)), ledger.OpRoulette, who, ts(i+1), nil),
		)
		require.Empty(t, diff.Conflicts)
		require.Equal(t, total, snap.State.TotalBalance(),
			"roll %d broke conservation", i)
	}
}

func TestPayoutFor_Table(t *testing.T) {
	testCases := []struct {
		roll    int
		amount  int64
		jackpot bool
	}{
		{0, 0, true},
		{99, 0, true},
		{100, 500, false},
		{599, 500, false},
		{600, 200, false},
		{2099, 200, false},
		{2100, 100, false},
		{5099, 100, false},
		{5100, 0, false},
		{9999, 0, false},
	}

	for _, tc := range testCases {
		amount, jackpot := payoutFor(tc.roll)
		assert.Equal(t, tc.amount, amount, "roll %d", tc.roll)
		assert.Equal(t, tc.jackpot, jackpot, "roll %d", tc.roll)
	}
}

func TestSendMessage_AppendsNotificationOnly(t *testing.T) {
	e, _ := newTestEngine(t)
	snap := seedSnapshot(user("a", 1000), user("b", 1000))

	out, diff := mergeOK(t, e, snap,
		op(t, "op-1", ledger.OpSendMessage, "a", ts(1), map[string]any{
			"to": "b", "content": "<b>hi</b>", "type": "chat", "isHtml": true,
		}),
	)

	require.Len(t, diff.Notifications, 1)
	n := diff.Notifications[0]
	assert.Equal(t, "b", n.To)
	assert.True(t, n.IsHTML)
	assert.Empty(t, diff.NewTxs, "no ledger effect")
	assert.Equal(t, int64(1), out.State.VTick, "pollers must see the message")
}

func TestSendMessage_MissingFields(t *testing.T) {
	e, _ := newTestEngine(t)
	snap := seedSnapshot(user("a", 1000))

	_, diff := mergeOK(t, e, snap,
		op(t, "op-1", ledger.OpSendMessage, "a", ts(1), map[string]any{"to": "b"}),
	)

	requireConflict(t, diff, "op-1", ledger.ConflictBadPayload)
}

func TestConservation_TransferBuyRoulette(t *testing.T) {
	// The conservation property across the three money-moving families:
	// no sequence of transfer/buy/roulette changes the total supply.
	e, _ := newTestEngine(t, WithRoller(NewFixedRoller(42, 9999, 700)))
	snap := seedSnapshot(user("s", 10000), user("b", 10000))
	total := snap.State.TotalBalance()

	snap, diff := mergeOK(t, e, snap,
		op(t, "op-1", ledger.OpCreateListing, "s", ts(1), map[string]any{"title": "thing", "price": 1000, "qty": 2}),
	)
	require.Empty(t, diff.Conflicts)
	listingID := diff.UpdatedListings[0].ID

	steps := []ledger.Operation{
		op(t, "op-2", ledger.OpBuyListing, "b", ts(2), map[string]any{"listingId": listingID}),
		op(t, "op-3", ledger.OpTransfer, "s", ts(3), map[string]any{"to": "b", "amount": 450}),
		op(t, "op-4", ledger.OpRoulette, "b", ts(4), nil),
		op(t, "op-5", ledger.OpRoulette, "s", ts(5), nil),
		op(t, "op-6", ledger.OpBuyListing, "b", ts(6), map[string]any{"listingId": listingID}),
	}
	for _, step := range steps {
		snap, diff = mergeOK(t, e, snap, step)
		require.Empty(t, diff.Conflicts, "op %s", step.ID)
		require.Equal(t, total, snap.State.TotalBalance(), "op %s broke conservation", step.ID)
	}
}

func TestMorningClaim_UTCDateBoundary(t *testing.T) {
	// 23:30 and next-day 00:30 UTC are different calendar dates, so
	// both claims succeed and the streak continues.
	e, _ := newTestEngine(t)
	snap := seedSnapshot(user("a", 0))

	night := time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC).UnixMilli()
	morning := time.Date(2024, 6, 2, 0, 30, 0, 0, time.UTC).UnixMilli()

	snap, _ = mergeOK(t, e, snap, op(t, "op-1", ledger.OpMorningClaim, "a", night, nil))
	snap, diff := mergeOK(t, e, snap, op(t, "op-2", ledger.OpMorningClaim, "a", morning, nil))

	require.Empty(t, diff.Conflicts)
	assert.Equal(t, 2, snap.State.User("a").Streak)
}
