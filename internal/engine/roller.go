package engine

import (
	"crypto/rand"
	"math/big"
	"sync"
)

// RollRange is the exclusive upper bound of a roulette roll. Payout
// tiers are expressed as cumulative thresholds within [0, RollRange).
const RollRange = 10000

// Roulette constants.
const (
	// RouletteFee is the fixed entry fee, debited to the house before
	// the draw.
	RouletteFee int64 = 100

	// jackpotThreshold: rolls below this pay out the entire house
	// balance and zero it (1%).
	jackpotThreshold = 100
)

// payoutTier maps a cumulative roll threshold to a fixed payout.
// Checked in order after the jackpot tier; each payout is capped at the
// current house balance so the house never goes negative.
type payoutTier struct {
	below  int
	amount int64
}

// payoutTable: 5% pay 500, further 15% pay 200, further 30% pay 100,
// remaining 49% pay nothing.
var payoutTable = []payoutTier{
	{below: 600, amount: 500},
	{below: 2100, amount: 200},
	{below: 5100, amount: 100},
}

// Roller draws roulette rolls. Implemented by CryptoRoller (production)
// and FixedRoller (tests).
type Roller interface {
	// Roll returns a uniform value in [0, RollRange).
	Roll() int
}

// CryptoRoller draws from crypto/rand. Gambling payouts move real
// balances, so the draw must not be predictable from previous draws.
type CryptoRoller struct{}

// Roll returns a uniform value in [0, RollRange).
// Panics if the system randomness source fails.
func (CryptoRoller) Roll() int {
	n, err := rand.Int(rand.Reader, big.NewInt(RollRange))
	if err != nil {
		panic("roller: system randomness unavailable: " + err.Error())
	}
	return int(n.Int64())
}

// FixedRoller returns predetermined rolls for testing.
type FixedRoller struct {
	mu    sync.Mutex
	rolls []int
	idx   int
}

// NewFixedRoller creates a roller that returns rolls in order, then
// repeats the last roll once exhausted.
func NewFixedRoller(rolls ...int) *FixedRoller {
	if len(rolls) == 0 {
		rolls = []int{RollRange - 1} // losing roll
	}
	return &FixedRoller{rolls: rolls}
}

// Roll returns the next predetermined roll.
func (r *FixedRoller) Roll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.idx < len(r.rolls) {
		v := r.rolls[r.idx]
		r.idx++
		return v
	}
	return r.rolls[len(r.rolls)-1]
}

// payoutFor resolves a roll against the tier table.
// Returns the fixed payout and whether the roll hit the jackpot.
func payoutFor(roll int) (amount int64, jackpot bool) {
	if roll < jackpotThreshold {
		return 0, true
	}
	for _, tier := range payoutTable {
		if roll < tier.below {
			return tier.amount, false
		}
	}
	return 0, false
}
