package ledger

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// HouseID is the fixed identifier of the pooled house account.
//
// The house collects marketplace fees and funds gambling payouts. It is
// created by NewState and resolved by id, never by scanning user names.
const HouseID = "house"

// HouseName is the reserved display name of the house account.
// register_user rejects it to keep the account distinguished.
const HouseName = "house"

// StartingBalance is granted to every newly registered user.
const StartingBalance int64 = 10000

// User is a participant in the room economy.
//
// Balance is in integer currency units and never goes negative: every
// debit checks funds first. Streak and LastClaimDate drive the daily
// claim bonus.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	PassHash string `json:"passHash,omitempty"`
	Balance  int64  `json:"balance"`

	// Streak counts consecutive daily claims, LastClaimDate is the UTC
	// calendar date ("2006-01-02") of the most recent claim.
	Streak        int    `json:"streak,omitempty"`
	LastClaimDate string `json:"lastClaimDate,omitempty"`
}

// NormalizeName canonicalizes a user name for uniqueness comparison.
// Names are NFC normalized and trimmed; comparison is case-insensitive.
// Two names that normalize equally are the same name.
func NormalizeName(name string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(name)))
}
