package engine

import (
	"fmt"
	"time"

	"github.com/roach88/roomledger/internal/ledger"
)

// Daily claim constants. The bonus scales with a capped consecutive-day
// streak: base + step * (min(streak, cap) - 1).
const (
	ClaimBase int64 = 100
	ClaimStep int64 = 50
	MaxStreak       = 7
)

type registerUserPayload struct {
	Name     string `json:"name"`
	PassHash string `json:"passHash"`
}

// registerUser creates a user with the fixed starting balance and mints
// it into existence. Names are unique under NFC/case-insensitive
// comparison, and the reserved house name is never grantable.
func (r *run) registerUser(op *ledger.Operation) *reject {
	var p registerUserPayload
	if rej := decodePayload(op, &p); rej != nil {
		return rej
	}
	if p.Name == "" {
		return rejectf(ledger.ConflictBadPayload, "name is required")
	}
	if ledger.NormalizeName(p.Name) == ledger.NormalizeName(ledger.HouseName) {
		return rejectf(ledger.ConflictBusiness, "name %q is reserved", p.Name)
	}
	if r.snap.State.UserByName(p.Name) != nil {
		return rejectf(ledger.ConflictBusiness, "name %q is already taken", p.Name)
	}

	u := ledger.User{
		ID:       op.UserID,
		Name:     p.Name,
		PassHash: p.PassHash,
		Balance:  ledger.StartingBalance,
	}
	if r.snap.State.User(u.ID) != nil {
		// Client reused an existing user id for a fresh registration.
		return rejectf(ledger.ConflictBusiness, "user %s already registered", u.ID)
	}
	r.snap.State.Users = append(r.snap.State.Users, u)
	r.diff.NewUsers = append(r.diff.NewUsers, u)

	r.tx(op, ledger.Transaction{
		Type:   ledger.TxMint,
		To:     u.ID,
		Amount: ledger.StartingBalance,
		Memo:   "registration grant",
	})
	return nil
}

type transferPayload struct {
	To     string `json:"to"`
	Amount int64  `json:"amount"`
	Memo   string `json:"memo"`
}

// transfer moves funds between two users.
func (r *run) transfer(op *ledger.Operation) *reject {
	var p transferPayload
	if rej := decodePayload(op, &p); rej != nil {
		return rej
	}
	if p.To == "" || p.Amount <= 0 {
		return rejectf(ledger.ConflictBadPayload, "transfer needs a recipient and a positive amount")
	}

	from, rej := r.user(op.UserID)
	if rej != nil {
		return rej
	}
	to, rej := r.user(p.To)
	if rej != nil {
		return rej
	}
	if from.Balance < p.Amount {
		return rejectf(ledger.ConflictInsufficientFunds,
			"balance %d below transfer amount %d", from.Balance, p.Amount)
	}

	from.Balance -= p.Amount
	to.Balance += p.Amount

	r.tx(op, ledger.Transaction{
		Type:   ledger.TxTransfer,
		From:   from.ID,
		To:     to.ID,
		Amount: p.Amount,
		Memo:   p.Memo,
	})
	r.notify(op, to.ID,
		fmt.Sprintf("%s sent you %d", from.Name, p.Amount), "transfer")
	return nil
}

// morningClaim grants the daily bonus once per UTC calendar date, scaled
// by the consecutive-day streak. The streak continues only when the
// previous claim was exactly the previous date; otherwise it resets.
//
// Claims mint new currency and sit outside the conservation property
// that covers transfer/buy/roulette.
func (r *run) morningClaim(op *ledger.Operation) *reject {
	u, rej := r.user(op.UserID)
	if rej != nil {
		return rej
	}

	day := time.UnixMilli(op.Timestamp).UTC()
	today := day.Format(time.DateOnly)
	if u.LastClaimDate == today {
		return rejectf(ledger.ConflictBusiness, "already claimed on %s", today)
	}

	yesterday := day.AddDate(0, 0, -1).Format(time.DateOnly)
	if u.LastClaimDate == yesterday {
		u.Streak++
	} else {
		u.Streak = 1
	}
	u.LastClaimDate = today

	streak := u.Streak
	if streak > MaxStreak {
		streak = MaxStreak
	}
	bonus := ClaimBase + ClaimStep*int64(streak-1)
	u.Balance += bonus

	r.tx(op, ledger.Transaction{
		Type:   ledger.TxMint,
		To:     u.ID,
		Amount: bonus,
		Memo:   fmt.Sprintf("daily claim, streak %d", u.Streak),
	})
	return nil
}

// roulette debits the fixed entry fee to the house and draws a payout.
// A jackpot roll (1%) pays the entire house balance and zeroes it; tier
// payouts are capped at whatever the house holds. Money only moves
// between the player and the house, so the total supply is conserved.
func (r *run) roulette(op *ledger.Operation) *reject {
	u, rej := r.user(op.UserID)
	if rej != nil {
		return rej
	}
	if u.Balance < RouletteFee {
		return rejectf(ledger.ConflictInsufficientFunds,
			"balance %d below entry fee %d", u.Balance, RouletteFee)
	}

	house := r.snap.State.House()
	u.Balance -= RouletteFee
	house.Balance += RouletteFee
	r.tx(op, ledger.Transaction{
		Type:   ledger.TxRoulette,
		From:   u.ID,
		To:     house.ID,
		Amount: RouletteFee,
		Memo:   "roulette entry",
	})

	roll := r.eng.roller.Roll()
	payout, jackpot := payoutFor(roll)
	if jackpot {
		payout = house.Balance
	} else if payout > house.Balance {
		payout = house.Balance
	}
	if payout > 0 {
		house.Balance -= payout
		u.Balance += payout
		memo := "roulette payout"
		if jackpot {
			memo = "roulette jackpot"
		}
		r.tx(op, ledger.Transaction{
			Type:   ledger.TxRoulette,
			From:   house.ID,
			To:     u.ID,
			Amount: payout,
			Memo:   memo,
		})
		r.notify(op, u.ID, fmt.Sprintf("roulette paid out %d", payout), "roulette")
	}
	return nil
}

type sendMessagePayload struct {
	To      string `json:"to"`
	Content string `json:"content"`
	Type    string `json:"type"`
	IsHTML  bool   `json:"isHtml"`
}

// sendMessage appends an ephemeral notification. No ledger effect: the
// message lives only until the notification TTL prunes it.
func (r *run) sendMessage(op *ledger.Operation) *reject {
	var p sendMessagePayload
	if rej := decodePayload(op, &p); rej != nil {
		return rej
	}
	if p.To == "" || p.Content == "" || p.Type == "" {
		return rejectf(ledger.ConflictBadPayload, "message needs recipient, content and type")
	}
	if op.Silent {
		// Silent operations suppress notification emission; the message
		// is accepted but nothing is stored.
		return nil
	}

	n := ledger.Notification{
		ID:        r.newID(),
		Timestamp: r.now.UnixMilli(),
		To:        p.To,
		Content:   p.Content,
		Type:      p.Type,
		IsHTML:    p.IsHTML,
	}
	r.snap.State.PrependNotification(n)
	r.diff.Notifications = append(r.diff.Notifications, n)
	return nil
}
