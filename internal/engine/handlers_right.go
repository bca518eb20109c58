package engine

import (
	"fmt"

	"github.com/roach88/roomledger/internal/ledger"
)

type rightRefPayload struct {
	RightID string `json:"rightId"`
}

// rightFor resolves a right reference and checks the issuing user
// against the required role. Escrow transitions are strictly gated: a
// buyer-only action from the seller (or anyone else) is forbidden, not
// applied.
func (r *run) rightFor(op *ledger.Operation, rightID string, buyerAction bool) (*ledger.Right, *reject) {
	if rightID == "" {
		return nil, rejectf(ledger.ConflictBadPayload, "rightId is required")
	}
	rt := r.snap.State.Right(rightID)
	if rt == nil {
		return nil, rejectf(ledger.ConflictNotFound, "right %s not found", rightID)
	}
	if buyerAction && rt.BuyerID != op.UserID {
		return nil, rejectf(ledger.ConflictForbidden, "only the buyer may act on right %s", rt.ID)
	}
	if !buyerAction && rt.SellerID != op.UserID {
		return nil, rejectf(ledger.ConflictForbidden, "only the seller may act on right %s", rt.ID)
	}
	return rt, nil
}

// transition records a state change: escrow marker transaction plus a
// notification to the counterparty.
func (r *run) transition(op *ledger.Operation, rt *ledger.Right, to ledger.RightStatus, notifyUser string) {
	rt.Status = to
	r.touchRight(rt)
	r.tx(op, ledger.Transaction{
		Type:      ledger.TxEscrow,
		From:      op.UserID,
		To:        notifyUser,
		ListingID: rt.ListingID,
		Memo:      fmt.Sprintf("right %s -> %s", rt.ID, to),
	})
	r.notify(op, notifyUser,
		fmt.Sprintf("right %s is now %s", rt.ID, to), "escrow")
}

// buyerRequest moves an owned right into the request state, asking the
// seller to act.
func (r *run) buyerRequest(op *ledger.Operation) *reject {
	var p rightRefPayload
	if rej := decodePayload(op, &p); rej != nil {
		return rej
	}
	rt, rej := r.rightFor(op, p.RightID, true)
	if rej != nil {
		return rej
	}
	if rt.Status != ledger.RightOwned {
		return rejectf(ledger.ConflictInvalidState, "right %s is %s, not %s", rt.ID, rt.Status, ledger.RightOwned)
	}

	r.transition(op, rt, ledger.RightRequested, rt.SellerID)
	return nil
}

type sellerRespondPayload struct {
	RightID string `json:"rightId"`
	Action  string `json:"action"` // "execute" | "cancel"
}

// sellerRespond answers a buyer request: execute immediately, or ask to
// cancel (the buyer's finalize then refunds).
func (r *run) sellerRespond(op *ledger.Operation) *reject {
	var p sellerRespondPayload
	if rej := decodePayload(op, &p); rej != nil {
		return rej
	}
	rt, rej := r.rightFor(op, p.RightID, false)
	if rej != nil {
		return rej
	}
	if rt.Status != ledger.RightRequested {
		return rejectf(ledger.ConflictInvalidState, "right %s is %s, not %s", rt.ID, rt.Status, ledger.RightRequested)
	}

	switch p.Action {
	case "execute":
		rt.Executed = true
		r.transition(op, rt, ledger.RightSellerExecuted, rt.BuyerID)
	case "cancel":
		r.transition(op, rt, ledger.RightSellerCancelRequested, rt.BuyerID)
	default:
		return rejectf(ledger.ConflictBadPayload, "action must be execute or cancel, got %q", p.Action)
	}
	return nil
}

// reportExecution lets the seller report completion for buyer review.
// Sets the executed flag and awaits buyer_confirm or buyer_reject.
func (r *run) reportExecution(op *ledger.Operation) *reject {
	var p rightRefPayload
	if rej := decodePayload(op, &p); rej != nil {
		return rej
	}
	rt, rej := r.rightFor(op, p.RightID, false)
	if rej != nil {
		return rej
	}
	if rt.Status != ledger.RightRequested {
		return rejectf(ledger.ConflictInvalidState, "right %s is %s, not %s", rt.ID, rt.Status, ledger.RightRequested)
	}

	rt.Executed = true
	r.transition(op, rt, ledger.RightSellerReported, rt.BuyerID)
	return nil
}

// buyerConfirm accepts a seller report; the right settles as finalized.
func (r *run) buyerConfirm(op *ledger.Operation) *reject {
	var p rightRefPayload
	if rej := decodePayload(op, &p); rej != nil {
		return rej
	}
	rt, rej := r.rightFor(op, p.RightID, true)
	if rej != nil {
		return rej
	}
	if rt.Status != ledger.RightSellerReported {
		return rejectf(ledger.ConflictInvalidState, "right %s is %s, not %s", rt.ID, rt.Status, ledger.RightSellerReported)
	}

	r.transition(op, rt, ledger.RightFinalized, rt.SellerID)
	return nil
}

// buyerReject disputes a seller report. Single use per report cycle:
// the rejection counter blocks a second rejection outright.
func (r *run) buyerReject(op *ledger.Operation) *reject {
	var p rightRefPayload
	if rej := decodePayload(op, &p); rej != nil {
		return rej
	}
	rt, rej := r.rightFor(op, p.RightID, true)
	if rej != nil {
		return rej
	}
	if rt.Status != ledger.RightSellerReported {
		return rejectf(ledger.ConflictInvalidState, "right %s is %s, not %s", rt.ID, rt.Status, ledger.RightSellerReported)
	}
	if rt.Rejections > 0 {
		return rejectf(ledger.ConflictInvalidState, "right %s was already rejected once", rt.ID)
	}

	rt.Rejections++
	r.transition(op, rt, ledger.RightBuyerRejected, rt.SellerID)
	return nil
}

type sellerRefundPayload struct {
	RightID string `json:"rightId"`
	Amount  int64  `json:"amount"` // 0 means the default: price minus fee
}

// sellerRefund is the seller-initiated resolution: refund the buyer and
// remove the right. Allowed from seller_reported,
// seller_cancel_requested, and buyer_rejected. The refund defaults to
// what the seller received (price minus the house fee) and an explicit
// amount is capped at the full listing price.
func (r *run) sellerRefund(op *ledger.Operation) *reject {
	var p sellerRefundPayload
	if rej := decodePayload(op, &p); rej != nil {
		return rej
	}
	rt, rej := r.rightFor(op, p.RightID, false)
	if rej != nil {
		return rej
	}
	switch rt.Status {
	case ledger.RightSellerReported, ledger.RightSellerCancelRequested, ledger.RightBuyerRejected:
	default:
		return rejectf(ledger.ConflictInvalidState, "right %s is %s, not refundable", rt.ID, rt.Status)
	}
	if p.Amount < 0 {
		return rejectf(ledger.ConflictBadPayload, "refund amount cannot be negative")
	}

	return r.removeWithRefund(op, rt, p.Amount)
}

// buyerFinalize is the buyer's terminal action: settle an executed right
// as finalized, or acknowledge a seller cancellation and take the
// refund.
func (r *run) buyerFinalize(op *ledger.Operation) *reject {
	var p rightRefPayload
	if rej := decodePayload(op, &p); rej != nil {
		return rej
	}
	rt, rej := r.rightFor(op, p.RightID, true)
	if rej != nil {
		return rej
	}

	switch rt.Status {
	case ledger.RightSellerExecuted:
		r.transition(op, rt, ledger.RightFinalized, rt.SellerID)
		return nil
	case ledger.RightSellerCancelRequested:
		return r.removeWithRefund(op, rt, 0)
	default:
		return rejectf(ledger.ConflictInvalidState, "right %s is %s, not finalizable", rt.ID, rt.Status)
	}
}

// removeWithRefund resolves a right by refunding the buyer from the
// seller's balance and removing the right from the active set. Stock
// returns to the listing, reactivating it when capacity remains.
//
// amount 0 selects the default refund: listing price minus the house
// fee, which is exactly what the seller was credited at purchase. The
// house keeps its fee either way.
func (r *run) removeWithRefund(op *ledger.Operation, rt *ledger.Right, amount int64) *reject {
	seller, rej := r.user(rt.SellerID)
	if rej != nil {
		return rej
	}
	buyer, rej := r.user(rt.BuyerID)
	if rej != nil {
		return rej
	}

	l := r.snap.State.Listing(rt.ListingID)
	if amount == 0 {
		if l == nil {
			return rejectf(ledger.ConflictNotFound,
				"listing %s is gone; refund needs an explicit amount", rt.ListingID)
		}
		amount = l.Price - Fee(l.Price)
	} else if l != nil && amount > l.Price {
		amount = l.Price
	}
	if seller.Balance < amount {
		return rejectf(ledger.ConflictInsufficientFunds,
			"seller balance %d cannot cover refund %d", seller.Balance, amount)
	}

	seller.Balance -= amount
	buyer.Balance += amount
	if l != nil {
		l.ReleaseUnit()
		r.touchListing(l)
	}

	// RemoveRight shifts the rights slice, so rt is stale afterwards.
	rightID, listingID := rt.ID, rt.ListingID
	r.snap.State.RemoveRight(rightID)
	r.diff.RemovedRights = append(r.diff.RemovedRights, rightID)

	r.tx(op, ledger.Transaction{
		Type:      ledger.TxRefund,
		From:      seller.ID,
		To:        buyer.ID,
		Amount:    amount,
		ListingID: listingID,
		Memo:      fmt.Sprintf("refund for right %s", rightID),
	})
	r.notify(op, buyer.ID,
		fmt.Sprintf("right %s refunded %d", rightID, amount), "escrow")
	return nil
}
