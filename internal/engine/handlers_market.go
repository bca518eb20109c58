package engine

import (
	"fmt"

	"github.com/roach88/roomledger/internal/ledger"
)

// FeeBps is the marketplace fee in basis points, collected by the house
// on every purchase. Integer floor: fee = price * FeeBps / 10000.
const FeeBps int64 = 1000

// Fee returns the house cut for a listing price.
func Fee(price int64) int64 {
	return price * FeeBps / 10000
}

type createListingPayload struct {
	Title string `json:"title"`
	Price int64  `json:"price"`
	Qty   int    `json:"qty"`
}

// createListing creates an active listing owned by the caller.
func (r *run) createListing(op *ledger.Operation) *reject {
	var p createListingPayload
	if rej := decodePayload(op, &p); rej != nil {
		return rej
	}
	if p.Title == "" || p.Price <= 0 || p.Qty <= 0 {
		return rejectf(ledger.ConflictBadPayload, "listing needs a title, positive price and positive qty")
	}
	if _, rej := r.user(op.UserID); rej != nil {
		return rej
	}

	l := ledger.Listing{
		ID:       r.newID(),
		Title:    p.Title,
		Price:    p.Price,
		SellerID: op.UserID,
		Active:   true,
		Qty:      p.Qty,
	}
	r.snap.State.Listings = append(r.snap.State.Listings, l)
	r.touchListing(&l)
	return nil
}

type listingRefPayload struct {
	ListingID string `json:"listingId"`
}

// buyListing debits the buyer, credits the seller minus the house fee,
// consumes one unit of stock, and opens an escrow right in owned state.
func (r *run) buyListing(op *ledger.Operation) *reject {
	var p listingRefPayload
	if rej := decodePayload(op, &p); rej != nil {
		return rej
	}
	if p.ListingID == "" {
		return rejectf(ledger.ConflictBadPayload, "listingId is required")
	}

	l := r.snap.State.Listing(p.ListingID)
	if l == nil {
		return rejectf(ledger.ConflictNotFound, "listing %s not found", p.ListingID)
	}
	if !l.Active || !l.InStock() {
		return rejectf(ledger.ConflictBusiness, "listing %s is not for sale", l.ID)
	}
	if l.SellerID == op.UserID {
		return rejectf(ledger.ConflictBusiness, "cannot buy own listing")
	}

	buyer, rej := r.user(op.UserID)
	if rej != nil {
		return rej
	}
	seller, rej := r.user(l.SellerID)
	if rej != nil {
		return rej
	}
	if buyer.Balance < l.Price {
		return rejectf(ledger.ConflictInsufficientFunds,
			"balance %d below price %d", buyer.Balance, l.Price)
	}

	fee := Fee(l.Price)
	house := r.snap.State.House()
	buyer.Balance -= l.Price
	seller.Balance += l.Price - fee
	house.Balance += fee
	l.TakeUnit()
	r.touchListing(l)

	right := ledger.Right{
		ID:        r.newID(),
		ListingID: l.ID,
		BuyerID:   buyer.ID,
		SellerID:  seller.ID,
		Status:    ledger.RightOwned,
	}
	r.snap.State.Rights = append(r.snap.State.Rights, right)
	r.diff.NewRights = append(r.diff.NewRights, right)

	r.tx(op, ledger.Transaction{
		Type:      ledger.TxPurchase,
		From:      buyer.ID,
		To:        seller.ID,
		Amount:    l.Price - fee,
		ListingID: l.ID,
		Memo:      l.Title,
	})
	r.tx(op, ledger.Transaction{
		Type:      ledger.TxFee,
		From:      buyer.ID,
		To:        house.ID,
		Amount:    fee,
		ListingID: l.ID,
		Memo:      "marketplace fee",
	})
	r.notify(op, seller.ID,
		fmt.Sprintf("%s bought %q for %d", buyer.Name, l.Title, l.Price), "sale")
	return nil
}

// toggleListing flips the active flag. Owner only; a sold-out listing
// cannot be reactivated.
func (r *run) toggleListing(op *ledger.Operation) *reject {
	var p listingRefPayload
	if rej := decodePayload(op, &p); rej != nil {
		return rej
	}

	l := r.snap.State.Listing(p.ListingID)
	if l == nil {
		return rejectf(ledger.ConflictNotFound, "listing %s not found", p.ListingID)
	}
	if l.SellerID != op.UserID {
		return rejectf(ledger.ConflictForbidden, "only the owner can toggle a listing")
	}
	if !l.Active && !l.InStock() {
		return rejectf(ledger.ConflictInvalidState, "listing %s is sold out", l.ID)
	}

	l.Active = !l.Active
	r.touchListing(l)
	return nil
}

// deleteListing removes a listing. Owner only, and only while nothing
// has sold: rights already reference sold units.
func (r *run) deleteListing(op *ledger.Operation) *reject {
	var p listingRefPayload
	if rej := decodePayload(op, &p); rej != nil {
		return rej
	}

	l := r.snap.State.Listing(p.ListingID)
	if l == nil {
		return rejectf(ledger.ConflictNotFound, "listing %s not found", p.ListingID)
	}
	if l.SellerID != op.UserID {
		return rejectf(ledger.ConflictForbidden, "only the owner can delete a listing")
	}
	if l.Sold > 0 {
		return rejectf(ledger.ConflictInvalidState, "listing %s has sold units", l.ID)
	}

	// RemoveListing shifts the listings slice, so l is stale afterwards.
	id := l.ID
	r.snap.State.RemoveListing(id)
	r.diff.DeletedListings = append(r.diff.DeletedListings, id)
	return nil
}
