package ledger

// RightStatus is the escrow workflow state of a purchased right.
type RightStatus string

const (
	// RightOwned is the initial state created by a purchase.
	RightOwned RightStatus = "owned"
	// RightRequested means the buyer has asked the seller to act.
	RightRequested RightStatus = "request"
	// RightSellerExecuted means the seller executed immediately; awaits
	// the buyer's finalize.
	RightSellerExecuted RightStatus = "seller_executed"
	// RightSellerCancelRequested means the seller asked to cancel; the
	// buyer's finalize removes the right with a refund.
	RightSellerCancelRequested RightStatus = "seller_cancel_requested"
	// RightSellerReported means the seller reported execution; awaits the
	// buyer's confirm or (single-use) reject.
	RightSellerReported RightStatus = "seller_reported"
	// RightBuyerRejected means the buyer disputed the report; only a
	// seller refund resolves it.
	RightBuyerRejected RightStatus = "buyer_rejected"
	// RightFinalized is the terminal kept state. Cancelled/refunded
	// rights are removed from the active set instead.
	RightFinalized RightStatus = "finalized"
)

// Right is an escrow record binding a buyer and seller to one purchased
// listing unit until the workflow resolves.
//
// Rejections guards buyer_reject: at most one rejection per report cycle.
type Right struct {
	ID         string      `json:"id"`
	ListingID  string      `json:"listingId"`
	BuyerID    string      `json:"buyerId"`
	SellerID   string      `json:"sellerId"`
	Status     RightStatus `json:"status"`
	Executed   bool        `json:"executed"`
	Rejections int         `json:"rejections,omitempty"`
}

// Terminal reports whether the right has reached its kept terminal state.
func (r *Right) Terminal() bool {
	return r.Status == RightFinalized
}
