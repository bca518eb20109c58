package ledger

// TxType tags a ledger entry with the operation family that produced it.
type TxType string

const (
	TxMint     TxType = "mint"     // registration grant, daily claim
	TxTransfer TxType = "transfer" // user to user
	TxPurchase TxType = "purchase" // buyer to seller, fee to house
	TxFee      TxType = "fee"      // marketplace fee to house
	TxRefund   TxType = "refund"   // escrow cancellation or seller refund
	TxRoulette TxType = "roulette" // entry fee and payouts
	TxEscrow   TxType = "escrow"   // right state transitions (amount 0)
)

// Transaction is an immutable ledger entry. The transaction log is
// reverse-chronological: newest entries are prepended.
//
// From or To may be empty for mints (system-created funds).
type Transaction struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"` // epoch millis
	Type      TxType `json:"type"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Amount    int64  `json:"amount"`
	ListingID string `json:"listingId,omitempty"`
	Memo      string `json:"memo,omitempty"`
}

// Notification is an ephemeral addressed message. Notifications are not
// part of the durable ledger: the retention pruner drops them after a
// short TTL independent of the processed-op window.
type Notification struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"` // epoch millis
	To        string `json:"to"`
	Content   string `json:"content"`
	Type      string `json:"type"`
	IsHTML    bool   `json:"isHtml,omitempty"`
}
