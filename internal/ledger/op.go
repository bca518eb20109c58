package ledger

import "encoding/json"

// OpType identifies an operation handler. The full set is closed at
// compile time; unrecognized wire values still exist as raw strings and
// are converted into unknown_type conflicts by the dispatcher.
type OpType string

const (
	OpRegisterUser    OpType = "register_user"
	OpTransfer        OpType = "transfer"
	OpCreateListing   OpType = "create_listing"
	OpBuyListing      OpType = "buy_listing"
	OpToggleListing   OpType = "toggle_listing"
	OpDeleteListing   OpType = "delete_listing"
	OpMorningClaim    OpType = "morning_claim"
	OpRoulette        OpType = "roulette"
	OpBuyerRequest    OpType = "buyer_request"
	OpSellerRespond   OpType = "seller_respond"
	OpReportExecution OpType = "report_execution"
	OpBuyerConfirm    OpType = "buyer_confirm"
	OpBuyerReject     OpType = "buyer_reject"
	OpSellerRefund    OpType = "seller_refund"
	OpBuyerFinalize   OpType = "buyer_finalize"
	OpSendMessage     OpType = "send_message"
)

// Operation is one client-submitted mutation request.
//
// ID is client-chosen and doubles as the idempotency key: an id already
// present in the processed-op log is silently dropped. Timestamp is the
// client clock in epoch millis and is only a deterministic ordering key,
// not a trusted time (clients cannot be verified against each other).
type Operation struct {
	ID        string          `json:"id"`
	Type      OpType          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
	UserID    string          `json:"userId"`

	// Silent suppresses transaction records and notifications while still
	// applying the state change. Used for replay/import traffic.
	Silent bool `json:"silent,omitempty"`
}

// ProcessedOp is the durable dedup log entry for one applied operation.
type ProcessedOp struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Type      OpType `json:"type"`
	UserID    string `json:"userId"`
}

// ConflictKind categorizes why an operation was rejected.
type ConflictKind string

const (
	// ConflictInsufficientFunds: a debit would take a balance negative.
	ConflictInsufficientFunds ConflictKind = "insufficient_funds"
	// ConflictNotFound: a referenced user/listing/right does not exist.
	ConflictNotFound ConflictKind = "not_found"
	// ConflictForbidden: the issuing user lacks the required role
	// (not the owner, not the buyer, not the seller).
	ConflictForbidden ConflictKind = "forbidden"
	// ConflictInvalidState: the entity exists but is in the wrong state
	// for this transition.
	ConflictInvalidState ConflictKind = "invalid_state"
	// ConflictBusiness: a plain business-rule rejection (name taken,
	// already claimed today, out of stock, buying own listing).
	ConflictBusiness ConflictKind = "conflict"
	// ConflictBadPayload: the payload did not decode or misses fields.
	ConflictBadPayload ConflictKind = "bad_payload"
	// ConflictUnknownType: the operation type is not recognized.
	ConflictUnknownType ConflictKind = "unknown_type"
	// ConflictError: an unexpected internal fault during handling,
	// caught by the orchestrator so the batch continues.
	ConflictError ConflictKind = "error"
)

// Conflict is the durable audit record of one rejected operation.
type Conflict struct {
	OpID      string       `json:"opId"`
	Kind      ConflictKind `json:"kind"`
	Message   string       `json:"message"`
	Timestamp int64        `json:"timestamp"`
	UserID    string       `json:"userId"`
}

// Diff accumulates the entities one merge pass created, updated, or
// deleted. Callers relay it to polling clients for notification.
type Diff struct {
	NewUsers        []User         `json:"newUsers,omitempty"`
	NewTxs          []Transaction  `json:"newTxs,omitempty"`
	NewRights       []Right        `json:"newRights,omitempty"`
	UpdatedRights   []Right        `json:"updatedRights,omitempty"`
	RemovedRights   []string       `json:"removedRights,omitempty"`
	UpdatedListings []Listing      `json:"updatedListings,omitempty"`
	DeletedListings []string       `json:"deletedListings,omitempty"`
	Notifications   []Notification `json:"notifications,omitempty"`
	Conflicts       []Conflict     `json:"conflicts,omitempty"`
}

// Empty reports whether the merge produced no observable changes.
func (d *Diff) Empty() bool {
	return len(d.NewUsers) == 0 &&
		len(d.NewTxs) == 0 &&
		len(d.NewRights) == 0 &&
		len(d.UpdatedRights) == 0 &&
		len(d.RemovedRights) == 0 &&
		len(d.UpdatedListings) == 0 &&
		len(d.DeletedListings) == 0 &&
		len(d.Notifications) == 0 &&
		len(d.Conflicts) == 0
}
