package engine

import (
	"encoding/json"

	"github.com/roach88/roomledger/internal/ledger"
)

// apply routes one operation to its handler. The OpType set is closed,
// so the switch is exhaustive over declared types; genuinely
// unrecognized wire input still needs a conflict path and gets one in
// the default arm.
func (r *run) apply(op *ledger.Operation) *reject {
	switch op.Type {
	case ledger.OpRegisterUser:
		return r.registerUser(op)
	case ledger.OpTransfer:
		return r.transfer(op)
	case ledger.OpCreateListing:
		return r.createListing(op)
	case ledger.OpBuyListing:
		return r.buyListing(op)
	case ledger.OpToggleListing:
		return r.toggleListing(op)
	case ledger.OpDeleteListing:
		return r.deleteListing(op)
	case ledger.OpMorningClaim:
		return r.morningClaim(op)
	case ledger.OpRoulette:
		return r.roulette(op)
	case ledger.OpBuyerRequest:
		return r.buyerRequest(op)
	case ledger.OpSellerRespond:
		return r.sellerRespond(op)
	case ledger.OpReportExecution:
		return r.reportExecution(op)
	case ledger.OpBuyerConfirm:
		return r.buyerConfirm(op)
	case ledger.OpBuyerReject:
		return r.buyerReject(op)
	case ledger.OpSellerRefund:
		return r.sellerRefund(op)
	case ledger.OpBuyerFinalize:
		return r.buyerFinalize(op)
	case ledger.OpSendMessage:
		return r.sendMessage(op)
	default:
		return rejectf(ledger.ConflictUnknownType, "unknown operation type %q", op.Type)
	}
}

// decodePayload unmarshals the operation payload into a typed struct.
// A missing payload decodes to the zero value; handlers validate their
// own required fields.
func decodePayload(op *ledger.Operation, dst any) *reject {
	if len(op.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(op.Payload, dst); err != nil {
		return rejectf(ledger.ConflictBadPayload, "payload does not decode: %v", err)
	}
	return nil
}
