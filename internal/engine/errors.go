package engine

import (
	"fmt"

	"github.com/roach88/roomledger/internal/ledger"
)

// BatchError reports a malformed operation batch. The whole request is
// rejected before any merge begins; no snapshot state is touched.
type BatchError struct {
	// Index of the offending operation within the submitted batch.
	Index int
	// Message describes what is malformed.
	Message string
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	return fmt.Sprintf("malformed batch: operations[%d]: %s", e.Index, e.Message)
}

// reject is a handler outcome: the operation was refused by a business
// rule. It becomes a Conflict record; the batch continues.
type reject struct {
	kind ledger.ConflictKind
	msg  string
}

func rejectf(kind ledger.ConflictKind, format string, args ...any) *reject {
	return &reject{kind: kind, msg: fmt.Sprintf(format, args...)}
}
