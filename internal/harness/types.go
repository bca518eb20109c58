package harness

import (
	"github.com/roach88/roomledger/internal/ledger"
)

// Result holds everything a scenario run produced: the final snapshot,
// the per-batch diffs, and any assertion failures.
type Result struct {
	// Snapshot is the final snapshot after the last batch.
	Snapshot *ledger.Snapshot

	// Diffs holds one diff per merged batch, in batch order.
	Diffs []*ledger.Diff

	// Errors collects assertion failure messages. Empty means pass.
	Errors []string
}

// NewResult creates an empty result.
func NewResult() *Result {
	return &Result{}
}

// AddError records an assertion failure.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Passed reports whether every assertion held.
func (r *Result) Passed() bool {
	return len(r.Errors) == 0
}

// Conflicts flattens the conflicts of every batch diff, in order.
func (r *Result) Conflicts() []ledger.Conflict {
	var all []ledger.Conflict
	for _, d := range r.Diffs {
		all = append(all, d.Conflicts...)
	}
	return all
}
