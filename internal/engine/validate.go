package engine

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/roomledger/internal/ledger"
)

//go:embed batch.cue
var batchCUE string

// Batch is the wire envelope clients submit for a merge.
type Batch struct {
	Operations []ledger.Operation `json:"operations"`
}

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	batchDef   cue.Value
)

// loadSchema compiles the embedded envelope schema once.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
func loadSchema() {
	schemaCtx = cuecontext.New()
	schema := schemaCtx.CompileString(batchCUE, cue.Filename("batch.cue"))
	batchDef = schema.LookupPath(cue.ParsePath("#Batch"))
}

// ValidateBatch checks a raw JSON request body against the embedded
// envelope schema. This is the batch-level validation tier: it runs
// before any state is touched, and failure rejects the whole request.
//
// Payload contents are left open here; payload-level problems surface
// later as per-operation bad_payload conflicts, which do not abort the
// batch.
func ValidateBatch(raw []byte) error {
	schemaOnce.Do(loadSchema)
	if err := batchDef.Err(); err != nil {
		return fmt.Errorf("envelope schema is broken: %w", err)
	}

	expr, err := cuejson.Extract("batch.json", raw)
	if err != nil {
		return fmt.Errorf("batch is not valid JSON: %w", err)
	}

	v := schemaCtx.BuildExpr(expr)
	if err := v.Err(); err != nil {
		return fmt.Errorf("batch is not valid JSON: %w", err)
	}

	unified := batchDef.Unify(v)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return fmt.Errorf("malformed batch: %s", cueerrors.Details(err, nil))
	}
	return nil
}

// DecodeBatch validates raw JSON against the envelope schema and
// decodes it into typed operations.
func DecodeBatch(raw []byte) ([]ledger.Operation, error) {
	if err := ValidateBatch(raw); err != nil {
		return nil, err
	}
	var b Batch
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	return b.Operations, nil
}
