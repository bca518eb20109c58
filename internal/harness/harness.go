package harness

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/roomledger/internal/engine"
	"github.com/roach88/roomledger/internal/ledger"
	"github.com/roach88/roomledger/internal/testutil"
)

// scenarioStart is the frozen wall clock every scenario begins at.
// Operation timestamps are offsets from this instant.
var scenarioStart = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// Run executes a scenario and returns the result.
//
// Every run is deterministic: frozen clock, sequential "id-N" entity
// ids, and a roulette roller scripted by the scenario's rolls list.
// Batches are merged in order; a batch-level rejection fails the run
// (scenarios describe per-operation conflicts with assertions instead).
func Run(scenario *Scenario) (*Result, error) {
	clock := testutil.NewFixedClock(scenarioStart)
	eng := engine.New(
		engine.WithNow(clock.Now),
		engine.WithIDGenerator(testutil.NewSeqIDGenerator("id")),
		engine.WithRoller(engine.NewFixedRoller(scenario.Rolls...)),
	)

	snap, err := seedSnapshot(scenario.Users)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	for bi, batch := range scenario.Batches {
		if batch.Advance != "" {
			d, err := time.ParseDuration(batch.Advance)
			if err != nil {
				return nil, fmt.Errorf("batch %d: bad advance %q: %w", bi, batch.Advance, err)
			}
			clock.Advance(d)
		}

		ops, err := buildOps(batch.Ops)
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w", bi, err)
		}

		next, diff, err := eng.Merge(snap, ops)
		if err != nil {
			return nil, fmt.Errorf("batch %d rejected: %w", bi, err)
		}
		snap = next
		result.Diffs = append(result.Diffs, diff)
	}

	result.Snapshot = snap

	EvaluateAssertions(result, scenario.Assertions)
	return result, nil
}

// seedSnapshot builds the initial snapshot from the scenario's user
// list. The house is created by NewSnapshot and must not be seeded.
func seedSnapshot(users []SeedUser) (*ledger.Snapshot, error) {
	snap := ledger.NewSnapshot()
	for _, u := range users {
		if u.ID == ledger.HouseID {
			return nil, fmt.Errorf("user %q: the house account is implicit", u.ID)
		}
		name := u.Name
		if name == "" {
			name = u.ID
		}
		snap.State.Users = append(snap.State.Users, ledger.User{
			ID:      u.ID,
			Name:    name,
			Balance: u.Balance,
		})
	}
	return snap, nil
}

// buildOps converts scenario steps into typed operations. Payloads are
// round-tripped through JSON so the engine sees exactly what a wire
// batch would carry.
func buildOps(steps []OpStep) ([]ledger.Operation, error) {
	ops := make([]ledger.Operation, 0, len(steps))
	for i, step := range steps {
		var payload json.RawMessage
		if step.Payload != nil {
			b, err := json.Marshal(step.Payload)
			if err != nil {
				return nil, fmt.Errorf("ops[%d] %q: marshal payload: %w", i, step.ID, err)
			}
			payload = b
		}
		ops = append(ops, ledger.Operation{
			ID:        step.ID,
			Type:      ledger.OpType(step.Type),
			Payload:   payload,
			Timestamp: scenarioStart.Add(time.Duration(step.At) * time.Second).UnixMilli(),
			UserID:    step.User,
			Silent:    step.Silent,
		})
	}
	return ops, nil
}
