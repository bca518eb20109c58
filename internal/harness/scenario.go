package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// Scenarios seed a room, run batches of operations through the merge
// engine, and assert on the resulting snapshot.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the golden
	// file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Users seeds the room with pre-registered accounts. The house
	// account always exists and must not be listed.
	Users []SeedUser `yaml:"users,omitempty"`

	// Rolls scripts the roulette roller. Each roulette operation
	// consumes one roll; an exhausted script keeps returning the last
	// value. Empty means every roll loses.
	Rolls []int `yaml:"rolls,omitempty"`

	// Batches are merged in order, each as one Merge call.
	Batches []Batch `yaml:"batches"`

	// Assertions validate the final snapshot.
	// Supported types: balance, conflict, vtick, total_supply.
	Assertions []Assertion `yaml:"assertions"`
}

// SeedUser is one pre-registered account. Name defaults to the id.
type SeedUser struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name,omitempty"`
	Balance int64  `yaml:"balance"`
}

// Batch is one Merge call: an optional clock advance followed by
// operations.
type Batch struct {
	// Advance moves the harness wall clock before the merge, e.g. "90s"
	// to step past the notification TTL. Parsed as time.Duration.
	Advance string `yaml:"advance,omitempty"`

	// Ops are the operations submitted in this batch.
	Ops []OpStep `yaml:"ops"`
}

// OpStep is one operation in a batch.
//
// Generated entity ids are deterministic ("id-1", "id-2", ... in
// creation order), so later steps may reference them literally, e.g. a
// buy_listing payload naming the listing created two steps earlier.
type OpStep struct {
	ID   string `yaml:"id"`
	Type string `yaml:"type"`
	User string `yaml:"user"`

	// At is the client timestamp as an offset in seconds from the
	// scenario start. Ordering within a batch follows these offsets.
	At int `yaml:"at"`

	Payload map[string]interface{} `yaml:"payload,omitempty"`
	Silent  bool                   `yaml:"silent,omitempty"`
}

// Assertion validates one fact about the final snapshot.
type Assertion struct {
	// Type specifies the assertion type:
	// - "balance": a user's final balance equals Expect
	// - "conflict": operation Op conflicted with kind Kind
	// - "vtick": the final version counter equals Expect
	// - "total_supply": the sum of all balances equals Expect
	Type string `yaml:"type"`

	// User is the account id (used by balance).
	User string `yaml:"user,omitempty"`

	// Op is the operation id (used by conflict).
	Op string `yaml:"op,omitempty"`

	// Kind is the expected conflict kind (used by conflict).
	Kind string `yaml:"kind,omitempty"`

	// Expect is the expected numeric value (balance, vtick,
	// total_supply).
	Expect int64 `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertBalance     = "balance"
	AssertConflict    = "conflict"
	AssertVTick       = "vtick"
	AssertTotalSupply = "total_supply"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarioDir loads every *.yaml scenario under dir, sorted by file
// name for deterministic test ordering.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	scenarios := make([]*Scenario, 0, len(names))
	for _, name := range names {
		s, err := LoadScenario(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Batches) == 0 {
		return fmt.Errorf("batches list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, u := range s.Users {
		if u.ID == "" {
			return fmt.Errorf("users[%d]: id is required", i)
		}
	}

	// Duplicate op ids are allowed: scenarios replay ids on purpose to
	// exercise the engine's dedup guarantee.
	for bi, b := range s.Batches {
		if len(b.Ops) == 0 {
			return fmt.Errorf("batches[%d]: ops list is required and must be non-empty", bi)
		}
		for oi, op := range b.Ops {
			if op.ID == "" {
				return fmt.Errorf("batches[%d].ops[%d]: id is required", bi, oi)
			}
			if op.Type == "" {
				return fmt.Errorf("batches[%d].ops[%d]: type is required", bi, oi)
			}
			if op.User == "" {
				return fmt.Errorf("batches[%d].ops[%d]: user is required", bi, oi)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertBalance:
		if a.User == "" {
			return fmt.Errorf("assertions[%d]: user is required for balance", index)
		}
	case AssertConflict:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for conflict", index)
		}
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for conflict", index)
		}
	case AssertVTick, AssertTotalSupply:
		// Expect alone carries the assertion.
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
