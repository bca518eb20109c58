package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/roomledger/internal/ledger"
)

// AssertionError describes one failed assertion with enough context to
// debug the scenario without re-running it.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and
// records failures on it.
func EvaluateAssertions(result *Result, assertions []Assertion) {
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			result.AddError(err.Error())
		}
	}
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertBalance:
		return assertBalance(result.Snapshot.State, a)
	case AssertConflict:
		return assertConflict(result.Conflicts(), a)
	case AssertVTick:
		return assertVTick(result.Snapshot.State, a)
	case AssertTotalSupply:
		return assertTotalSupply(result.Snapshot.State, a)
	default:
		// Unknown types are caught at load time; reaching this means the
		// scenario bypassed LoadScenario.
		return &AssertionError{
			Type:     a.Type,
			Expected: "a known assertion type",
			Actual:   fmt.Sprintf("unknown type %q", a.Type),
		}
	}
}

// assertBalance checks a user's final balance.
func assertBalance(state *ledger.State, a Assertion) error {
	u := state.User(a.User)
	if u == nil {
		return &AssertionError{
			Type:     AssertBalance,
			Expected: fmt.Sprintf("user %s with balance %d", a.User, a.Expect),
			Actual:   fmt.Sprintf("user %s does not exist", a.User),
		}
	}
	if u.Balance != a.Expect {
		return &AssertionError{
			Type:     AssertBalance,
			Expected: fmt.Sprintf("user %s balance %d", a.User, a.Expect),
			Actual:   fmt.Sprintf("balance %d", u.Balance),
		}
	}
	return nil
}

// assertConflict checks that an operation conflicted with the given
// kind in some batch.
func assertConflict(conflicts []ledger.Conflict, a Assertion) error {
	for _, c := range conflicts {
		if c.OpID == a.Op {
			if string(c.Kind) == a.Kind {
				return nil
			}
			return &AssertionError{
				Type:     AssertConflict,
				Expected: fmt.Sprintf("op %s conflicts with kind %s", a.Op, a.Kind),
				Actual:   fmt.Sprintf("conflicted with kind %s (%s)", c.Kind, c.Message),
			}
		}
	}
	return &AssertionError{
		Type:     AssertConflict,
		Expected: fmt.Sprintf("op %s conflicts with kind %s", a.Op, a.Kind),
		Actual:   "op did not conflict",
	}
}

// assertVTick checks the final version counter.
func assertVTick(state *ledger.State, a Assertion) error {
	if state.VTick != a.Expect {
		return &AssertionError{
			Type:     AssertVTick,
			Expected: fmt.Sprintf("vTick %d", a.Expect),
			Actual:   fmt.Sprintf("vTick %d", state.VTick),
		}
	}
	return nil
}

// assertTotalSupply checks the sum of all balances including the house.
// This is the conservation property: scenarios built purely from
// transfer/buy/roulette keep the seeded total.
func assertTotalSupply(state *ledger.State, a Assertion) error {
	if total := state.TotalBalance(); total != a.Expect {
		return &AssertionError{
			Type:     AssertTotalSupply,
			Expected: fmt.Sprintf("total supply %d", a.Expect),
			Actual:   fmt.Sprintf("total supply %d", total),
		}
	}
	return nil
}
