package harness

import (
	"encoding/json"
	"fmt"
	"sort"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// goldenDoc is the stable summary of a finished scenario compared
// against golden files. It excludes generated entity ids,
// transactions, and notifications: those churn with unrelated handler
// changes, while balances, stock, right states, and conflicts are the
// semantics a scenario pins down.
type goldenDoc struct {
	Scenario   string           `json:"scenario"`
	VTick      int64            `json:"vTick"`
	LastUpdate int64            `json:"lastUpdate"`
	Balances   []goldenBalance  `json:"balances"`
	Listings   []goldenListing  `json:"listings"`
	Rights     []goldenRight    `json:"rights"`
	Conflicts  []goldenConflict `json:"conflicts"`
}

type goldenBalance struct {
	User    string `json:"user"`
	Balance int64  `json:"balance"`
}

type goldenListing struct {
	Title  string `json:"title"`
	Price  int64  `json:"price"`
	Qty    int    `json:"qty"`
	Sold   int    `json:"sold"`
	Active bool   `json:"active"`
}

type goldenRight struct {
	Buyer  string `json:"buyer"`
	Seller string `json:"seller"`
	Status string `json:"status"`
}

type goldenConflict struct {
	Op   string `json:"op"`
	Kind string `json:"kind"`
}

// buildGoldenDoc summarizes a result. Balances are sorted by user id;
// listings, rights, and conflicts keep their deterministic run order.
func buildGoldenDoc(name string, result *Result) goldenDoc {
	state := result.Snapshot.State

	doc := goldenDoc{
		Scenario:   name,
		VTick:      state.VTick,
		LastUpdate: result.Snapshot.LastUpdate,
		Balances:   []goldenBalance{},
		Listings:   []goldenListing{},
		Rights:     []goldenRight{},
		Conflicts:  []goldenConflict{},
	}

	for i := range state.Users {
		doc.Balances = append(doc.Balances, goldenBalance{
			User:    state.Users[i].ID,
			Balance: state.Users[i].Balance,
		})
	}
	sort.Slice(doc.Balances, func(i, j int) bool {
		return doc.Balances[i].User < doc.Balances[j].User
	})

	for i := range state.Listings {
		l := &state.Listings[i]
		doc.Listings = append(doc.Listings, goldenListing{
			Title:  l.Title,
			Price:  l.Price,
			Qty:    l.Qty,
			Sold:   l.Sold,
			Active: l.Active,
		})
	}

	for i := range state.Rights {
		r := &state.Rights[i]
		doc.Rights = append(doc.Rights, goldenRight{
			Buyer:  r.BuyerID,
			Seller: r.SellerID,
			Status: string(r.Status),
		})
	}

	for _, c := range result.Conflicts() {
		doc.Conflicts = append(doc.Conflicts, goldenConflict{
			Op:   c.OpID,
			Kind: string(c.Kind),
		})
	}

	return doc
}

// RunWithGolden executes a scenario, fails the test on any assertion
// error, and compares the final-state summary against the golden file
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}

	data, err := json.MarshalIndent(buildGoldenDoc(scenario.Name, result), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal golden doc: %w", err)
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return nil
}
