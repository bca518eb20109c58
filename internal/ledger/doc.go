// Package ledger defines the domain state for a shared economy room:
// user balances, marketplace listings, escrow rights, the transaction
// ledger, and the snapshot document that persists all of it.
//
// The package is framework-free. All mutation rules live in
// the engine package; ledger only provides the entities, lookup helpers,
// and deep copying. A Snapshot is the unit of persistence: it is read
// whole, cloned, mutated by exactly one merge pass, and written whole.
package ledger
