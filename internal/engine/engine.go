package engine

import (
	"time"
)

// Default retention windows for the pruner.
const (
	// DefaultOpRetention bounds the processed-op and conflict logs.
	// Operations replayed after this window are no longer deduplicated.
	DefaultOpRetention = time.Hour
	// DefaultNotificationRetention bounds ephemeral notifications.
	DefaultNotificationRetention = 60 * time.Second
)

// Engine applies operation batches to snapshots.
//
// The engine itself is stateless between Merge calls; everything durable
// lives in the snapshot. The injected clock, id generator, and roller
// exist so tests can run fully deterministically.
//
// INVARIANTS:
//   - Merge never mutates its input snapshot (clone-then-mutate)
//   - vTick increments exactly once per successful mutating operation
//   - every non-duplicate operation lands in the processed-op log,
//     whether it succeeded or conflicted
type Engine struct {
	now            func() time.Time
	idGen          IDGenerator
	roller         Roller
	opRetention    time.Duration
	notifRetention time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithNow replaces the wall clock. Retention pruning and lastUpdate use
// this clock, never the client-supplied operation timestamps.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator replaces the id generator for created entities
// (transactions, rights, notifications, registered users).
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.idGen = g
	}
}

// WithRoller replaces the roulette randomness source.
func WithRoller(r Roller) Option {
	return func(e *Engine) {
		e.roller = r
	}
}

// WithRetention overrides both pruner windows.
func WithRetention(ops, notifications time.Duration) Option {
	return func(e *Engine) {
		e.opRetention = ops
		e.notifRetention = notifications
	}
}

// New creates an Engine with production defaults: wall clock, UUIDv7
// ids, crypto randomness, 1h operation retention, 60s notification TTL.
func New(opts ...Option) *Engine {
	e := &Engine{
		now:            time.Now,
		idGen:          UUIDv7Generator{},
		roller:         CryptoRoller{},
		opRetention:    DefaultOpRetention,
		notifRetention: DefaultNotificationRetention,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
