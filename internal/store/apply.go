package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/roomledger/internal/ledger"
)

// maxApplyAttempts bounds the optimistic retry loop. Contention beyond
// this is a caller problem, not something to paper over silently.
const maxApplyAttempts = 5

// ApplyFunc transforms the current snapshot into the one to persist.
// snap is nil when the room/key pair does not exist yet; returning an
// error aborts the cycle without writing.
type ApplyFunc func(snap *ledger.Snapshot) (*ledger.Snapshot, error)

// Apply runs a get/transform/put cycle under optimistic concurrency.
//
// A concurrent writer between the read and the write surfaces as
// ErrStale from Put; Apply then re-reads and re-runs fn against the
// fresh snapshot, up to maxApplyAttempts times. This is the single
// serialization point for a key: lost updates are impossible because a
// write only lands against the exact version it read.
func (s *Store) Apply(ctx context.Context, room, key string, ttl time.Duration, fn ApplyFunc) (*ledger.Snapshot, error) {
	var lastErr error
	for attempt := 1; attempt <= maxApplyAttempts; attempt++ {
		snap, version, err := s.Get(ctx, room, key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("apply: %w", err)
		}

		next, err := fn(snap)
		if err != nil {
			return nil, fmt.Errorf("apply: %w", err)
		}

		if _, err := s.Put(ctx, room, key, next, ttl, version); err != nil {
			if errors.Is(err, ErrStale) {
				lastErr = err
				slog.Debug("snapshot write lost the race, retrying",
					"room", room, "key", key, "attempt", attempt)
				continue
			}
			return nil, fmt.Errorf("apply: %w", err)
		}
		return next, nil
	}
	return nil, fmt.Errorf("apply: gave up after %d attempts: %w", maxApplyAttempts, lastErr)
}
