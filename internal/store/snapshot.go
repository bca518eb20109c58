package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/roomledger/internal/ledger"
)

// Get returns the live snapshot for a room/key pair and its version.
// Expired rows are deleted lazily and reported as ErrNotFound.
func (s *Store) Get(ctx context.Context, room, key string) (*ledger.Snapshot, int64, error) {
	var (
		version   int64
		body      string
		expiresAt sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT version, body, expires_at
		FROM snapshots
		WHERE room = ? AND key = ?
	`, room, key).Scan(&version, &body, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get snapshot: %w", err)
	}

	if s.expired(expiresAt) {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM snapshots WHERE room = ? AND key = ? AND version = ?`,
			room, key, version); err != nil {
			return nil, 0, fmt.Errorf("get snapshot: purge expired: %w", err)
		}
		return nil, 0, ErrNotFound
	}

	snap, err := unmarshalSnapshot(body)
	if err != nil {
		return nil, 0, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, version, nil
}

// Put writes a snapshot under optimistic concurrency control and
// returns the new version.
//
// expectVersion 0 is create-only: it succeeds only when no live row
// exists for the pair. A non-zero expectVersion must match the stored
// version exactly; any mismatch (including a row that vanished through
// expiry) returns ErrStale so the caller re-reads and retries.
//
// ttl <= 0 stores the row without expiry.
func (s *Store) Put(ctx context.Context, room, key string, snap *ledger.Snapshot, ttl time.Duration, expectVersion int64) (int64, error) {
	body, err := marshalSnapshot(snap)
	if err != nil {
		return 0, fmt.Errorf("put snapshot: %w", err)
	}

	now := s.now()
	var expiresAt any
	if ttl > 0 {
		expiresAt = now.Add(ttl).UnixMilli()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("put snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var (
		current   int64
		rowExpiry sql.NullInt64
	)
	err = tx.QueryRowContext(ctx, `
		SELECT version, expires_at FROM snapshots WHERE room = ? AND key = ?
	`, room, key).Scan(&current, &rowExpiry)
	switch {
	case errors.Is(err, sql.ErrNoRows), err == nil && s.expired(rowExpiry):
		if expectVersion != 0 {
			return 0, ErrStale
		}
		// REPLACE also claims the key from an expired row.
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO snapshots (room, key, version, body, expires_at, updated_at)
			VALUES (?, ?, 1, ?, ?, ?)
		`, room, key, body, expiresAt, now.UnixMilli()); err != nil {
			return 0, fmt.Errorf("put snapshot: insert: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("put snapshot: commit: %w", err)
		}
		return 1, nil

	case err != nil:
		return 0, fmt.Errorf("put snapshot: read version: %w", err)
	}

	if expectVersion != current {
		return 0, ErrStale
	}

	next := current + 1
	if _, err := tx.ExecContext(ctx, `
		UPDATE snapshots
		SET version = ?, body = ?, expires_at = ?, updated_at = ?
		WHERE room = ? AND key = ? AND version = ?
	`, next, body, expiresAt, now.UnixMilli(), room, key, current); err != nil {
		return 0, fmt.Errorf("put snapshot: update: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("put snapshot: commit: %w", err)
	}
	return next, nil
}

// Delete removes a room/key pair. Deleting a missing pair is not an
// error.
func (s *Store) Delete(ctx context.Context, room, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE room = ? AND key = ?`, room, key); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// RoomInfo summarizes one room for listings.
type RoomInfo struct {
	Room        string
	Keys        int
	LastUpdated int64 // epoch millis of the newest write in the room
}

// Rooms lists all rooms holding at least one live snapshot, ordered by
// room name for deterministic output.
func (s *Store) Rooms(ctx context.Context) ([]RoomInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT room, COUNT(*), MAX(updated_at)
		FROM snapshots
		WHERE expires_at IS NULL OR expires_at > ?
		GROUP BY room
		ORDER BY room ASC
	`, s.now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var infos []RoomInfo
	for rows.Next() {
		var info RoomInfo
		if err := rows.Scan(&info.Room, &info.Keys, &info.LastUpdated); err != nil {
			return nil, fmt.Errorf("list rooms: scan: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rooms: iterate: %w", err)
	}

	if infos == nil {
		infos = []RoomInfo{}
	}
	return infos, nil
}

// expired reports whether a row expiry lies at or before the current
// clock.
func (s *Store) expired(expiresAt sql.NullInt64) bool {
	return expiresAt.Valid && expiresAt.Int64 <= s.now().UnixMilli()
}
