package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/sidekick/internal/flow"
)

// SQLiteFlowStore keeps one active flow per session in the active_flows
// table. Rows idle for longer than the TTL are ignored and purged.
type SQLiteFlowStore struct {
	db  *DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLiteFlowStore creates a flow store. ttl <= 0 keeps flows until
// deleted.
func NewSQLiteFlowStore(db *DB, ttl time.Duration) *SQLiteFlowStore {
	return &SQLiteFlowStore{db: db, ttl: ttl, now: time.Now}
}

func (s *SQLiteFlowStore) Load(ctx context.Context, key string) (flow.Snapshot, bool, error) {
	var (
		snap      flow.Snapshot
		collected string
		expiresAt int64
	)
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT action, step_index, collected, expires_at FROM active_flows WHERE session_key = ?`, key,
	).Scan(&snap.Action, &snap.StepIndex, &collected, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return flow.Snapshot{}, false, nil
	}
	if err != nil {
		return flow.Snapshot{}, false, fmt.Errorf("loading flow %s: %w", key, err)
	}

	if expiresAt > 0 && s.now().Unix() >= expiresAt {
		if err := s.Delete(ctx, key); err != nil {
			return flow.Snapshot{}, false, err
		}
		return flow.Snapshot{}, false, nil
	}

	if err := json.Unmarshal([]byte(collected), &snap.Collected); err != nil {
		return flow.Snapshot{}, false, fmt.Errorf("decoding flow %s: %w", key, err)
	}
	return snap, true, nil
}

func (s *SQLiteFlowStore) Save(ctx context.Context, key string, snap flow.Snapshot) error {
	collected, err := json.Marshal(snap.Collected)
	if err != nil {
		return fmt.Errorf("encoding flow %s: %w", key, err)
	}
	if snap.Collected == nil {
		collected = []byte("{}")
	}

	now := s.now()
	var expiresAt int64
	if s.ttl > 0 {
		expiresAt = now.Add(s.ttl).Unix()
	}

	_, err = s.db.sql.ExecContext(ctx,
		`INSERT INTO active_flows (session_key, action, step_index, collected, updated_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (session_key) DO UPDATE SET
			action = excluded.action,
			step_index = excluded.step_index,
			collected = excluded.collected,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at`,
		key, snap.Action, snap.StepIndex, string(collected), now.UTC().Format(time.DateTime), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("saving flow %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteFlowStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.sql.ExecContext(ctx, `DELETE FROM active_flows WHERE session_key = ?`, key); err != nil {
		return fmt.Errorf("deleting flow %s: %w", key, err)
	}
	return nil
}

// Purge deletes expired flows and returns how many were removed.
func (s *SQLiteFlowStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.sql.ExecContext(ctx,
		`DELETE FROM active_flows WHERE expires_at > 0 AND expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purging flows: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.db.log.Debug().Int64("count", n).Msg("expired flows purged")
	}
	return n, nil
}

// Count returns the number of stored flows, expired or not.
func (s *SQLiteFlowStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM active_flows`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting flows: %w", err)
	}
	return n, nil
}
