package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SessionStorage is a per-session key/value table. It plays the part of the
// browser's local storage for an authoring session: each session owns its
// keys and nothing is shared across sessions.
type SessionStorage struct {
	db *sql.DB
}

func NewSessionStorage(db *sql.DB) *SessionStorage {
	return &SessionStorage{db: db}
}

// Get returns the stored value and whether the key exists.
func (s *SessionStorage) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM session_storage WHERE session_id = ? AND key = ?`,
		sessionID, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get session value: %w", err)
	}
	return value, true, nil
}

// Set overwrites the value stored under key.
func (s *SessionStorage) Set(ctx context.Context, sessionID, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_storage (session_id, key, value, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (session_id, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		sessionID, key, value,
	)
	if err != nil {
		return fmt.Errorf("set session value: %w", err)
	}
	return nil
}

func (s *SessionStorage) Delete(ctx context.Context, sessionID, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM session_storage WHERE session_id = ? AND key = ?`,
		sessionID, key,
	)
	if err != nil {
		return fmt.Errorf("delete session value: %w", err)
	}
	return nil
}

// Move hands every key owned by from over to the session to. Keys already
// present under to are replaced.
func (s *SessionStorage) Move(ctx context.Context, from, to string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin move session: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM session_storage WHERE session_id = ? AND key IN (SELECT key FROM session_storage WHERE session_id = ?)`,
		to, from,
	); err != nil {
		return fmt.Errorf("clear target session: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE session_storage SET session_id = ?, updated_at = CURRENT_TIMESTAMP WHERE session_id = ?`,
		to, from,
	); err != nil {
		return fmt.Errorf("move session: %w", err)
	}
	return tx.Commit()
}

// DeleteSession removes every key owned by the session.
func (s *SessionStorage) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_storage WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeIdle removes values that have not been written for longer than ttl and
// returns how many were removed.
func (s *SessionStorage) PurgeIdle(ctx context.Context, ttl time.Duration) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM session_storage WHERE updated_at < datetime('now', ?)`,
		fmt.Sprintf("-%d seconds", int64(ttl.Seconds())),
	)
	if err != nil {
		return 0, fmt.Errorf("purge idle session values: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
