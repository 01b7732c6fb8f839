package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"roombot/internal/models"
)

// GetState loads a user's persisted conversation state, nil when none.
func (db *DB) GetState(ctx context.Context, userID int64) (*models.UserState, error) {
	var payload string
	err := db.QueryRowContext(ctx,
		"SELECT payload FROM user_states WHERE user_id = ?", userID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get state %d: %w", userID, err)
	}
	var state models.UserState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, fmt.Errorf("decode state %d: %w", userID, err)
	}
	return &state, nil
}

// SetState stores a user's conversation state, replacing any previous one.
func (db *DB) SetState(ctx context.Context, state *models.UserState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state %d: %w", state.UserID, err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO user_states (user_id, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		state.UserID, string(payload), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("set state %d: %w", state.UserID, err)
	}
	return nil
}

// ClearState drops a user's conversation state.
func (db *DB) ClearState(ctx context.Context, userID int64) error {
	_, err := db.ExecContext(ctx, "DELETE FROM user_states WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("clear state %d: %w", userID, err)
	}
	return nil
}
