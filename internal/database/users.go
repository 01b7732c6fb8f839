package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"roombot/internal/models"
)

// UpsertContact records a user's latest transport coordinates. Chat ID and
// username are last-write-wins on every interaction; permission flags are
// never touched here. Returns the stored record.
func (db *DB) UpsertContact(ctx context.Context, userID, chatID int64, username string) (*models.User, error) {
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (user_id, chat_id, username)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			chat_id = excluded.chat_id,
			username = excluded.username,
			updated_at = ?`,
		userID, chatID, username, time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user %d: %w", userID, err)
	}
	return db.GetUser(ctx, userID)
}

// GetUser returns a user by ID, nil when unknown.
func (db *DB) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return db.getUserWhere(ctx, "user_id = ?", userID)
}

// GetUserByUsername returns a user by display handle, nil when unknown.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return db.getUserWhere(ctx, "username = ?", username)
}

func (db *DB) getUserWhere(ctx context.Context, cond string, arg interface{}) (*models.User, error) {
	var u models.User
	var chatID sql.NullInt64
	var username sql.NullString
	err := db.QueryRowContext(ctx,
		"SELECT user_id, chat_id, username, is_admin, is_whitelisted FROM users WHERE "+cond,
		arg,
	).Scan(&u.UserID, &chatID, &username, &u.IsAdmin, &u.IsWhitelisted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.ChatID = chatID.Int64
	u.Username = username.String
	return &u, nil
}

// SetWhitelisted flips the whitelist flag for a user.
func (db *DB) SetWhitelisted(ctx context.Context, userID int64, whitelisted bool) error {
	_, err := db.ExecContext(ctx,
		"UPDATE users SET is_whitelisted = ?, updated_at = ? WHERE user_id = ?",
		whitelisted, time.Now(), userID,
	)
	return err
}

// SetAdmin flips the admin flag for a user. Granting admin also whitelists.
func (db *DB) SetAdmin(ctx context.Context, userID int64, admin bool) error {
	if admin {
		_, err := db.ExecContext(ctx,
			"UPDATE users SET is_admin = 1, is_whitelisted = 1, updated_at = ? WHERE user_id = ?",
			time.Now(), userID,
		)
		return err
	}
	_, err := db.ExecContext(ctx,
		"UPDATE users SET is_admin = 0, updated_at = ? WHERE user_id = ?",
		time.Now(), userID,
	)
	return err
}

// ListWhitelisted returns all whitelisted users ordered by ID.
func (db *DB) ListWhitelisted(ctx context.Context) ([]models.User, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT user_id, chat_id, username, is_admin, is_whitelisted
		FROM users WHERE is_whitelisted = 1 ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list whitelist: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var chatID sql.NullInt64
		var username sql.NullString
		if err := rows.Scan(&u.UserID, &chatID, &username, &u.IsAdmin, &u.IsWhitelisted); err != nil {
			return nil, err
		}
		u.ChatID = chatID.Int64
		u.Username = username.String
		users = append(users, u)
	}
	return users, rows.Err()
}

// GrantAdmins marks every listed ID admin and whitelisted inside one
// transaction, creating missing user rows. One-time import path for flat
// admin lists.
func (db *DB) GrantAdmins(ctx context.Context, userIDs []int64) error {
	return db.grantFlags(ctx, userIDs, true)
}

// GrantWhitelist marks every listed ID whitelisted inside one transaction,
// creating missing user rows.
func (db *DB) GrantWhitelist(ctx context.Context, userIDs []int64) error {
	return db.grantFlags(ctx, userIDs, false)
}

func (db *DB) grantFlags(ctx context.Context, userIDs []int64, admin bool) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin grant tx: %w", err)
	}
	defer tx.Rollback()

	for _, id := range userIDs {
		var err error
		if admin {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO users (user_id, is_admin, is_whitelisted)
				VALUES (?, 1, 1)
				ON CONFLICT(user_id) DO UPDATE SET
					is_admin = 1, is_whitelisted = 1, updated_at = ?`,
				id, time.Now())
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO users (user_id, is_whitelisted)
				VALUES (?, 1)
				ON CONFLICT(user_id) DO UPDATE SET
					is_whitelisted = 1, updated_at = ?`,
				id, time.Now())
		}
		if err != nil {
			return fmt.Errorf("grant flags for %d: %w", id, err)
		}
	}
	return tx.Commit()
}
