// Package state persists per-user conversation state behind a small
// repository interface with a redis primary and a sqlite fallback.
package state

import (
	"context"

	"roombot/internal/models"
)

// Repository stores conversation state keyed by user ID. GetState returns
// nil without error when the user has no saved state.
type Repository interface {
	GetState(ctx context.Context, userID int64) (*models.UserState, error)
	SetState(ctx context.Context, state *models.UserState) error
	ClearState(ctx context.Context, userID int64) error
}
