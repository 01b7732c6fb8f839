package state

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"roombot/internal/models"
)

// retryInterval is how long the primary stays benched after a failure
// before reads probe it again.
const retryInterval = time.Minute

// FailoverRepository serves state from a primary repository and falls back
// to a secondary when the primary errors. Successful writes are mirrored to
// the fallback so a switchover does not lose a dialog in progress.
type FailoverRepository struct {
	primary  Repository
	fallback Repository
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverRepository(primary, fallback Repository, logger *zerolog.Logger) *FailoverRepository {
	return &FailoverRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverRepository) GetState(ctx context.Context, userID int64) (*models.UserState, error) {
	if r.shouldTryPrimary() {
		state, err := r.primary.GetState(ctx, userID)
		if err == nil {
			r.markUp()
			return state, nil
		}
		r.markDown(err)
	}
	return r.fallback.GetState(ctx, userID)
}

func (r *FailoverRepository) SetState(ctx context.Context, state *models.UserState) error {
	if r.shouldTryPrimary() {
		if err := r.primary.SetState(ctx, state); err != nil {
			r.markDown(err)
			return r.fallback.SetState(ctx, state)
		}
		r.markUp()
		r.mirror(ctx, func(ctx context.Context) error {
			return r.fallback.SetState(ctx, state)
		})
		return nil
	}
	return r.fallback.SetState(ctx, state)
}

func (r *FailoverRepository) ClearState(ctx context.Context, userID int64) error {
	if r.shouldTryPrimary() {
		if err := r.primary.ClearState(ctx, userID); err != nil {
			r.markDown(err)
			return r.fallback.ClearState(ctx, userID)
		}
		r.markUp()
		r.mirror(ctx, func(ctx context.Context) error {
			return r.fallback.ClearState(ctx, userID)
		})
		return nil
	}
	return r.fallback.ClearState(ctx, userID)
}

func (r *FailoverRepository) mirror(ctx context.Context, op func(context.Context) error) {
	if err := op(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("mirror write to fallback state repository failed")
	}
}

func (r *FailoverRepository) shouldTryPrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) < retryInterval {
		return false
	}
	r.lastCheck = time.Now()
	return true
}

func (r *FailoverRepository) markDown(err error) {
	if r.isDown.CompareAndSwap(false, true) {
		r.logger.Warn().Err(err).Msg("primary state repository down, switching to fallback")
	}
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

func (r *FailoverRepository) markUp() {
	if r.isDown.CompareAndSwap(true, false) {
		r.logger.Info().Msg("primary state repository recovered")
	}
}
