package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"roombot/internal/models"
)

// RedisRepository keeps state in redis under state:<user_id> with a TTL so
// abandoned dialogs expire on their own.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRepository(client *redis.Client, ttl time.Duration) *RedisRepository {
	return &RedisRepository{client: client, ttl: ttl}
}

func stateKey(userID int64) string {
	return fmt.Sprintf("state:%d", userID)
}

func (r *RedisRepository) GetState(ctx context.Context, userID int64) (*models.UserState, error) {
	payload, err := r.client.Get(ctx, stateKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get state %d: %w", userID, err)
	}
	var state models.UserState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("decode state %d: %w", userID, err)
	}
	return &state, nil
}

func (r *RedisRepository) SetState(ctx context.Context, state *models.UserState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state %d: %w", state.UserID, err)
	}
	if err := r.client.Set(ctx, stateKey(state.UserID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set state %d: %w", state.UserID, err)
	}
	return nil
}

func (r *RedisRepository) ClearState(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, stateKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis clear state %d: %w", userID, err)
	}
	return nil
}
