package state

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roombot/internal/models"
)

func newTestRedis(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisRepository(client, time.Hour), mr
}

func TestRedisStateRoundTrip(t *testing.T) {
	repo, mr := newTestRedis(t)
	ctx := context.Background()

	got, err := repo.GetState(ctx, 10)
	require.NoError(t, err)
	assert.Nil(t, got)

	state := &models.UserState{
		UserID:   10,
		Flow:     models.FlowUnbook,
		Calendar: &models.Calendar{Year: 2030, Month: 7},
		Unbook:   &models.UnbookDraft{Date: "2030-07-15"},
	}
	require.NoError(t, repo.SetState(ctx, state))

	got, err = repo.GetState(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.FlowUnbook, got.Flow)
	require.NotNil(t, got.Unbook)
	assert.Equal(t, "2030-07-15", got.Unbook.Date)

	assert.Greater(t, mr.TTL("state:10"), time.Duration(0))

	require.NoError(t, repo.ClearState(ctx, 10))
	got, err = repo.GetState(ctx, 10)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStateExpiry(t *testing.T) {
	repo, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, repo.SetState(ctx, &models.UserState{UserID: 11, Flow: models.FlowBook}))
	mr.FastForward(2 * time.Hour)

	got, err := repo.GetState(ctx, 11)
	require.NoError(t, err)
	assert.Nil(t, got)
}
