package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertContact(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u, err := db.UpsertContact(ctx, 10, 100, "alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int64(100), u.ChatID)
	assert.Equal(t, "alice", u.Username)
	assert.False(t, u.IsWhitelisted)

	require.NoError(t, db.SetWhitelisted(ctx, 10, true))

	// A later contact update must not clobber permission flags.
	u, err = db.UpsertContact(ctx, 10, 200, "alice2")
	require.NoError(t, err)
	assert.Equal(t, int64(200), u.ChatID)
	assert.Equal(t, "alice2", u.Username)
	assert.True(t, u.IsWhitelisted)
}

func TestGetUserByUsername(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.UpsertContact(ctx, 10, 100, "alice")
	require.NoError(t, err)

	u, err := db.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int64(10), u.UserID)

	u, err = db.GetUserByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestSetAdminImpliesWhitelist(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.UpsertContact(ctx, 10, 100, "alice")
	require.NoError(t, err)
	require.NoError(t, db.SetAdmin(ctx, 10, true))

	u, err := db.GetUser(ctx, 10)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	assert.True(t, u.IsWhitelisted)

	// Revoking admin keeps the whitelist entry.
	require.NoError(t, db.SetAdmin(ctx, 10, false))
	u, err = db.GetUser(ctx, 10)
	require.NoError(t, err)
	assert.False(t, u.IsAdmin)
	assert.True(t, u.IsWhitelisted)
}

func TestGrantFlags(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.UpsertContact(ctx, 1, 11, "known")
	require.NoError(t, err)

	require.NoError(t, db.GrantWhitelist(ctx, []int64{1, 2}))
	require.NoError(t, db.GrantAdmins(ctx, []int64{3}))

	users, err := db.ListWhitelisted(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, int64(1), users[0].UserID)
	assert.Equal(t, "known", users[0].Username)
	assert.Equal(t, int64(2), users[1].UserID)
	assert.True(t, users[2].IsAdmin)
}
