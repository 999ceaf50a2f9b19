package repository

import (
	"context"
	"errors"
	"testing"

	"actionlink-platform/internal/model"
	"actionlink-platform/internal/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageLogRepository_CreateIsIdempotent(t *testing.T) {
	db := testdb.New(t)
	repo := NewUsageLogRepository(db)
	ctx := context.Background()

	inserted, err := repo.Create(ctx, &model.UsageLog{LinkID: "link-1", UserID: 7})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.Create(ctx, &model.UsageLog{LinkID: "link-1", UserID: 7})
	require.NoError(t, err)
	assert.False(t, inserted, "重复的 (link, user) 不应再次插入")

	inserted, err = repo.Create(ctx, &model.UsageLog{LinkID: "link-1", UserID: 8})
	require.NoError(t, err)
	assert.True(t, inserted)

	rows, err := repo.ListByLink(ctx, "link-1")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	exists, err := repo.Exists(ctx, "link-1", 7)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.Exists(ctx, "link-2", 7)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTransactor_RollsBack(t *testing.T) {
	db := testdb.New(t)
	repo := NewUsageLogRepository(db)
	tx := NewTransactor(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		inserted, err := repo.Create(ctx, &model.UsageLog{LinkID: "link-1", UserID: 1})
		require.NoError(t, err)
		require.True(t, inserted)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := repo.Exists(ctx, "link-1", 1)
	require.NoError(t, err)
	assert.False(t, exists)

	err = tx.WithTransaction(ctx, func(ctx context.Context) error {
		_, err := repo.Create(ctx, &model.UsageLog{LinkID: "link-1", UserID: 1})
		return err
	})
	require.NoError(t, err)
	exists, err = repo.Exists(ctx, "link-1", 1)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserRepository(t *testing.T) {
	db := testdb.New(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user, err := repo.EnsureUser(ctx, "system", "system@example.com", "system")
	require.NoError(t, err)
	again, err := repo.EnsureUser(ctx, "system", "system@example.com", "system")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	got, err := repo.GetByEmail(ctx, "system@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "system", got.Username)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
