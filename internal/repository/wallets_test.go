package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/blockedby/jobpost/internal/models"
)

func setupWallets(t *testing.T) *WalletsRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&Wallet{}))
	return NewWalletsRepository(db)
}

func TestWalletsRepository_UnknownUserHasEmptyBalance(t *testing.T) {
	repo := setupWallets(t)

	bal, err := repo.GetWalletBalance(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, models.WalletBalance{}, bal)
}

func TestWalletsRepository_CreditReserveRelease(t *testing.T) {
	repo := setupWallets(t)
	ctx := context.Background()

	require.NoError(t, repo.Credit(ctx, "client-1", 5000))
	require.NoError(t, repo.Credit(ctx, "client-1", 1000))

	bal, err := repo.GetWalletBalance(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, models.WalletBalance{Available: 6000}, bal)

	require.NoError(t, repo.Reserve(ctx, "client-1", 4200))
	bal, err = repo.GetWalletBalance(ctx, "client-1")
	require.NoError(t, err)
	assert.InDelta(t, 1800, bal.Available, 1e-9)
	assert.InDelta(t, 4200, bal.Reserved, 1e-9)

	assert.ErrorIs(t, repo.Reserve(ctx, "client-1", 1800.01), ErrInsufficientFunds)
	assert.ErrorIs(t, repo.Reserve(ctx, "nobody", 1), ErrInsufficientFunds)

	require.NoError(t, repo.Release(ctx, "client-1", 4200))
	assert.ErrorIs(t, repo.Release(ctx, "client-1", 1), ErrNothingReserved)

	bal, err = repo.GetWalletBalance(ctx, "client-1")
	require.NoError(t, err)
	assert.InDelta(t, 6000, bal.Available, 1e-9)
	assert.InDelta(t, 0, bal.Reserved, 1e-9)
}

func TestWalletsRepository_RejectsNonPositiveAmounts(t *testing.T) {
	repo := setupWallets(t)
	ctx := context.Background()

	assert.ErrorIs(t, repo.Credit(ctx, "u", 0), ErrInvalidAmount)
	assert.ErrorIs(t, repo.Reserve(ctx, "u", -5), ErrInvalidAmount)
	assert.ErrorIs(t, repo.Release(ctx, "u", 0), ErrInvalidAmount)
}
