package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/blockedby/jobpost/internal/models"
)

// errors
var (
	ErrInsufficientFunds = errors.New("insufficient available balance")
	ErrNothingReserved   = errors.New("reserved balance is lower than the release amount")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// Wallet is a client's balance row.
type Wallet struct {
	UserID    string  `gorm:"primaryKey;column:user_id"`
	Available float64 `gorm:"not null;default:0"`
	Reserved  float64 `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// TableName pins the table name.
func (Wallet) TableName() string { return "wallets" }

// WalletsRepository reads and moves wallet balances.
type WalletsRepository struct {
	db *gorm.DB
}

// NewWalletsRepository creates a new wallets repository
func NewWalletsRepository(db *gorm.DB) *WalletsRepository {
	return &WalletsRepository{db: db}
}

// GetWalletBalance returns the balance of userID. A user without a wallet
// row has an empty balance.
func (r *WalletsRepository) GetWalletBalance(ctx context.Context, userID string) (models.WalletBalance, error) {
	var w Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.WalletBalance{}, nil
		}
		return models.WalletBalance{}, fmt.Errorf("get wallet: %w", err)
	}
	return models.WalletBalance{Available: w.Available, Reserved: w.Reserved}, nil
}

// Reserve moves amount from available to reserved. The balance check and
// the move are one conditional update.
func (r *WalletsRepository) Reserve(ctx context.Context, userID string, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	res := r.db.WithContext(ctx).Model(&Wallet{}).
		Where("user_id = ? AND available >= ?", userID, amount).
		Updates(map[string]interface{}{
			"available": gorm.Expr("available - ?", amount),
			"reserved":  gorm.Expr("reserved + ?", amount),
		})
	if res.Error != nil {
		return fmt.Errorf("reserve escrow: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// Release moves amount from reserved back to available.
func (r *WalletsRepository) Release(ctx context.Context, userID string, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	res := r.db.WithContext(ctx).Model(&Wallet{}).
		Where("user_id = ? AND reserved >= ?", userID, amount).
		Updates(map[string]interface{}{
			"available": gorm.Expr("available + ?", amount),
			"reserved":  gorm.Expr("reserved - ?", amount),
		})
	if res.Error != nil {
		return fmt.Errorf("release escrow: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNothingReserved
	}
	return nil
}

// Credit adds amount to the available balance, creating the wallet if needed.
func (r *WalletsRepository) Credit(ctx context.Context, userID string, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w := Wallet{UserID: userID}
		if err := tx.Where(Wallet{UserID: userID}).FirstOrCreate(&w).Error; err != nil {
			return fmt.Errorf("open wallet: %w", err)
		}
		err := tx.Model(&Wallet{}).Where("user_id = ?", userID).
			Update("available", gorm.Expr("available + ?", amount)).Error
		if err != nil {
			return fmt.Errorf("credit wallet: %w", err)
		}
		return nil
	})
}
