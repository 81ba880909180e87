package main

import (
	"context"
	"time"

	"github.com/blockedby/jobpost/internal/composer"
	"github.com/blockedby/jobpost/internal/models"
	"github.com/blockedby/jobpost/internal/suggestion"
)

// timeoutFetcher bounds each suggestion query.
type timeoutFetcher struct {
	next    suggestion.Fetcher
	timeout time.Duration
}

func (f timeoutFetcher) FetchSuggestions(ctx context.Context, req models.SuggestionRequest) (*models.SuggestionResult, error) {
	ctx, cancel := withTimeout(ctx, f.timeout)
	defer cancel()
	return f.next.FetchSuggestions(ctx, req)
}

// timeoutWallets bounds each wallet read.
type timeoutWallets struct {
	next    composer.WalletReader
	timeout time.Duration
}

func (w timeoutWallets) GetWalletBalance(ctx context.Context, userID string) (models.WalletBalance, error) {
	ctx, cancel := withTimeout(ctx, w.timeout)
	defer cancel()
	return w.next.GetWalletBalance(ctx, userID)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
