package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// JobStats contains aggregated counts of posted jobs.
type JobStats struct {
	TotalJobs          int     `json:"total_jobs"`
	OpenJobs           int     `json:"open_jobs"`
	PendingPaymentJobs int     `json:"pending_payment_jobs"`
	TodayJobs          int     `json:"today_jobs"`
	EscrowTotal        float64 `json:"escrow_total"`
	Categories         int     `json:"categories"`
}

// StatsRepository provides access to statistics data in the database.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// GetStats retrieves aggregated job statistics.
func (r *StatsRepository) GetStats(ctx context.Context) (*JobStats, error) {
	stats := &JobStats{}

	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) as total,
			COUNT(CASE WHEN status = 'OPEN' THEN 1 END) as open,
			COUNT(CASE WHEN status = 'PENDING_PAYMENT' THEN 1 END) as pending_payment,
			COUNT(CASE WHEN created_at >= CURRENT_DATE THEN 1 END) as today,
			COALESCE(SUM(required_escrow), 0)::float8 as escrow
		FROM jobs
	`).Scan(&stats.TotalJobs, &stats.OpenJobs, &stats.PendingPaymentJobs, &stats.TodayJobs, &stats.EscrowTotal)
	if err != nil {
		return nil, fmt.Errorf("get job stats: %w", err)
	}

	err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&stats.Categories)
	if err != nil {
		return nil, fmt.Errorf("get category stats: %w", err)
	}

	return stats, nil
}
