package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/blockedby/jobpost/internal/composer"
	"github.com/blockedby/jobpost/internal/models"
	"github.com/blockedby/jobpost/internal/repository"
)

// DraftManager owns the open draft sessions.
type DraftManager interface {
	Create(owner composer.Owner) *composer.Session
	Get(id uuid.UUID) (*composer.Session, error)
	Close(id uuid.UUID) error
}

// CategoryLookup lists the selectable specializations.
type CategoryLookup interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// JobService reads created jobs and settles their invoices.
type JobService interface {
	Get(ctx context.Context, id int64) (*repository.Job, error)
	SettleInvoice(ctx context.Context, id int64, paid float64) (*repository.Job, error)
}

// StatsRepository defines the interface for stats data access.
type StatsRepository interface {
	GetStats(ctx context.Context) (*repository.JobStats, error)
}

// HubBroadcaster defines the interface for WebSocket broadcasting.
type HubBroadcaster interface {
	Broadcast(message interface{})
}
