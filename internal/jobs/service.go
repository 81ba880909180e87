// Package jobs persists confirmed job requests and reserves their escrow.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blockedby/jobpost/internal/logger"
	"github.com/blockedby/jobpost/internal/models"
	"github.com/blockedby/jobpost/internal/pricing"
	"github.com/blockedby/jobpost/internal/repository"
)

// errors
var (
	ErrInvalidPayload     = errors.New("invalid job request")
	ErrNotAwaitingPayment = errors.New("job is not awaiting payment")
)

// Store persists jobs.
type Store interface {
	Create(ctx context.Context, p models.JobPayload, status models.JobStatus) (int64, error)
	GetByID(ctx context.Context, id int64) (*repository.Job, error)
	UpdateStatus(ctx context.Context, id int64, status models.JobStatus) error
}

// Wallet holds escrow.
type Wallet interface {
	Reserve(ctx context.Context, userID string, amount float64) error
	Release(ctx context.Context, userID string, amount float64) error
	Credit(ctx context.Context, userID string, amount float64) error
}

// Publisher announces created jobs.
type Publisher interface {
	PublishJobCreated(ctx context.Context, event models.JobCreatedEvent) error
}

// Service creates jobs. When the wallet covers the escrow it is reserved and
// the job is OPEN; otherwise the job waits in PENDING_PAYMENT with an invoice.
type Service struct {
	store          Store
	wallet         Wallet
	publisher      Publisher
	paymentBaseURL string
	log            *logger.Logger
	now            func() time.Time

	// serialises invoice settlement so a job is opened once
	settleMu sync.Mutex
}

// NewService creates a job service. publisher may be nil.
func NewService(store Store, wallet Wallet, publisher Publisher, paymentBaseURL string, log *logger.Logger) *Service {
	return &Service{
		store:          store,
		wallet:         wallet,
		publisher:      publisher,
		paymentBaseURL: strings.TrimRight(paymentBaseURL, "/"),
		log:            logger.OrGlobal(log).Component("jobs"),
		now:            time.Now,
	}
}

// CreateJob persists p. The escrow is recomputed from the payload's money
// fields and overrides the client supplied value.
func (s *Service) CreateJob(ctx context.Context, p models.JobPayload) (*models.CreateJobResponse, error) {
	if err := check(p); err != nil {
		return nil, err
	}

	escrow := pricing.Round2(requiredEscrow(p))
	if escrow <= 0 {
		return nil, fmt.Errorf("%w: nothing to hold in escrow", ErrInvalidPayload)
	}
	if math.Abs(escrow-p.RequiredEscrow) > 0.005 {
		s.log.Warn().
			Float64("client_escrow", p.RequiredEscrow).
			Float64("escrow", escrow).
			Msg("client escrow differs from computed value")
	}
	p.RequiredEscrow = escrow

	status := models.JobStatusOpen
	err := s.wallet.Reserve(ctx, p.ClientID, escrow)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrInsufficientFunds):
		status = models.JobStatusPendingPayment
	default:
		return nil, fmt.Errorf("reserve escrow: %w", err)
	}
	reserved := status == models.JobStatusOpen

	id, err := s.store.Create(ctx, p, status)
	if err != nil {
		if reserved {
			if relErr := s.wallet.Release(context.WithoutCancel(ctx), p.ClientID, escrow); relErr != nil {
				s.log.Error().Err(relErr).Str("client_id", p.ClientID).Float64("escrow", escrow).
					Msg("failed to release escrow after insert failure")
			}
		}
		return nil, fmt.Errorf("save job: %w", err)
	}

	s.log.Info().
		Int64("job_id", id).
		Str("client_id", p.ClientID).
		Str("status", string(status)).
		Float64("escrow", escrow).
		Msg("job created")

	s.publish(ctx, id, p, status)

	resp := &models.CreateJobResponse{JobID: strconv.FormatInt(id, 10)}
	if status == models.JobStatusPendingPayment {
		resp.RequiresPayment = true
		resp.InvoiceURL = fmt.Sprintf("%s/invoices/%d", s.paymentBaseURL, id)
		resp.Message = "Job request saved. Complete the payment to publish it."
	} else {
		resp.Message = "Job request posted"
	}
	return resp, nil
}

// Get returns a created job.
func (s *Service) Get(ctx context.Context, id int64) (*repository.Job, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", id, err)
	}
	return job, nil
}

// SettleInvoice records a paid invoice for a PENDING_PAYMENT job. The paid
// amount is credited to the client's wallet, then the escrow is reserved and
// the job opened. If the wallet still cannot cover the escrow the credit is
// kept and the job stays pending.
func (s *Service) SettleInvoice(ctx context.Context, id int64, paid float64) (*repository.Job, error) {
	s.settleMu.Lock()
	defer s.settleMu.Unlock()

	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", id, err)
	}
	if job.Status != models.JobStatusPendingPayment {
		return nil, fmt.Errorf("%w: job %d is %s", ErrNotAwaitingPayment, id, job.Status)
	}

	client, escrow := job.Payload.ClientID, job.Payload.RequiredEscrow
	if err := s.wallet.Credit(ctx, client, paid); err != nil {
		return nil, fmt.Errorf("credit wallet: %w", err)
	}
	if err := s.wallet.Reserve(ctx, client, escrow); err != nil {
		return nil, fmt.Errorf("reserve escrow: %w", err)
	}
	if err := s.store.UpdateStatus(ctx, id, models.JobStatusOpen); err != nil {
		if relErr := s.wallet.Release(context.WithoutCancel(ctx), client, escrow); relErr != nil {
			s.log.Error().Err(relErr).Int64("job_id", id).Float64("escrow", escrow).
				Msg("failed to release escrow after status update failure")
		}
		return nil, fmt.Errorf("open job: %w", err)
	}

	s.log.Info().Int64("job_id", id).Float64("paid", paid).Float64("escrow", escrow).Msg("invoice settled, job opened")
	job.Status = models.JobStatusOpen
	return job, nil
}

func (s *Service) publish(ctx context.Context, id int64, p models.JobPayload, status models.JobStatus) {
	if s.publisher == nil {
		return
	}
	event := models.JobCreatedEvent{
		EventID:        uuid.New(),
		JobID:          id,
		ClientID:       p.ClientID,
		CategoryID:     p.CategoryID,
		Status:         status,
		PaymentModel:   p.PaymentModel,
		Budget:         p.Budget,
		RequiredEscrow: p.RequiredEscrow,
		WorkerID:       p.WorkerID,
		AgencyID:       p.AgencyID,
		CreatedAt:      s.now(),
	}
	// the job is saved; a lost event is not a failed request
	if err := s.publisher.PublishJobCreated(ctx, event); err != nil {
		s.log.Warn().Err(err).Int64("job_id", id).Msg("failed to publish job created event")
	}
}

func requiredEscrow(p models.JobPayload) float64 {
	budget := p.Budget
	return pricing.ComputeRequiredEscrow(p.PaymentModel, &budget, p.DailyRate, p.DurationDays)
}

func check(p models.JobPayload) error {
	switch {
	case strings.TrimSpace(p.ClientID) == "":
		return fmt.Errorf("%w: client_id is required", ErrInvalidPayload)
	case p.PaymentMethod != models.PaymentMethodWalletEscrow:
		return fmt.Errorf("%w: unsupported payment method %q", ErrInvalidPayload, p.PaymentMethod)
	case !p.PaymentModel.IsValid():
		return fmt.Errorf("%w: unsupported payment model %q", ErrInvalidPayload, p.PaymentModel)
	case len(p.SkillSlots) == 0:
		return fmt.Errorf("%w: at least one skill slot is required", ErrInvalidPayload)
	case p.CategoryID != p.SkillSlots[0].SpecializationID:
		return fmt.Errorf("%w: category must match the first skill slot", ErrInvalidPayload)
	case strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Description) == "":
		return fmt.Errorf("%w: title and description are required", ErrInvalidPayload)
	}
	return nil
}
