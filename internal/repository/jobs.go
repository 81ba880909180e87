package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blockedby/jobpost/internal/models"
)

// ErrJobNotFound is returned when a job id does not exist.
var ErrJobNotFound = errors.New("job not found")

// Job is a persisted job request.
type Job struct {
	ID        int64
	Payload   models.JobPayload
	Status    models.JobStatus
	CreatedAt time.Time
}

// JobsRepository handles jobs table operations
type JobsRepository struct {
	pool *pgxpool.Pool
}

// NewJobsRepository creates a new jobs repository
func NewJobsRepository(pool *pgxpool.Pool) *JobsRepository {
	return &JobsRepository{pool: pool}
}

// Create inserts the job with its skill slots and materials in one
// transaction and returns the new id.
func (r *JobsRepository) Create(ctx context.Context, p models.JobPayload, status models.JobStatus) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO jobs (client_id, title, description, category_id, budget,
		                  street, barangay, expected_duration, urgency, preferred_start_date,
		                  payment_method, payment_model, daily_rate, duration_days, required_escrow,
		                  skill_level, job_scope, work_environment, worker_id, agency_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10::text, '')::date, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id
	`, p.ClientID, p.Title, p.Description, p.CategoryID, p.Budget,
		p.Street, p.Barangay, p.ExpectedDuration, nullIfEmpty(string(p.Urgency)), p.PreferredStartDate,
		p.PaymentMethod, string(p.PaymentModel), p.DailyRate, p.DurationDays, p.RequiredEscrow,
		nullIfEmpty(string(p.SkillLevel)), nullIfEmpty(string(p.JobScope)), nullIfEmpty(string(p.WorkEnvironment)),
		nullIfEmpty(p.WorkerID), nullIfEmpty(p.AgencyID), string(status),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert job: %w", err)
	}

	for i, s := range p.SkillSlots {
		_, err = tx.Exec(ctx, `
			INSERT INTO job_skill_slots (job_id, position, specialization_id, workers_needed, skill_level)
			VALUES ($1, $2, $3, $4, $5)
		`, id, i, s.SpecializationID, s.WorkersNeeded, string(s.SkillLevel))
		if err != nil {
			return 0, fmt.Errorf("insert skill slot %d: %w", i, err)
		}
	}

	for _, m := range p.Materials {
		_, err = tx.Exec(ctx, `
			INSERT INTO job_materials (job_id, name) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, id, m)
		if err != nil {
			return 0, fmt.Errorf("insert material: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit job: %w", err)
	}
	return id, nil
}

// GetByID returns a job with its skill slots and materials
func (r *JobsRepository) GetByID(ctx context.Context, id int64) (*Job, error) {
	var j Job
	var urgency, startDate, skill, scope, env, workerID, agencyID *string
	var status, model string

	err := r.pool.QueryRow(ctx, `
		SELECT id, client_id, title, description, category_id, budget,
		       street, barangay, expected_duration, urgency, to_char(preferred_start_date, 'YYYY-MM-DD'),
		       payment_method, payment_model, daily_rate, duration_days, required_escrow,
		       skill_level, job_scope, work_environment, worker_id, agency_id, status, created_at
		FROM jobs
		WHERE id = $1
	`, id).Scan(
		&j.ID, &j.Payload.ClientID, &j.Payload.Title, &j.Payload.Description, &j.Payload.CategoryID, &j.Payload.Budget,
		&j.Payload.Street, &j.Payload.Barangay, &j.Payload.ExpectedDuration, &urgency, &startDate,
		&j.Payload.PaymentMethod, &model, &j.Payload.DailyRate, &j.Payload.DurationDays, &j.Payload.RequiredEscrow,
		&skill, &scope, &env, &workerID, &agencyID, &status, &j.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}

	j.Status = models.JobStatus(status)
	j.Payload.PaymentModel = models.PaymentModel(model)
	j.Payload.Urgency = models.Urgency(deref(urgency))
	j.Payload.PreferredStartDate = deref(startDate)
	j.Payload.SkillLevel = models.SkillLevel(deref(skill))
	j.Payload.JobScope = models.JobScope(deref(scope))
	j.Payload.WorkEnvironment = models.WorkEnvironment(deref(env))
	j.Payload.WorkerID = deref(workerID)
	j.Payload.AgencyID = deref(agencyID)

	rows, err := r.pool.Query(ctx, `
		SELECT specialization_id, workers_needed, skill_level
		FROM job_skill_slots WHERE job_id = $1 ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get skill slots: %w", err)
	}
	j.Payload.SkillSlots, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PayloadSlot, error) {
		var s models.PayloadSlot
		var level string
		err := row.Scan(&s.SpecializationID, &s.WorkersNeeded, &level)
		s.SkillLevel = models.SkillLevel(level)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan skill slots: %w", err)
	}

	rows, err = r.pool.Query(ctx, `SELECT name FROM job_materials WHERE job_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("get materials: %w", err)
	}
	j.Payload.Materials, err = pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan materials: %w", err)
	}

	return &j, nil
}

// UpdateStatus sets the status of a job
func (r *JobsRepository) UpdateStatus(ctx context.Context, id int64, status models.JobStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
