package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethodWalletEscrow is the only payment method for job requests.
const PaymentMethodWalletEscrow = "wallet_escrow"

// JobStatus is the persisted status of a created job.
type JobStatus string

// JobStatus constants.
const (
	JobStatusOpen           JobStatus = "OPEN"
	JobStatusPendingPayment JobStatus = "PENDING_PAYMENT"
)

// PayloadSlot is a skill slot as sent to the job creation endpoint.
type PayloadSlot struct {
	SpecializationID int        `json:"specialization_id"`
	WorkersNeeded    int        `json:"workers_needed"`
	SkillLevel       SkillLevel `json:"skill_level"`
}

// JobPayload is the final job creation request.
type JobPayload struct {
	ClientID           string          `json:"client_id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	CategoryID         int             `json:"category_id"`
	Budget             float64         `json:"budget"`
	Street             string          `json:"street"`
	Barangay           string          `json:"barangay"`
	ExpectedDuration   string          `json:"expected_duration,omitempty"`
	Urgency            Urgency         `json:"urgency,omitempty"`
	PreferredStartDate string          `json:"preferred_start_date,omitempty"`
	PaymentMethod      string          `json:"payment_method"`
	PaymentModel       PaymentModel    `json:"payment_model"`
	DailyRate          *float64        `json:"daily_rate,omitempty"`
	DurationDays       *int            `json:"duration_days,omitempty"`
	RequiredEscrow     float64         `json:"required_escrow"`
	SkillLevel         SkillLevel      `json:"skill_level,omitempty"`
	JobScope           JobScope        `json:"job_scope,omitempty"`
	WorkEnvironment    WorkEnvironment `json:"work_environment,omitempty"`
	Materials          []string        `json:"materials"`
	SkillSlots         []PayloadSlot   `json:"skill_slots"`
	WorkerID           string          `json:"worker_id,omitempty"`
	AgencyID           string          `json:"agency_id,omitempty"`
}

// CreateJobResponse is the job creation endpoint's answer. JobID is kept as
// the raw string so a missing or non-numeric id can be detected.
type CreateJobResponse struct {
	JobID           string `json:"job_id"`
	RequiresPayment bool   `json:"requires_payment,omitempty"`
	InvoiceURL      string `json:"invoice_url,omitempty"`
	Message         string `json:"message,omitempty"`
}

// JobCreatedEvent is published once a job request is persisted.
type JobCreatedEvent struct {
	EventID        uuid.UUID    `json:"event_id"`
	JobID          int64        `json:"job_id"`
	ClientID       string       `json:"client_id"`
	CategoryID     int          `json:"category_id"`
	Status         JobStatus    `json:"status"`
	PaymentModel   PaymentModel `json:"payment_model"`
	Budget         float64      `json:"budget"`
	RequiredEscrow float64      `json:"required_escrow"`
	WorkerID       string       `json:"worker_id,omitempty"`
	AgencyID       string       `json:"agency_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}
