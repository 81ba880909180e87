package api

import (
	"time"

	"github.com/blockedby/jobpost/internal/composer"
	"github.com/blockedby/jobpost/internal/models"
	"github.com/blockedby/jobpost/internal/repository"
	"github.com/blockedby/jobpost/internal/submission"
)

// ============================================================================
// Common Types
// ============================================================================

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status   string `json:"status" example:"ok" description:"Health status"`
	Version  string `json:"version" example:"dev" description:"Application version"`
	Sessions int    `json:"sessions" description:"Open draft sessions"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Status string `json:"status" example:"ok"`
}

// ============================================================================
// Draft Types
// ============================================================================

// DraftCreateRequest opens a draft session.
type DraftCreateRequest struct {
	UserID   string `json:"user_id" validate:"required" description:"Client creating the job request"`
	WorkerID string `json:"worker_id,omitempty" description:"Worker the job is directed at"`
	AgencyID string `json:"agency_id,omitempty" description:"Agency the job is directed at"`
}

// DraftResponse is the full state of a draft session.
type DraftResponse = composer.Snapshot

// DraftUpdateRequest is a partial edit; omitted fields are left unchanged.
type DraftUpdateRequest = composer.FieldUpdate

// SlotAddRequest adds a skill slot.
type SlotAddRequest struct {
	SpecializationID   int               `json:"specialization_id" description:"Category of the slot"`
	WorkersNeeded      int               `json:"workers_needed" description:"Workers needed, 1 to 10"`
	RequiredSkillLevel models.SkillLevel `json:"required_skill_level,omitempty" description:"entry, intermediate or expert"`
}

// MaterialAddRequest adds a material.
type MaterialAddRequest struct {
	Name string `json:"name" validate:"required" description:"Material name"`
}

// MaterialResponse reports whether the material list changed.
type MaterialResponse struct {
	Changed   bool     `json:"changed"`
	Materials []string `json:"materials"`
}

// ApplySuggestionRequest copies a suggested value into the draft.
type ApplySuggestionRequest struct {
	Field models.SuggestionField `json:"field" validate:"required" description:"title, description, materials or duration"`
	Text  string                 `json:"text" validate:"required"`
}

// ApplyPredictionResponse is the budget after applying the suggested price.
type ApplyPredictionResponse struct {
	Budget float64 `json:"budget"`
}

// SubmitRequest starts the submission of a draft.
type SubmitRequest struct {
	CatalogMaterials []string `json:"catalog_materials,omitempty" description:"Materials from the worker's catalog merged into the request"`
}

// SubmissionResponse is the submission state after an action.
type SubmissionResponse = submission.View

// ============================================================================
// Catalog & Pricing Types
// ============================================================================

// CategoriesResponse lists the selectable specializations.
type CategoriesResponse struct {
	Categories []models.Category `json:"categories"`
	Total      int               `json:"total"`
}

// QuoteResponse is the escrow breakdown for ad-hoc pricing inputs.
type QuoteResponse struct {
	models.PricingResult
	PaymentModel models.PaymentModel `json:"payment_model"`
	Budget       float64             `json:"budget"`
	Shortfall    *float64            `json:"shortfall,omitempty"`
}

// ============================================================================
// Job Types
// ============================================================================

// JobResponse is a created job, the target of the job detail redirect.
type JobResponse struct {
	ID        int64             `json:"id"`
	Status    models.JobStatus  `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	Job       models.JobPayload `json:"job"`
}

// InvoicePaidRequest reports a paid invoice.
type InvoicePaidRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0" description:"Amount paid on the invoice"`
}

func toJobResponse(j *repository.Job) JobResponse {
	return JobResponse{ID: j.ID, Status: j.Status, CreatedAt: j.CreatedAt, Job: j.Payload}
}

// StatsResponse contains posted job statistics.
type StatsResponse = repository.JobStats
