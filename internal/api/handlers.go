// Package api provides HTTP handlers for the REST API.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-fuego/fuego"
	"github.com/google/uuid"

	"github.com/blockedby/jobpost/internal/composer"
	"github.com/blockedby/jobpost/internal/jobs"
	"github.com/blockedby/jobpost/internal/models"
	"github.com/blockedby/jobpost/internal/pricing"
	"github.com/blockedby/jobpost/internal/repository"
	"github.com/blockedby/jobpost/internal/slots"
	"github.com/blockedby/jobpost/internal/submission"
	"github.com/blockedby/jobpost/internal/validator"
)

// ============================================================================
// Health
// ============================================================================

func (s *Server) healthCheck(c fuego.ContextNoBody) (HealthResponse, error) {
	resp := HealthResponse{
		Status:  "ok",
		Version: s.version,
	}
	if n, ok := s.deps.Drafts.(interface{ Len() int }); ok {
		resp.Sessions = n.Len()
	}
	return resp, nil
}

// ============================================================================
// Drafts Handlers
// ============================================================================

func (s *Server) createDraft(c fuego.ContextWithBody[DraftCreateRequest]) (DraftResponse, error) {
	body, err := c.Body()
	if err != nil {
		return DraftResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}
	if strings.TrimSpace(body.UserID) == "" {
		return DraftResponse{}, fuego.BadRequestError{Detail: "user_id is required"}
	}
	if body.WorkerID != "" && body.AgencyID != "" {
		return DraftResponse{}, fuego.BadRequestError{Detail: "a job request is directed at a worker or an agency, not both"}
	}

	sess := s.deps.Drafts.Create(composer.Owner{
		UserID:   body.UserID,
		WorkerID: body.WorkerID,
		AgencyID: body.AgencyID,
	})
	return sess.Snapshot(c.Context()), nil
}

func (s *Server) getDraft(c fuego.ContextNoBody) (DraftResponse, error) {
	sess, err := s.session(c.PathParam("id"))
	if err != nil {
		return DraftResponse{}, err
	}
	return sess.Snapshot(c.Context()), nil
}

func (s *Server) updateDraft(c fuego.ContextWithBody[DraftUpdateRequest]) (DraftResponse, error) {
	sess, err := s.session(c.PathParam("id"))
	if err != nil {
		return DraftResponse{}, err
	}

	body, err := c.Body()
	if err != nil {
		return DraftResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}
	if err := sess.Update(body); err != nil {
		return DraftResponse{}, toHTTPError(err)
	}
	return sess.Snapshot(c.Context()), nil
}

func (s *Server) closeDraft(c fuego.ContextNoBody) (MessageResponse, error) {
	id, err := parseDraftID(c.PathParam("id"))
	if err != nil {
		return MessageResponse{}, err
	}
	if err := s.deps.Drafts.Close(id); err != nil {
		return MessageResponse{}, toHTTPError(err)
	}

	if s.deps.Hub != nil {
		s.deps.Hub.Broadcast(composer.Event{Type: "draft.closed", SessionID: id.String()})
	}
	return MessageResponse{Status: "closed"}, nil
}

func (s *Server) addSlot(c fuego.ContextWithBody[SlotAddRequest]) (DraftResponse, error) {
	sess, err := s.session(c.PathParam("id"))
	if err != nil {
		return DraftResponse{}, err
	}

	body, err := c.Body()
	if err != nil {
		return DraftResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}
	err = sess.AddSlot(c.Context(), models.SkillSlot{
		SpecializationID:   body.SpecializationID,
		WorkersNeeded:      body.WorkersNeeded,
		RequiredSkillLevel: body.RequiredSkillLevel,
	})
	if err != nil {
		return DraftResponse{}, toHTTPError(err)
	}
	return sess.Snapshot(c.Context()), nil
}

func (s *Server) removeSlot(c fuego.ContextNoBody) (DraftResponse, error) {
	sess, err := s.session(c.PathParam("id"))
	if err != nil {
		return DraftResponse{}, err
	}

	index, err := strconv.Atoi(c.PathParam("index"))
	if err != nil || index < 0 {
		return DraftResponse{}, fuego.BadRequestError{Detail: "Invalid slot index"}
	}
	sess.RemoveSlot(index)
	return sess.Snapshot(c.Context()), nil
}

func (s *Server) addMaterial(c fuego.ContextWithBody[MaterialAddRequest]) (MaterialResponse, error) {
	sess, err := s.session(c.PathParam("id"))
	if err != nil {
		return MaterialResponse{}, err
	}

	body, err := c.Body()
	if err != nil {
		return MaterialResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}
	if strings.TrimSpace(body.Name) == "" {
		return MaterialResponse{}, fuego.BadRequestError{Detail: "name is required"}
	}

	changed := sess.AddMaterial(body.Name)
	return MaterialResponse{Changed: changed, Materials: sess.Snapshot(c.Context()).Draft.Materials}, nil
}

func (s *Server) removeMaterial(c fuego.ContextNoBody) (MaterialResponse, error) {
	sess, err := s.session(c.PathParam("id"))
	if err != nil {
		return MaterialResponse{}, err
	}

	changed := sess.RemoveMaterial(c.PathParam("name"))
	if !changed {
		return MaterialResponse{}, fuego.NotFoundError{Detail: "Material not found"}
	}
	return MaterialResponse{Changed: true, Materials: sess.Snapshot(c.Context()).Draft.Materials}, nil
}

func (s *Server) applySuggestion(c fuego.ContextWithBody[ApplySuggestionRequest]) (DraftResponse, error) {
	sess, err := s.session(c.PathParam("id"))
	if err != nil {
		return DraftResponse{}, err
	}

	body, err := c.Body()
	if err != nil {
		return DraftResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}
	if err := sess.ApplySuggestion(body.Field, body.Text); err != nil {
		return DraftResponse{}, toHTTPError(err)
	}
	return sess.Snapshot(c.Context()), nil
}

func (s *Server) applyPrediction(c fuego.ContextNoBody) (ApplyPredictionResponse, error) {
	sess, err := s.session(c.PathParam("id"))
	if err != nil {
		return ApplyPredictionResponse{}, err
	}

	budget, err := sess.ApplyPrediction()
	if err != nil {
		return ApplyPredictionResponse{}, toHTTPError(err)
	}
	return ApplyPredictionResponse{Budget: budget}, nil
}

// ============================================================================
// Submission Handlers
// ============================================================================

func (s *Server) submitDraft(c fuego.ContextWithBody[SubmitRequest]) (SubmissionResponse, error) {
	sess, err := s.session(c.PathParam("id"))
	if err != nil {
		return SubmissionResponse{}, err
	}

	body, err := c.Body()
	if err != nil {
		return SubmissionResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	st, err := sess.Submit(c.Context(), body.CatalogMaterials)
	if err != nil {
		return SubmissionResponse{}, toHTTPError(err)
	}
	return submission.ViewOf(st, time.Now()), nil
}

func (s *Server) confirmDraft(c fuego.ContextNoBody) (SubmissionResponse, error) {
	sess, err := s.session(c.PathParam("id"))
	if err != nil {
		return SubmissionResponse{}, err
	}

	// the job is created at most once, so a dropped client must not abort it
	st, err := sess.Confirm(context.WithoutCancel(c.Context()))
	if err != nil {
		return SubmissionResponse{}, toHTTPError(err)
	}
	return submission.ViewOf(st, time.Now()), nil
}

func (s *Server) cancelDraft(c fuego.ContextNoBody) (SubmissionResponse, error) {
	sess, err := s.session(c.PathParam("id"))
	if err != nil {
		return SubmissionResponse{}, err
	}

	if err := sess.Cancel(); err != nil {
		return SubmissionResponse{}, toHTTPError(err)
	}
	return submission.ViewOf(submission.Idle{}, time.Now()), nil
}

// ============================================================================
// Jobs Handlers
// ============================================================================

func (s *Server) getJob(c fuego.ContextNoBody) (JobResponse, error) {
	id, err := parseJobID(c.PathParam("id"))
	if err != nil {
		return JobResponse{}, err
	}
	if s.deps.Jobs == nil {
		return JobResponse{}, fuego.InternalServerError{Detail: "jobs are not available"}
	}

	job, err := s.deps.Jobs.Get(c.Context(), id)
	if err != nil {
		return JobResponse{}, toHTTPError(err)
	}
	return toJobResponse(job), nil
}

func (s *Server) invoicePaid(c fuego.ContextWithBody[InvoicePaidRequest]) (JobResponse, error) {
	id, err := parseJobID(c.PathParam("id"))
	if err != nil {
		return JobResponse{}, err
	}
	if s.deps.Jobs == nil {
		return JobResponse{}, fuego.InternalServerError{Detail: "jobs are not available"}
	}

	body, err := c.Body()
	if err != nil {
		return JobResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}
	if body.Amount <= 0 {
		return JobResponse{}, fuego.BadRequestError{Detail: "amount must be positive"}
	}

	job, err := s.deps.Jobs.SettleInvoice(context.WithoutCancel(c.Context()), id, body.Amount)
	if err != nil {
		return JobResponse{}, toHTTPError(err)
	}
	return toJobResponse(job), nil
}

// ============================================================================
// Catalog & Pricing Handlers
// ============================================================================

func (s *Server) listCategories(c fuego.ContextNoBody) (CategoriesResponse, error) {
	list, err := s.deps.Categories.ListCategories(c.Context())
	if err != nil {
		return CategoriesResponse{}, fuego.InternalServerError{Detail: err.Error()}
	}
	return CategoriesResponse{Categories: list, Total: len(list)}, nil
}

func (s *Server) quote(c fuego.ContextNoBody) (QuoteResponse, error) {
	model := models.PaymentModel(strings.ToUpper(c.QueryParam("payment_model")))
	if model == "" {
		model = models.PaymentModelProject
	}
	if !model.IsValid() {
		return QuoteResponse{}, fuego.BadRequestError{Detail: "Invalid payment_model"}
	}

	budget, err := parseFloatParam(c.QueryParam("budget"))
	if err != nil {
		return QuoteResponse{}, fuego.BadRequestError{Detail: "Invalid budget"}
	}
	dailyRate, err := parseFloatParam(c.QueryParam("daily_rate"))
	if err != nil {
		return QuoteResponse{}, fuego.BadRequestError{Detail: "Invalid daily_rate"}
	}
	var days *int
	if raw := c.QueryParam("duration_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return QuoteResponse{}, fuego.BadRequestError{Detail: "Invalid duration_days"}
		}
		days = &n
	}
	wallet, err := parseFloatParam(c.QueryParam("wallet"))
	if err != nil {
		return QuoteResponse{}, fuego.BadRequestError{Detail: "Invalid wallet"}
	}

	res := pricing.Compute(model, budget, dailyRate, days)
	resp := QuoteResponse{
		PricingResult: models.PricingResult{
			RequiredEscrow:  pricing.Round2(res.RequiredEscrow),
			PlatformFeeRate: res.PlatformFeeRate,
			PlatformFee:     pricing.Round2(res.PlatformFee),
			Downpayment:     pricing.Round2(res.Downpayment),
			TotalDue:        pricing.Round2(res.TotalDue),
		},
		PaymentModel: model,
		Budget:       pricing.Round2(pricing.EffectiveBudget(model, budget, dailyRate, days)),
	}
	if wallet != nil {
		shortfall := pricing.Shortfall(res.RequiredEscrow, *wallet)
		resp.Shortfall = &shortfall
	}
	return resp, nil
}

// ============================================================================
// Stats Handlers
// ============================================================================

func (s *Server) getStats(c fuego.ContextNoBody) (StatsResponse, error) {
	if s.deps.StatsRepo == nil {
		return StatsResponse{}, fuego.InternalServerError{Detail: "stats are not available"}
	}
	stats, err := s.deps.StatsRepo.GetStats(c.Context())
	if err != nil {
		return StatsResponse{}, fuego.InternalServerError{Detail: err.Error()}
	}
	return *stats, nil
}

// ============================================================================
// Helpers
// ============================================================================

func (s *Server) session(raw string) (*composer.Session, error) {
	id, err := parseDraftID(raw)
	if err != nil {
		return nil, err
	}
	sess, err := s.deps.Drafts.Get(id)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return sess, nil
}

func parseDraftID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fuego.BadRequestError{Detail: "Invalid draft ID"}
	}
	return id, nil
}

func parseJobID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fuego.BadRequestError{Detail: "Invalid job ID"}
	}
	return id, nil
}

func parseFloatParam(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// toHTTPError maps domain errors onto fuego's problem responses.
func toHTTPError(err error) error {
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		more := map[string]any{}
		if verr.Minimum > 0 {
			more["minimum"] = verr.Minimum
		}
		if verr.Shortfall > 0 {
			more["shortfall"] = verr.Shortfall
			more["required_escrow"] = verr.RequiredEscrow
		}
		return fuego.HTTPError{
			Err:    err,
			Status: http.StatusUnprocessableEntity,
			Title:  "Validation Failed",
			Detail: verr.Message,
			Errors: []fuego.ErrorItem{{Name: verr.Field, Reason: verr.Code, More: more}},
		}
	}

	var serr *slots.Error
	if errors.As(err, &serr) {
		return fuego.BadRequestError{
			Err:    err,
			Detail: serr.Error(),
			Errors: []fuego.ErrorItem{{Name: "skill_slots", Reason: serr.Code}},
		}
	}

	switch {
	case errors.Is(err, composer.ErrSessionNotFound):
		return fuego.NotFoundError{Err: err, Detail: "Draft not found"}
	case errors.Is(err, repository.ErrJobNotFound):
		return fuego.NotFoundError{Err: err, Detail: "Job not found"}
	case errors.Is(err, repository.ErrInsufficientFunds):
		return fuego.HTTPError{
			Err:    err,
			Status: http.StatusPaymentRequired,
			Title:  "Payment Required",
			Detail: "the wallet still does not cover the escrow",
		}
	case errors.Is(err, repository.ErrInvalidAmount):
		return fuego.BadRequestError{Err: err, Detail: err.Error()}
	case errors.Is(err, composer.ErrInvalidField), errors.Is(err, composer.ErrUnknownField):
		return fuego.BadRequestError{Err: err, Detail: err.Error()}
	case errors.Is(err, composer.ErrNoPrediction),
		errors.Is(err, composer.ErrNotProjectModel),
		errors.Is(err, submission.ErrInProgress),
		errors.Is(err, submission.ErrNotAwaitingConfirmation),
		errors.Is(err, jobs.ErrNotAwaitingPayment):
		return fuego.ConflictError{Err: err, Detail: err.Error()}
	}
	return fuego.InternalServerError{Err: err, Detail: err.Error()}
}
