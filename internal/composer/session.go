// Package composer holds the job request drafts being edited and wires each
// one to its prediction, suggestion and submission controllers.
package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/blockedby/jobpost/internal/catalog"
	"github.com/blockedby/jobpost/internal/logger"
	"github.com/blockedby/jobpost/internal/models"
	"github.com/blockedby/jobpost/internal/prediction"
	"github.com/blockedby/jobpost/internal/pricing"
	"github.com/blockedby/jobpost/internal/slots"
	"github.com/blockedby/jobpost/internal/submission"
	"github.com/blockedby/jobpost/internal/suggestion"
	"github.com/blockedby/jobpost/internal/validator"
)

// errors
var (
	ErrSessionNotFound = errors.New("draft session not found")
	ErrInvalidField    = errors.New("invalid field value")
	ErrNoPrediction    = errors.New("no price prediction to apply")
	ErrNotProjectModel = errors.New("a predicted price can only be applied to a PROJECT budget")
	ErrUnknownField    = errors.New("unknown suggestion field")
)

// Event types pushed to the Notifier.
const (
	EventPredictionUpdated  = "prediction.updated"
	EventSuggestionsUpdated = "suggestions.updated"
	EventSubmissionUpdated  = "submission.updated"
)

// CategoryLookup resolves a specialization. Get returns an error matching
// catalog.ErrNotFound for an unknown id.
type CategoryLookup interface {
	Get(ctx context.Context, id int) (models.Category, error)
}

// WalletReader reads a client's wallet.
type WalletReader interface {
	GetWalletBalance(ctx context.Context, userID string) (models.WalletBalance, error)
}

// Notifier receives advisory updates for connected clients.
type Notifier interface {
	Broadcast(message interface{})
}

// Event is one advisory update.
type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Data      interface{} `json:"data"`
}

// SessionScope lets the WebSocket hub route the event to the session's clients.
func (e Event) SessionScope() string {
	return e.SessionID
}

// Owner identifies who a draft belongs to and who it is directed at.
type Owner struct {
	UserID   string `json:"user_id"`
	WorkerID string `json:"worker_id,omitempty"`
	AgencyID string `json:"agency_id,omitempty"`
}

// Deps are the collaborators shared by all sessions.
type Deps struct {
	Predictor  prediction.Predictor
	Fetcher    suggestion.Fetcher
	Categories CategoryLookup
	Creator    submission.JobCreator
	Wallets    WalletReader
	Rates      validator.RateLookup
	Notifier   Notifier
	Log        *logger.Logger

	Debounce  time.Duration
	Stagger   time.Duration
	Countdown time.Duration
}

// FieldUpdate is a partial edit of a draft. Nil fields are left unchanged.
// PreferredStartDate is YYYY-MM-DD; an empty string clears it.
type FieldUpdate struct {
	Title              *string                 `json:"title,omitempty"`
	Description        *string                 `json:"description,omitempty"`
	Budget             *float64                `json:"budget,omitempty"`
	Street             *string                 `json:"street,omitempty"`
	Barangay           *string                 `json:"barangay,omitempty"`
	ExpectedDuration   *string                 `json:"expected_duration,omitempty"`
	Urgency            *models.Urgency         `json:"urgency,omitempty"`
	PreferredStartDate *string                 `json:"preferred_start_date,omitempty"`
	PaymentModel       *models.PaymentModel    `json:"payment_model,omitempty"`
	DailyRate          *float64                `json:"daily_rate,omitempty"`
	DurationDays       *int                    `json:"duration_days,omitempty"`
	SkillLevel         *models.SkillLevel      `json:"skill_level,omitempty"`
	JobScope           *models.JobScope        `json:"job_scope,omitempty"`
	WorkEnvironment    *models.WorkEnvironment `json:"work_environment,omitempty"`
}

// PricingSummary is the escrow breakdown shown next to the draft, rounded
// to cents. Shortfall is only set when the wallet could be read.
type PricingSummary struct {
	models.PricingResult
	Budget          float64  `json:"budget"`
	WalletAvailable *float64 `json:"wallet_available,omitempty"`
	Shortfall       float64  `json:"shortfall"`
}

// Snapshot is the full state of a session.
type Snapshot struct {
	ID          string              `json:"id"`
	Owner       Owner               `json:"owner"`
	CategoryID  *int                `json:"category_id,omitempty"`
	Draft       models.JobDraft     `json:"draft"`
	Pricing     PricingSummary      `json:"pricing"`
	Prediction  prediction.Snapshot `json:"prediction"`
	Suggestions suggestion.Snapshot `json:"suggestions"`
	Submission  submission.View     `json:"submission"`
}

// Session is one draft being edited.
type Session struct {
	ID        uuid.UUID
	Owner     Owner
	CreatedAt time.Time

	wallets    WalletReader
	categories CategoryLookup
	notifier   Notifier
	log        *logger.Logger
	lastUsed   atomic.Int64

	category    *categorySelector
	prediction  *prediction.Controller
	suggestions *suggestion.Orchestrator
	submission  *submission.Orchestrator

	mu    sync.Mutex
	draft *models.JobDraft
}

// NewSession creates an empty PROJECT draft for owner.
func NewSession(owner Owner, deps Deps) *Session {
	id := uuid.New()
	s := &Session{
		ID:        id,
		Owner:     owner,
		CreatedAt: time.Now(),
		wallets:    deps.Wallets,
		categories: deps.Categories,
		notifier:   deps.Notifier,
		log:        logger.OrGlobal(deps.Log).Session(id.String()),
		category:   &categorySelector{},
		draft:      models.NewJobDraft(),
	}
	s.touch(s.CreatedAt)

	s.prediction = prediction.NewController(deps.Predictor, prediction.Options{
		Debounce: deps.Debounce,
		OnUpdate: func(snap prediction.Snapshot) { s.emit(EventPredictionUpdated, snap) },
		Log:      s.log,
	})
	s.suggestions = suggestion.NewOrchestrator(deps.Fetcher, suggestion.Options{
		Stagger:  deps.Stagger,
		OnUpdate: func(snap suggestion.Snapshot) { s.emit(EventSuggestionsUpdated, snap) },
		Log:      s.log,
	})
	s.submission = submission.NewOrchestrator(validator.New(deps.Rates), deps.Creator, submission.Options{
		Countdown: deps.Countdown,
		OnChange:  func(st submission.State) { s.emit(EventSubmissionUpdated, submission.ViewOf(st, time.Now())) },
		Log:       s.log,
	})

	s.category.subscribe(s.suggestions.OnCategoryChange)
	s.category.subscribe(func(*int) { s.refreshPredictionLocked() })

	return s
}

func (s *Session) slotContext() slots.Context {
	return slots.Context{Agency: s.Owner.AgencyID != ""}
}

// Update applies a partial edit.
func (s *Session) Update(u FieldUpdate) error {
	if err := u.check(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.draft
	if u.Title != nil {
		d.Title = *u.Title
	}
	if u.Description != nil {
		d.Description = *u.Description
	}
	if u.Budget != nil {
		d.Budget = copyFloat(u.Budget)
	}
	if u.Street != nil {
		d.Location.Street = *u.Street
	}
	if u.Barangay != nil {
		d.Location.Barangay = *u.Barangay
	}
	if u.ExpectedDuration != nil {
		d.ExpectedDuration = *u.ExpectedDuration
	}
	if u.Urgency != nil {
		d.Urgency = *u.Urgency
	}
	if u.PreferredStartDate != nil {
		if *u.PreferredStartDate == "" {
			d.PreferredStartDate = nil
		} else {
			t, _ := time.Parse("2006-01-02", *u.PreferredStartDate)
			d.PreferredStartDate = &t
		}
	}
	if u.PaymentModel != nil {
		d.PaymentModel = *u.PaymentModel
	}
	if u.DailyRate != nil {
		d.DailyRate = copyFloat(u.DailyRate)
	}
	if u.DurationDays != nil {
		days := *u.DurationDays
		d.DurationDays = &days
	}
	if u.SkillLevel != nil {
		d.SkillLevel = *u.SkillLevel
	}
	if u.JobScope != nil {
		d.JobScope = *u.JobScope
	}
	if u.WorkEnvironment != nil {
		d.WorkEnvironment = *u.WorkEnvironment
	}

	s.refreshPredictionLocked()
	return nil
}

func (u FieldUpdate) check() error {
	if u.Urgency != nil && !u.Urgency.IsValid() {
		return fmt.Errorf("%w: urgency %q", ErrInvalidField, *u.Urgency)
	}
	if u.PaymentModel != nil && !u.PaymentModel.IsValid() {
		return fmt.Errorf("%w: payment_model %q", ErrInvalidField, *u.PaymentModel)
	}
	if u.SkillLevel != nil && !u.SkillLevel.IsValid() {
		return fmt.Errorf("%w: skill_level %q", ErrInvalidField, *u.SkillLevel)
	}
	if u.JobScope != nil && !u.JobScope.IsValid() {
		return fmt.Errorf("%w: job_scope %q", ErrInvalidField, *u.JobScope)
	}
	if u.WorkEnvironment != nil && !u.WorkEnvironment.IsValid() {
		return fmt.Errorf("%w: work_environment %q", ErrInvalidField, *u.WorkEnvironment)
	}
	if u.PreferredStartDate != nil && *u.PreferredStartDate != "" {
		if _, err := time.Parse("2006-01-02", *u.PreferredStartDate); err != nil {
			return fmt.Errorf("%w: preferred_start_date %q", ErrInvalidField, *u.PreferredStartDate)
		}
	}
	return nil
}

// AddSlot appends a skill slot under the session's staffing rules. The
// specialization must exist in the category catalog.
func (s *Session) AddSlot(ctx context.Context, slot models.SkillSlot) error {
	if !slot.RequiredSkillLevel.IsValid() {
		return fmt.Errorf("%w: required_skill_level %q", ErrInvalidField, slot.RequiredSkillLevel)
	}

	exists, err := s.specializationExists(ctx, slot.SpecializationID)
	if err != nil {
		return err
	}
	rules := s.slotContext()
	rules.Known = func(id int) bool { return id != slot.SpecializationID || exists }

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := slots.Add(s.draft.SkillSlots, slot, rules)
	if err != nil {
		return err
	}
	s.draft.SkillSlots = next
	s.category.update(next)
	return nil
}

// RemoveSlot removes the slot at index. Out of range indexes are ignored.
func (s *Session) RemoveSlot(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft.SkillSlots = slots.Remove(s.draft.SkillSlots, index)
	s.category.update(s.draft.SkillSlots)
}

// AddMaterial adds a material, ignoring case-insensitive duplicates.
func (s *Session) AddMaterial(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.AddMaterial(name)
}

// RemoveMaterial removes a material by name.
func (s *Session) RemoveMaterial(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.RemoveMaterial(name)
}

// ApplySuggestion copies a suggested value into the draft. Materials are
// added to the list; the other fields are replaced.
func (s *Session) ApplySuggestion(field models.SuggestionField, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: empty suggestion", ErrInvalidField)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch field {
	case models.SuggestionFieldTitle:
		s.draft.Title = text
	case models.SuggestionFieldDescription:
		s.draft.Description = text
	case models.SuggestionFieldMaterials:
		s.draft.AddMaterial(text)
	case models.SuggestionFieldDuration:
		s.draft.ExpectedDuration = text
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	s.refreshPredictionLocked()
	return nil
}

// ApplyPrediction sets the budget to the suggested price of the current
// prediction.
func (s *Session) ApplyPrediction() (float64, error) {
	snap := s.prediction.Snapshot()
	if snap.Prediction == nil {
		return 0, ErrNoPrediction
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft.PaymentModel != models.PaymentModelProject {
		return 0, ErrNotProjectModel
	}
	budget := pricing.Round2(snap.Prediction.SuggestedPrice)
	s.draft.Budget = &budget
	return budget, nil
}

// Pricing returns the escrow breakdown of the current draft.
func (s *Session) Pricing() models.PricingResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draft
	return pricing.Compute(d.PaymentModel, d.Budget, d.DailyRate, d.DurationDays)
}

// Snapshot returns the session state. The wallet is read to compute the
// shortfall; a failed read only leaves the shortfall unset.
func (s *Session) Snapshot(ctx context.Context) Snapshot {
	s.mu.Lock()
	draft := cloneDraft(s.draft)
	s.mu.Unlock()

	res := pricing.Compute(draft.PaymentModel, draft.Budget, draft.DailyRate, draft.DurationDays)
	summary := PricingSummary{
		PricingResult: models.PricingResult{
			RequiredEscrow:  pricing.Round2(res.RequiredEscrow),
			PlatformFeeRate: res.PlatformFeeRate,
			PlatformFee:     pricing.Round2(res.PlatformFee),
			Downpayment:     pricing.Round2(res.Downpayment),
			TotalDue:        pricing.Round2(res.TotalDue),
		},
		Budget: pricing.Round2(pricing.EffectiveBudget(draft.PaymentModel, draft.Budget, draft.DailyRate, draft.DurationDays)),
	}
	if balance, err := s.walletBalance(ctx); err != nil {
		s.log.Warn().Err(err).Msg("wallet balance unavailable")
	} else {
		available := balance.Available
		summary.WalletAvailable = &available
		summary.Shortfall = pricing.Shortfall(res.RequiredEscrow, available)
	}

	return Snapshot{
		ID:          s.ID.String(),
		Owner:       s.Owner,
		CategoryID:  draft.CategoryID(),
		Draft:       draft,
		Pricing:     summary,
		Prediction:  s.prediction.Snapshot(),
		Suggestions: s.suggestions.Snapshot(),
		Submission:  submission.ViewOf(s.submission.State(), time.Now()),
	}
}

// Submit validates the draft against the current wallet balance and holds
// the built payload for confirmation. catalogMaterials are merged into the
// payload's materials.
func (s *Session) Submit(ctx context.Context, catalogMaterials []string) (submission.State, error) {
	balance, err := s.walletBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("read wallet balance: %w", err)
	}

	s.mu.Lock()
	draft := cloneDraft(s.draft)
	s.mu.Unlock()

	return s.submission.Submit(submission.Input{
		Draft:            &draft,
		WalletBalance:    balance.Available,
		ClientID:         s.Owner.UserID,
		WorkerID:         s.Owner.WorkerID,
		AgencyID:         s.Owner.AgencyID,
		CatalogMaterials: catalogMaterials,
	})
}

// Confirm creates the job from the held payload.
func (s *Session) Confirm(ctx context.Context) (submission.State, error) {
	return s.submission.Confirm(ctx)
}

// Cancel discards the held payload.
func (s *Session) Cancel() error {
	return s.submission.Cancel()
}

// Close stops every timer and drops in-flight results.
func (s *Session) Close() {
	s.prediction.Close()
	s.suggestions.Close()
	s.submission.Close()
}

func (s *Session) specializationExists(ctx context.Context, id int) (bool, error) {
	if s.categories == nil || id <= 0 {
		return true, nil
	}
	_, err := s.categories.Get(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, catalog.ErrNotFound):
		return false, nil
	}
	return false, fmt.Errorf("look up specialization: %w", err)
}

// touch records activity for the idle sweep.
func (s *Session) touch(now time.Time) {
	s.lastUsed.Store(now.UnixNano())
}

// idleSince returns the time of the last recorded activity.
func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

// refreshPredictionLocked forwards the current prediction inputs. Callers
// hold s.mu.
func (s *Session) refreshPredictionLocked() {
	s.prediction.OnInputChange(prediction.InputFromDraft(s.draft))
}

func (s *Session) walletBalance(ctx context.Context) (models.WalletBalance, error) {
	if s.wallets == nil {
		return models.WalletBalance{}, errors.New("no wallet service configured")
	}
	return s.wallets.GetWalletBalance(ctx, s.Owner.UserID)
}

func (s *Session) emit(eventType string, data interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.Broadcast(Event{Type: eventType, SessionID: s.ID.String(), Data: data})
}

func cloneDraft(d *models.JobDraft) models.JobDraft {
	c := *d
	c.Budget = copyFloat(d.Budget)
	c.DailyRate = copyFloat(d.DailyRate)
	if d.DurationDays != nil {
		days := *d.DurationDays
		c.DurationDays = &days
	}
	if d.PreferredStartDate != nil {
		t := *d.PreferredStartDate
		c.PreferredStartDate = &t
	}
	c.Materials = append([]string{}, d.Materials...)
	c.SkillSlots = append([]models.SkillSlot{}, d.SkillSlots...)
	return c
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}
