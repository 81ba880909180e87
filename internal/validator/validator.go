// Package validator checks an assembled job draft before submission.
//
// Rules run in a fixed order and stop at the first failure: identity fields,
// then money, then location, then staffing, then funds. Wallet sufficiency is
// last because it is the only failure fixed by a deposit rather than an edit.
package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/blockedby/jobpost/internal/models"
	"github.com/blockedby/jobpost/internal/pricing"
	"github.com/blockedby/jobpost/internal/slots"
)

// MaxDurationDays bounds a DAILY job.
const MaxDurationDays = 365

// Error codes.
const (
	CodeTitleRequired           = "title-required"
	CodeDescriptionRequired     = "description-required"
	CodeSkillSlotRequired       = "skill-slot-required"
	CodeBudgetRequired          = "budget-required"
	CodeBelowMinimumRate        = "below-minimum-rate"
	CodeDailyRateRequired       = "daily-rate-required"
	CodeDurationDaysRequired    = "duration-days-required"
	CodeDurationDaysOutOfRange  = "duration-days-out-of-range"
	CodeStartDateInPast         = "start-date-in-past"
	CodeBarangayRequired        = "barangay-required"
	CodeStreetRequired          = "street-required"
	CodeAgencyMinWorkers        = "agency-min-workers"
	CodeInsufficientBalance     = "insufficient-balance"
	CodeUnsupportedPaymentModel = "unsupported-payment-model"
)

// ValidationError is the first failing rule.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`

	// Minimum is set for CodeBelowMinimumRate.
	Minimum float64 `json:"minimum,omitempty"`
	// Shortfall and RequiredEscrow are set for CodeInsufficientBalance.
	// Shortfall is rounded up to a whole currency unit.
	Shortfall      float64 `json:"shortfall,omitempty"`
	RequiredEscrow float64 `json:"required_escrow,omitempty"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RateLookup returns the minimum rate of a category, 0 when it has none.
type RateLookup interface {
	MinimumRate(categoryID int) float64
}

// Validator runs the submission rules.
type Validator struct {
	rates RateLookup
	now   func() time.Time
}

// New creates a validator. rates may be nil when no category has a minimum.
func New(rates RateLookup) *Validator {
	return &Validator{rates: rates, now: time.Now}
}

// WithClock overrides the clock used for the start date rule.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Validate returns the first *ValidationError, or nil.
func (v *Validator) Validate(d *models.JobDraft, walletBalance float64, agency bool) error {
	if strings.TrimSpace(d.Title) == "" {
		return fail(CodeTitleRequired, "title", "Please enter a job title")
	}
	if strings.TrimSpace(d.Description) == "" {
		return fail(CodeDescriptionRequired, "description", "Please describe the job")
	}

	categoryID, ok := slots.DeriveCategory(d.SkillSlots)
	if !ok {
		return fail(CodeSkillSlotRequired, "skill_slots", "Please add at least one required skill")
	}

	if err := v.validatePayment(d, categoryID); err != nil {
		return err
	}

	if d.PreferredStartDate != nil && dateOnly(*d.PreferredStartDate).Before(dateOnly(v.now())) {
		return fail(CodeStartDateInPast, "preferred_start_date", "Preferred start date cannot be in the past")
	}

	if strings.TrimSpace(d.Location.Barangay) == "" {
		return fail(CodeBarangayRequired, "barangay", "Please select a barangay")
	}
	if strings.TrimSpace(d.Location.Street) == "" {
		return fail(CodeStreetRequired, "street", "Please enter the street address")
	}

	if agency && slots.TotalWorkers(d.SkillSlots) < slots.MinAgencyWorkers {
		return fail(CodeAgencyMinWorkers, "skill_slots",
			fmt.Sprintf("Agency jobs need at least %d workers in total", slots.MinAgencyWorkers))
	}

	required := pricing.ComputeRequiredEscrow(d.PaymentModel, d.Budget, d.DailyRate, d.DurationDays)
	if required > walletBalance {
		shortfall := pricing.Shortfall(required, walletBalance)
		return &ValidationError{
			Code:  CodeInsufficientBalance,
			Field: "wallet",
			Message: fmt.Sprintf("Insufficient wallet balance: %.2f required, %.2f available. Please deposit at least %.0f",
				pricing.Round2(required), pricing.Round2(walletBalance), shortfall),
			Shortfall:      shortfall,
			RequiredEscrow: required,
		}
	}

	return nil
}

func (v *Validator) validatePayment(d *models.JobDraft, categoryID int) error {
	switch d.PaymentModel {
	case models.PaymentModelProject:
		if d.Budget == nil || *d.Budget <= 0 {
			return fail(CodeBudgetRequired, "budget", "Please enter a budget greater than zero")
		}
		if minimum := v.minimumRate(categoryID); minimum > 0 && *d.Budget < minimum {
			return &ValidationError{
				Code:    CodeBelowMinimumRate,
				Field:   "budget",
				Message: fmt.Sprintf("Budget must be at least %.2f for this category", minimum),
				Minimum: minimum,
			}
		}
	case models.PaymentModelDaily:
		if d.DailyRate == nil || *d.DailyRate <= 0 {
			return fail(CodeDailyRateRequired, "daily_rate", "Please enter a daily rate greater than zero")
		}
		if d.DurationDays == nil || *d.DurationDays <= 0 {
			return fail(CodeDurationDaysRequired, "duration_days", "Please enter the number of days")
		}
		if *d.DurationDays > MaxDurationDays {
			return fail(CodeDurationDaysOutOfRange, "duration_days",
				fmt.Sprintf("Duration cannot exceed %d days", MaxDurationDays))
		}
	default:
		return fail(CodeUnsupportedPaymentModel, "payment_model", "Please choose a payment model")
	}
	return nil
}

func (v *Validator) minimumRate(categoryID int) float64 {
	if v.rates == nil {
		return 0
	}
	return v.rates.MinimumRate(categoryID)
}

func fail(code, field, msg string) *ValidationError {
	return &ValidationError{Code: code, Field: field, Message: msg}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
