package submission

import (
	"strings"

	"github.com/blockedby/jobpost/internal/models"
	"github.com/blockedby/jobpost/internal/pricing"
	"github.com/blockedby/jobpost/internal/slots"
)

// Input is everything the orchestrator needs to build a request.
type Input struct {
	Draft         *models.JobDraft
	WalletBalance float64
	ClientID      string
	// WorkerID is set when hiring one worker directly.
	WorkerID string
	// AgencyID is set when hiring through an agency; it switches the
	// staffing rules to agency context.
	AgencyID string
	// CatalogMaterials are materials picked from the worker's catalog.
	CatalogMaterials []string
}

// Agency reports whether the request is directed at an agency.
func (in Input) Agency() bool {
	return in.AgencyID != ""
}

// BuildPayload assembles the job creation request. The draft is expected to
// have passed validation.
func BuildPayload(in Input) models.JobPayload {
	d := in.Draft
	categoryID, _ := slots.DeriveCategory(d.SkillSlots)

	p := models.JobPayload{
		ClientID:         in.ClientID,
		Title:            strings.TrimSpace(d.Title),
		Description:      strings.TrimSpace(d.Description),
		CategoryID:       categoryID,
		Budget:           pricing.Round2(pricing.EffectiveBudget(d.PaymentModel, d.Budget, d.DailyRate, d.DurationDays)),
		Street:           strings.TrimSpace(d.Location.Street),
		Barangay:         strings.TrimSpace(d.Location.Barangay),
		ExpectedDuration: strings.TrimSpace(d.ExpectedDuration),
		Urgency:          d.Urgency,
		PaymentMethod:    models.PaymentMethodWalletEscrow,
		PaymentModel:     d.PaymentModel,
		RequiredEscrow: pricing.Round2(pricing.ComputeRequiredEscrow(
			d.PaymentModel, d.Budget, d.DailyRate, d.DurationDays)),
		SkillLevel:      d.SkillLevel,
		JobScope:        d.JobScope,
		WorkEnvironment: d.WorkEnvironment,
		Materials:       models.MergeMaterials(d.Materials, in.CatalogMaterials),
		SkillSlots:      make([]models.PayloadSlot, 0, len(d.SkillSlots)),
	}

	if d.PreferredStartDate != nil {
		p.PreferredStartDate = d.PreferredStartDate.Format("2006-01-02")
	}

	if d.PaymentModel == models.PaymentModelDaily && d.DailyRate != nil && d.DurationDays != nil {
		rate := *d.DailyRate
		days := *d.DurationDays
		p.DailyRate = &rate
		p.DurationDays = &days
	}

	fallback := d.SkillLevel
	if fallback == "" {
		fallback = models.DefaultSkillLevel
	}
	for _, s := range d.SkillSlots {
		level := s.RequiredSkillLevel
		if level == "" {
			level = fallback
		}
		p.SkillSlots = append(p.SkillSlots, models.PayloadSlot{
			SpecializationID: s.SpecializationID,
			WorkersNeeded:    s.WorkersNeeded,
			SkillLevel:       level,
		})
	}

	if in.Agency() {
		p.AgencyID = in.AgencyID
	} else if in.WorkerID != "" {
		p.WorkerID = in.WorkerID
	}

	return p
}
