package models

import (
	"strings"
	"time"
)

// PaymentModel selects how a job is priced.
type PaymentModel string

// PaymentModel constants.
const (
	PaymentModelProject PaymentModel = "PROJECT"
	PaymentModelDaily   PaymentModel = "DAILY"
)

// IsValid reports whether m is a known payment model.
func (m PaymentModel) IsValid() bool {
	return m == PaymentModelProject || m == PaymentModelDaily
}

// Urgency of a job request. Empty means unset.
type Urgency string

// Urgency constants.
const (
	UrgencyLow    Urgency = "LOW"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyHigh   Urgency = "HIGH"
)

// IsValid reports whether u is unset or a known urgency.
func (u Urgency) IsValid() bool {
	switch u {
	case "", UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// SkillLevel is the expected worker proficiency.
type SkillLevel string

// SkillLevel constants.
const (
	SkillLevelEntry        SkillLevel = "entry"
	SkillLevelIntermediate SkillLevel = "intermediate"
	SkillLevelExpert       SkillLevel = "expert"
)

// DefaultSkillLevel is attached to skill slots that leave their level unset.
const DefaultSkillLevel = SkillLevelIntermediate

// IsValid reports whether l is unset or a known skill level.
func (l SkillLevel) IsValid() bool {
	switch l {
	case "", SkillLevelEntry, SkillLevelIntermediate, SkillLevelExpert:
		return true
	}
	return false
}

// JobScope describes the size of the work. Only used as a pricing signal.
type JobScope string

// JobScope constants.
const (
	JobScopeMinorRepair JobScope = "minor_repair"
	JobScopeMajorRepair JobScope = "major_repair"
	JobScopeInstall     JobScope = "installation"
	JobScopeRenovation  JobScope = "renovation"
)

// IsValid reports whether s is unset or a known scope.
func (s JobScope) IsValid() bool {
	switch s {
	case "", JobScopeMinorRepair, JobScopeMajorRepair, JobScopeInstall, JobScopeRenovation:
		return true
	}
	return false
}

// WorkEnvironment describes where the work happens. Only used as a pricing signal.
type WorkEnvironment string

// WorkEnvironment constants.
const (
	WorkEnvironmentIndoor  WorkEnvironment = "indoor"
	WorkEnvironmentOutdoor WorkEnvironment = "outdoor"
	WorkEnvironmentBoth    WorkEnvironment = "both"
)

// IsValid reports whether e is unset or a known environment.
func (e WorkEnvironment) IsValid() bool {
	switch e {
	case "", WorkEnvironmentIndoor, WorkEnvironmentOutdoor, WorkEnvironmentBoth:
		return true
	}
	return false
}

// Location is where the job takes place.
type Location struct {
	Street   string `json:"street"`
	Barangay string `json:"barangay"`
}

// JobDraft is the in-progress job request edited on the job creation screen.
// The category is not a field: it is always the first skill slot's specialization.
type JobDraft struct {
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Budget             *float64        `json:"budget,omitempty"`
	Location           Location        `json:"location"`
	ExpectedDuration   string          `json:"expected_duration"`
	Urgency            Urgency         `json:"urgency,omitempty"`
	PreferredStartDate *time.Time      `json:"preferred_start_date,omitempty"`
	PaymentModel       PaymentModel    `json:"payment_model"`
	DailyRate          *float64        `json:"daily_rate,omitempty"`
	DurationDays       *int            `json:"duration_days,omitempty"`
	SkillLevel         SkillLevel      `json:"skill_level,omitempty"`
	JobScope           JobScope        `json:"job_scope,omitempty"`
	WorkEnvironment    WorkEnvironment `json:"work_environment,omitempty"`
	Materials          []string        `json:"materials"`
	SkillSlots         []SkillSlot     `json:"skill_slots"`
}

// NewJobDraft returns an empty PROJECT draft.
func NewJobDraft() *JobDraft {
	return &JobDraft{
		PaymentModel: PaymentModelProject,
		Materials:    []string{},
		SkillSlots:   []SkillSlot{},
	}
}

// CategoryID returns the derived category, or nil when no slot exists.
func (d *JobDraft) CategoryID() *int {
	if len(d.SkillSlots) == 0 {
		return nil
	}
	id := d.SkillSlots[0].SpecializationID
	return &id
}

// AddMaterial appends a material unless an equal one (case-insensitive) is present.
// Returns false if nothing was added.
func (d *JobDraft) AddMaterial(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, m := range d.Materials {
		if strings.EqualFold(m, name) {
			return false
		}
	}
	d.Materials = append(d.Materials, name)
	return true
}

// RemoveMaterial removes a material by case-insensitive name.
func (d *JobDraft) RemoveMaterial(name string) bool {
	for i, m := range d.Materials {
		if strings.EqualFold(m, strings.TrimSpace(name)) {
			d.Materials = append(d.Materials[:i:i], d.Materials[i+1:]...)
			return true
		}
	}
	return false
}

// MergeMaterials returns the union of the given lists, trimmed, keeping first
// occurrence order and dropping case-insensitive duplicates and blanks.
func MergeMaterials(lists ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, list := range lists {
		for _, m := range list {
			m = strings.TrimSpace(m)
			if m == "" {
				continue
			}
			key := strings.ToLower(m)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, m)
		}
	}
	return out
}

// SkillSlot is one staffing requirement of a job request.
type SkillSlot struct {
	SpecializationID   int        `json:"specialization_id"`
	WorkersNeeded      int        `json:"workers_needed"`
	RequiredSkillLevel SkillLevel `json:"required_skill_level,omitempty"`
}

// PricingResult is the derived escrow breakdown of a draft.
type PricingResult struct {
	RequiredEscrow  float64 `json:"required_escrow"`
	PlatformFeeRate float64 `json:"platform_fee_rate"`
	PlatformFee     float64 `json:"platform_fee"`
	Downpayment     float64 `json:"downpayment"`
	TotalDue        float64 `json:"total_due"`
}
