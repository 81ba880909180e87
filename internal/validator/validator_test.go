package validator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/jobpost/internal/models"
)

type rates map[int]float64

func (r rates) MinimumRate(id int) float64 { return r[id] }

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }

var fixedNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func newValidator() *Validator {
	return New(rates{1: 50000, 2: 0}).WithClock(func() time.Time { return fixedNow })
}

func validProject() *models.JobDraft {
	return &models.JobDraft{
		Title:        "Repaint living room",
		Description:  "Two coats, walls only",
		Budget:       f(60000),
		Location:     models.Location{Street: "12 Mabini St", Barangay: "San Roque"},
		PaymentModel: models.PaymentModelProject,
		SkillSlots:   []models.SkillSlot{{SpecializationID: 1, WorkersNeeded: 1}},
	}
}

func validDaily() *models.JobDraft {
	d := validProject()
	d.PaymentModel = models.PaymentModelDaily
	d.Budget = nil
	d.DailyRate = f(1000)
	d.DurationDays = i(10)
	return d
}

func codeOf(t *testing.T, err error) *ValidationError {
	t.Helper()
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr), "expected *ValidationError, got %v", err)
	return vErr
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, newValidator().Validate(validProject(), 1e6, false))
	assert.NoError(t, newValidator().Validate(validDaily(), 1e6, false))
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *models.JobDraft)
		agency bool
		want   string
	}{
		{"blank title", func(d *models.JobDraft) { d.Title = "   " }, false, CodeTitleRequired},
		{"blank description", func(d *models.JobDraft) { d.Description = "\t" }, false, CodeDescriptionRequired},
		{"no slots", func(d *models.JobDraft) { d.SkillSlots = nil }, false, CodeSkillSlotRequired},
		{"missing budget", func(d *models.JobDraft) { d.Budget = nil }, false, CodeBudgetRequired},
		{"zero budget", func(d *models.JobDraft) { d.Budget = f(0) }, false, CodeBudgetRequired},
		{"no minimum for category", func(d *models.JobDraft) {
			d.Budget = f(100)
			d.SkillSlots = []models.SkillSlot{{SpecializationID: 2, WorkersNeeded: 1}}
		}, false, ""},
		{"daily missing rate", func(d *models.JobDraft) {
			*d = *validDaily()
			d.DailyRate = nil
		}, false, CodeDailyRateRequired},
		{"daily missing days", func(d *models.JobDraft) {
			*d = *validDaily()
			d.DurationDays = i(0)
		}, false, CodeDurationDaysRequired},
		{"daily too many days", func(d *models.JobDraft) {
			*d = *validDaily()
			d.DurationDays = i(366)
		}, false, CodeDurationDaysOutOfRange},
		{"daily ignores minimum rate", func(d *models.JobDraft) {
			*d = *validDaily()
			d.DailyRate = f(10)
		}, false, ""},
		{"unknown payment model", func(d *models.JobDraft) { d.PaymentModel = "HOURLY" }, false, CodeUnsupportedPaymentModel},
		{"start date yesterday", func(d *models.JobDraft) {
			y := fixedNow.AddDate(0, 0, -1)
			d.PreferredStartDate = &y
		}, false, CodeStartDateInPast},
		{"start date today earlier hour", func(d *models.JobDraft) {
			today := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
			d.PreferredStartDate = &today
		}, false, ""},
		{"blank barangay", func(d *models.JobDraft) { d.Location.Barangay = "" }, false, CodeBarangayRequired},
		{"blank street", func(d *models.JobDraft) { d.Location.Street = " " }, false, CodeStreetRequired},
		{"barangay before street", func(d *models.JobDraft) { d.Location = models.Location{} }, false, CodeBarangayRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validProject()
			tt.mutate(d)
			err := newValidator().Validate(d, 1e6, tt.agency)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, codeOf(t, err).Code)
		})
	}
}

// empty title wins over every other broken field
func TestValidate_ScenarioA_Ordering(t *testing.T) {
	d := validProject()
	d.Title = ""
	d.Budget = f(-5)
	d.Location = models.Location{}
	d.SkillSlots = nil

	err := newValidator().Validate(d, 0, true)
	assert.Equal(t, CodeTitleRequired, codeOf(t, err).Code)
}

func TestValidate_ScenarioB_BelowMinimumRate(t *testing.T) {
	d := validProject()
	d.Budget = f(40000)

	vErr := codeOf(t, newValidator().Validate(d, 1e6, false))
	assert.Equal(t, CodeBelowMinimumRate, vErr.Code)
	assert.Equal(t, 50000.0, vErr.Minimum)
}

func TestValidate_ScenarioC_InsufficientBalance(t *testing.T) {
	vErr := codeOf(t, newValidator().Validate(validDaily(), 5000, false))
	assert.Equal(t, CodeInsufficientBalance, vErr.Code)
	assert.InDelta(t, 11000, vErr.RequiredEscrow, 1e-6)
	assert.Equal(t, 6000.0, vErr.Shortfall)
}

func TestValidate_ScenarioD_AgencyMinimum(t *testing.T) {
	d := validProject()
	d.SkillSlots = []models.SkillSlot{
		{SpecializationID: 1, WorkersNeeded: 1},
		{SpecializationID: 3, WorkersNeeded: 1},
	}
	assert.NoError(t, newValidator().Validate(d, 1e6, true))

	d.SkillSlots = d.SkillSlots[:1]
	assert.Equal(t, CodeAgencyMinWorkers, codeOf(t, newValidator().Validate(d, 1e6, true)).Code)

	// individual jobs have no minimum
	assert.NoError(t, newValidator().Validate(d, 1e6, false))
}

func TestValidate_FundsCheckedLast(t *testing.T) {
	d := validProject()
	d.Location.Street = ""

	err := newValidator().Validate(d, 0, false)
	assert.Equal(t, CodeStreetRequired, codeOf(t, err).Code)
}

func TestValidate_ExactBalancePasses(t *testing.T) {
	d := validProject()
	d.Budget = f(60000)
	assert.NoError(t, newValidator().Validate(d, 60000*0.5*1.05, false))
}

func TestValidate_NilRates(t *testing.T) {
	d := validProject()
	d.Budget = f(1)
	assert.NoError(t, New(nil).Validate(d, 1e6, false))
}
