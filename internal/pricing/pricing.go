// Package pricing computes escrow and fee figures for job requests.
//
// Nothing here rounds. Callers round with Round2 when a figure is displayed
// or serialized, so dependent figures (shortfall, summary rows) are always
// computed from unrounded values.
package pricing

import (
	"math"

	"github.com/blockedby/jobpost/internal/models"
)

// Platform fee rates per payment model.
const (
	ProjectFeeRate = 0.05
	DailyFeeRate   = 0.10

	// ProjectDownpaymentShare is the part of a PROJECT budget held up front.
	ProjectDownpaymentShare = 0.5
)

// ComputeRequiredEscrow returns the amount reserved from the client's wallet.
//
// PROJECT: budget * 0.5 * 1.05. DAILY: dailyRate * durationDays * 1.10.
// Missing, zero or negative factors yield 0.
func ComputeRequiredEscrow(model models.PaymentModel, budget, dailyRate *float64, durationDays *int) float64 {
	return Compute(model, budget, dailyRate, durationDays).RequiredEscrow
}

// Compute returns the full escrow breakdown for the given inputs.
func Compute(model models.PaymentModel, budget, dailyRate *float64, durationDays *int) models.PricingResult {
	switch model {
	case models.PaymentModelDaily:
		res := models.PricingResult{PlatformFeeRate: DailyFeeRate}
		if !positive(dailyRate) || durationDays == nil || *durationDays <= 0 {
			return res
		}
		labour := *dailyRate * float64(*durationDays)
		res.Downpayment = labour
		res.PlatformFee = labour * DailyFeeRate
		res.RequiredEscrow = labour * (1 + DailyFeeRate)
		res.TotalDue = res.RequiredEscrow
		return res
	default:
		res := models.PricingResult{PlatformFeeRate: ProjectFeeRate}
		if !positive(budget) {
			return res
		}
		down := *budget * ProjectDownpaymentShare
		res.Downpayment = down
		res.PlatformFee = down * ProjectFeeRate
		res.RequiredEscrow = down * (1 + ProjectFeeRate)
		// the remaining half of the budget is paid on completion
		res.TotalDue = *budget + res.PlatformFee
		return res
	}
}

// EffectiveBudget is the budget figure sent downstream: the entered budget for
// PROJECT, dailyRate * durationDays for DAILY. Returns 0 when not computable.
func EffectiveBudget(model models.PaymentModel, budget, dailyRate *float64, durationDays *int) float64 {
	if model == models.PaymentModelDaily {
		if !positive(dailyRate) || durationDays == nil || *durationDays <= 0 {
			return 0
		}
		return *dailyRate * float64(*durationDays)
	}
	if !positive(budget) {
		return 0
	}
	return *budget
}

// Shortfall is the top-up needed to cover required, rounded up to a whole
// currency unit. Never negative.
func Shortfall(required, available float64) float64 {
	diff := required - available
	if diff <= 0 {
		return 0
	}
	// guard against float noise like 6000.000000001
	return math.Ceil(diff - 1e-9)
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func positive(v *float64) bool {
	return v != nil && *v > 0 && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
