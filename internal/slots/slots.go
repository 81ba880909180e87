// Package slots manages the staffing requirements (skill slots) of a job request.
//
// All operations are pure list transforms: inputs are never mutated and the
// package holds no state. Callers re-derive category dependent state after a
// change.
package slots

import (
	"fmt"

	"github.com/blockedby/jobpost/internal/models"
)

// Limits on staffing.
const (
	MaxWorkersPerSlot = 10
	MaxTotalWorkers   = 20
	MinAgencyWorkers  = 2
)

// Error codes.
const (
	CodeMissingSpecialization = "missing-specialization"
	CodeUnknownSpecialization = "unknown-specialization"
	CodeSingleWorkerLimit     = "single-worker-limit"
	CodeWorkersOutOfRange     = "workers-out-of-range"
	CodeTotalWorkerCap        = "total-worker-cap"
)

// Context says who the job is directed at.
type Context struct {
	// Agency is true when hiring through a multi-worker agency.
	Agency bool
	// Known reports whether a specialization exists. Nil accepts any id.
	Known func(id int) bool
}

// Individual is the context of a job directed at one worker.
var Individual = Context{}

// Agency is the context of a job directed at an agency.
var Agency = Context{Agency: true}

// Error is a rejected slot operation.
type Error struct {
	Code string
	// CurrentTotal and Requested are set for CodeTotalWorkerCap.
	CurrentTotal int
	Requested    int
}

func (e *Error) Error() string {
	switch e.Code {
	case CodeMissingSpecialization:
		return "please select a specialization"
	case CodeUnknownSpecialization:
		return "the selected specialization does not exist"
	case CodeSingleWorkerLimit:
		return "a job for an individual worker can only have one skill slot"
	case CodeWorkersOutOfRange:
		return fmt.Sprintf("workers needed must be between 1 and %d", MaxWorkersPerSlot)
	case CodeTotalWorkerCap:
		return fmt.Sprintf("cannot add %d workers: %d already requested, maximum is %d",
			e.Requested, e.CurrentTotal, MaxTotalWorkers)
	}
	return e.Code
}

// Add returns current with slot appended, or an *Error.
func Add(current []models.SkillSlot, slot models.SkillSlot, ctx Context) ([]models.SkillSlot, error) {
	if slot.SpecializationID <= 0 {
		return current, &Error{Code: CodeMissingSpecialization}
	}
	if ctx.Known != nil && !ctx.Known(slot.SpecializationID) {
		return current, &Error{Code: CodeUnknownSpecialization}
	}

	if !ctx.Agency {
		if len(current) > 0 {
			return current, &Error{Code: CodeSingleWorkerLimit}
		}
		slot.WorkersNeeded = 1
	} else if slot.WorkersNeeded < 1 || slot.WorkersNeeded > MaxWorkersPerSlot {
		return current, &Error{Code: CodeWorkersOutOfRange}
	}

	total := TotalWorkers(current)
	if total+slot.WorkersNeeded > MaxTotalWorkers {
		return current, &Error{
			Code:         CodeTotalWorkerCap,
			CurrentTotal: total,
			Requested:    slot.WorkersNeeded,
		}
	}

	out := make([]models.SkillSlot, 0, len(current)+1)
	out = append(out, current...)
	return append(out, slot), nil
}

// Remove returns current without the slot at index. An out of range index
// returns a copy of current.
func Remove(current []models.SkillSlot, index int) []models.SkillSlot {
	out := make([]models.SkillSlot, 0, len(current))
	for i, s := range current {
		if i != index {
			out = append(out, s)
		}
	}
	return out
}

// DeriveCategory returns the first slot's specialization.
func DeriveCategory(current []models.SkillSlot) (int, bool) {
	if len(current) == 0 {
		return 0, false
	}
	return current[0].SpecializationID, true
}

// TotalWorkers sums WorkersNeeded over all slots.
func TotalWorkers(current []models.SkillSlot) int {
	total := 0
	for _, s := range current {
		total += s.WorkersNeeded
	}
	return total
}
