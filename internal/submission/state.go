package submission

import (
	"time"

	"github.com/blockedby/jobpost/internal/models"
)

// Phase names a submission state.
type Phase string

// Phase constants.
const (
	PhaseIdle                 Phase = "idle"
	PhaseBuilding             Phase = "building"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
	PhaseSubmitting           Phase = "submitting"
	PhaseSucceeded            Phase = "succeeded"
	PhaseDegraded             Phase = "degraded"
	PhaseFailed               Phase = "failed"
)

// State is one phase of the submission flow. Each variant carries only the
// data valid in that phase.
type State interface {
	Phase() Phase
}

// Idle is the resting state.
type Idle struct{}

// Building is held while the draft is validated and the payload assembled.
type Building struct{}

// AwaitingConfirmation holds the payload until the user confirms or the
// countdown runs out.
type AwaitingConfirmation struct {
	Payload  models.JobPayload
	Deadline time.Time
}

// Submitting holds the payload while the job creation call is in flight.
type Submitting struct {
	Payload models.JobPayload
}

// Succeeded means the job was created and its id is usable.
type Succeeded struct {
	Redirect Redirect
	Message  string
}

// Degraded means the job was accepted but the response carried no usable id.
type Degraded struct {
	Message string
}

// Failed means the job creation call failed. Message is the collaborator's
// error text, unchanged.
type Failed struct {
	Message string
}

func (Idle) Phase() Phase                 { return PhaseIdle }
func (Building) Phase() Phase             { return PhaseBuilding }
func (AwaitingConfirmation) Phase() Phase { return PhaseAwaitingConfirmation }
func (Submitting) Phase() Phase           { return PhaseSubmitting }
func (Succeeded) Phase() Phase            { return PhaseSucceeded }
func (Degraded) Phase() Phase             { return PhaseDegraded }
func (Failed) Phase() Phase               { return PhaseFailed }

// RedirectKind is where the UI goes after a successful submission.
type RedirectKind string

// RedirectKind constants.
const (
	RedirectPayment   RedirectKind = "payment"
	RedirectJobDetail RedirectKind = "job_detail"
)

// Redirect is a navigation target.
type Redirect struct {
	Kind          RedirectKind `json:"kind"`
	JobID         int64        `json:"job_id"`
	DisplayBudget float64      `json:"display_budget,omitempty"`
	InvoiceURL    string       `json:"invoice_url,omitempty"`
}

// View is a JSON friendly rendering of a State.
type View struct {
	Phase       Phase              `json:"phase"`
	Payload     *models.JobPayload `json:"payload,omitempty"`
	SecondsLeft int                `json:"seconds_left,omitempty"`
	Redirect    *Redirect          `json:"redirect,omitempty"`
	Message     string             `json:"message,omitempty"`
}

// ViewOf renders s relative to now.
func ViewOf(s State, now time.Time) View {
	v := View{Phase: s.Phase()}
	switch st := s.(type) {
	case AwaitingConfirmation:
		p := st.Payload
		v.Payload = &p
		if left := st.Deadline.Sub(now); left > 0 {
			v.SecondsLeft = int((left + time.Second - 1) / time.Second)
		}
	case Submitting:
		p := st.Payload
		v.Payload = &p
	case Succeeded:
		r := st.Redirect
		v.Redirect = &r
		v.Message = st.Message
	case Degraded:
		v.Message = st.Message
	case Failed:
		v.Message = st.Message
	}
	return v
}
