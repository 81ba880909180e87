// Package submission drives a validated job draft through confirmation and creation.
package submission

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/blockedby/jobpost/internal/logger"
	"github.com/blockedby/jobpost/internal/models"
	"github.com/blockedby/jobpost/internal/pricing"
	"github.com/blockedby/jobpost/internal/scheduler"
)

// DefaultCountdown is how long a built payload waits for confirmation.
const DefaultCountdown = 5 * time.Second

// DegradedMessage is shown when the job was accepted without a usable id.
const DegradedMessage = "Your job request was submitted. You can find it under My Jobs."

// errors
var (
	ErrInProgress              = errors.New("a submission is already in progress")
	ErrNotAwaitingConfirmation = errors.New("no job request is awaiting confirmation")
)

// JobCreator persists a job request.
type JobCreator interface {
	CreateJob(ctx context.Context, payload models.JobPayload) (*models.CreateJobResponse, error)
}

// Validator gates a draft before a payload is built.
type Validator interface {
	Validate(d *models.JobDraft, walletBalance float64, agency bool) error
}

// Options tune an Orchestrator.
type Options struct {
	Countdown time.Duration
	// OnChange is called after every transition, outside any lock.
	OnChange func(State)
	Log      *logger.Logger
}

// Orchestrator runs Idle -> Building -> AwaitingConfirmation -> Submitting ->
// Succeeded | Degraded | Failed. Terminal states accept a new Submit.
type Orchestrator struct {
	validator Validator
	creator   JobCreator
	countdown time.Duration
	onChange  func(State)
	log       *logger.Logger
	tasks     *scheduler.Group
	now       func() time.Time

	mu      sync.Mutex
	state   State
	attempt uint64
	expiry  scheduler.Task
}

// NewOrchestrator creates an idle orchestrator.
func NewOrchestrator(v Validator, creator JobCreator, opts Options) *Orchestrator {
	if opts.Countdown <= 0 {
		opts.Countdown = DefaultCountdown
	}
	return &Orchestrator{
		validator: v,
		creator:   creator,
		countdown: opts.Countdown,
		onChange:  opts.OnChange,
		log:       logger.OrGlobal(opts.Log).Component("submission"),
		tasks:     scheduler.NewGroup(),
		now:       time.Now,
		state:     Idle{},
	}
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Submit validates the draft and, on success, holds the built payload for
// confirmation. A validation failure returns to Idle and is returned as is.
func (o *Orchestrator) Submit(in Input) (State, error) {
	o.mu.Lock()
	switch o.state.(type) {
	case Building, AwaitingConfirmation, Submitting:
		o.mu.Unlock()
		return nil, ErrInProgress
	}
	o.state = Building{}
	o.mu.Unlock()
	o.changed(Building{})

	if err := o.validator.Validate(in.Draft, in.WalletBalance, in.Agency()); err != nil {
		o.transition(Idle{})
		return Idle{}, err
	}

	payload := BuildPayload(in)

	o.mu.Lock()
	o.attempt++
	attempt := o.attempt
	st := AwaitingConfirmation{Payload: payload, Deadline: o.now().Add(o.countdown)}
	o.state = st
	o.expiry = o.tasks.After(o.countdown, func() { o.expire(attempt) })
	o.mu.Unlock()
	o.changed(st)

	return st, nil
}

// expire cancels an unconfirmed payload once its countdown ran out.
func (o *Orchestrator) expire(attempt uint64) {
	o.mu.Lock()
	if _, ok := o.state.(AwaitingConfirmation); !ok || attempt != o.attempt {
		o.mu.Unlock()
		return
	}
	o.state = Idle{}
	o.mu.Unlock()

	o.log.Info().Msg("confirmation countdown expired, job request discarded")
	o.changed(Idle{})
}

// Cancel discards the payload awaiting confirmation.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	if _, ok := o.state.(AwaitingConfirmation); !ok {
		o.mu.Unlock()
		return ErrNotAwaitingConfirmation
	}
	o.expiry.Cancel()
	o.state = Idle{}
	o.mu.Unlock()

	o.changed(Idle{})
	return nil
}

// Confirm sends the held payload to the job creator exactly once and returns
// the resulting terminal state.
func (o *Orchestrator) Confirm(ctx context.Context) (State, error) {
	o.mu.Lock()
	aw, ok := o.state.(AwaitingConfirmation)
	if !ok {
		o.mu.Unlock()
		return nil, ErrNotAwaitingConfirmation
	}
	o.expiry.Cancel()
	sub := Submitting{Payload: aw.Payload}
	o.state = sub
	o.mu.Unlock()
	o.changed(sub)

	resp, err := o.creator.CreateJob(ctx, aw.Payload)
	if err != nil {
		o.log.Warn().Err(err).Str("title", aw.Payload.Title).Msg("job creation failed")
		st := Failed{Message: err.Error()}
		o.transition(st)
		return st, nil
	}

	st := interpret(resp, aw.Payload)
	if _, degraded := st.(Degraded); degraded {
		o.log.Warn().Str("job_id", resp.JobID).Msg("job created but response has no usable job id")
	}
	o.transition(st)
	return st, nil
}

// Reset returns a terminal state to Idle.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	switch o.state.(type) {
	case Succeeded, Degraded, Failed:
		o.state = Idle{}
	default:
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()
	o.changed(Idle{})
}

// Close stops the confirmation countdown.
func (o *Orchestrator) Close() {
	o.tasks.Close()
}

func (o *Orchestrator) transition(st State) {
	o.mu.Lock()
	o.state = st
	o.mu.Unlock()
	o.changed(st)
}

func (o *Orchestrator) changed(st State) {
	if o.onChange != nil {
		o.onChange(st)
	}
}

// interpret branches on the shape of the creation response.
func interpret(resp *models.CreateJobResponse, payload models.JobPayload) State {
	if resp == nil {
		return Degraded{Message: DegradedMessage}
	}
	jobID, err := strconv.ParseInt(strings.TrimSpace(resp.JobID), 10, 64)
	if err != nil || jobID <= 0 {
		return Degraded{Message: DegradedMessage}
	}

	if resp.RequiresPayment {
		return Succeeded{
			Redirect: Redirect{
				Kind:          RedirectPayment,
				JobID:         jobID,
				DisplayBudget: pricing.Round2(payload.Budget),
				InvoiceURL:    resp.InvoiceURL,
			},
			Message: resp.Message,
		}
	}

	return Succeeded{
		Redirect: Redirect{Kind: RedirectJobDetail, JobID: jobID},
		Message:  resp.Message,
	}
}
