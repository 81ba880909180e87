// Package prediction debounces price prediction requests while a job draft is edited.
package prediction

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/blockedby/jobpost/internal/logger"
	"github.com/blockedby/jobpost/internal/models"
	"github.com/blockedby/jobpost/internal/scheduler"
)

// Gate thresholds and default timings.
const (
	MinTitleLength       = 5
	MinDescriptionLength = 10

	DefaultDebounce = 800 * time.Millisecond
	DefaultTimeout  = 15 * time.Second
)

// Predictor fetches a price prediction.
type Predictor interface {
	Predict(ctx context.Context, req models.PredictionRequest) (*models.Prediction, error)
}

// Status is the lifecycle state of the controller.
type Status string

// Status constants.
const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending" // debounce timer armed
	StatusLoading Status = "loading" // request in flight
	StatusFetched Status = "fetched"
)

// Input holds the draft fields a prediction depends on.
type Input struct {
	Title           string
	Description     string
	CategoryID      *int
	Urgency         models.Urgency
	SkillLevel      models.SkillLevel
	JobScope        models.JobScope
	WorkEnvironment models.WorkEnvironment
}

// InputFromDraft extracts the prediction inputs of a draft.
func InputFromDraft(d *models.JobDraft) Input {
	return Input{
		Title:           d.Title,
		Description:     d.Description,
		CategoryID:      d.CategoryID(),
		Urgency:         d.Urgency,
		SkillLevel:      d.SkillLevel,
		JobScope:        d.JobScope,
		WorkEnvironment: d.WorkEnvironment,
	}
}

// Qualifies reports whether in carries enough information to ask for a prediction.
func Qualifies(in Input) bool {
	return in.CategoryID != nil &&
		utf8.RuneCountInString(strings.TrimSpace(in.Title)) >= MinTitleLength &&
		utf8.RuneCountInString(strings.TrimSpace(in.Description)) >= MinDescriptionLength
}

func buildRequest(in Input) models.PredictionRequest {
	return models.PredictionRequest{
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		CategoryID:      *in.CategoryID,
		Urgency:         in.Urgency,
		SkillLevel:      in.SkillLevel,
		JobScope:        in.JobScope,
		WorkEnvironment: in.WorkEnvironment,
	}
}

// Snapshot is the advisory state exposed to the UI.
type Snapshot struct {
	Status     Status             `json:"status"`
	Prediction *models.Prediction `json:"prediction,omitempty"`
}

// Options tune a Controller. Zero values use the defaults.
type Options struct {
	Debounce time.Duration
	Timeout  time.Duration
	// OnUpdate is called after every state change, outside any lock.
	OnUpdate func(Snapshot)
	Log      *logger.Logger
}

// Controller owns the prediction state of one draft. Only the most recently
// armed request may write its result.
type Controller struct {
	predictor Predictor
	debounce  time.Duration
	timeout   time.Duration
	onUpdate  func(Snapshot)
	log       *logger.Logger
	tasks     *scheduler.Group

	mu      sync.Mutex
	seq     uint64
	timer   scheduler.Task
	cancel  context.CancelFunc
	status  Status
	result  *models.Prediction
	request *models.PredictionRequest
	closed  bool
}

// NewController creates an idle controller.
func NewController(predictor Predictor, opts Options) *Controller {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Controller{
		predictor: predictor,
		debounce:  opts.Debounce,
		timeout:   opts.Timeout,
		onUpdate:  opts.OnUpdate,
		log:       logger.OrGlobal(opts.Log).Component("prediction"),
		tasks:     scheduler.NewGroup(),
		status:    StatusIdle,
	}
}

// OnInputChange reacts to an edit of any prediction input.
//
// If the gate fails the pending timer is cancelled and the state resets to
// idle. Otherwise the debounce timer is (re)armed with the new request. An
// input equal to the one already pending, in flight or fetched is ignored.
func (c *Controller) OnInputChange(in Input) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	if !Qualifies(in) {
		wasIdle := c.status == StatusIdle
		c.invalidateLocked()
		c.status = StatusIdle
		c.mu.Unlock()
		if !wasIdle {
			c.notify()
		}
		return
	}

	req := buildRequest(in)
	if c.request != nil && *c.request == req && c.status != StatusIdle {
		c.mu.Unlock()
		return
	}

	c.invalidateLocked()
	seq := c.seq
	c.request = &req
	c.status = StatusPending
	c.timer = c.tasks.After(c.debounce, func() { c.fire(seq, req) })
	c.mu.Unlock()

	c.notify()
}

// invalidateLocked cancels the timer and any in-flight request and drops the result.
func (c *Controller) invalidateLocked() {
	c.seq++
	c.timer.Cancel()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.result = nil
	c.request = nil
}

func (c *Controller) fire(seq uint64, req models.PredictionRequest) {
	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	c.cancel = cancel
	c.status = StatusLoading
	c.mu.Unlock()
	c.notify()

	pred, err := c.predictor.Predict(ctx, req)
	cancel()

	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		return
	}
	c.cancel = nil
	if err != nil || pred == nil {
		if err != nil {
			c.log.Warn().Err(err).Int("category_id", req.CategoryID).Msg("price prediction failed")
		}
		c.status = StatusIdle
		c.result = nil
		c.request = nil
	} else {
		c.status = StatusFetched
		c.result = pred
	}
	c.mu.Unlock()

	c.notify()
}

// Snapshot returns the current advisory state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{Status: c.status}
	if c.result != nil {
		p := *c.result
		snap.Prediction = &p
	}
	return snap
}

// Close cancels any pending timer and in-flight request. Results that arrive
// afterwards are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.invalidateLocked()
	c.status = StatusIdle
	c.mu.Unlock()

	c.tasks.Close()
}

func (c *Controller) notify() {
	if c.onUpdate == nil {
		return
	}
	c.onUpdate(c.Snapshot())
}
