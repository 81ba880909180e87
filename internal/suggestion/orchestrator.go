// Package suggestion fetches per-field job suggestions for the selected category.
package suggestion

import (
	"context"
	"sync"
	"time"

	"github.com/blockedby/jobpost/internal/logger"
	"github.com/blockedby/jobpost/internal/models"
	"github.com/blockedby/jobpost/internal/scheduler"
)

// Default timings.
const (
	DefaultStagger = 200 * time.Millisecond
	DefaultTimeout = 10 * time.Second
)

// Limits is the number of suggestions requested per field.
var Limits = map[models.SuggestionField]int{
	models.SuggestionFieldTitle:       8,
	models.SuggestionFieldDescription: 6,
	models.SuggestionFieldMaterials:   8,
	models.SuggestionFieldDuration:    6,
}

// Fetcher loads suggestions for one field.
type Fetcher interface {
	FetchSuggestions(ctx context.Context, req models.SuggestionRequest) (*models.SuggestionResult, error)
}

// FieldState is the advisory state of one field.
type FieldState struct {
	Loading     bool                `json:"loading"`
	Suggestions []models.Suggestion `json:"suggestions"`
}

// Snapshot is the advisory state of all fields.
type Snapshot struct {
	CategoryID *int                                  `json:"category_id,omitempty"`
	Fields     map[models.SuggestionField]FieldState `json:"fields"`
}

// Options tune an Orchestrator. Zero values use the defaults.
type Options struct {
	Stagger  time.Duration
	Timeout  time.Duration
	OnUpdate func(Snapshot)
	Log      *logger.Logger
}

// Orchestrator schedules staggered suggestion fetches per category. A new
// category cancels everything scheduled or in flight for the previous one;
// each fetch is tagged with its generation and dropped on mismatch.
type Orchestrator struct {
	fetcher  Fetcher
	stagger  time.Duration
	timeout  time.Duration
	onUpdate func(Snapshot)
	log      *logger.Logger
	tasks    *scheduler.Group

	mu       sync.Mutex
	gen      uint64
	category *int
	cancel   context.CancelFunc
	fields   map[models.SuggestionField]*FieldState
	closed   bool
}

// NewOrchestrator creates an orchestrator with no category.
func NewOrchestrator(fetcher Fetcher, opts Options) *Orchestrator {
	if opts.Stagger <= 0 {
		opts.Stagger = DefaultStagger
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	o := &Orchestrator{
		fetcher:  fetcher,
		stagger:  opts.Stagger,
		timeout:  opts.Timeout,
		onUpdate: opts.OnUpdate,
		log:      logger.OrGlobal(opts.Log).Component("suggestion"),
		tasks:    scheduler.NewGroup(),
	}
	o.resetLocked()
	return o
}

func (o *Orchestrator) resetLocked() {
	o.fields = make(map[models.SuggestionField]*FieldState, len(models.SuggestionFields))
	for _, f := range models.SuggestionFields {
		o.fields[f] = &FieldState{Suggestions: []models.Suggestion{}}
	}
}

// OnCategoryChange resets all fields and schedules one fetch per field for
// categoryID. A nil category only clears. Calling it with the current
// category is a no-op.
func (o *Orchestrator) OnCategoryChange(categoryID *int) {
	o.mu.Lock()
	if o.closed || sameCategory(o.category, categoryID) {
		o.mu.Unlock()
		return
	}

	o.gen++
	o.tasks.CancelAll()
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.resetLocked()
	o.category = nil

	if categoryID != nil {
		id := *categoryID
		o.category = &id

		ctx, cancel := context.WithCancel(context.Background())
		o.cancel = cancel
		gen := o.gen
		for i, field := range models.SuggestionFields {
			field := field
			o.fields[field].Loading = true
			o.tasks.After(time.Duration(i)*o.stagger, func() {
				o.fetch(ctx, gen, id, field)
			})
		}
	}
	o.mu.Unlock()

	o.notify()
}

func (o *Orchestrator) fetch(ctx context.Context, gen uint64, categoryID int, field models.SuggestionField) {
	o.mu.Lock()
	if o.closed || gen != o.gen {
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()

	limit := Limits[field]
	fctx, cancel := context.WithTimeout(ctx, o.timeout)
	res, err := o.fetcher.FetchSuggestions(fctx, models.SuggestionRequest{
		CategoryID: categoryID,
		Field:      field,
		Limit:      limit,
	})
	cancel()

	o.mu.Lock()
	if o.closed || gen != o.gen {
		o.mu.Unlock()
		return
	}
	st := o.fields[field]
	st.Loading = false
	st.Suggestions = []models.Suggestion{}
	if err != nil {
		o.log.Warn().Err(err).
			Int("category_id", categoryID).
			Str("field", string(field)).
			Msg("suggestion fetch failed")
	} else if res != nil {
		for _, s := range res.Suggestions {
			if len(st.Suggestions) == limit {
				break
			}
			st.Suggestions = append(st.Suggestions, s)
		}
	}
	o.mu.Unlock()

	o.notify()
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := Snapshot{Fields: make(map[models.SuggestionField]FieldState, len(o.fields))}
	if o.category != nil {
		id := *o.category
		snap.CategoryID = &id
	}
	for f, st := range o.fields {
		snap.Fields[f] = FieldState{
			Loading:     st.Loading,
			Suggestions: append([]models.Suggestion{}, st.Suggestions...),
		}
	}
	return snap
}

// Close cancels all scheduled and in-flight fetches.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.gen++
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.mu.Unlock()

	o.tasks.Close()
}

func (o *Orchestrator) notify() {
	if o.onUpdate == nil {
		return
	}
	o.onUpdate(o.Snapshot())
}

func sameCategory(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
