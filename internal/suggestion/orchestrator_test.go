package suggestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/jobpost/internal/models"
)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   []models.SuggestionRequest
	delay   map[int]time.Duration
	failing map[models.SuggestionField]bool
}

func (f *fakeFetcher) FetchSuggestions(ctx context.Context, req models.SuggestionRequest) (*models.SuggestionResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	delay := f.delay[req.CategoryID]
	fail := f.failing[req.Field]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, errors.New("suggestion service unavailable")
	}

	res := &models.SuggestionResult{Field: req.Field}
	for i := 0; i < req.Limit+3; i++ {
		res.Suggestions = append(res.Suggestions, models.Suggestion{
			Text:      fmt.Sprintf("cat%d-%s-%d", req.CategoryID, req.Field, i),
			Frequency: 100 - i,
		})
	}
	return res, nil
}

func (f *fakeFetcher) Calls() []models.SuggestionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.SuggestionRequest(nil), f.calls...)
}

func id(v int) *int { return &v }

func allLoaded(o *Orchestrator) bool {
	for _, st := range o.Snapshot().Fields {
		if st.Loading {
			return false
		}
	}
	return true
}

func TestOrchestrator_FetchesEachFieldOnce(t *testing.T) {
	ff := &fakeFetcher{}
	o := NewOrchestrator(ff, Options{Stagger: 5 * time.Millisecond})
	defer o.Close()

	o.OnCategoryChange(id(4))
	snap := o.Snapshot()
	for _, f := range models.SuggestionFields {
		assert.True(t, snap.Fields[f].Loading, "field %s should be loading", f)
	}

	require.Eventually(t, func() bool { return allLoaded(o) }, time.Second, 2*time.Millisecond)

	calls := ff.Calls()
	require.Len(t, calls, 4)
	limits := map[models.SuggestionField]int{}
	for _, c := range calls {
		assert.Equal(t, 4, c.CategoryID)
		limits[c.Field] = c.Limit
	}
	assert.Equal(t, map[models.SuggestionField]int{
		models.SuggestionFieldTitle:       8,
		models.SuggestionFieldDescription: 6,
		models.SuggestionFieldMaterials:   8,
		models.SuggestionFieldDuration:    6,
	}, limits)

	snap = o.Snapshot()
	assert.Len(t, snap.Fields[models.SuggestionFieldTitle].Suggestions, 8)
	assert.Len(t, snap.Fields[models.SuggestionFieldDuration].Suggestions, 6)
	require.NotNil(t, snap.CategoryID)
	assert.Equal(t, 4, *snap.CategoryID)
}

func TestOrchestrator_StaggersFetches(t *testing.T) {
	ff := &fakeFetcher{}
	o := NewOrchestrator(ff, Options{Stagger: 40 * time.Millisecond})
	defer o.Close()

	o.OnCategoryChange(id(1))
	time.Sleep(15 * time.Millisecond)
	assert.Len(t, ff.Calls(), 1)
	assert.Equal(t, models.SuggestionFieldTitle, ff.Calls()[0].Field)

	require.Eventually(t, func() bool { return len(ff.Calls()) == 4 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, models.SuggestionFieldDuration, ff.Calls()[3].Field)
}

func TestOrchestrator_CategoryChangeDropsStaleResults(t *testing.T) {
	ff := &fakeFetcher{delay: map[int]time.Duration{1: 60 * time.Millisecond}}
	o := NewOrchestrator(ff, Options{Stagger: 10 * time.Millisecond})
	defer o.Close()

	o.OnCategoryChange(id(1))
	time.Sleep(5 * time.Millisecond)
	o.OnCategoryChange(id(2))

	require.Eventually(t, func() bool { return allLoaded(o) }, time.Second, 2*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	snap := o.Snapshot()
	for _, f := range models.SuggestionFields {
		for _, s := range snap.Fields[f].Suggestions {
			assert.Contains(t, s.Text, "cat2-", "stale suggestion %q leaked", s.Text)
		}
	}

	// at most the title fetch for category 1 fired before the change
	var forOld int
	for _, c := range ff.Calls() {
		if c.CategoryID == 1 {
			forOld++
		}
	}
	assert.LessOrEqual(t, forOld, 1)
}

func TestOrchestrator_FieldFailureIsIsolated(t *testing.T) {
	ff := &fakeFetcher{failing: map[models.SuggestionField]bool{models.SuggestionFieldMaterials: true}}
	o := NewOrchestrator(ff, Options{Stagger: time.Millisecond})
	defer o.Close()

	o.OnCategoryChange(id(9))
	require.Eventually(t, func() bool { return allLoaded(o) }, time.Second, 2*time.Millisecond)

	snap := o.Snapshot()
	assert.Empty(t, snap.Fields[models.SuggestionFieldMaterials].Suggestions)
	assert.NotEmpty(t, snap.Fields[models.SuggestionFieldTitle].Suggestions)
	assert.NotEmpty(t, snap.Fields[models.SuggestionFieldDescription].Suggestions)
	assert.NotEmpty(t, snap.Fields[models.SuggestionFieldDuration].Suggestions)
}

func TestOrchestrator_NilCategoryClears(t *testing.T) {
	ff := &fakeFetcher{}
	o := NewOrchestrator(ff, Options{Stagger: 20 * time.Millisecond})
	defer o.Close()

	o.OnCategoryChange(id(1))
	o.OnCategoryChange(nil)

	snap := o.Snapshot()
	assert.Nil(t, snap.CategoryID)
	for _, f := range models.SuggestionFields {
		assert.False(t, snap.Fields[f].Loading)
		assert.Empty(t, snap.Fields[f].Suggestions)
	}

	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, len(ff.Calls()), 1)
	assert.Empty(t, o.Snapshot().Fields[models.SuggestionFieldTitle].Suggestions)
}

func TestOrchestrator_SameCategoryIsNoop(t *testing.T) {
	ff := &fakeFetcher{}
	o := NewOrchestrator(ff, Options{Stagger: time.Millisecond})
	defer o.Close()

	o.OnCategoryChange(id(5))
	require.Eventually(t, func() bool { return allLoaded(o) }, time.Second, 2*time.Millisecond)
	o.OnCategoryChange(id(5))

	time.Sleep(20 * time.Millisecond)
	assert.Len(t, ff.Calls(), 4)
}

func TestOrchestrator_Close(t *testing.T) {
	ff := &fakeFetcher{}
	o := NewOrchestrator(ff, Options{Stagger: 20 * time.Millisecond})

	o.OnCategoryChange(id(1))
	o.Close()
	o.OnCategoryChange(id(2))

	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, len(ff.Calls()), 1)
}
