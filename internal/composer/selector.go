package composer

import (
	"sync"

	"github.com/blockedby/jobpost/internal/models"
	"github.com/blockedby/jobpost/internal/slots"
)

// categorySelector derives the draft category from its skill slots and tells
// subscribers only when the derived value changes.
type categorySelector struct {
	mu          sync.Mutex
	current     *int
	subscribers []func(*int)
}

func (s *categorySelector) subscribe(fn func(*int)) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// update recomputes the category. Subscribers run synchronously, in
// subscription order, after the lock is released.
func (s *categorySelector) update(current []models.SkillSlot) {
	var next *int
	if id, ok := slots.DeriveCategory(current); ok {
		next = &id
	}

	s.mu.Lock()
	if equalCategory(s.current, next) {
		s.mu.Unlock()
		return
	}
	s.current = next
	subs := append([]func(*int){}, s.subscribers...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(copyCategory(next))
	}
}

func (s *categorySelector) value() *int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCategory(s.current)
}

func equalCategory(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyCategory(v *int) *int {
	if v == nil {
		return nil
	}
	id := *v
	return &id
}
