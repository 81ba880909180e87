package composer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blockedby/jobpost/internal/models"
)

func TestCategorySelector_NotifiesOnlyOnChange(t *testing.T) {
	var sel categorySelector
	var first, second []*int
	sel.subscribe(func(id *int) { first = append(first, id) })
	sel.subscribe(func(id *int) { second = append(second, id) })

	sel.update(nil)
	assert.Empty(t, first, "nil to nil is not a change")

	sel.update([]models.SkillSlot{{SpecializationID: 4, WorkersNeeded: 1}})
	sel.update([]models.SkillSlot{{SpecializationID: 4, WorkersNeeded: 1}, {SpecializationID: 8, WorkersNeeded: 2}})
	sel.update([]models.SkillSlot{{SpecializationID: 8, WorkersNeeded: 2}})
	sel.update(nil)

	if assert.Len(t, first, 3) {
		assert.Equal(t, 4, *first[0])
		assert.Equal(t, 8, *first[1])
		assert.Nil(t, first[2])
	}
	assert.Len(t, second, 3)
	assert.Nil(t, sel.value())
}
