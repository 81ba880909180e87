package slots

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/jobpost/internal/models"
)

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var slotErr *Error
	require.True(t, errors.As(err, &slotErr), "expected *slots.Error, got %v", err)
	return slotErr.Code
}

func TestAdd_Order(t *testing.T) {
	t.Run("missing specialization checked first", func(t *testing.T) {
		existing := []models.SkillSlot{{SpecializationID: 1, WorkersNeeded: 1}}
		_, err := Add(existing, models.SkillSlot{WorkersNeeded: 99}, Individual)
		assert.Equal(t, CodeMissingSpecialization, codeOf(t, err))
	})

	t.Run("unknown specialization rejected before staffing rules", func(t *testing.T) {
		known := Context{Known: func(id int) bool { return id == 1 }}
		existing := []models.SkillSlot{{SpecializationID: 1, WorkersNeeded: 1}}
		_, err := Add(existing, models.SkillSlot{SpecializationID: 999, WorkersNeeded: 1}, known)
		assert.Equal(t, CodeUnknownSpecialization, codeOf(t, err))

		got, err := Add(nil, models.SkillSlot{SpecializationID: 1}, known)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("individual pins workers to one", func(t *testing.T) {
		got, err := Add(nil, models.SkillSlot{SpecializationID: 3, WorkersNeeded: 7}, Individual)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 1, got[0].WorkersNeeded)
	})

	t.Run("agency workers range", func(t *testing.T) {
		for _, n := range []int{0, -1, 11} {
			_, err := Add(nil, models.SkillSlot{SpecializationID: 3, WorkersNeeded: n}, Agency)
			assert.Equal(t, CodeWorkersOutOfRange, codeOf(t, err), "workers %d", n)
		}
		got, err := Add(nil, models.SkillSlot{SpecializationID: 3, WorkersNeeded: 10}, Agency)
		require.NoError(t, err)
		assert.Equal(t, 10, got[0].WorkersNeeded)
	})

	t.Run("total cap carries totals", func(t *testing.T) {
		current := []models.SkillSlot{
			{SpecializationID: 1, WorkersNeeded: 10},
			{SpecializationID: 2, WorkersNeeded: 8},
		}
		_, err := Add(current, models.SkillSlot{SpecializationID: 3, WorkersNeeded: 3}, Agency)
		var slotErr *Error
		require.ErrorAs(t, err, &slotErr)
		assert.Equal(t, CodeTotalWorkerCap, slotErr.Code)
		assert.Equal(t, 18, slotErr.CurrentTotal)
		assert.Equal(t, 3, slotErr.Requested)
		assert.Contains(t, slotErr.Error(), "18")

		got, err := Add(current, models.SkillSlot{SpecializationID: 3, WorkersNeeded: 2}, Agency)
		require.NoError(t, err)
		assert.Equal(t, 20, TotalWorkers(got))
	})

	t.Run("does not mutate input", func(t *testing.T) {
		current := make([]models.SkillSlot, 1, 4)
		current[0] = models.SkillSlot{SpecializationID: 1, WorkersNeeded: 2}
		got, err := Add(current, models.SkillSlot{SpecializationID: 2, WorkersNeeded: 2}, Agency)
		require.NoError(t, err)
		got[0].WorkersNeeded = 9
		assert.Equal(t, 2, current[0].WorkersNeeded)
		assert.Len(t, current, 1)
	})
}

func TestAdd_IndividualSingleSlot(t *testing.T) {
	current, err := Add(nil, models.SkillSlot{SpecializationID: 5}, Individual)
	require.NoError(t, err)

	for spec := 1; spec <= 20; spec++ {
		_, err := Add(current, models.SkillSlot{SpecializationID: spec, WorkersNeeded: 1}, Individual)
		assert.Equal(t, CodeSingleWorkerLimit, codeOf(t, err))
	}
}

func TestAdd_TotalNeverExceedsCap(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var current []models.SkillSlot
	for n := 0; n < 500; n++ {
		slot := models.SkillSlot{
			SpecializationID: rng.Intn(5),
			WorkersNeeded:    rng.Intn(14) - 1,
		}
		if next, err := Add(current, slot, Agency); err == nil {
			current = next
		}
		if rng.Intn(6) == 0 {
			current = Remove(current, rng.Intn(len(current)+1))
		}
		assert.LessOrEqual(t, TotalWorkers(current), MaxTotalWorkers)
	}
}

func TestRemove(t *testing.T) {
	current := []models.SkillSlot{
		{SpecializationID: 1, WorkersNeeded: 1},
		{SpecializationID: 2, WorkersNeeded: 2},
		{SpecializationID: 3, WorkersNeeded: 3},
	}

	got := Remove(current, 0)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].SpecializationID)
	assert.Len(t, current, 3)

	assert.Len(t, Remove(current, 7), 3)
	assert.Len(t, Remove(current, -1), 3)
	assert.Empty(t, Remove(nil, 0))
}

func TestDeriveCategory(t *testing.T) {
	_, ok := DeriveCategory(nil)
	assert.False(t, ok)

	current, err := Add(nil, models.SkillSlot{SpecializationID: 7, WorkersNeeded: 2}, Agency)
	require.NoError(t, err)
	for _, spec := range []int{9, 4, 11} {
		current, err = Add(current, models.SkillSlot{SpecializationID: spec, WorkersNeeded: 1}, Agency)
		require.NoError(t, err)
		id, ok := DeriveCategory(current)
		assert.True(t, ok)
		assert.Equal(t, 7, id)
	}

	id, ok := DeriveCategory(Remove(current, 0))
	assert.True(t, ok)
	assert.Equal(t, 9, id)
}
