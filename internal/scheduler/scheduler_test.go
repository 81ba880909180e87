package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGroup_After(t *testing.T) {
	g := NewGroup()
	var ran atomic.Int32

	g.After(5*time.Millisecond, func() { ran.Add(1) })
	assert.Equal(t, 1, g.Pending())

	assert.Eventually(t, func() bool { return ran.Load() == 1 }, time.Second, 2*time.Millisecond)
	assert.Equal(t, 0, g.Pending())
}

func TestTask_Cancel(t *testing.T) {
	g := NewGroup()
	var ran atomic.Int32

	task := g.After(20*time.Millisecond, func() { ran.Add(1) })
	assert.True(t, task.Cancel())
	assert.False(t, task.Cancel())

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), ran.Load())
	assert.False(t, Task{}.Cancel())
}

func TestGroup_CancelAll(t *testing.T) {
	g := NewGroup()
	var ran atomic.Int32

	for i := 0; i < 4; i++ {
		g.After(time.Duration(10+i*5)*time.Millisecond, func() { ran.Add(1) })
	}
	assert.Equal(t, 4, g.CancelAll())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), ran.Load())

	// group stays usable after CancelAll
	g.After(time.Millisecond, func() { ran.Add(1) })
	assert.Eventually(t, func() bool { return ran.Load() == 1 }, time.Second, 2*time.Millisecond)
}

func TestGroup_Close(t *testing.T) {
	g := NewGroup()
	var ran atomic.Int32

	g.After(10*time.Millisecond, func() { ran.Add(1) })
	g.Close()

	task := g.After(time.Millisecond, func() { ran.Add(1) })
	assert.False(t, task.Cancel())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), ran.Load())
	assert.Equal(t, 0, g.Pending())
}
