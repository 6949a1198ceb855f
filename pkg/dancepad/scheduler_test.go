package dancepad

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-dancepad/pkg/skeleton"
)

func countState(e *Engine, s State) int {
	n := 0
	for _, h := range e.Holes() {
		if h.State() == s {
			n++
		}
	}
	return n
}

func TestScheduler_OneTargetAtATime(t *testing.T) {
	e := NewEngine(testConfig(), DefaultLayout(), Sinks{})
	s := NewScheduler(SchedulerConfig{Interval: 300 * time.Millisecond, Value: 10, Seed: 7}, e)

	assert.Equal(t, -1, s.Update(frame))
	assert.Equal(t, -1, s.Update(frame))
	id := s.Update(frame)
	require.GreaterOrEqual(t, id, 0)
	assert.Equal(t, 1, countState(e, Active))

	for i := 0; i < 20; i++ {
		assert.Equal(t, -1, s.Update(frame), "busy pad must not pop another target")
	}
	assert.Equal(t, 1, countState(e, Active))
}

func TestScheduler_NextSkipsBusyHoles(t *testing.T) {
	e := NewEngine(testConfig(), DefaultLayout(), Sinks{})
	s := NewScheduler(DefaultSchedulerConfig(), e)

	seen := map[int]bool{}
	for range e.Holes() {
		id, err := s.Next()
		require.NoError(t, err)
		assert.False(t, seen[id], "hole %d activated twice", id)
		seen[id] = true
	}
	_, err := s.Next()
	assert.ErrorIs(t, err, ErrNoInactiveHole)
}

func TestScheduler_DecoyChance(t *testing.T) {
	e := NewEngine(testConfig(), DefaultLayout(), Sinks{})
	s := NewScheduler(SchedulerConfig{Value: 10, DecoyChance: 1, Seed: 3}, e)
	id, err := s.Next()
	require.NoError(t, err)
	h, _ := e.Hole(id)
	assert.False(t, h.Target().Kickable)
	assert.Zero(t, h.Target().Award())
}

func TestGridLayout(t *testing.T) {
	holes := GridLayout(r3.Vec{}, 2, 3, 0.5, 0.2, 0.1)
	require.Len(t, holes, 6)

	dirs := []Direction{DirectionLeft, DirectionAny, DirectionRight}
	for i, h := range holes {
		assert.Equal(t, i, h.ID)
		assert.Equal(t, dirs[i%3], h.Direction, "hole %d", i)
		assert.Equal(t, Inactive, h.State())
	}

	c := holes[0].Center()
	assert.InDelta(t, -0.5, c.X, 1e-9)
	assert.InDelta(t, -0.25, c.Z, 1e-9)
	assert.True(t, holes[0].Contains(r3.Vec{X: -0.5, Y: 0.05, Z: -0.25}))
	assert.False(t, holes[0].Contains(r3.Vec{X: -0.5, Y: 0.2, Z: -0.25}))
}

func TestDirectionAccepts(t *testing.T) {
	assert.True(t, DirectionLeft.Accepts(skeleton.LeftToe))
	assert.False(t, DirectionLeft.Accepts(skeleton.RightFoot))
	assert.False(t, DirectionAny.Accepts(skeleton.Head))
	assert.True(t, DirectionRight.Accepts(skeleton.RightFoot))
}
