package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadQueueSequencesOneAtATime(t *testing.T) {
	q := NewLoadQueue(0, 1, 2)

	idx, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	// a second Next while busy yields nothing
	_, ok = q.Next()
	assert.False(t, ok)

	stale := q.Done(0)
	assert.False(t, stale)

	idx, ok = q.Next()
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestLoadQueueStaleResults(t *testing.T) {
	q := NewLoadQueue(0, 1)

	_, ok := q.Next()
	require.True(t, ok)

	// a result for a file that is not the active one is stale
	assert.True(t, q.Done(1))
	// the real result still lands
	assert.False(t, q.Done(0))
	// a duplicate arrival after completion is stale too
	assert.True(t, q.Done(0))
}

func TestLoadQueueResetSupersedesInFlight(t *testing.T) {
	q := NewLoadQueue(0, 1, 2)

	idx, ok := q.Next()
	require.True(t, ok)
	require.Equal(t, 0, idx)

	q.Reset()
	assert.True(t, q.Idle())

	// the in-flight load's result arrives after the reset
	assert.True(t, q.Done(0))

	_, ok = q.Next()
	assert.False(t, ok)
}

func TestLoadQueueEnqueueAfterDrain(t *testing.T) {
	q := NewLoadQueue()
	assert.True(t, q.Idle())

	q.Enqueue(5)
	idx, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, 5, idx)
	assert.False(t, q.Idle())

	q.Done(5)
	assert.True(t, q.Idle())
}
