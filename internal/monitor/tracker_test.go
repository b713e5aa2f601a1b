package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackerTouchMovesForwardOnly(t *testing.T) {
	start := time.Now()
	tr := NewTracker(start)

	tr.Touch(start.Add(10 * time.Second))
	assert.Equal(t, start.Add(10*time.Second), tr.Last())

	// Stale instants are ignored.
	tr.Touch(start.Add(5 * time.Second))
	assert.Equal(t, start.Add(10*time.Second), tr.Last())
}

func TestTrackerElapsed(t *testing.T) {
	start := time.Now()
	tr := NewTracker(start)

	assert.Equal(t, 30*time.Second, tr.Elapsed(start.Add(30*time.Second)))
}

func TestTrackerRemainingClampsAtZero(t *testing.T) {
	start := time.Now()
	tr := NewTracker(start)

	idle := time.Minute
	assert.Equal(t, 30*time.Second, tr.Remaining(start.Add(30*time.Second), idle))
	assert.Equal(t, time.Duration(0), tr.Remaining(start.Add(2*time.Minute), idle))
}
