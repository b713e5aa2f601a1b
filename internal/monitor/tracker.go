package monitor

import "time"

// Tracker owns the last-activity instant for one session. It is read and
// written only from the monitor's run loop, so it needs no locking.
type Tracker struct {
	last time.Time
}

func NewTracker(now time.Time) *Tracker {
	return &Tracker{last: now}
}

// Touch records an activity instant. Stale instants (older than the
// current mark) are ignored.
func (t *Tracker) Touch(at time.Time) {
	if at.After(t.last) {
		t.last = at
	}
}

func (t *Tracker) Last() time.Time {
	return t.last
}

func (t *Tracker) Elapsed(now time.Time) time.Duration {
	return now.Sub(t.last)
}

// Remaining is the time left before the idle limit, clamped at zero.
func (t *Tracker) Remaining(now time.Time, idleTimeout time.Duration) time.Duration {
	remaining := idleTimeout - t.Elapsed(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
