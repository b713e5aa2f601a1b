package monitor

import "time"

// Warning tracks the open warning presentation for a session. Its
// countdown is advisory display state; the authoritative clock stays in
// the session timer's poll.
type Warning struct {
	ShownAt   time.Time
	Remaining time.Duration
}

func openWarning(now time.Time, remaining time.Duration) *Warning {
	return &Warning{ShownAt: now, Remaining: remaining}
}

func (w *Warning) update(remaining time.Duration) {
	if remaining < 0 {
		remaining = 0
	}
	w.Remaining = remaining
}

func (w *Warning) expired() bool {
	return w.Remaining <= 0
}
