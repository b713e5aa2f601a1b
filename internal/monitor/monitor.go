// Package monitor implements the per-session idle watchdog: the activity
// tracker, the session timer with its warning window, and the run loop
// that serializes both. Activity events and poll ticks flow through one
// goroutine per session, so an activity recorded before a tick is always
// observed by that tick's elapsed-time computation.
package monitor

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BrightonDube/bizpilot-session/internal/authstore"
	"github.com/BrightonDube/bizpilot-session/internal/bus"
	"github.com/BrightonDube/bizpilot-session/internal/domain"
	"github.com/BrightonDube/bizpilot-session/internal/logout"
)

// State of one monitored session.
type State int32

const (
	StateActive State = iota
	StateWarningShown
	StateLoggedOut // terminal
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateWarningShown:
		return "warning"
	case StateLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// RefreshClient renews a session upstream. A rejected refresh is fatal
// for the session, not retried.
type RefreshClient interface {
	Refresh(ctx context.Context, base, cookieHeader string) error
}

const refreshTimeout = 5 * time.Second

type commandKind int

const (
	cmdActivity commandKind = iota
	cmdExtend
	cmdSignOut
)

type command struct {
	kind commandKind
	at   time.Time
}

// Monitor watches one authenticated session for inactivity.
type Monitor struct {
	sessionID     string
	idleTimeout   time.Duration
	warningWindow time.Duration
	poll          time.Duration
	base          string

	store       *authstore.Store
	events      *bus.Bus
	upstream    RefreshClient
	coordinator *logout.Coordinator

	cmds     chan command
	quit     chan struct{}
	stopOnce sync.Once
	exited   chan struct{}
	onExit   func(sessionID string)

	state atomic.Int32

	// Run-loop-owned, never touched from outside the loop.
	tracker *Tracker
	warning *Warning
}

type Options struct {
	SessionID     string
	IdleTimeout   time.Duration
	WarningWindow time.Duration
	PollInterval  time.Duration
	Base          string
	Store         *authstore.Store
	Events        *bus.Bus
	Upstream      RefreshClient
	Coordinator   *logout.Coordinator
	OnExit        func(sessionID string)
}

func New(opts Options) *Monitor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	return &Monitor{
		sessionID:     opts.SessionID,
		idleTimeout:   opts.IdleTimeout,
		warningWindow: opts.WarningWindow,
		poll:          opts.PollInterval,
		base:          opts.Base,
		store:         opts.Store,
		events:        opts.Events,
		upstream:      opts.Upstream,
		coordinator:   opts.Coordinator,
		cmds:          make(chan command, 64),
		quit:          make(chan struct{}),
		exited:        make(chan struct{}),
		onExit:        opts.OnExit,
		tracker:       NewTracker(time.Now()),
	}
}

func (m *Monitor) SessionID() string {
	return m.sessionID
}

func (m *Monitor) State() State {
	return State(m.state.Load())
}

// Touch records user activity. Safe from any goroutine; the event is
// handed to the run loop. Dropping under a full queue is harmless since
// a later tick re-reads the same wall clock.
func (m *Monitor) Touch() {
	select {
	case m.cmds <- command{kind: cmdActivity, at: time.Now()}:
	case <-m.quit:
	default:
	}
}

// Extend asks for a session renewal (the "extend" choice on the warning).
func (m *Monitor) Extend() {
	select {
	case m.cmds <- command{kind: cmdExtend, at: time.Now()}:
	case <-m.quit:
	}
}

// SignOut ends the session immediately (the "sign out" choice).
func (m *Monitor) SignOut() {
	select {
	case m.cmds <- command{kind: cmdSignOut, at: time.Now()}:
	case <-m.quit:
	}
}

// Stop tears the monitor down without logging the session out: the
// ticker is stopped and the loop exits. Used on unmount and shutdown.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.quit) })
}

// Wait blocks until the run loop has exited.
func (m *Monitor) Wait() {
	<-m.exited
}

// Run drives the session timer until logout or Stop. Call it on its own
// goroutine, once.
func (m *Monitor) Run() {
	ticker := time.NewTicker(m.poll)
	defer func() {
		ticker.Stop()
		if m.onExit != nil {
			m.onExit(m.sessionID)
		}
		close(m.exited)
	}()

	for {
		select {
		case <-m.quit:
			return
		case cmd := <-m.cmds:
			if m.handle(cmd) {
				return
			}
		case <-ticker.C:
			if m.tick(time.Now()) {
				return
			}
		}
	}
}

// handle processes one command; returns true when the session reached its
// terminal state.
func (m *Monitor) handle(cmd command) bool {
	if m.State() == StateLoggedOut {
		return true
	}

	switch cmd.kind {
	case cmdActivity:
		m.recordActivity(cmd.at)
	case cmdExtend:
		return m.extend()
	case cmdSignOut:
		m.expire(domain.ReasonSignout)
		return true
	}
	return false
}

// recordActivity resets the idle clock and closes any open warning.
func (m *Monitor) recordActivity(at time.Time) {
	m.tracker.Touch(at)
	if m.warning != nil {
		m.warning = nil
		m.state.Store(int32(StateActive))
		m.events.Publish(domain.Event{
			Topic:     domain.TopicSessionRefreshed,
			SessionID: m.sessionID,
			At:        at,
		})
	}
}

// extend renews the session upstream. Success counts as fresh activity;
// an explicit rejection escalates straight to logout.
func (m *Monitor) extend() bool {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := m.upstream.Refresh(ctx, m.base, m.store.CookieHeader()); err != nil {
		log.Printf("[MONITOR] Refresh rejected for session %s: %v", m.sessionID, err)
		m.expire(domain.ReasonExpired)
		return true
	}

	m.recordActivity(time.Now())
	return false
}

// tick recomputes elapsed idle time; returns true on the terminal state.
func (m *Monitor) tick(now time.Time) bool {
	if m.State() == StateLoggedOut {
		return true
	}

	elapsed := m.tracker.Elapsed(now)
	remaining := m.tracker.Remaining(now, m.idleTimeout)

	if elapsed >= m.idleTimeout {
		m.events.Publish(domain.Event{
			Topic:     domain.TopicSessionIdle,
			SessionID: m.sessionID,
			Reason:    domain.ReasonIdle,
			At:        now,
		})
		m.expire(domain.ReasonIdle)
		return true
	}

	if elapsed >= m.idleTimeout-m.warningWindow {
		if m.warning == nil {
			m.warning = openWarning(now, remaining)
			m.state.Store(int32(StateWarningShown))
		} else {
			m.warning.update(remaining)
		}
		m.events.Publish(domain.Event{
			Topic:     domain.TopicSessionWarning,
			SessionID: m.sessionID,
			Remaining: m.warning.Remaining,
			At:        now,
		})
		// The warning's own countdown reaching zero and the idle check
		// above may race within one tick; logout is idempotent, so
		// whichever fires first wins and the other is absorbed.
		if m.warning.expired() {
			m.expire(domain.ReasonIdle)
			return true
		}
	}

	return false
}

// expire moves to the terminal state and hands off to the logout
// coordinator, which guarantees at-most-once execution.
func (m *Monitor) expire(reason string) {
	m.warning = nil
	m.state.Store(int32(StateLoggedOut))
	m.coordinator.Logout(reason)
	m.Stop()
}
