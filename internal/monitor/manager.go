package monitor

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/BrightonDube/bizpilot-session/internal/authstore"
	"github.com/BrightonDube/bizpilot-session/internal/bus"
	"github.com/BrightonDube/bizpilot-session/internal/logout"
)

// UpstreamClient is the slice of the session service the manager needs.
type UpstreamClient interface {
	Refresh(ctx context.Context, base, cookieHeader string) error
	Invalidate(ctx context.Context, base, cookieHeader string) error
}

// Manager owns one Monitor per authenticated session seen at the edge.
// Monitors are created lazily on the first authenticated request and torn
// down on logout or shutdown.
type Manager struct {
	idleTimeout   time.Duration
	warningWindow time.Duration
	poll          time.Duration
	loginPath     string
	base          string

	events    *bus.Bus
	upstream  UpstreamClient
	navigator logout.Navigator

	mu       sync.Mutex
	monitors map[string]*Monitor
}

type ManagerOptions struct {
	IdleTimeout   time.Duration
	WarningWindow time.Duration
	PollInterval  time.Duration
	LoginPath     string
	Base          string
	Events        *bus.Bus
	Upstream      UpstreamClient
	Navigator     logout.Navigator
}

func NewManager(opts ManagerOptions) *Manager {
	return &Manager{
		idleTimeout:   opts.IdleTimeout,
		warningWindow: opts.WarningWindow,
		poll:          opts.PollInterval,
		loginPath:     opts.LoginPath,
		base:          opts.Base,
		events:        opts.Events,
		upstream:      opts.Upstream,
		navigator:     opts.Navigator,
		monitors:      make(map[string]*Monitor),
	}
}

// SetNavigator wires the navigation sink after construction; the events
// hub and the manager reference each other.
func (mm *Manager) SetNavigator(nav logout.Navigator) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.navigator = nav
}

// Ensure returns the monitor for a session, creating and starting one if
// this is the first time the session is seen. The cookie header is kept
// for upstream refresh/invalidation calls.
func (mm *Manager) Ensure(sessionID, cookieHeader string) *Monitor {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	if m, ok := mm.monitors[sessionID]; ok {
		return m
	}

	store := authstore.New()
	store.Init(sessionID, cookieHeader)

	coordinator := logout.NewCoordinator(
		sessionID, mm.loginPath, mm.base, store, mm.events, mm.upstream, mm.navigator)

	m := New(Options{
		SessionID:     sessionID,
		IdleTimeout:   mm.idleTimeout,
		WarningWindow: mm.warningWindow,
		PollInterval:  mm.poll,
		Base:          mm.base,
		Store:         store,
		Events:        mm.events,
		Upstream:      mm.upstream,
		Coordinator:   coordinator,
		OnExit:        mm.remove,
	})
	mm.monitors[sessionID] = m
	go m.Run()

	log.Printf("[MONITOR] Started watchdog for session %s", shortID(sessionID))
	return m
}

// Touch records activity for a session if it is being monitored.
func (mm *Manager) Touch(sessionID string) {
	mm.mu.Lock()
	m, ok := mm.monitors[sessionID]
	mm.mu.Unlock()
	if ok {
		m.Touch()
	}
}

// Get returns the monitor for a session, if any.
func (mm *Manager) Get(sessionID string) (*Monitor, bool) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	m, ok := mm.monitors[sessionID]
	return m, ok
}

func (mm *Manager) remove(sessionID string) {
	mm.mu.Lock()
	delete(mm.monitors, sessionID)
	mm.mu.Unlock()
}

// Shutdown stops every monitor and waits for the loops to exit.
func (mm *Manager) Shutdown() {
	mm.mu.Lock()
	monitors := make([]*Monitor, 0, len(mm.monitors))
	for _, m := range mm.monitors {
		monitors = append(monitors, m)
	}
	mm.mu.Unlock()

	for _, m := range monitors {
		m.Stop()
		m.Wait()
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
