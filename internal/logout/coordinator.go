// Package logout is the single choke point for ending a session,
// whatever the trigger: idle timeout, explicit sign-out, an expired
// session detected upstream, or a failed refresh.
package logout

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/BrightonDube/bizpilot-session/internal/authstore"
	"github.com/BrightonDube/bizpilot-session/internal/bus"
	"github.com/BrightonDube/bizpilot-session/internal/domain"
)

// Navigator performs the full-document navigation that follows an ended
// session. A full page load is required on expiry so the next response is
// a complete server-rendered document, never a partial fragment.
type Navigator interface {
	Navigate(sessionID string, intent *domain.RedirectIntent)
}

// Invalidator is the best-effort upstream cleanup call.
type Invalidator interface {
	Invalidate(ctx context.Context, base, cookieHeader string) error
}

const invalidateTimeout = 5 * time.Second

type Coordinator struct {
	sessionID string
	loginPath string
	base      string

	store     *authstore.Store
	events    *bus.Bus
	upstream  Invalidator
	navigator Navigator

	// Set synchronously before any asynchronous work in Logout, so a
	// second near-simultaneous trigger cannot slip through.
	done atomic.Bool
}

func NewCoordinator(sessionID, loginPath, base string, store *authstore.Store, events *bus.Bus, upstream Invalidator, nav Navigator) *Coordinator {
	return &Coordinator{
		sessionID: sessionID,
		loginPath: loginPath,
		base:      base,
		store:     store,
		events:    events,
		upstream:  upstream,
		navigator: nav,
	}
}

// Logout ends the session at most once. Identity state is cleared
// synchronously, navigation is scheduled before the upstream cleanup,
// and the cleanup itself is fire-and-forget.
func (c *Coordinator) Logout(reason string) {
	if !c.done.CompareAndSwap(false, true) {
		return
	}

	cookieHeader := c.store.CookieHeader()
	c.store.Teardown()

	intent := domain.NewRedirectIntent(c.loginPath, reason)
	if c.navigator != nil {
		c.navigator.Navigate(c.sessionID, intent)
	}

	c.events.Publish(domain.Event{
		Topic:     domain.TopicSessionExpired,
		SessionID: c.sessionID,
		Reason:    reason,
		Redirect:  intent.Target(),
		At:        time.Now(),
	})
	c.events.Publish(domain.Event{
		Topic:     domain.TopicAuthExpired,
		SessionID: c.sessionID,
		Reason:    reason,
		At:        time.Now(),
	})

	if c.upstream != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
			defer cancel()
			if err := c.upstream.Invalidate(ctx, c.base, cookieHeader); err != nil {
				log.Printf("[LOGOUT] Warning: upstream invalidation failed for session %s: %v", c.sessionID, err)
			}
		}()
	}
}

// Done reports whether the session has already been ended.
func (c *Coordinator) Done() bool {
	return c.done.Load()
}
