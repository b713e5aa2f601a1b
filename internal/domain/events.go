package domain

import (
	"net/url"
	"sync/atomic"
	"time"
)

// Topic names a session lifecycle event channel.
type Topic string

const (
	TopicSessionWarning   Topic = "session:warning"
	TopicSessionIdle      Topic = "session:idle"
	TopicSessionExpired   Topic = "session:expired"
	TopicSessionRefreshed Topic = "session:refreshed"
	TopicAuthExpired      Topic = "auth:session-expired"
)

// Reasons carried on login redirects.
const (
	ReasonIdle    = "idle"
	ReasonExpired = "expired"
	ReasonSignout = "signout"
)

// Event carries a session lifecycle signal to observers.
type Event struct {
	Topic     Topic         `json:"topic"`
	SessionID string        `json:"session_id,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Remaining time.Duration `json:"remaining,omitempty"`
	Redirect  string        `json:"redirect,omitempty"`
	At        time.Time     `json:"at"`
}

// RedirectIntent is a one-shot navigation target constructed at the moment
// of expiry detection and consumed exactly once by the navigation that
// follows.
type RedirectIntent struct {
	target   string
	consumed atomic.Bool
}

// NewRedirectIntent builds the login redirect for a given reason. The reason
// is the only query parameter attached.
func NewRedirectIntent(loginPath, reason string) *RedirectIntent {
	target := loginPath
	if reason != "" {
		q := url.Values{}
		q.Set(reason, "true")
		target = loginPath + "?" + q.Encode()
	}
	return &RedirectIntent{target: target}
}

// Consume returns the target the first time it is called and reports
// whether this call won the intent.
func (ri *RedirectIntent) Consume() (string, bool) {
	if ri.consumed.CompareAndSwap(false, true) {
		return ri.target, true
	}
	return "", false
}

// Target returns the redirect target without consuming the intent.
func (ri *RedirectIntent) Target() string {
	return ri.target
}
