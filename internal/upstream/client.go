// Package upstream wraps the session service endpoints the coordinator
// consumes: the validity probe, session renewal, and best-effort logout
// invalidation. The client never inspects credential contents; it only
// forwards cookies and maps responses to valid/invalid.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	mePath      = "/auth/me"
	refreshPath = "/auth/refresh"
	logoutPath  = "/auth/logout"
)

// ErrRejected is returned when the session service explicitly refuses a
// refresh. A rejected refresh is a dead session, not a transient error.
var ErrRejected = fmt.Errorf("upstream rejected the session")

type Client struct {
	http *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			// The probe decides a redirect itself; upstream redirects
			// must not be followed into the edge layer.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Probe asks the session service whether the forwarded credential cookie
// is valid. Any transport failure, timeout, or non-2xx status resolves to
// false; the caller applies fail-open/fail-closed semantics per path class.
func (c *Client) Probe(ctx context.Context, base, cookieHeader string) bool {
	_, ok := c.Session(ctx, base, cookieHeader)
	return ok
}

// Session probes the session service and, on success, returns the session
// ID reported by /auth/me. The edge keys its monitors on this ID; the
// credential cookies themselves stay opaque. A valid session whose body
// cannot be parsed still counts as authenticated, with an empty ID.
func (c *Client) Session(ctx context.Context, base, cookieHeader string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+mePath, nil)
	if err != nil {
		return "", false
	}
	if cookieHeader != "" {
		req.Header.Set("Cookie", cookieHeader)
	}
	// An authentication decision must never come from a cache.
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false
	}

	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", true
	}
	return body.SessionID, true
}

// Refresh renews the session via the refresh credential cookie. A non-2xx
// response returns ErrRejected; transport errors are returned as-is.
func (c *Client) Refresh(ctx context.Context, base, cookieHeader string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+refreshPath, nil)
	if err != nil {
		return err
	}
	if cookieHeader != "" {
		req.Header.Set("Cookie", cookieHeader)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ErrRejected
	}
	return nil
}

// Invalidate asks the session service to end the session. Best-effort:
// callers log and swallow the error, the client-side logout never waits
// on it.
func (c *Client) Invalidate(ctx context.Context, base, cookieHeader string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+logoutPath, nil)
	if err != nil {
		return err
	}
	if cookieHeader != "" {
		req.Header.Set("Cookie", cookieHeader)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("logout invalidation returned status %d", resp.StatusCode)
	}
	return nil
}
