// Package guard is the edge route guard: before any page is served it
// classifies the path, independently re-validates the session against the
// session service under a hard timeout, and either passes the request
// through or redirects. It is a pure gate; its only side effect is the
// probe itself.
package guard

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
)

// RedirectStatus is the status used for every guard redirect.
// 307 sits in the non-cacheable redirect class: a browser or CDN that
// cached the redirect would pin users to a stale auth decision, so the
// cacheable statuses below are forbidden here by contract, not by style.
const RedirectStatus = http.StatusTemporaryRedirect

// Forbidden cacheable redirect statuses (never use for auth decisions).
const (
	forbiddenMovedPermanently  = http.StatusMovedPermanently  // 301
	forbiddenPermanentRedirect = http.StatusPermanentRedirect // 308
)

// NextParam carries the original request path on login redirects.
const NextParam = "next"

// ContextSessionID is the gin context key under which the guard exposes
// the probed session ID for downstream middleware.
const ContextSessionID = "guard_session_id"

// Prober re-validates a session and reports its ID. Implemented by
// upstream.Client.
type Prober interface {
	Session(ctx context.Context, base, cookieHeader string) (string, bool)
}

type Guard struct {
	classifier   *Classifier
	prober       Prober
	probeTimeout time.Duration
	base         string // empty: probe same origin as the request
	loginPath    string
	landingPath  string
}

type Options struct {
	Classifier   *Classifier
	Prober       Prober
	ProbeTimeout time.Duration
	Base         string
	LoginPath    string
	LandingPath  string
}

func New(opts Options) *Guard {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}
	return &Guard{
		classifier:   opts.Classifier,
		prober:       opts.Prober,
		probeTimeout: opts.ProbeTimeout,
		base:         opts.Base,
		loginPath:    opts.LoginPath,
		landingPath:  opts.LandingPath,
	}
}

// Middleware mounts the guard in front of the page-serving handler chain.
func (g *Guard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		class := g.classifier.Classify(path)

		if class == ClassInternal {
			c.Next()
			return
		}

		sessionID, authed := g.probe(c.Request)

		switch class {
		case ClassPublic, ClassGuest:
			if authed {
				// Authenticated users land on the dashboard; incoming
				// query parameters are dropped.
				g.redirect(c, g.landingPath)
				return
			}
			c.Next()

		case ClassProtected:
			if !authed {
				g.redirect(c, g.LoginRedirectURL(path))
				return
			}
			c.Set(ContextSessionID, sessionID)
			c.Next()
		}
	}
}

// probe re-validates the session under the hard timeout. Every failure
// mode (timeout, network error, non-success status) resolves to "not
// authenticated"; nothing is ever raised to the caller.
func (g *Guard) probe(r *http.Request) (string, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), g.probeTimeout)
	defer cancel()

	return g.prober.Session(ctx, g.resolveBase(r), r.Header.Get("Cookie"))
}

// resolveBase picks the probe target: the configured base, or the
// request's own origin when none is set.
func (g *Guard) resolveBase(r *http.Request) string {
	if g.base != "" {
		return g.base
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// LoginRedirectURL builds the login redirect for an unauthenticated
// request. It carries exactly one query parameter, next=<original path>;
// any other incoming parameters (framework prefetch markers included)
// are stripped.
func (g *Guard) LoginRedirectURL(originalPath string) string {
	q := url.Values{}
	q.Set(NextParam, originalPath)
	return g.loginPath + "?" + q.Encode()
}

func (g *Guard) redirect(c *gin.Context, target string) {
	// Belt and braces on top of the status choice.
	c.Header("Cache-Control", "no-store")
	c.Redirect(RedirectStatus, target)
	c.Abort()
}
