package authstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitAndTeardown(t *testing.T) {
	s := New()
	assert.False(t, s.Authenticated())

	s.Init("sess-1", "access_token=a; refresh_token=b")
	assert.True(t, s.Authenticated())
	assert.Equal(t, "sess-1", s.SessionID())
	assert.Equal(t, "access_token=a; refresh_token=b", s.CookieHeader())

	s.Teardown()
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.SessionID())
	assert.Empty(t, s.CookieHeader())
}

func TestUpdateCookiesOnlyWhileAuthenticated(t *testing.T) {
	s := New()

	s.UpdateCookies("access_token=x")
	assert.Empty(t, s.CookieHeader())

	s.Init("sess-1", "access_token=a")
	s.UpdateCookies("access_token=x")
	assert.Equal(t, "access_token=x", s.CookieHeader())
}
