package http

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/BrightonDube/bizpilot-session/internal/transport/http/middleware"
	"github.com/BrightonDube/bizpilot-session/pkg/auth"
)

var errUserNotFound = errors.New("user not found")

// ClaimsFromContext returns the access claims set by the auth middleware.
func ClaimsFromContext(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(middleware.ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
