package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BrightonDube/bizpilot-session/internal/service/session"
	"github.com/BrightonDube/bizpilot-session/pkg/httputil"
)

// ClaimsKey is the gin context key carrying validated access claims.
const ClaimsKey = "auth_claims"

// AuthMiddleware validates the access credential: JWT signature first
// (stateless), then the session row (stateful), via the auth service.
func AuthMiddleware(authService *session.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := httputil.GetTokenFromRequest(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			httputil.ClearTokenPairCookies(c.Writer)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session invalid"})
			return
		}

		// Keep last_activity fresh without blocking the request.
		go authService.UpdateSessionActivity(claims.SessionID)

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}
