package http

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BrightonDube/bizpilot-session/internal/config"
	"github.com/BrightonDube/bizpilot-session/internal/repository/postgres"
	"github.com/BrightonDube/bizpilot-session/internal/service/session"
)

type OAuthHandler struct {
	UserRepo    *postgres.UserRepo
	AuthService *session.AuthService
	Config      *config.OAuthConfig
}

func NewOAuthHandler(userRepo *postgres.UserRepo, authSvc *session.AuthService, cfg *config.OAuthConfig) *OAuthHandler {
	return &OAuthHandler{
		UserRepo:    userRepo,
		AuthService: authSvc,
		Config:      cfg,
	}
}

// GoogleLogin redirects the user to Google
func (h *OAuthHandler) GoogleLogin(c *gin.Context) {
	url := h.Config.GoogleLoginConfig.AuthCodeURL("state")
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback handles the response from Google
func (h *OAuthHandler) GoogleCallback(c *gin.Context) {
	code := c.Query("code")
	token, err := h.Config.GoogleLoginConfig.Exchange(context.Background(), code)
	if err != nil {
		log.Printf("[OAUTH] Failed to exchange token: %v", err)
		c.Redirect(http.StatusTemporaryRedirect, h.Config.FrontendURL+"/auth/login?error=auth_failed")
		return
	}

	userInfo, err := config.GetGoogleUserInfo(token.AccessToken)
	if err != nil {
		log.Printf("[OAUTH] Failed to get user info: %v", err)
		c.Redirect(http.StatusTemporaryRedirect, h.Config.FrontendURL+"/auth/login?error=user_info_failed")
		return
	}

	user, err := h.UserRepo.GetUserByEmail(userInfo.Email)
	if err != nil {
		log.Printf("[OAUTH] User lookup failed: %v", err)
		c.Redirect(http.StatusTemporaryRedirect, h.Config.FrontendURL+"/auth/login?error=server_error")
		return
	}

	if user == nil {
		// First Google sign-in: provision an account from the profile.
		username := usernameFromEmail(userInfo.Email)
		userID, err := h.UserRepo.CreateUser(username, userInfo.Name, userInfo.Email, "")
		if err != nil {
			log.Printf("[OAUTH] Failed to provision user: %v", err)
			c.Redirect(http.StatusTemporaryRedirect, h.Config.FrontendURL+"/auth/login?error=server_error")
			return
		}
		if err := h.UserRepo.UpdateUserGoogleID(userInfo.Email, userInfo.ID); err != nil {
			log.Printf("[OAUTH] Failed to link Google ID: %v", err)
		}
		user, err = h.UserRepo.GetUserByID(userID)
		if err != nil || user == nil {
			c.Redirect(http.StatusTemporaryRedirect, h.Config.FrontendURL+"/auth/login?error=server_error")
			return
		}
	} else if !user.GoogleID.Valid {
		// Auto-link Google ID for an existing password account.
		if err := h.UserRepo.UpdateUserGoogleID(userInfo.Email, userInfo.ID); err != nil {
			log.Printf("[OAUTH] Failed to link Google ID: %v", err)
		}
	}

	// One active session per user: end older ones before starting fresh.
	if err := h.AuthService.InvalidateAllUserSessions(user.ID); err != nil {
		log.Printf("[OAUTH] Failed to invalidate old sessions: %v", err)
	}

	authHandler := &AuthHandler{UserRepo: h.UserRepo, AuthService: h.AuthService}
	authHandler.startSessionRedirect(c, user.ID, user.Username, h.Config.FrontendURL+"/dashboard")
}

func usernameFromEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return email
	}
	return email[:at]
}
