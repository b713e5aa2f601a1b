package http

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BrightonDube/bizpilot-session/internal/repository/postgres"
	"github.com/BrightonDube/bizpilot-session/internal/service/session"
	"github.com/BrightonDube/bizpilot-session/pkg/auth"
	"github.com/BrightonDube/bizpilot-session/pkg/httputil"
	"github.com/BrightonDube/bizpilot-session/pkg/useragent"
)

type AuthHandler struct {
	UserRepo    *postgres.UserRepo
	AuthService *session.AuthService
}

func NewAuthHandler(userRepo *postgres.UserRepo, authService *session.AuthService) *AuthHandler {
	return &AuthHandler{
		UserRepo:    userRepo,
		AuthService: authService,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Password string `json:"password"`
		Email    string `json:"email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if len(req.Username) < 3 || len(req.Username) > 50 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username must be between 3 and 50 characters"})
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
		return
	}

	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, _ := h.UserRepo.GetUserByIdentifier(req.Username)
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Username or email already taken"})
		return
	}
	existing, _ = h.UserRepo.GetUserByEmail(req.Email)
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Username or email already taken"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	userID, err := h.UserRepo.CreateUser(req.Username, req.Name, req.Email, hash)
	if err != nil {
		log.Printf("[AUTH] Failed to create user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	h.startSession(c, userID, req.Username)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	user, err := h.UserRepo.GetUserByIdentifier(strings.TrimSpace(req.Identifier))
	if err != nil || user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !user.PasswordHash.Valid || !auth.CheckPasswordHash(req.Password, user.PasswordHash.String) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	h.startSession(c, user.ID, user.Username)
}

// startSession creates the session row, issues the credential pair and
// sets both cookies.
func (h *AuthHandler) startSession(c *gin.Context, userID int64, username string) {
	deviceInfo := useragent.ExtractDeviceInfo(c.Request)
	ipAddress := useragent.ExtractIPAddress(c.Request)

	sess, err := h.AuthService.CreateSession(userID, deviceInfo, ipAddress)
	if err != nil {
		log.Printf("[AUTH] Failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	accessToken, refreshToken, err := h.AuthService.GenerateTokenPair(userID, username, sess.SessionID)
	if err != nil {
		log.Printf("[AUTH] Failed to generate tokens: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	httputil.SetTokenPairCookies(c.Writer, accessToken, refreshToken)
	c.JSON(http.StatusOK, gin.H{
		"user_id":    userID,
		"username":   username,
		"session_id": sess.SessionID,
	})
}

// startSessionRedirect is the OAuth variant: set cookies, then send the
// browser to the landing page.
func (h *AuthHandler) startSessionRedirect(c *gin.Context, userID int64, username, target string) {
	deviceInfo := useragent.ExtractDeviceInfo(c.Request)
	ipAddress := useragent.ExtractIPAddress(c.Request)

	sess, err := h.AuthService.CreateSession(userID, deviceInfo, ipAddress)
	if err != nil {
		log.Printf("[AUTH] Failed to create session: %v", err)
		c.Redirect(http.StatusTemporaryRedirect, target+"?error=server_error")
		return
	}

	accessToken, refreshToken, err := h.AuthService.GenerateTokenPair(userID, username, sess.SessionID)
	if err != nil {
		log.Printf("[AUTH] Failed to generate tokens: %v", err)
		c.Redirect(http.StatusTemporaryRedirect, target+"?error=token_error")
		return
	}

	httputil.SetTokenPairCookies(c.Writer, accessToken, refreshToken)
	c.Redirect(http.StatusTemporaryRedirect, target)
}

// Me reports whether the forwarded credential cookie is valid. This is
// the probe target for the edge guard; the response must never be served
// from a cache.
func (h *AuthHandler) Me(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")

	claims, ok := ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":    claims.UserID,
		"username":   claims.Username,
		"session_id": claims.SessionID,
	})
}

// Refresh rotates the refresh token and reissues both cookies. A failed
// rotation clears the cookies: a rejected refresh is a dead session.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := httputil.GetRefreshToken(c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No refresh token"})
		return
	}

	getUsername := func(userID int64) (string, error) {
		user, err := h.UserRepo.GetUserByID(userID)
		if err != nil {
			return "", err
		}
		if user == nil {
			return "", errUserNotFound
		}
		return user.Username, nil
	}

	newAccess, newRefresh, userID, err := h.AuthService.ValidateAndRefresh(refreshToken, getUsername)
	if err != nil {
		log.Printf("[AUTH] Refresh rejected: %v", err)
		httputil.ClearTokenPairCookies(c.Writer)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh rejected"})
		return
	}

	httputil.SetTokenPairCookies(c.Writer, newAccess, newRefresh)
	c.JSON(http.StatusOK, gin.H{"user_id": userID})
}

// Logout invalidates the session server-side and clears both cookies.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := ClaimsFromContext(c)
	if ok {
		if err := h.AuthService.InvalidateSession(claims.SessionID); err != nil {
			log.Printf("[AUTH] Failed to invalidate session: %v", err)
		}
	}

	httputil.ClearTokenPairCookies(c.Writer)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
