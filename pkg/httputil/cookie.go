package httputil

import (
	"errors"
	"net/http"

	"github.com/BrightonDube/bizpilot-session/internal/config"
)

// The session credential pair travels as two HttpOnly cookies. The edge
// never parses their contents; only the session service does.
const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
)

func newAuthCookie(name, value string, maxAge int) *http.Cookie {
	isProduction := config.GetEnv("ENVIRONMENT", "development") == "production"

	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   isProduction,
	}

	// SameSite=None requires Secure=true, so use Lax for development
	if isProduction {
		cookie.SameSite = http.SameSiteNoneMode
		cookie.Secure = true
	} else {
		cookie.SameSite = http.SameSiteLaxMode
	}

	return cookie
}

// SetTokenPairCookies sets the access and refresh credential cookies.
func SetTokenPairCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	accessMaxAge := config.AppConfig.AccessTokenTTLMinutes * 60
	refreshMaxAge := config.AppConfig.RefreshTokenTTLDays * 24 * 60 * 60

	http.SetCookie(w, newAuthCookie(AccessCookieName, accessToken, accessMaxAge))
	http.SetCookie(w, newAuthCookie(RefreshCookieName, refreshToken, refreshMaxAge))
}

// ClearTokenPairCookies expires both credential cookies.
func ClearTokenPairCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name: AccessCookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true,
	})
	http.SetCookie(w, &http.Cookie{
		Name: RefreshCookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true,
	})
}

// GetAccessToken extracts the access credential from the request cookie.
func GetAccessToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(AccessCookieName)
	if err != nil || cookie.Value == "" {
		return "", errors.New("access cookie not found")
	}
	return cookie.Value, nil
}

// GetRefreshToken extracts the refresh credential from the request cookie.
func GetRefreshToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", errors.New("refresh cookie not found")
	}
	return cookie.Value, nil
}

// GetTokenFromRequest extracts the access credential from cookie or, as a
// fallback, the Authorization header (WebSocket upgrade compatibility).
func GetTokenFromRequest(r *http.Request) (string, error) {
	token, err := GetAccessToken(r)
	if err == nil && token != "" {
		return token, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			return authHeader[7:], nil
		}
		return authHeader, nil
	}

	return "", errors.New("no auth token found in cookie or header")
}
