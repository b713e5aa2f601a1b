package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Edge gateway
	EdgePort         string
	FrontendOrigin   string
	AuthBaseURL      string
	AuthInternalURL  string
	ProbeTimeout     time.Duration
	IdleTimeout      time.Duration
	WarningWindow    time.Duration
	PollInterval     time.Duration
	LoginPath        string
	LandingPath      string
	InternalPrefixes []string
	PublicPaths      []string
	GuestPaths       []string
	AllowedOrigins   []string

	// Session service
	SessionPort           string
	DatabaseURL           string
	DBMaxOpenConns        int
	DBMaxIdleConns        int
	DBConnMaxLifetimeMin  int
	JWTSecret             string
	AccessTokenTTLMinutes int
	RefreshTokenTTLDays   int
	SessionTTLDays        int
	FrontendURL           string
	OAuthConfig           OAuthConfig
}

var AppConfig *Config

func LoadConfig() *Config {
	edgePort := GetEnv("EDGE_PORT", "8080")
	sessionPort := GetEnv("SESSION_PORT", "8081")

	// Frontend & CORS
	frontendURL := GetEnv("FRONTEND_URL", "http://localhost:3000")
	frontendOrigin := GetEnv("FRONTEND_ORIGIN", frontendURL)
	allowedOriginsStr := GetEnv("ALLOWED_ORIGINS", "")

	// Build allowed origins list (Frontend URL + Localhost + CSV values)
	allowedOrigins := []string{
		frontendURL,
		"http://localhost:3000", // Local development
	}
	if allowedOriginsStr != "" {
		extras := strings.Split(allowedOriginsStr, ",")
		for _, origin := range extras {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				allowedOrigins = append(allowedOrigins, trimmed)
			}
		}
	}

	// Session lifecycle knobs
	idleTimeout := GetEnvAsDuration("IDLE_TIMEOUT", 30*time.Minute)
	warningWindow := GetEnvAsDuration("WARNING_WINDOW", 5*time.Minute)
	probeTimeout := GetEnvAsDuration("PROBE_TIMEOUT", 5*time.Second)
	pollInterval := GetEnvAsDuration("POLL_INTERVAL", time.Second)

	// Database Config
	dbURL := GetEnv("DATABASE_URL", GetEnv("DATABASE_URI", ""))
	dbMaxOpenConns := GetEnvAsInt("DB_MAX_OPEN_CONNS", 25)
	dbMaxIdleConns := GetEnvAsInt("DB_MAX_IDLE_CONNS", 25)
	dbConnMaxLifetimeMin := GetEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 5)

	// Security
	jwtSecret := GetEnv("JWT_SECRET", "your-secret-key-change-this-in-production")

	oauthConfig := LoadOAuthConfig(frontendURL)

	AppConfig = &Config{
		EdgePort:        edgePort,
		FrontendOrigin:  frontendOrigin,
		AuthBaseURL:     GetEnv("AUTH_BASE_URL", ""),
		AuthInternalURL: GetEnv("AUTH_INTERNAL_URL", ""),
		ProbeTimeout:    probeTimeout,
		IdleTimeout:     idleTimeout,
		WarningWindow:   warningWindow,
		PollInterval:    pollInterval,
		LoginPath:       GetEnv("LOGIN_PATH", "/auth/login"),
		LandingPath:     GetEnv("LANDING_PATH", "/dashboard"),
		InternalPrefixes: GetEnvAsList("INTERNAL_PREFIXES",
			"/_next/,/assets/,/static/,/favicon.ico,/session/"),
		PublicPaths: GetEnvAsList("PUBLIC_PATHS",
			"/,/pricing,/about,/contact"),
		GuestPaths: GetEnvAsList("GUEST_PATHS",
			"/auth/login,/auth/register,/auth/forgot-password"),
		AllowedOrigins: allowedOrigins,

		SessionPort:           sessionPort,
		DatabaseURL:           dbURL,
		DBMaxOpenConns:        dbMaxOpenConns,
		DBMaxIdleConns:        dbMaxIdleConns,
		DBConnMaxLifetimeMin:  dbConnMaxLifetimeMin,
		JWTSecret:             jwtSecret,
		AccessTokenTTLMinutes: GetEnvAsInt("ACCESS_TOKEN_TTL_MINUTES", 15),
		RefreshTokenTTLDays:   GetEnvAsInt("REFRESH_TOKEN_TTL_DAYS", 7),
		SessionTTLDays:        GetEnvAsInt("SESSION_TTL_DAYS", 30),
		FrontendURL:           frontendURL,
		OAuthConfig:           *oauthConfig,
	}

	return AppConfig
}

// ProbeBaseURL resolves the base URL used for session probes.
// The dedicated internal URL wins over the public base URL so the probe
// never re-enters the edge layer that issued it. An empty result means
// "same origin as the incoming request".
func (c *Config) ProbeBaseURL() string {
	if c.AuthInternalURL != "" {
		return strings.TrimSuffix(c.AuthInternalURL, "/")
	}
	if c.AuthBaseURL != "" {
		return strings.TrimSuffix(c.AuthBaseURL, "/")
	}
	return ""
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid duration value for %s: %s, using default: %s", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func GetEnvAsList(key, defaultValue string) []string {
	valueStr := GetEnv(key, defaultValue)
	parts := strings.Split(valueStr, ",")
	var out []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
