package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.EdgePort)
	assert.Equal(t, "8081", cfg.SessionPort)
	assert.Equal(t, 30*time.Minute, cfg.IdleTimeout)
	assert.Equal(t, 5*time.Minute, cfg.WarningWindow)
	assert.Equal(t, 5*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, "/auth/login", cfg.LoginPath)
	assert.Equal(t, "/dashboard", cfg.LandingPath)
	assert.Contains(t, cfg.InternalPrefixes, "/_next/")
	assert.Contains(t, cfg.PublicPaths, "/pricing")
	assert.Contains(t, cfg.GuestPaths, "/auth/login")
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("IDLE_TIMEOUT", "45m")
	t.Setenv("WARNING_WINDOW", "2m")
	t.Setenv("POLL_INTERVAL", "500ms")
	t.Setenv("PUBLIC_PATHS", "/, /landing ,/demo")

	cfg := LoadConfig()

	assert.Equal(t, 45*time.Minute, cfg.IdleTimeout)
	assert.Equal(t, 2*time.Minute, cfg.WarningWindow)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, []string{"/", "/landing", "/demo"}, cfg.PublicPaths)
}

func TestInvalidDurationFallsBackToDefault(t *testing.T) {
	t.Setenv("IDLE_TIMEOUT", "not-a-duration")

	cfg := LoadConfig()

	assert.Equal(t, 30*time.Minute, cfg.IdleTimeout)
}

func TestProbeBaseURLPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		internal string
		public   string
		want     string
	}{
		{"internal wins", "http://sessiond:8081/", "https://api.example.com", "http://sessiond:8081"},
		{"public fallback", "", "https://api.example.com/", "https://api.example.com"},
		{"same origin", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{AuthInternalURL: tt.internal, AuthBaseURL: tt.public}
			assert.Equal(t, tt.want, cfg.ProbeBaseURL())
		})
	}
}

func TestAllowedOriginsIncludeFrontend(t *testing.T) {
	t.Setenv("FRONTEND_URL", "https://app.bizpilot.io")
	t.Setenv("ALLOWED_ORIGINS", "https://admin.bizpilot.io, https://beta.bizpilot.io")

	cfg := LoadConfig()

	assert.Contains(t, cfg.AllowedOrigins, "https://app.bizpilot.io")
	assert.Contains(t, cfg.AllowedOrigins, "https://admin.bizpilot.io")
	assert.Contains(t, cfg.AllowedOrigins, "https://beta.bizpilot.io")
}
