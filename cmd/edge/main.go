package main

import (
	"context"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/BrightonDube/bizpilot-session/internal/bus"
	"github.com/BrightonDube/bizpilot-session/internal/config"
	"github.com/BrightonDube/bizpilot-session/internal/guard"
	"github.com/BrightonDube/bizpilot-session/internal/monitor"
	"github.com/BrightonDube/bizpilot-session/internal/transport/websocket"
	"github.com/BrightonDube/bizpilot-session/internal/upstream"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.LoadConfig()

	origin, err := url.Parse(cfg.FrontendOrigin)
	if err != nil {
		log.Fatalf("Invalid FRONTEND_ORIGIN %q: %v", cfg.FrontendOrigin, err)
	}
	proxy := httputil.NewSingleHostReverseProxy(origin)

	events := bus.New()
	client := upstream.NewClient(cfg.ProbeTimeout)

	manager := monitor.NewManager(monitor.ManagerOptions{
		IdleTimeout:   cfg.IdleTimeout,
		WarningWindow: cfg.WarningWindow,
		PollInterval:  cfg.PollInterval,
		LoginPath:     cfg.LoginPath,
		Base:          cfg.ProbeBaseURL(),
		Events:        events,
		Upstream:      client,
	})
	defer manager.Shutdown()

	hub := websocket.NewHub(manager, client, cfg.ProbeBaseURL(), events)
	manager.SetNavigator(hub)

	gate := guard.New(guard.Options{
		Classifier: guard.NewClassifier(
			cfg.InternalPrefixes, cfg.PublicPaths, cfg.GuestPaths),
		Prober:       client,
		ProbeTimeout: cfg.ProbeTimeout,
		Base:         cfg.ProbeBaseURL(),
		LoginPath:    cfg.LoginPath,
		LandingPath:  cfg.LandingPath,
	})

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// Session events channel for the warning presentation; sits on an
	// internal prefix so the guard passes it through.
	router.GET("/session/events", hub.HandleEvents)

	router.Use(gate.Middleware())
	router.Use(activityMiddleware(manager))

	// Everything that survives the gate is proxied to the frontend.
	router.NoRoute(func(c *gin.Context) {
		proxy.ServeHTTP(c.Writer, c.Request)
	})

	srv := &http.Server{
		Addr:    ":" + cfg.EdgePort,
		Handler: router,
	}

	go func() {
		log.Printf("Edge gateway starting on :%s (frontend %s)", cfg.EdgePort, cfg.FrontendOrigin)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Edge gateway is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Edge gateway exited gracefully")
}

// activityMiddleware counts every authenticated request that passed the
// guard as session activity.
func activityMiddleware(manager *monitor.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sid, ok := c.Get(guard.ContextSessionID); ok {
			if sessionID, ok := sid.(string); ok && sessionID != "" {
				manager.Ensure(sessionID, c.Request.Header.Get("Cookie")).Touch()
			}
		}
		c.Next()
	}
}
