package cleanup

import (
	"log"
	"time"

	"github.com/BrightonDube/bizpilot-session/internal/repository/postgres"
)

// Worker purges expired sessions and refresh tokens on a fixed interval.
type Worker struct {
	SessionRepository *postgres.SessionRepo
	Interval          time.Duration
	RetentionDays     int

	quit chan struct{}
}

func NewWorker(sr *postgres.SessionRepo) *Worker {
	return &Worker{
		SessionRepository: sr,
		Interval:          1 * time.Hour,
		RetentionDays:     30,
		quit:              make(chan struct{}),
	}
}

// Start initiates the background ticker
func (w *Worker) Start() {
	go func() {
		w.runCleanup()

		ticker := time.NewTicker(w.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-w.quit:
				return
			case <-ticker.C:
				w.runCleanup()
			}
		}
	}()
	log.Println("[CLEANUP] Background worker started")
}

// Stop terminates the ticker loop.
func (w *Worker) Stop() {
	close(w.quit)
}

// runCleanup executes the actual cleanup logic
func (w *Worker) runCleanup() {
	log.Println("[CLEANUP] Starting scheduled cleanup task...")

	deletedCount, err := w.SessionRepository.CleanupExpiredSessions(w.RetentionDays)
	if err != nil {
		log.Printf("[CLEANUP] Error cleaning up DB sessions: %v", err)
	} else if deletedCount > 0 {
		log.Printf("[CLEANUP] Removed %d expired sessions from database", deletedCount)
	}

	tokenCount, err := w.SessionRepository.CleanupExpiredRefreshTokens()
	if err != nil {
		log.Printf("[CLEANUP] Error cleaning up refresh tokens: %v", err)
	} else if tokenCount > 0 {
		log.Printf("[CLEANUP] Removed %d stale refresh tokens from database", tokenCount)
	}
}
