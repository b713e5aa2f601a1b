// Package websocket pushes session lifecycle events to connected clients
// (the warning countdown, refresh confirmations, and the expiry redirect)
// and receives activity, extend and sign-out messages from them. The
// authoritative timer stays in the monitor; the socket only moves signals.
package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/BrightonDube/bizpilot-session/internal/bus"
	"github.com/BrightonDube/bizpilot-session/internal/domain"
	"github.com/BrightonDube/bizpilot-session/internal/guard"
	"github.com/BrightonDube/bizpilot-session/internal/monitor"
)

// ClientMessage is what the browser sends over the events socket.
type ClientMessage struct {
	Type string `json:"type"` // "activity" | "extend" | "signout"
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (cl *client) send(v interface{}) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return cl.conn.WriteJSON(v)
}

// Hub tracks event-socket connections per session and fans session
// events out to them. It also implements logout.Navigator: the expiry
// "navigation" is a redirect instruction pushed to every connection of
// the session, which the browser performs as a full page load.
type Hub struct {
	manager  *monitor.Manager
	prober   guard.Prober
	base     string
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string][]*client
}

func NewHub(manager *monitor.Manager, prober guard.Prober, base string, events *bus.Bus) *Hub {
	h := &Hub{
		manager: manager,
		prober:  prober,
		base:    base,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[string][]*client),
	}

	// Expiry reaches clients through Navigate, not a bus subscription,
	// so the redirect instruction is pushed exactly once per episode.
	for _, topic := range []domain.Topic{
		domain.TopicSessionWarning,
		domain.TopicSessionRefreshed,
	} {
		events.Subscribe(topic, h.broadcast)
	}

	return h
}

// Navigate pushes the one-shot redirect intent to the session's clients.
func (h *Hub) Navigate(sessionID string, intent *domain.RedirectIntent) {
	target, ok := intent.Consume()
	if !ok {
		return
	}
	h.broadcast(domain.Event{
		Topic:     domain.TopicSessionExpired,
		SessionID: sessionID,
		Redirect:  target,
		At:        time.Now(),
	})
}

func (h *Hub) broadcast(evt domain.Event) {
	h.mu.Lock()
	conns := append([]*client(nil), h.clients[evt.SessionID]...)
	h.mu.Unlock()

	for _, cl := range conns {
		if err := cl.send(evt); err != nil {
			log.Printf("[WS] Write error for session %s: %v", evt.SessionID, err)
		}
	}
}

// HandleEvents upgrades the connection after re-validating the session
// against the session service, then relays client messages to the
// session's monitor.
func (h *Hub) HandleEvents(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	sessionID, ok := h.prober.Session(ctx, h.base, c.Request.Header.Get("Cookie"))
	if !ok || sessionID == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	m := h.manager.Ensure(sessionID, c.Request.Header.Get("Cookie"))
	cl := &client{conn: conn}
	h.register(sessionID, cl)
	defer h.unregister(sessionID, cl)

	h.readLoop(conn, m)
}

func (h *Hub) readLoop(conn *websocket.Conn, m *monitor.Monitor) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Keep-alive pinger
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("[WS] Invalid JSON from client: %v", err)
			continue
		}

		switch msg.Type {
		case "activity":
			m.Touch()
		case "extend":
			m.Extend()
		case "signout":
			m.SignOut()
		default:
			log.Printf("[WS] Unknown message type %q", msg.Type)
		}
	}
}

func (h *Hub) register(sessionID string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[sessionID] = append(h.clients[sessionID], cl)
}

func (h *Hub) unregister(sessionID string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.clients[sessionID]
	for i, existing := range conns {
		if existing == cl {
			h.clients[sessionID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.clients[sessionID]) == 0 {
		delete(h.clients, sessionID)
	}
}
