package notify

import (
	"encoding/json"
	"net/http"
	"time"

	"callcenter-platform/internal/auth"
	"callcenter-platform/internal/rbac"
	"callcenter-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Consoles are served from their own origins; origin policy is handled
	// at the edge, same as the REST surface.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	authenticateTimeout = 10 * time.Second
	writeTimeout        = 5 * time.Second
	pingInterval        = 30 * time.Second
)

// authenticateMessage is the required first client frame. The token is a
// regular access token; the claimed role decides the event feed.
type authenticateMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type wsError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// WSHandler upgrades console connections and bridges them onto the Bus.
// Reconnection is the client's responsibility.
type WSHandler struct {
	Auth *auth.Manager
	Bus  *Bus
}

func (h WSHandler) Serve(c *gin.Context) {
	log := logger.FromGin(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	sub, ok := h.authenticate(conn)
	if !ok {
		return
	}
	defer sub.Close()

	log.Info("console connected", "role", sub.Role(), "agent_id", sub.AgentID())

	// Reader: we never expect further client frames, but the read loop
	// detects disconnects and close frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, open := <-sub.Events():
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				log.Error("ws event marshal failed", "event", string(ev.Type), "err", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h WSHandler) authenticate(conn *websocket.Conn) (*Subscription, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(authenticateTimeout))

	var msg authenticateMessage
	if err := conn.ReadJSON(&msg); err != nil {
		h.closeWithError(conn, "authenticate message required")
		return nil, false
	}
	if msg.Type != "authenticate" || msg.Token == "" {
		h.closeWithError(conn, "authenticate message required")
		return nil, false
	}

	claims, err := h.Auth.Verify(msg.Token, auth.TokenTypeAccess, time.Now())
	if err != nil {
		h.closeWithError(conn, "invalid token")
		return nil, false
	}
	if !rbac.IsValid(claims.Role) {
		h.closeWithError(conn, "unknown role")
		return nil, false
	}

	_ = conn.SetReadDeadline(time.Time{})

	sub := h.Bus.Subscribe(claims.Role, claims.AgentID)

	ack, _ := json.Marshal(gin.H{"type": "authenticated", "role": claims.Role})
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, ack); err != nil {
		sub.Close()
		return nil, false
	}
	return sub, true
}

func (h WSHandler) closeWithError(conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(wsError{Type: "error", Error: msg})
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = conn.WriteMessage(websocket.TextMessage, payload)
}
