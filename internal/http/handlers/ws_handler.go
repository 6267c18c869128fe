// README: WebSocket endpoint; connections feed the notification hub.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"rideflow/internal/notify"
)

type WSHandler struct {
	hub *notify.Hub
	log *slog.Logger
}

func NewWSHandler(hub *notify.Hub, log *slog.Logger) *WSHandler {
	return &WSHandler{hub: hub, log: log}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Auth happens in middleware; the origin check is the proxy's job.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Connect upgrades and registers the authenticated user with the hub. The
// read loop exists only to notice the peer going away.
func (h *WSHandler) Connect(c *gin.Context) {
	actorID, _ := actor(c)
	if actorID == "" {
		writeError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	h.hub.Register(actorID, conn)

	go func() {
		defer h.hub.Unregister(actorID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
