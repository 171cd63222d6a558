package live

import (
	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zfogg/menuboard/internal/logger"
)

// Handler upgrades GET /live to a WebSocket and subscribes it to hub.
// originPatterns follow websocket.AcceptOptions; "*" accepts any origin.
func Handler(hub *Hub, originPatterns []string) gin.HandlerFunc {
	opts := &websocket.AcceptOptions{OriginPatterns: originPatterns}
	for _, p := range originPatterns {
		if p == "*" {
			opts = &websocket.AcceptOptions{InsecureSkipVerify: true}
			break
		}
	}

	return func(c *gin.Context) {
		conn, err := websocket.Accept(c.Writer, c.Request, opts)
		if err != nil {
			logger.Log.Warn("Live upgrade failed", zap.Error(err))
			return
		}

		client := NewClient(c.Request.Context(), hub, conn, c.ClientIP())
		hub.Join(client)

		go client.WritePump()
		client.ReadPump()
	}
}
