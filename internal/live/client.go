package live

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/zfogg/menuboard/internal/logger"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Send pings to peer with this period
	pingPeriod = 50 * time.Second

	// List pages never send anything meaningful
	maxMessageSize = 4 * 1024

	sendBufferSize = 16
)

// Client is one open list page.
type Client struct {
	conn *websocket.Conn
	hub  *Hub
	send chan []byte

	RemoteAddr  string
	ConnectedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// NewClient wraps an accepted connection. The client lives until ctx ends,
// the peer goes away or the hub drops it.
func NewClient(ctx context.Context, hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		conn:        conn,
		hub:         hub,
		send:        make(chan []byte, sendBufferSize),
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now(),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// ReadPump drains the connection until it closes. Incoming messages are
// ignored; reading is what notices the peer leaving.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := c.conn.Read(c.ctx); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && c.ctx.Err() == nil {
				logger.Log.Debug("Live read ended", zap.String("remote_addr", c.RemoteAddr), zap.Error(err))
			}
			return
		}
	}
}

// WritePump writes queued messages and keeps the connection alive.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "server shutdown")
			return

		case msg, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "closing")
				return
			}
			ctx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				logger.Log.Debug("Live write failed", zap.String("remote_addr", c.RemoteAddr), zap.Error(err))
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// Close cancels the client's context; the pumps finish on their own.
func (c *Client) Close() {
	c.once.Do(c.cancel)
}
