package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Buu205/vnsignal/internal/app"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans out refreshed market snapshots to websocket subscribers.
type Hub struct {
	mu    sync.Mutex
	conns map[*wsClient]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[*wsClient]struct{})}
}

type wsClient struct {
	conn *websocket.Conn
	send chan *app.MarketState
}

// Broadcast queues a snapshot for every subscriber. Slow clients are dropped
// rather than blocking the refresh loop.
func (h *Hub) Broadcast(state *app.MarketState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		select {
		case c.send <- state:
		default:
			delete(h.conns, c)
			close(c.send)
		}
	}
}

func (h *Hub) add(c *wsClient) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.conns[c]; ok {
		delete(h.conns, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// WebSocket upgrades the connection and streams snapshot updates until the
// client disconnects.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &wsClient{conn: conn, send: make(chan *app.MarketState, 4)}
	h.hub.add(client)
	log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("websocket client connected")

	go client.writeLoop()
	client.readLoop(h.hub)
}

func (c *wsClient) writeLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case state, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(state); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames so close handshakes and pongs are processed.
func (c *wsClient) readLoop(hub *Hub) {
	defer func() {
		hub.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
