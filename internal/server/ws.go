package server

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/abhisek/medquiz/internal/archive"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsSendBuffer = 32
)

// buildUpgrader creates a WebSocket upgrader with origin validation. An
// empty allow list permits all origins.
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// hub streams archive changes to connected websocket clients.
type hub struct {
	engine   *archive.Engine
	upgrader websocket.Upgrader
	log      zerolog.Logger

	mu     sync.Mutex
	conns  map[string]*websocket.Conn
	closed bool
}

func newHub(engine *archive.Engine, allowedOrigins []string, log zerolog.Logger) *hub {
	return &hub{
		engine:   engine,
		upgrader: buildUpgrader(allowedOrigins),
		log:      log.With().Str("component", "ws").Logger(),
		conns:    make(map[string]*websocket.Conn),
	}
}

func (h *hub) add(id string, conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[id] = conn
	return true
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()
}

// active returns the number of connected clients.
func (h *hub) active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// serve upgrades the request and forwards every committed change until the
// client disconnects.
func (h *hub) serve(c *gin.Context) {
	id := uuid.NewString()
	log := h.log.With().Str("conn_id", id).Logger()

	// Subscribe before the handshake completes so no change committed after
	// the client sees the upgrade is lost.
	changes := make(chan archive.Change, wsSendBuffer)
	unsubscribe := h.engine.Subscribe(func(ch archive.Change) {
		select {
		case changes <- ch:
		default:
			// Slow client; drop rather than block the mutating goroutine.
			log.Warn().Str("kind", string(ch.Kind)).Msg("dropping change for slow client")
		}
	})
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	if !h.add(id, conn) {
		return
	}
	defer h.remove(id)
	log.Debug().Msg("client connected")

	done := make(chan struct{})
	go h.readLoop(conn, done, log)

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case ch := <-changes:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(ch); err != nil {
				log.Debug().Err(err).Msg("write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop discards client messages and closes done when the connection
// goes away.
func (h *hub) readLoop(conn *websocket.Conn, done chan<- struct{}, log zerolog.Logger) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("unexpected close")
			} else {
				log.Debug().Msg("client disconnected")
			}
			return
		}
	}
}

// close sends a close frame to every client and refuses new ones.
func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	deadline := time.Now().Add(wsWriteWait)
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for id, conn := range h.conns {
		conn.WriteControl(websocket.CloseMessage, msg, deadline)
		conn.Close()
		delete(h.conns, id)
	}
}
