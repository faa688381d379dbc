package voicebot

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wolfman30/emi-voice-agent/pkg/logging"
)

const (
	defaultIdleTimeout  = 60 * time.Second
	defaultWriteTimeout = 5 * time.Second
	maxMessageBytes     = 1 << 20
)

// Handler upgrades /stream requests and hands each connection to the
// Controller on its own goroutine.
type Handler struct {
	controller   *Controller
	logger       *logging.Logger
	upgrader     websocket.Upgrader
	idleTimeout  time.Duration
	writeTimeout time.Duration

	mu       sync.Mutex
	draining bool
	active   sync.WaitGroup
}

func NewHandler(controller *Controller, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		controller: controller,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Exotel connects server to server without an Origin header.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		idleTimeout:  defaultIdleTimeout,
		writeTimeout: defaultWriteTimeout,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.draining {
		h.mu.Unlock()
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	h.active.Add(1)
	h.mu.Unlock()
	defer h.active.Done()

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}
	params := ParamsFromQuery(r.URL.Query())
	conn := newWSConn(ws, h.idleTimeout, h.writeTimeout)
	h.logger.Info("stream connection accepted", "remote", r.RemoteAddr, "call_sid", params.CallSID)

	h.controller.Serve(r.Context(), conn, params)
}

// wsConn applies deadlines around a gorilla connection. Reads extend the
// idle deadline; pings from the peer also keep the connection alive.
type wsConn struct {
	ws           *websocket.Conn
	idleTimeout  time.Duration
	writeTimeout time.Duration
}

func newWSConn(ws *websocket.Conn, idle, write time.Duration) *wsConn {
	ws.SetReadLimit(maxMessageBytes)
	c := &wsConn{ws: ws, idleTimeout: idle, writeTimeout: write}
	_ = ws.SetReadDeadline(time.Now().Add(idle))
	ws.SetPingHandler(func(data string) error {
		_ = ws.SetReadDeadline(time.Now().Add(idle))
		err := ws.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(write))
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(idle))
	})
	return c
}

func (c *wsConn) ReadMessage() (int, []byte, error) {
	mt, data, err := c.ws.ReadMessage()
	if err == nil {
		_ = c.ws.SetReadDeadline(time.Now().Add(c.idleTimeout))
	}
	return mt, data, err
}

func (c *wsConn) WriteJSON(v any) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteJSON(v)
}

func (c *wsConn) Close() error {
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(c.writeTimeout))
	return c.ws.Close()
}

// Drain refuses new streams and waits for open ones to finish.
// http.Server.Shutdown does not track hijacked connections, so callers
// drain after shutting down.
func (h *Handler) Drain(ctx context.Context) error {
	h.mu.Lock()
	h.draining = true
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.active.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
