// Package livestatus pushes engine status, live-activity updates and
// notifications to websocket clients.
package livestatus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/alexanderramin/jobclock/internal/autotimer"
	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/alexanderramin/jobclock/internal/notify"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	TypeStatus       = "status"
	TypeLiveStart    = "live_start"
	TypeLiveEnd      = "live_end"
	TypeNotification = "notification"

	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 32
)

// Message is the envelope every frame is sent in.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Activity is the live elapsed-time surface while a session runs.
type Activity struct {
	JobName        string    `json:"jobName"`
	Address        string    `json:"address,omitempty"`
	StartTime      time.Time `json:"startTime"`
	ElapsedSeconds int       `json:"elapsedSeconds,omitempty"`
	Ended          bool      `json:"ended"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans messages out to connected clients. Slow clients whose buffer
// fills are disconnected.
type Hub struct {
	log      *logrus.Entry
	upgrader websocket.Upgrader

	mu       sync.Mutex
	clients  map[*client]struct{}
	status   *domain.AutoTimerStatus
	activity *Activity
	closed   bool
}

var (
	_ autotimer.LiveStatus = (*Hub)(nil)
	_ notify.Sink          = (*Hub)(nil)
)

func NewHub(log *logrus.Entry) *Hub {
	return &Hub{
		log:      log,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		clients:  make(map[*client]struct{}),
	}
}

// Start announces a running session.
func (h *Hub) Start(_ context.Context, jobName, address string, startTime time.Time) error {
	a := &Activity{JobName: jobName, Address: address, StartTime: startTime.UTC()}
	h.mu.Lock()
	h.activity = a
	h.mu.Unlock()
	return h.broadcast(TypeLiveStart, a)
}

// End closes the live activity with the final elapsed time.
func (h *Hub) End(_ context.Context, elapsedSeconds int) error {
	h.mu.Lock()
	a := Activity{ElapsedSeconds: elapsedSeconds, Ended: true}
	if h.activity != nil {
		a.JobName = h.activity.JobName
		a.Address = h.activity.Address
		a.StartTime = h.activity.StartTime
	}
	h.activity = nil
	h.mu.Unlock()
	return h.broadcast(TypeLiveEnd, a)
}

// Deliver forwards a notification to clients.
func (h *Hub) Deliver(_ context.Context, n notify.Notification) error {
	return h.broadcast(TypeNotification, n)
}

// PublishStatus is an engine status listener.
func (h *Hub) PublishStatus(st domain.AutoTimerStatus) {
	h.mu.Lock()
	h.status = &st
	h.mu.Unlock()
	if err := h.broadcast(TypeStatus, st); err != nil {
		h.log.WithError(err).Warn("status broadcast failed")
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func encode(kind string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", kind, err)
	}
	return json.Marshal(Message{Type: kind, Data: data})
}

func (h *Hub) broadcast(kind string, v any) error {
	frame, err := encode(kind, v)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			h.log.Warn("dropping slow live-status client")
			h.dropLocked(c)
		}
	}
	return nil
}

func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// ServeHTTP upgrades the request and replays the latest status and live
// activity to the new client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Debug("websocket upgrade failed")
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	if h.status != nil {
		if frame, err := encode(TypeStatus, h.status); err == nil {
			c.send <- frame
		}
	}
	if h.activity != nil {
		if frame, err := encode(TypeLiveStart, h.activity); err == nil {
			c.send <- frame
		}
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.log.WithField("remote", r.RemoteAddr).Debug("live-status client connected")
	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.mu.Lock()
		h.dropLocked(c)
		h.mu.Unlock()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.dropLocked(c)
	}
}

// Handler serves the websocket on /ws and the latest status as JSON on
// /status.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		st := h.status
		h.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if st == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_ = json.NewEncoder(w).Encode(st)
	})
	return mux
}

// Serve listens on addr until ctx is done.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: h.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		h.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	h.log.WithField("addr", ln.Addr().String()).Info("live-status hub listening")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
