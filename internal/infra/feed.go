package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"escrow_go/internal/event"
	"escrow_go/pkg/units"
)

// feedFrame is the wire shape of one broadcast event.
type feedFrame struct {
	Seq     uint64          `json:"seq"`
	Ts      units.TimeStamp `json:"ts"`
	Type    event.Type      `json:"type"`
	Payload any             `json:"payload"`
}

// FeedServer broadcasts committed ledger events to websocket subscribers.
// It satisfies the journal sink contract: Publish must never block the
// committing goroutine, so slow subscribers are dropped.
type FeedServer struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte

	maxClients  int
	connLimiter *RateLimiter
	upgrader    websocket.Upgrader
	logger      *slog.Logger

	server *http.Server
}

// subscribeBurst is the dial-attempt headroom above the subscriber cap.
// A full house must still reach the subscriber-limit check and get a 503;
// the limiter only throttles reconnect storms.
const subscribeBurst = 8

// NewFeedServer creates a feed hub. Call Start to begin listening.
func NewFeedServer(cfg *Config, logger *slog.Logger) *FeedServer {
	return &FeedServer{
		clients:     make(map[*websocket.Conn]chan []byte),
		maxClients:  cfg.Feed.MaxClients,
		connLimiter: NewRateLimiter(cfg.Feed.MaxClients+subscribeBurst, cfg.Feed.ConnPerSecond),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Start listens on addr in a background goroutine.
func (f *FeedServer) Start(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", f.handleSubscribe)

	f.server = &http.Server{Addr: addr, Handler: mux}

	go func() {
		f.logger.Info("feed server listening", "addr", addr)
		if err := f.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			f.logger.Error("feed server stopped", "error", err)
		}
	}()
}

// Stop shuts the listener down and disconnects all subscribers.
func (f *FeedServer) Stop(ctx context.Context) error {
	f.mu.Lock()
	for conn, ch := range f.clients {
		close(ch)
		conn.Close()
		delete(f.clients, conn)
	}
	f.mu.Unlock()

	if f.server != nil {
		return f.server.Shutdown(ctx)
	}
	return nil
}

// Publish fans a committed event out to all subscribers. Subscribers whose
// send buffer is full are disconnected rather than stalling the ledger.
func (f *FeedServer) Publish(ev event.Event) {
	frame, err := json.Marshal(feedFrame{
		Seq:     ev.GetSeq(),
		Ts:      ev.GetTs(),
		Type:    ev.GetType(),
		Payload: ev,
	})
	if err != nil {
		f.logger.Error("feed frame marshal failed", "error", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for conn, ch := range f.clients {
		select {
		case ch <- frame:
		default:
			f.logger.Warn("dropping slow feed subscriber",
				"remote", conn.RemoteAddr().String())
			close(ch)
			conn.Close()
			delete(f.clients, conn)
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (f *FeedServer) ClientCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func (f *FeedServer) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if !f.connLimiter.TryAcquire() {
		http.Error(w, "too many connection attempts", http.StatusTooManyRequests)
		return
	}

	f.mu.Lock()
	if len(f.clients) >= f.maxClients {
		f.mu.Unlock()
		http.Error(w, "subscriber limit reached", http.StatusServiceUnavailable)
		return
	}
	f.mu.Unlock()

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("feed upgrade failed", "error", err)
		return
	}

	ch := make(chan []byte, 64)

	f.mu.Lock()
	f.clients[conn] = ch
	f.mu.Unlock()

	f.logger.Info("feed subscriber connected",
		"remote", conn.RemoteAddr().String())

	go f.writeLoop(conn, ch)
	go f.readLoop(conn)
}

// writeLoop drains the subscriber's buffer and keeps the connection alive
// with pings.
func (f *FeedServer) writeLoop(conn *websocket.Conn, ch chan []byte) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				f.drop(conn)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				f.drop(conn)
				return
			}
		}
	}
}

// readLoop discards inbound frames; its job is to notice disconnects.
func (f *FeedServer) readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			f.drop(conn)
			return
		}
	}
}

func (f *FeedServer) drop(conn *websocket.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ch, ok := f.clients[conn]; ok {
		close(ch)
		delete(f.clients, conn)
	}
	conn.Close()
}

// FeedURL builds the subscribe URL for a listen address.
func FeedURL(addr string) string {
	return fmt.Sprintf("ws://%s/feed", addr)
}
