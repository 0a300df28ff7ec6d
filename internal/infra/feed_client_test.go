package infra

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"escrow_go/internal/domain"
	"escrow_go/internal/event"
)

// collectHandler buffers every received frame.
type collectHandler struct {
	url string

	mu     sync.Mutex
	frames [][]byte
}

func (h *collectHandler) GetURL() string                      { return h.url }
func (h *collectHandler) OnConnect(ctx context.Context) error { return nil }
func (h *collectHandler) ID() string                          { return "test-subscriber" }

func (h *collectHandler) OnMessage(message []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames = append(h.frames, message)
	return nil
}

func (h *collectHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.frames)
}

func TestFeedClient_ReceivesBroadcasts(t *testing.T) {
	f := testFeedServer(4, 100)

	mux := http.NewServeMux()
	mux.HandleFunc("/feed", f.handleSubscribe)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	h := &collectHandler{url: "ws" + strings.TrimPrefix(srv.URL, "http") + "/feed"}
	client := NewFeedClient(h, slog.Default())
	client.Start()
	defer client.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for f.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never connected")
		}
		time.Sleep(10 * time.Millisecond)
	}

	f.Publish(&event.MarketplaceAuthorizationEvent{
		BaseEvent:   event.BaseEvent{Seq: 1, Ts: 1},
		Marketplace: domain.Address("0xMARKET"),
		Enabled:     true,
	})
	f.Publish(&event.EscapeHatchEvent{
		BaseEvent: event.BaseEvent{Seq: 2, Ts: 2},
		Caller:    domain.Address("0xOWNER"),
		Recipient: domain.Address("0xRECOVERY"),
	})

	deadline = time.Now().Add(2 * time.Second)
	for h.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("received %d frames, want 2", h.count())
		}
		time.Sleep(10 * time.Millisecond)
	}

	f.Stop(context.Background())
}
