package infra

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"escrow_go/internal/domain"
	"escrow_go/internal/event"
)

func testFeedServer(maxClients int, connPerSec float64) *FeedServer {
	cfg := &Config{}
	cfg.Feed.MaxClients = maxClients
	cfg.Feed.ConnPerSecond = connPerSec
	return NewFeedServer(cfg, slog.Default())
}

func dialFeed(t *testing.T, httpURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(httpURL, "http") + "/feed"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	return conn
}

func TestFeedServer_BroadcastsEvents(t *testing.T) {
	f := testFeedServer(4, 100)

	mux := http.NewServeMux()
	mux.HandleFunc("/feed", f.handleSubscribe)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	conn := dialFeed(t, srv.URL)
	defer conn.Close()

	// Wait for registration before publishing.
	deadline := time.Now().Add(time.Second)
	for f.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	ev := &event.NewOwnerEvent{
		BaseEvent: event.BaseEvent{Seq: 7, Ts: 1234},
		OldOwner:  domain.Address("0xA1"),
		NewOwner:  domain.Address("0xB2"),
	}
	f.Publish(ev)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var frame struct {
		Seq  uint64     `json:"seq"`
		Type event.Type `json:"type"`
	}
	if err := json.Unmarshal(raw, &frame); err != nil {
		t.Fatalf("frame decode failed: %v", err)
	}
	if frame.Seq != 7 || frame.Type != event.EvNewOwner {
		t.Errorf("frame = seq %d type %d, want seq 7 type %d",
			frame.Seq, frame.Type, event.EvNewOwner)
	}

	if err := f.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}

func TestFeedServer_SubscriberLimit(t *testing.T) {
	f := testFeedServer(1, 100)

	mux := http.NewServeMux()
	mux.HandleFunc("/feed", f.handleSubscribe)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	first := dialFeed(t, srv.URL)
	defer first.Close()

	deadline := time.Now().Add(time.Second)
	for f.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/feed"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("second subscriber should be rejected")
	}
	if resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 rejection, got %v", resp)
	}

	f.Stop(context.Background())
}

func TestFeedServer_ConnectionThrottle(t *testing.T) {
	// No refill to speak of: only the initial burst of tokens is available.
	f := testFeedServer(0, 0.001)

	mux := http.NewServeMux()
	mux.HandleFunc("/feed", f.handleSubscribe)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	// With a zero subscriber cap every in-budget attempt hits the 503
	// branch; the limiter must not fire before the burst is spent.
	for i := 0; i < subscribeBurst; i++ {
		resp, err := http.Get(srv.URL + "/feed")
		if err != nil {
			t.Fatalf("dial %d failed: %v", i, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Fatalf("dial %d: status = %d, want 503", i, resp.StatusCode)
		}
	}

	resp, err := http.Get(srv.URL + "/feed")
	if err != nil {
		t.Fatalf("over-budget dial failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("over-budget dial: status = %d, want 429", resp.StatusCode)
	}
}
