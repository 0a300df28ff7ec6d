package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"escrow_go/internal/event"
	"escrow_go/internal/infra"
)

// Off-process feed consumer: subscribes to a running vault's event feed,
// tallies events per type and watches the sequence numbers for gaps. The
// reconnect loop keeps the subscription alive across vault restarts.
func main() {
	// 0. Global Panic Recovery (Debug Exception Handling)
	defer infra.Recover()

	addr := flag.String("addr", "localhost:8787", "feed listen address of the vault service")
	flag.Parse()

	// 1. Setup Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	idx := newIndexer(infra.FeedURL(*addr))
	client := infra.NewFeedClient(idx, logger)

	slog.Info("🚀 Starting Feed Indexer...", "url", idx.GetURL())
	client.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	client.Stop()
	idx.report()
	slog.Info("👋 Indexer stopped")
}

// indexer is the feed handler: one tally per event type plus sequence
// continuity tracking.
type indexer struct {
	url string

	mu      sync.Mutex
	counts  map[event.Type]int
	lastSeq uint64
	gaps    int
}

func newIndexer(url string) *indexer {
	return &indexer{
		url:    url,
		counts: make(map[event.Type]int),
	}
}

func (i *indexer) GetURL() string { return i.url }

func (i *indexer) ID() string { return "indexer" }

func (i *indexer) OnConnect(ctx context.Context) error { return nil }

func (i *indexer) OnMessage(message []byte) error {
	var frame struct {
		Seq  uint64     `json:"seq"`
		Type event.Type `json:"type"`
	}
	if err := json.Unmarshal(message, &frame); err != nil {
		return fmt.Errorf("frame decode: %w", err)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.counts[frame.Type]++
	if i.lastSeq != 0 && frame.Seq != i.lastSeq+1 {
		i.gaps++
		slog.Warn("sequence gap", "after", i.lastSeq, "got", frame.Seq)
	}
	i.lastSeq = frame.Seq

	slog.Info("event", "seq", frame.Seq, "type", frame.Type.String())
	return nil
}

// report prints the per-type tallies in type order.
func (i *indexer) report() {
	i.mu.Lock()
	defer i.mu.Unlock()

	types := make([]event.Type, 0, len(i.counts))
	for t := range i.counts {
		types = append(types, t)
	}
	sort.Slice(types, func(a, b int) bool { return types[a] < types[b] })

	slog.Info("✨ Indexer summary", "last_seq", i.lastSeq, "gaps", i.gaps)
	for _, t := range types {
		slog.Info("  tally", "type", t.String(), "count", i.counts[t])
	}
}
