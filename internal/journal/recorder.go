package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"escrow_go/internal/event"
	"escrow_go/internal/storage"
	"escrow_go/pkg/units"
)

// Stampable is an event whose sequence number and timestamp are assigned at
// commit time. All concrete events qualify through their embedded BaseEvent.
type Stampable interface {
	event.Event
	SetSeq(seq uint64)
	SetTs(ts units.TimeStamp)
}

// Sink receives committed events. The feed server is a sink; sinks observe
// only fully committed state, never a transition in flight.
type Sink interface {
	Publish(ev event.Event)
}

// Recorder is the single-writer commit path for vault notifications.
// WAL-first: an event is persisted before it is fanned out, and a
// persistence failure halts the process rather than let the audit trail
// diverge from in-memory state.
type Recorder struct {
	mu      sync.Mutex
	store   *storage.LedgerStore
	nextSeq uint64
	sinks   []Sink
}

// NewRecorder creates a recorder continuing from the given next sequence
// number (lastSeq+1 after recovery, 1 for a fresh vault).
func NewRecorder(store *storage.LedgerStore, nextSeq uint64) *Recorder {
	if nextSeq == 0 {
		nextSeq = 1
	}
	return &Recorder{store: store, nextSeq: nextSeq}
}

// AttachSink registers a committed-event observer.
func (r *Recorder) AttachSink(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, s)
}

// Commit stamps, persists and fans out an event. Returns the assigned
// sequence number.
func (r *Recorder) Commit(ev Stampable) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	seq := r.nextSeq
	ev.SetSeq(seq)
	ev.SetTs(units.Now())

	if r.store != nil {
		if err := r.store.SaveEvent(context.Background(), ev); err != nil {
			panic(fmt.Sprintf("PERSISTENCE_FAILURE: %v", err))
		}
	}

	r.nextSeq++

	for _, s := range r.sinks {
		s.Publish(ev)
	}

	return seq
}

// NextSeq returns the sequence number the next commit will receive.
func (r *Recorder) NextSeq() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextSeq
}

// Replay loads every event from fromSeq onward and applies them in order.
// The sequence must be contiguous; a gap means the audit trail is damaged
// and recovery must not proceed.
func Replay(ctx context.Context, store *storage.LedgerStore, fromSeq uint64, apply func(event.Event) error) (uint64, error) {
	events, err := store.LoadEvents(ctx, fromSeq)
	if err != nil {
		return 0, fmt.Errorf("failed to load events: %w", err)
	}

	expected := fromSeq
	for _, ev := range events {
		if ev.GetSeq() != expected {
			return 0, fmt.Errorf("replay gap: expected seq %d, got %d", expected, ev.GetSeq())
		}
		if err := apply(ev); err != nil {
			return 0, fmt.Errorf("replay apply failed at seq %d: %w", ev.GetSeq(), err)
		}
		expected++
	}

	if len(events) > 0 {
		slog.Info("Journal replayed",
			slog.Int("count", len(events)),
			slog.Uint64("next_seq", expected))
	}

	return expected, nil
}
