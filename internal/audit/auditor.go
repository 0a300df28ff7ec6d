package audit

import (
	"context"
	"fmt"
	"log/slog"

	"escrow_go/internal/domain"
	"escrow_go/internal/event"
	"escrow_go/internal/journal"
	"escrow_go/internal/storage"
	"escrow_go/pkg/safe"
	"escrow_go/pkg/units"
)

// Report summarizes one audit run over a vault journal.
type Report struct {
	EventCount  int
	Payments    int
	Outstanding map[domain.AssetKind]units.Amount // authorized, not yet resolved
	Executed    map[domain.AssetKind]units.Amount
	Refunded    map[domain.AssetKind]units.Amount
	Swept       map[domain.AssetKind]units.Amount
	Deposited   map[domain.AssetKind]units.Amount
	Violations  []string
}

// Auditor replays a vault journal from SQLite and verifies that the books
// balance: every deposited unit is either still outstanding, executed,
// refunded or swept, and no payment resolves twice.
type Auditor struct {
	store  *storage.LedgerStore
	logger *slog.Logger
}

// NewAuditor opens the journal at dbPath for reading.
func NewAuditor(dbPath string, logger *slog.Logger) (*Auditor, error) {
	store, err := storage.NewLedgerStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Auditor{store: store, logger: logger}, nil
}

// Close releases the journal.
func (a *Auditor) Close() error {
	return a.store.Close()
}

// Run replays the full journal and returns the audit report. Replay
// itself fails on sequence gaps; bookkeeping violations are collected in
// the report rather than aborting, so one run surfaces every problem.
func (a *Auditor) Run(ctx context.Context) (*Report, error) {
	r := &Report{
		Outstanding: make(map[domain.AssetKind]units.Amount),
		Executed:    make(map[domain.AssetKind]units.Amount),
		Refunded:    make(map[domain.AssetKind]units.Amount),
		Swept:       make(map[domain.AssetKind]units.Amount),
		Deposited:   make(map[domain.AssetKind]units.Amount),
	}

	payments := make(map[domain.PaymentID]*event.PaymentAuthorizedEvent)
	resolved := make(map[domain.PaymentID]string)

	apply := func(ev event.Event) error {
		r.EventCount++

		switch e := ev.(type) {
		case *event.PaymentAuthorizedEvent:
			if _, dup := payments[e.PaymentID]; dup {
				r.violate("payment %d authorized twice (seq %d)", e.PaymentID, e.Seq)
				return nil
			}
			if e.Amount <= 0 {
				r.violate("payment %d authorized with non-positive amount %d (seq %d)",
					e.PaymentID, e.Amount, e.Seq)
			}
			payments[e.PaymentID] = e
			r.Payments++
			r.Deposited[e.Kind] = add(r.Deposited[e.Kind], e.Amount)
			r.Outstanding[e.Kind] = add(r.Outstanding[e.Kind], e.Amount)

		case *event.PaymentExecutedEvent:
			p, ok := payments[e.PaymentID]
			if !ok {
				r.violate("payment %d executed but never authorized (seq %d)", e.PaymentID, e.Seq)
				return nil
			}
			if how, done := resolved[e.PaymentID]; done {
				r.violate("payment %d executed after %s (seq %d)", e.PaymentID, how, e.Seq)
				return nil
			}
			if e.Amount != p.Amount || e.Kind != p.Kind {
				r.violate("payment %d executed with %d %s, authorized for %d %s (seq %d)",
					e.PaymentID, e.Amount, e.Kind, p.Amount, p.Kind, e.Seq)
			}
			resolved[e.PaymentID] = "execution"
			r.Executed[p.Kind] = add(r.Executed[p.Kind], p.Amount)
			r.Outstanding[p.Kind] -= p.Amount

		case *event.PaymentCanceledEvent:
			p, ok := payments[e.PaymentID]
			if !ok {
				r.violate("payment %d canceled but never authorized (seq %d)", e.PaymentID, e.Seq)
				return nil
			}
			if how, done := resolved[e.PaymentID]; done {
				r.violate("payment %d canceled after %s (seq %d)", e.PaymentID, how, e.Seq)
				return nil
			}
			resolved[e.PaymentID] = "cancellation"
			r.Refunded[p.Kind] = add(r.Refunded[p.Kind], p.Amount)
			r.Outstanding[p.Kind] -= p.Amount

		case *event.TradeConfirmedEvent:
			if resolved[e.PaymentID] != "execution" {
				r.violate("trade confirmed on payment %d without execution (seq %d)",
					e.PaymentID, e.Seq)
			}

		case *event.EscapeHatchEvent:
			for kind, amount := range e.Swept {
				r.Swept[kind] = add(r.Swept[kind], amount)
			}
		}
		return nil
	}

	if _, err := journal.Replay(ctx, a.store, 1, apply); err != nil {
		return nil, err
	}

	a.checkConservation(r)

	a.logger.Info("audit complete",
		"events", r.EventCount,
		"payments", r.Payments,
		"violations", len(r.Violations))
	return r, nil
}

// checkConservation verifies, per asset kind, that deposits equal the sum
// of outstanding custody plus everything that left through executions,
// refunds and sweeps. Sweeps drain custody that outstanding payments still
// claim, so the sweep side may exceed its share by exactly the custody
// shortfall; anything else is a violation.
func (a *Auditor) checkConservation(r *Report) {
	for kind, deposited := range r.Deposited {
		out := safe.Add(int64(r.Executed[kind]), int64(r.Refunded[kind]))
		out = safe.Add(out, int64(r.Swept[kind]))
		held := int64(deposited) - out

		if held < 0 {
			r.violate("asset %s: released %d exceeds deposits %d", kind, out, deposited)
			continue
		}
		if held > int64(r.Outstanding[kind]) {
			r.violate("asset %s: custody %d exceeds outstanding commitments %d",
				kind, held, r.Outstanding[kind])
		}
	}
	for kind := range r.Swept {
		if _, ok := r.Deposited[kind]; !ok {
			r.violate("asset %s swept but never deposited", kind)
		}
	}
}

// Clean reports whether the audit found no violations.
func (r *Report) Clean() bool {
	return len(r.Violations) == 0
}

func (r *Report) violate(format string, args ...any) {
	r.Violations = append(r.Violations, fmt.Sprintf(format, args...))
}

func add(a, b units.Amount) units.Amount {
	return units.Amount(safe.Add(int64(a), int64(b)))
}
