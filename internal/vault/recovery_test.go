package vault

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"escrow_go/internal/domain"
	"escrow_go/internal/journal"
	"escrow_go/internal/settlement"
	"escrow_go/internal/storage"
)

// TestRecoveryFromJournal drives a vault through a realistic history, then
// rebuilds a second vault purely from the persisted journal and checks the
// two agree.
func TestRecoveryFromJournal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	store, err := storage.NewLedgerStore(dbPath)
	if err != nil {
		t.Fatalf("NewLedgerStore failed: %v", err)
	}

	// Live vault: roles shuffled, payments created, collected, canceled.
	roles := domain.NewRoleSet(owner, escaper, recovery)
	sim := settlement.NewSimSettlement()
	sim.Fund(alice, domain.NativeAsset, 10_000)

	live := NewVault(roles, sim, journal.NewRecorder(store, 1), slog.Default())
	live.AuthorizeMarketplace(owner, market, true)
	live.SetSecurityGuard(owner, guard)

	p1, _ := live.AuthorizePayment(market, alice, bob, domain.NativeAsset, 1_000)
	p2, _ := live.AuthorizePayment(market, alice, bob, domain.NativeAsset, 2_000)
	if err := live.CollectAuthorizedPayment(market, p1); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if err := live.CancelAuthorizedPayment(market, p2); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if err := live.ChangeOwner(owner, bob); err != nil {
		t.Fatalf("change owner failed: %v", err)
	}
	store.Close()

	// Recovered vault: same initial roles, state rebuilt from the journal.
	reopened, err := storage.NewLedgerStore(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	recovered := NewVault(domain.NewRoleSet(owner, escaper, recovery),
		settlement.NewSimSettlement(), journal.NewRecorder(nil, 1), slog.Default())

	nextSeq, err := journal.Replay(ctx, reopened, 1, recovered.Apply)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if nextSeq != 8 {
		t.Errorf("next seq = %d, want 8", nextSeq)
	}

	liveRoles := live.Roles()
	recRoles := recovered.Roles()
	if recRoles.Owner != liveRoles.Owner {
		t.Errorf("owner = %s, want %s", recRoles.Owner, liveRoles.Owner)
	}
	if recRoles.SecurityGuard != liveRoles.SecurityGuard {
		t.Errorf("guard = %s, want %s", recRoles.SecurityGuard, liveRoles.SecurityGuard)
	}
	if !recRoles.IsAuthorizedMarketplace(market) {
		t.Error("marketplace authorization lost in replay")
	}

	if n := recovered.PaymentCount(); n != 2 {
		t.Errorf("payment count = %d, want 2", n)
	}

	pay1, err := recovered.GetPayment(market, p1)
	if err != nil {
		t.Fatalf("GetPayment failed: %v", err)
	}
	if pay1.State != domain.PaymentExecuted {
		t.Errorf("payment 1 state = %s, want EXECUTED", pay1.State)
	}
	pay2, _ := recovered.GetPayment(market, p2)
	if pay2.State != domain.PaymentCanceled {
		t.Errorf("payment 2 state = %s, want CANCELED", pay2.State)
	}

	// Custody is empty in both: one executed, one refunded.
	heldLive, _ := live.GetBalance(guard, domain.NativeAsset)
	heldRec, _ := recovered.GetBalance(guard, domain.NativeAsset)
	if heldLive != 0 || heldRec != 0 {
		t.Errorf("held = %d / %d, want 0 / 0", heldLive, heldRec)
	}
}

// TestRecoveryFromSnapshot checks the snapshot export/restore round trip.
func TestRecoveryFromSnapshot(t *testing.T) {
	v, _ := newTestVault(t)

	p1, _ := v.AuthorizePayment(market, alice, bob, domain.NativeAsset, 1_000)
	v.CollectAuthorizedPayment(market, p1)
	v.AuthorizePayment(market, alice, bob, domain.NativeAsset, 500)

	snap := v.ExportSnapshot(4)
	if snap.Seq != 4 {
		t.Errorf("snapshot seq = %d, want 4", snap.Seq)
	}

	restored := NewVault(domain.NewRoleSet(owner, escaper, recovery),
		settlement.NewMockSettlement(), journal.NewRecorder(nil, 1), slog.Default())
	restored.RestoreSnapshot(snap)

	if n := restored.PaymentCount(); n != 2 {
		t.Errorf("payment count = %d, want 2", n)
	}
	restoredRoles := restored.Roles()
	if !restoredRoles.IsAuthorizedMarketplace(market) {
		t.Error("marketplace authorization lost in snapshot")
	}
	held, err := restored.GetBalance(owner, domain.NativeAsset)
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if held != 500 {
		t.Errorf("held = %d, want 500", held)
	}

	// Snapshot is a copy: mutating the restored vault leaves the source alone.
	restored.CancelAuthorizedPayment(market, 2)
	orig, _ := v.GetPayment(market, 2)
	if orig.State != domain.PaymentAuthorized {
		t.Errorf("source payment state = %s, want AUTHORIZED", orig.State)
	}
}
