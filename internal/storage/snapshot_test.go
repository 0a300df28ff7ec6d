package storage

import (
	"os"
	"path/filepath"
	"testing"

	"escrow_go/internal/domain"
)

func TestSnapshotManager_SaveAndLoad(t *testing.T) {
	dir := filepath.Join(os.TempDir(), "vault_snapshot_test")
	defer os.RemoveAll(dir)

	sm := NewSnapshotManager(dir)

	roles := domain.NewRoleSet("owner", "escape", "recovery")
	roles.SetMarketplace("market", true)

	snap := &Snapshot{
		Seq:    3,
		TsUnix: 1700000000,
		Roles:  roles,
		Payments: []*domain.Payment{
			{ID: 0, Payer: "buyer", Recipient: "seller", Kind: domain.NativeAsset, Amount: 10, State: domain.PaymentAuthorized},
		},
		Balances: map[domain.AssetKind]domain.Balance{
			domain.NativeAsset: {Kind: domain.NativeAsset, Held: 10, Deposited: 10},
		},
	}

	if err := sm.Save(snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := sm.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected snapshot, got nil")
	}

	if loaded.Seq != 3 {
		t.Errorf("Seq mismatch: got %d", loaded.Seq)
	}
	if !loaded.Roles.IsAuthorizedMarketplace("market") {
		t.Error("Marketplace authorization lost in round trip")
	}
	if len(loaded.Payments) != 1 || loaded.Payments[0].Amount != 10 {
		t.Errorf("Payments mismatch: %+v", loaded.Payments)
	}
	if loaded.Balances[domain.NativeAsset].Held != 10 {
		t.Errorf("Balance mismatch: %+v", loaded.Balances)
	}
}

func TestSnapshotManager_LoadLatestPicksHighestSeq(t *testing.T) {
	dir := filepath.Join(os.TempDir(), "vault_snapshot_multi_test")
	defer os.RemoveAll(dir)

	sm := NewSnapshotManager(dir)

	for _, seq := range []uint64{1, 5, 3} {
		snap := &Snapshot{Seq: seq, TsUnix: int64(1700000000 + seq), Roles: domain.NewRoleSet("o", "e", "r")}
		if err := sm.Save(snap); err != nil {
			t.Fatalf("Save seq %d failed: %v", seq, err)
		}
	}

	loaded, err := sm.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if loaded.Seq != 5 {
		t.Errorf("Expected latest seq 5, got %d", loaded.Seq)
	}
}

func TestSnapshotManager_EmptyDir(t *testing.T) {
	sm := NewSnapshotManager(filepath.Join(os.TempDir(), "vault_snapshot_missing_dir"))

	loaded, err := sm.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest on missing dir failed: %v", err)
	}
	if loaded != nil {
		t.Error("Expected nil snapshot for missing dir")
	}
}
