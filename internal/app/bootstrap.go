package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"escrow_go/internal/domain"
	"escrow_go/internal/infra"
	"escrow_go/internal/journal"
	"escrow_go/internal/market"
	"escrow_go/internal/registry"
	"escrow_go/internal/settlement"
	"escrow_go/internal/storage"
	"escrow_go/internal/vault"
)

// Bootstrap orchestrates the vault service startup sequence.
type Bootstrap struct {
	Config      *infra.Config
	LedgerStore *storage.LedgerStore
	Snapshots   *storage.SnapshotManager
	Recorder    *journal.Recorder
	Settlement  settlement.Settlement
	Vault       *vault.Vault
	Marketplace *market.Marketplace
	Collection  *registry.TokenCollection
	Feed        *infra.FeedServer
	Oracle      *infra.RateOracle

	unlock func()
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize wires the full service: config, storage, recovery, settlement,
// vault, marketplace and the event feed.
func (b *Bootstrap) Initialize(ctx context.Context) error {
	slog.Info("🚀 Bootstrapping Escrow Vault...")

	// 1. Load Config (Dynamic Path Resolution)
	cfg, err := infra.LoadConfig(infra.ResolveConfigPath())
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Data Isolation - _workspace/data/{mode}/ledger.db
	mode := strings.ToLower(cfg.Vault.Mode)

	workDir := infra.GetWorkspaceDir()
	dataDir := filepath.Join(workDir, "data", mode)
	logDir := filepath.Join(workDir, "logs", mode)

	if err := infra.EnsureDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := infra.EnsureDir(logDir); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}

	// 3.1 Singleton Instance Lock. Two processes on one ledger DB would
	// corrupt custody bookkeeping.
	unlock, err := infra.CreateLockFile(workDir)
	if err != nil {
		return err
	}
	b.unlock = unlock

	dbPath := filepath.Join(dataDir, "ledger.db")
	store, err := storage.NewLedgerStore(dbPath)
	if err != nil {
		return err
	}
	b.LedgerStore = store
	slog.Info("✅ LedgerStore initialized (WAL-mode)", "path", dbPath, "mode", mode)

	b.Snapshots = storage.NewSnapshotManager(dataDir)

	// 4. Settlement conduit
	settle, err := settlement.NewSettlement(cfg, logger)
	if err != nil {
		return err
	}
	b.Settlement = settle

	// 5. Recover vault state: latest snapshot, then the journal tail.
	roles := domain.NewRoleSet(
		domain.Address(cfg.Vault.Owner),
		domain.Address(cfg.Vault.EscapeCaller),
		domain.Address(cfg.Vault.RecoveryRecipient),
	)
	roles.SecurityGuard = domain.Address(cfg.Vault.SecurityGuard)

	v := vault.NewVault(roles, settle, nil, logger)

	fromSeq := uint64(1)
	if snap, err := b.Snapshots.LoadLatest(); err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	} else if snap != nil {
		v.RestoreSnapshot(snap)
		fromSeq = snap.Seq + 1
		slog.Info("✅ Snapshot restored", "seq", snap.Seq)
	}

	nextSeq, err := journal.Replay(ctx, store, fromSeq, v.Apply)
	if err != nil {
		return fmt.Errorf("journal replay failed: %w", err)
	}

	b.Recorder = journal.NewRecorder(store, nextSeq)
	v.SetRecorder(b.Recorder)
	b.Vault = v
	slog.Info("✅ Vault recovered",
		"next_seq", nextSeq,
		"payments", v.PaymentCount())

	// 6. Asset registry and marketplace. On a fresh vault the configured
	// marketplace address is authorized under the owner; on a recovered
	// vault the journal already carries the authorization.
	mkAddr := domain.Address(cfg.Vault.Marketplace)
	recovered := v.Roles()
	if mkAddr != domain.ZeroAddress && !recovered.IsAuthorizedMarketplace(mkAddr) {
		if err := v.AuthorizeMarketplace(recovered.Owner, mkAddr, true); err != nil {
			return fmt.Errorf("failed to authorize configured marketplace: %w", err)
		}
	}

	b.Collection = registry.NewTokenCollection("FlowInsight")
	b.Marketplace = market.NewMarketplace(mkAddr, v, b.Collection, b.Recorder, logger)

	// 7. Event feed for external observers.
	b.Feed = infra.NewFeedServer(cfg, logger)
	b.Recorder.AttachSink(b.Feed)
	b.Feed.Start(cfg.Feed.ListenAddr)

	// 8. Advisory price oracle.
	if cfg.Oracle.Enabled {
		b.Oracle = infra.NewRateOracle(cfg, logger)
		b.Oracle.Start(time.Duration(cfg.Oracle.PollIntervalSec) * time.Second)
		slog.Info("✅ Rate oracle started", "url", cfg.Oracle.URL)
	}

	return nil
}

// SaveSnapshot persists the current vault state keyed by the last
// committed sequence number.
func (b *Bootstrap) SaveSnapshot() error {
	snap := b.Vault.ExportSnapshot(b.Recorder.NextSeq() - 1)
	return b.Snapshots.Save(snap)
}

// Shutdown releases every resource acquired by Initialize.
func (b *Bootstrap) Shutdown(ctx context.Context) {
	if b.Oracle != nil {
		b.Oracle.Stop()
	}
	if b.Feed != nil {
		if err := b.Feed.Stop(ctx); err != nil {
			slog.Warn("feed shutdown failed", "error", err)
		}
	}
	if b.LedgerStore != nil {
		if err := b.LedgerStore.Close(); err != nil {
			slog.Warn("ledger close failed", "error", err)
		}
	}
	if b.unlock != nil {
		b.unlock()
	}
	slog.Info("👋 Vault service stopped")
}
