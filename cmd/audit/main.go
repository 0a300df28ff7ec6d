package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"escrow_go/internal/audit"
	"escrow_go/internal/domain"
	"escrow_go/internal/infra"
)

// Offline journal verification: replays a ledger DB and checks that every
// deposited unit is accounted for.
func main() {
	defer infra.Recover()

	var dbPath string
	var mode string
	flag.StringVar(&dbPath, "db", "", "path to ledger.db (overrides -mode)")
	flag.StringVar(&mode, "mode", "sim", "vault mode whose data dir to audit")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if dbPath == "" {
		dbPath = filepath.Join(infra.GetWorkspaceDir(), "data", mode, "ledger.db")
	}

	auditor, err := audit.NewAuditor(dbPath, logger)
	if err != nil {
		slog.Error("❌ Failed to open journal", slog.Any("error", err))
		os.Exit(1)
	}
	defer auditor.Close()

	report, err := auditor.Run(context.Background())
	if err != nil {
		slog.Error("❌ Audit failed", slog.Any("error", err))
		os.Exit(1)
	}

	fmt.Printf("events:   %d\n", report.EventCount)
	fmt.Printf("payments: %d\n", report.Payments)
	for _, kind := range sortedKinds(report) {
		fmt.Printf("asset %s: deposited=%d outstanding=%d executed=%d refunded=%d swept=%d\n",
			kind,
			report.Deposited[kind],
			report.Outstanding[kind],
			report.Executed[kind],
			report.Refunded[kind],
			report.Swept[kind])
	}

	if !report.Clean() {
		fmt.Printf("\n%d violation(s):\n", len(report.Violations))
		for _, v := range report.Violations {
			fmt.Printf("  - %s\n", v)
		}
		os.Exit(1)
	}

	fmt.Println("\njournal is clean")
}

func sortedKinds(r *audit.Report) []domain.AssetKind {
	kinds := make([]domain.AssetKind, 0, len(r.Deposited))
	for k := range r.Deposited {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
