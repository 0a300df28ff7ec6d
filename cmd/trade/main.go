package main

import (
	"log/slog"
	"os"

	"escrow_go/internal/domain"
	"escrow_go/internal/infra"
	"escrow_go/internal/journal"
	"escrow_go/internal/market"
	"escrow_go/internal/registry"
	"escrow_go/internal/settlement"
	"escrow_go/internal/vault"
	"escrow_go/pkg/units"
)

// End-to-end trade scenario against an in-memory vault: list, escrow an
// offer, confirm, and verify the swap completed on both legs.
func main() {
	// 0. Global Panic Recovery (Debug Exception Handling)
	defer infra.Recover()

	// 1. Setup Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	slog.Info("🚀 Starting Trade Scenario...")

	owner := domain.Address("0xOWNER")
	recovery := domain.Address("0xRECOVERY")
	seller := domain.Address("0xSELLER")
	buyer := domain.Address("0xBUYER")
	price := units.Amount(5_000)

	// 2. Wire a simulated stack: no config file, no persistence.
	sim := settlement.NewSimSettlement()
	sim.Fund(buyer, domain.NativeAsset, 20_000)

	rec := journal.NewRecorder(nil, 1)
	v := vault.NewVault(domain.NewRoleSet(owner, owner, recovery), sim, rec, logger)

	coll := registry.NewTokenCollection("FlowInsight")
	mkt := market.NewMarketplace(domain.Address("0xMARKETPLACE"), v, coll, rec, logger)

	if err := v.AuthorizeMarketplace(owner, mkt.Address(), true); err != nil {
		fail("authorize marketplace", err)
	}

	// 3. Seller mints a token.
	nftID, err := coll.Mint(seller)
	if err != nil {
		fail("mint", err)
	}

	// 4. Trade flow. Listing grants the marketplace transfer approval.
	slog.Info("STEP 1: Registering sale...", "nft", uint64(nftID))
	if err := mkt.RegisterNFTSale(seller, nftID); err != nil {
		fail("RegisterNFTSale", err)
	}

	slog.Info("STEP 2: Buyer escrows offer...", "price", price.String())
	paymentID, err := mkt.MakeOfferWithETH(buyer, nftID, price)
	if err != nil {
		fail("MakeOfferWithETH", err)
	}

	slog.Info("STEP 3: Seller confirms trade...", "payment", uint64(paymentID))
	if err := mkt.ConfirmTrade(seller, nftID, paymentID); err != nil {
		fail("ConfirmTrade", err)
	}

	// 5. Verify both legs settled.
	tokenOwner, err := coll.OwnerOf(nftID)
	if err != nil {
		fail("OwnerOf", err)
	}
	if tokenOwner != buyer {
		slog.Error("❌ Token did not reach the buyer", "owner", string(tokenOwner))
		os.Exit(1)
	}
	if got := sim.BalanceOf(seller, domain.NativeAsset); got != price {
		slog.Error("❌ Seller not paid", "balance", got.String())
		os.Exit(1)
	}
	if got := sim.CustodyOf(domain.NativeAsset); got != 0 {
		slog.Error("❌ Custody not emptied", "custody", got.String())
		os.Exit(1)
	}

	slog.Info("✅ Token transferred to buyer")
	slog.Info("✅ Seller received payment", "amount", price.String())
	slog.Info("🎉 Trade Scenario Passed!")
}

func fail(step string, err error) {
	slog.Error("❌ "+step+" failed", slog.Any("error", err))
	os.Exit(1)
}
