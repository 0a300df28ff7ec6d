package market

import (
	"fmt"
	"log/slog"
	"sync"

	"escrow_go/internal/domain"
	"escrow_go/internal/event"
	"escrow_go/internal/journal"
	"escrow_go/internal/registry"
	"escrow_go/internal/vault"
	"escrow_go/pkg/units"
)

// ListingState is the coordinator's derived view of an asset. It is never
// stored: the registry's approval flag and the ledger's payment records
// are the source of truth, so the view cannot drift from them.
type ListingState uint8

const (
	// StateUnlisted: the coordinator holds no transfer approval.
	StateUnlisted ListingState = iota + 1
	// StateListed: the coordinator may transfer the asset, no live offer.
	StateListed
	// StateOffered: at least one offer's funds are escrowed against it.
	StateOffered
	// StateSettled: a confirmed trade executed a payment for it. Terminal.
	StateSettled
)

func (s ListingState) String() string {
	switch s {
	case StateUnlisted:
		return "UNLISTED"
	case StateListed:
		return "LISTED"
	case StateOffered:
		return "OFFERED"
	case StateSettled:
		return "SETTLED"
	default:
		return "UNKNOWN"
	}
}

// Marketplace coordinates trades between the asset registry and the vault.
// It acts toward the vault under its own address, which the vault owner
// must have authorized. The only state it owns is the asset-to-payment
// association of offers; everything else is derived.
//
// One mutex serializes all operations: the funds leg and the token leg of
// a confirmation commit together, with no re-entrant call in between.
type Marketplace struct {
	mu       sync.Mutex
	self     domain.Address
	vault    *vault.Vault
	assets   registry.AssetRegistry
	recorder *journal.Recorder
	logger   *slog.Logger
	offers   map[domain.TokenID][]domain.PaymentID
}

// NewMarketplace creates a marketplace acting under the self address.
func NewMarketplace(self domain.Address, v *vault.Vault, assets registry.AssetRegistry, recorder *journal.Recorder, logger *slog.Logger) *Marketplace {
	return &Marketplace{
		self:     self,
		vault:    v,
		assets:   assets,
		recorder: recorder,
		logger:   logger,
		offers:   make(map[domain.TokenID][]domain.PaymentID),
	}
}

// Address returns the address the marketplace acts under.
func (m *Marketplace) Address() domain.Address {
	return m.self
}

// RegisterNFTSale puts an asset up for sale: the caller must currently own
// it, and the sale consists of granting the marketplace transfer approval
// in the registry. No separate listing record exists.
func (m *Marketplace) RegisterNFTSale(caller domain.Address, assetID domain.TokenID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	owner, err := m.assets.OwnerOf(assetID)
	if err != nil {
		return fmt.Errorf("register sale of asset %d: %w", assetID, err)
	}
	if owner != caller {
		return fmt.Errorf("register sale by %s of asset %d owned by %s: %w",
			caller, assetID, owner, domain.ErrNotAssetOwner)
	}

	if err := m.assets.Approve(caller, m.self, assetID); err != nil {
		return fmt.Errorf("approve marketplace for asset %d: %w", assetID, err)
	}

	m.logger.Info("sale registered",
		"asset", uint64(assetID),
		"seller", string(caller))
	return nil
}

// MakeOffer escrows an offer on an asset. The deposit moves into vault
// custody immediately and stays committed to the current owner until the
// seller confirms this offer or the buyer cancels it. Any number of
// offers may coexist on one asset; each is an independent payment.
func (m *Marketplace) MakeOffer(caller domain.Address, assetID domain.TokenID, kind domain.AssetKind, amount units.Amount) (domain.PaymentID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if amount <= 0 {
		return 0, fmt.Errorf("offer of %d on asset %d: %w",
			amount, assetID, domain.ErrInsufficientFunds)
	}

	owner, err := m.assets.OwnerOf(assetID)
	if err != nil {
		return 0, fmt.Errorf("offer on asset %d: %w", assetID, err)
	}
	if caller == owner {
		return 0, fmt.Errorf("offer by owner %s on asset %d: %w",
			caller, assetID, domain.ErrCannotPurchaseOwnAsset)
	}

	id, err := m.vault.AuthorizePayment(m.self, caller, owner, kind, amount)
	if err != nil {
		return 0, fmt.Errorf("escrow offer on asset %d: %w", assetID, err)
	}

	m.offers[assetID] = append(m.offers[assetID], id)

	m.logger.Info("offer escrowed",
		"asset", uint64(assetID),
		"buyer", string(caller),
		"payment", uint64(id),
		"amount", amount.String())
	return id, nil
}

// MakeOfferWithETH escrows a native-currency offer.
func (m *Marketplace) MakeOfferWithETH(caller domain.Address, assetID domain.TokenID, amount units.Amount) (domain.PaymentID, error) {
	return m.MakeOffer(caller, assetID, domain.NativeAsset, amount)
}

// ConfirmTrade settles one specific offer: the asset moves to that offer's
// payer and the escrowed payment is released to the seller. The caller
// must be the asset's current owner and the payment's recipient. Token
// and funds move together or not at all; competing offers stay escrowed
// until their payers cancel them.
func (m *Marketplace) ConfirmTrade(caller domain.Address, assetID domain.TokenID, paymentID domain.PaymentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isOfferOn(assetID, paymentID) {
		return fmt.Errorf("payment %d is not an offer on asset %d", paymentID, assetID)
	}

	owner, err := m.assets.OwnerOf(assetID)
	if err != nil {
		return fmt.Errorf("confirm trade of asset %d: %w", assetID, err)
	}
	if owner != caller {
		return fmt.Errorf("confirm by %s of asset %d owned by %s: %w",
			caller, assetID, owner, domain.ErrNotAssetOwner)
	}

	p, err := m.vault.GetPayment(m.self, paymentID)
	if err != nil {
		return fmt.Errorf("confirm trade of asset %d: %w", assetID, err)
	}
	if p.Recipient != caller {
		return fmt.Errorf("confirm by %s of payment owed to %s: %w",
			caller, p.Recipient, domain.ErrUnauthorized)
	}
	if !p.IsAuthorized() {
		return fmt.Errorf("confirm with payment %d in state %s: %w",
			paymentID, p.State, domain.ErrInvalidPaymentState)
	}

	// Token first. The transfer needs the approval granted at listing;
	// failing here leaves the escrow untouched.
	if err := m.assets.TransferFrom(m.self, caller, p.Payer, assetID); err != nil {
		return fmt.Errorf("transfer of asset %d: %w", assetID, err)
	}

	// Funds second. If the collection fails the token goes back: the trade
	// settles both legs or neither.
	if err := m.vault.CollectAuthorizedPayment(m.self, paymentID); err != nil {
		if rbErr := m.assets.TransferFrom(p.Payer, p.Payer, caller, assetID); rbErr != nil {
			panic(fmt.Sprintf("TRADE_ROLLBACK_FAILED: asset %d: %v after %v", assetID, rbErr, err))
		}
		return fmt.Errorf("collect payment %d for asset %d: %w", paymentID, assetID, err)
	}

	m.recorder.Commit(&event.TradeConfirmedEvent{
		PaymentID: paymentID,
		NFTID:     assetID,
		Seller:    caller,
	})
	m.logger.Info("trade confirmed",
		"asset", uint64(assetID),
		"seller", string(caller),
		"buyer", string(p.Payer),
		"payment", uint64(paymentID))
	return nil
}

// CancelOffer refunds an escrowed offer to its payer. Only the payer may
// back out; the seller simply never confirms an offer they decline.
func (m *Marketplace) CancelOffer(caller domain.Address, assetID domain.TokenID, paymentID domain.PaymentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isOfferOn(assetID, paymentID) {
		return fmt.Errorf("payment %d is not an offer on asset %d", paymentID, assetID)
	}

	p, err := m.vault.GetPayment(m.self, paymentID)
	if err != nil {
		return fmt.Errorf("cancel offer on asset %d: %w", assetID, err)
	}
	if p.Payer != caller {
		return fmt.Errorf("cancel of %s's offer by %s: %w",
			p.Payer, caller, domain.ErrUnauthorized)
	}

	if err := m.vault.CancelAuthorizedPayment(m.self, paymentID); err != nil {
		return fmt.Errorf("refund offer on asset %d: %w", assetID, err)
	}

	m.logger.Info("offer canceled",
		"asset", uint64(assetID),
		"payer", string(caller),
		"payment", uint64(paymentID))
	return nil
}

// ListingState derives the asset's trade state from the registry and the
// ledger. Settled wins over everything; otherwise the approval flag
// decides listed-ness and live offers decide Offered.
func (m *Marketplace) ListingState(assetID domain.TokenID) ListingState {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := false
	for _, id := range m.offers[assetID] {
		p, err := m.vault.GetPayment(m.self, id)
		if err != nil {
			continue
		}
		switch p.State {
		case domain.PaymentExecuted:
			return StateSettled
		case domain.PaymentAuthorized:
			live = true
		}
	}

	if !m.assets.IsApprovedFor(m.self, assetID) {
		return StateUnlisted
	}
	if live {
		return StateOffered
	}
	return StateListed
}

// Offers returns the payment ids ever escrowed against an asset.
func (m *Marketplace) Offers(assetID domain.TokenID) []domain.PaymentID {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.PaymentID, len(m.offers[assetID]))
	copy(out, m.offers[assetID])
	return out
}

// isOfferOn must be called with the lock held.
func (m *Marketplace) isOfferOn(assetID domain.TokenID, paymentID domain.PaymentID) bool {
	for _, id := range m.offers[assetID] {
		if id == paymentID {
			return true
		}
	}
	return false
}
