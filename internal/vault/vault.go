package vault

import (
	"fmt"
	"log/slog"
	"sync"

	"escrow_go/internal/domain"
	"escrow_go/internal/event"
	"escrow_go/internal/journal"
	"escrow_go/internal/settlement"
	"escrow_go/internal/storage"
	"escrow_go/pkg/units"
)

// Vault is the custodial core: role registry, append-only payment ledger
// and per-asset balance book. Every mutating operation takes the caller's
// address and is checked against the role set before any state changes.
//
// One mutex serializes all operations. Checks, ledger mutation, fund
// movement and event commit happen under the same critical section, so no
// caller ever observes a half-applied operation.
type Vault struct {
	mu       sync.Mutex
	roles    *domain.RoleSet
	payments []*domain.Payment
	balances *domain.BalanceBook
	settle   settlement.Settlement
	recorder *journal.Recorder
	logger   *slog.Logger
}

// NewVault creates a vault with the given initial roles.
func NewVault(roles *domain.RoleSet, settle settlement.Settlement, recorder *journal.Recorder, logger *slog.Logger) *Vault {
	return &Vault{
		roles:    roles,
		balances: domain.NewBalanceBook(),
		settle:   settle,
		recorder: recorder,
		logger:   logger,
	}
}

// SetRecorder attaches the commit path. Used once after recovery, when
// the next sequence number is known; never while operations are running.
func (v *Vault) SetRecorder(r *journal.Recorder) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.recorder = r
}

// ChangeOwner reassigns the owner role. Owner only. The old owner loses
// every owner right the moment this returns.
func (v *Vault) ChangeOwner(caller, newOwner domain.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.roles.IsOwner(caller) {
		return fmt.Errorf("change owner by %s: %w", caller, domain.ErrUnauthorized)
	}
	if newOwner == domain.ZeroAddress {
		return fmt.Errorf("change owner to zero address: %w", domain.ErrUnauthorized)
	}

	old := v.roles.Owner
	v.roles.Owner = newOwner

	v.recorder.Commit(&event.NewOwnerEvent{OldOwner: old, NewOwner: newOwner})
	v.logger.Info("owner changed", "old", string(old), "new", string(newOwner))
	return nil
}

// AuthorizeMarketplace toggles marketplace membership. Owner only.
// Revocation takes effect on the next operation; there is no grace period.
func (v *Vault) AuthorizeMarketplace(caller, marketplace domain.Address, enabled bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.roles.IsOwner(caller) {
		return fmt.Errorf("authorize marketplace by %s: %w", caller, domain.ErrUnauthorized)
	}
	if marketplace == domain.ZeroAddress {
		return fmt.Errorf("authorize zero address: %w", domain.ErrUnauthorized)
	}

	v.roles.SetMarketplace(marketplace, enabled)

	v.recorder.Commit(&event.MarketplaceAuthorizationEvent{
		Marketplace: marketplace,
		Enabled:     enabled,
	})
	v.logger.Info("marketplace authorization changed",
		"marketplace", string(marketplace), "enabled", enabled)
	return nil
}

// SetSecurityGuard reassigns the read-only oversight role. Owner only.
func (v *Vault) SetSecurityGuard(caller, guard domain.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.roles.IsOwner(caller) {
		return fmt.Errorf("set security guard by %s: %w", caller, domain.ErrUnauthorized)
	}

	old := v.roles.SecurityGuard
	v.roles.SecurityGuard = guard

	v.recorder.Commit(&event.SecurityGuardChangedEvent{OldGuard: old, NewGuard: guard})
	return nil
}

// ChangeEscapeCaller reassigns the escape hatch trigger role. Callable by
// the current escape caller or the owner.
func (v *Vault) ChangeEscapeCaller(caller, newCaller domain.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.roles.IsEscapeCallerOrOwner(caller) {
		return fmt.Errorf("change escape caller by %s: %w", caller, domain.ErrUnauthorized)
	}
	if newCaller == domain.ZeroAddress {
		return fmt.Errorf("change escape caller to zero address: %w", domain.ErrUnauthorized)
	}

	old := v.roles.EscapeHatchCaller
	v.roles.EscapeHatchCaller = newCaller

	v.recorder.Commit(&event.EscapeCallerChangedEvent{OldCaller: old, NewCaller: newCaller})
	return nil
}

// AuthorizePayment pulls funds from the payer into custody and appends an
// authorized payment record committing those funds to the recipient.
// Authorized marketplaces only. Returns the new payment's id.
func (v *Vault) AuthorizePayment(caller, payer, recipient domain.Address, kind domain.AssetKind, amount units.Amount) (domain.PaymentID, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.roles.IsAuthorizedMarketplace(caller) {
		return 0, fmt.Errorf("authorize payment by %s: %w", caller, domain.ErrUnauthorized)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("authorize payment of %d: amount must be positive", amount)
	}
	if payer == domain.ZeroAddress || recipient == domain.ZeroAddress {
		return 0, fmt.Errorf("authorize payment with zero address party: %w", domain.ErrUnauthorized)
	}

	// Funds move before the record exists. A deposit failure leaves the
	// ledger untouched.
	if err := v.settle.Deposit(payer, kind, amount); err != nil {
		return 0, fmt.Errorf("deposit for payment: %w", err)
	}

	id := domain.PaymentID(len(v.payments) + 1)
	p := &domain.Payment{
		ID:           id,
		Payer:        payer,
		Recipient:    recipient,
		Kind:         kind,
		Amount:       amount,
		State:        domain.PaymentAuthorized,
		CreatedUnixM: units.Now(),
	}
	v.payments = append(v.payments, p)
	v.balances.Get(kind).Credit(amount)

	v.recorder.Commit(&event.PaymentAuthorizedEvent{
		PaymentID: id,
		Payer:     payer,
		Recipient: recipient,
		Kind:      kind,
		Amount:    amount,
	})
	v.logger.Info("payment authorized",
		"id", uint64(id),
		"payer", string(payer),
		"recipient", string(recipient),
		"kind", string(kind),
		"amount", amount.String())
	return id, nil
}

// CollectAuthorizedPayment releases an authorized payment's funds to its
// recipient. Authorized marketplaces only. Collecting twice fails; a
// payment executes exactly once.
func (v *Vault) CollectAuthorizedPayment(caller domain.Address, id domain.PaymentID) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.roles.IsAuthorizedMarketplace(caller) {
		return fmt.Errorf("collect payment by %s: %w", caller, domain.ErrUnauthorized)
	}

	p, err := v.payment(id)
	if err != nil {
		return err
	}
	if !p.IsAuthorized() {
		return fmt.Errorf("collect payment %d in state %s: %w",
			id, p.State, domain.ErrInvalidPaymentState)
	}

	// Custody can fall below outstanding commitments only after an escape
	// hatch sweep. Fail the collection instead of corrupting the book.
	if v.balances.Held(p.Kind) < p.Amount {
		return fmt.Errorf("collect payment %d: custody drained: %w",
			id, domain.ErrInsufficientFunds)
	}

	if err := v.settle.Payout(p.Recipient, p.Kind, p.Amount); err != nil {
		return fmt.Errorf("payout for payment %d: %w", id, err)
	}

	if err := p.Execute(); err != nil {
		panic(fmt.Sprintf("VAULT_LEDGER_CORRUPT: payment %d: %v", id, err))
	}
	v.balances.Get(p.Kind).Debit(p.Amount)

	v.recorder.Commit(&event.PaymentExecutedEvent{
		PaymentID: id,
		Recipient: p.Recipient,
		Kind:      p.Kind,
		Amount:    p.Amount,
	})
	v.logger.Info("payment executed",
		"id", uint64(id),
		"recipient", string(p.Recipient),
		"amount", p.Amount.String())
	return nil
}

// CancelAuthorizedPayment refunds an authorized payment to its payer.
// Authorized marketplaces only; a marketplace cancels when its listing is
// withdrawn or a trade falls through.
func (v *Vault) CancelAuthorizedPayment(caller domain.Address, id domain.PaymentID) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.roles.IsAuthorizedMarketplace(caller) {
		return fmt.Errorf("cancel payment by %s: %w", caller, domain.ErrUnauthorized)
	}

	p, err := v.payment(id)
	if err != nil {
		return err
	}
	if !p.IsAuthorized() {
		return fmt.Errorf("cancel payment %d in state %s: %w",
			id, p.State, domain.ErrInvalidPaymentState)
	}
	if v.balances.Held(p.Kind) < p.Amount {
		return fmt.Errorf("cancel payment %d: custody drained: %w",
			id, domain.ErrInsufficientFunds)
	}

	if err := v.settle.Payout(p.Payer, p.Kind, p.Amount); err != nil {
		return fmt.Errorf("refund for payment %d: %w", id, err)
	}

	if err := p.Cancel(); err != nil {
		panic(fmt.Sprintf("VAULT_LEDGER_CORRUPT: payment %d: %v", id, err))
	}
	v.balances.Get(p.Kind).Debit(p.Amount)

	v.recorder.Commit(&event.PaymentCanceledEvent{
		PaymentID: id,
		Payer:     p.Payer,
		Kind:      p.Kind,
		Amount:    p.Amount,
	})
	v.logger.Info("payment canceled",
		"id", uint64(id),
		"payer", string(p.Payer),
		"amount", p.Amount.String())
	return nil
}

// EscapeHatch sweeps every held balance to the recovery recipient.
// Callable by the escape caller or the owner. Bypasses all payment state:
// outstanding authorizations stay Authorized but become uncollectable.
func (v *Vault) EscapeHatch(caller domain.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.roles.IsEscapeCallerOrOwner(caller) {
		return fmt.Errorf("escape hatch by %s: %w", caller, domain.ErrUnauthorized)
	}

	recipient := v.roles.RecoveryRecipient
	swept := make(map[domain.AssetKind]units.Amount)

	for _, kind := range v.balances.Kinds() {
		held := v.balances.Held(kind)
		if held == 0 {
			continue
		}
		if err := v.settle.Payout(recipient, kind, held); err != nil {
			return fmt.Errorf("escape hatch payout of %s: %w", kind, err)
		}
		v.balances.Get(kind).Debit(held)
		swept[kind] = held
	}

	v.recorder.Commit(&event.EscapeHatchEvent{
		Caller:    caller,
		Recipient: recipient,
		Swept:     swept,
	})
	v.logger.Warn("escape hatch triggered",
		"caller", string(caller),
		"recipient", string(recipient),
		"kinds_swept", len(swept))
	return nil
}

// NumberOfAuthorizedPayments returns the ledger length. Restricted like
// GetBalance: marketplaces and strangers get no ledger visibility.
func (v *Vault) NumberOfAuthorizedPayments(caller domain.Address) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.roles.CanViewLedger(caller) {
		return 0, fmt.Errorf("payment count by %s: %w", caller, domain.ErrUnauthorized)
	}
	return len(v.payments), nil
}

// PaymentCount is the ungated ledger length for internal bookkeeping
// (recovery logging, snapshot sanity checks).
func (v *Vault) PaymentCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.payments)
}

// GetBalance returns the held custody for an asset kind. Restricted to the
// owner, escape caller and security guard.
func (v *Vault) GetBalance(caller domain.Address, kind domain.AssetKind) (units.Amount, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.roles.CanViewLedger(caller) {
		return 0, fmt.Errorf("get balance by %s: %w", caller, domain.ErrUnauthorized)
	}
	return v.balances.Held(kind), nil
}

// GetPayment returns a copy of a payment record. Restricted to ledger
// viewers and authorized marketplaces; marketplaces need the record to
// settle trades against it.
func (v *Vault) GetPayment(caller domain.Address, id domain.PaymentID) (domain.Payment, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.roles.CanViewLedger(caller) && !v.roles.IsAuthorizedMarketplace(caller) {
		return domain.Payment{}, fmt.Errorf("get payment by %s: %w", caller, domain.ErrUnauthorized)
	}

	p, err := v.payment(id)
	if err != nil {
		return domain.Payment{}, err
	}
	return *p, nil
}

// Roles returns a copy of the current role assignments.
func (v *Vault) Roles() domain.RoleSet {
	v.mu.Lock()
	defer v.mu.Unlock()

	cp := *v.roles
	cp.Marketplaces = make(map[domain.Address]bool, len(v.roles.Marketplaces))
	for k, val := range v.roles.Marketplaces {
		cp.Marketplaces[k] = val
	}
	return cp
}

// payment resolves an id. Must be called with the lock held. An id the
// ledger never issued is indistinguishable from a resolved one to the
// caller: both are not collectable.
func (v *Vault) payment(id domain.PaymentID) (*domain.Payment, error) {
	if id == 0 || int(id) > len(v.payments) {
		return nil, fmt.Errorf("payment %d does not exist: %w", id, domain.ErrInvalidPaymentState)
	}
	return v.payments[id-1], nil
}

// ExportSnapshot captures the full vault state for persistence.
func (v *Vault) ExportSnapshot(seq uint64) *storage.Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	payments := make([]*domain.Payment, len(v.payments))
	for i, p := range v.payments {
		cp := *p
		payments[i] = &cp
	}

	roles := *v.roles
	roles.Marketplaces = make(map[domain.Address]bool, len(v.roles.Marketplaces))
	for k, val := range v.roles.Marketplaces {
		roles.Marketplaces[k] = val
	}

	return &storage.Snapshot{
		Seq:      seq,
		TsUnix:   int64(units.Now()),
		Roles:    &roles,
		Payments: payments,
		Balances: v.balances.Export(),
	}
}

// RestoreSnapshot replaces the vault state with a persisted snapshot.
// Called once during recovery, before replaying the journal tail.
func (v *Vault) RestoreSnapshot(snap *storage.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.roles = snap.Roles
	if v.roles.Marketplaces == nil {
		v.roles.Marketplaces = make(map[domain.Address]bool)
	}
	v.payments = snap.Payments
	v.balances = domain.NewBalanceBookFrom(snap.Balances)
}
