package settlement

import (
	"fmt"
	"sync"

	"escrow_go/internal/domain"
	"escrow_go/pkg/safe"
	"escrow_go/pkg/units"
)

// SimSettlement simulates fund movement with virtual account balances.
// Used for local development, the demo scenario and tests.
type SimSettlement struct {
	mu       sync.Mutex
	accounts map[domain.Address]map[domain.AssetKind]units.Amount
	custody  map[domain.AssetKind]units.Amount
}

// NewSimSettlement creates a simulator with empty accounts.
func NewSimSettlement() *SimSettlement {
	return &SimSettlement{
		accounts: make(map[domain.Address]map[domain.AssetKind]units.Amount),
		custody:  make(map[domain.AssetKind]units.Amount),
	}
}

// Fund credits a virtual account. Test/demo seeding only.
func (s *SimSettlement) Fund(addr domain.Address, kind domain.AssetKind, amount units.Amount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credit(addr, kind, amount)
}

// BalanceOf returns the virtual balance of an external account.
func (s *SimSettlement) BalanceOf(addr domain.Address, kind domain.AssetKind) units.Amount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[addr][kind]
}

// CustodyOf returns the funds the simulator holds on the vault's behalf.
func (s *SimSettlement) CustodyOf(kind domain.AssetKind) units.Amount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.custody[kind]
}

// Deposit moves funds from the payer's account into custody. Fails without
// side effects if the payer cannot cover the amount.
func (s *SimSettlement) Deposit(payer domain.Address, kind domain.AssetKind, amount units.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	held := s.accounts[payer][kind]
	if held < amount {
		return fmt.Errorf("payer %s holds %d of %s, needs %d: %w",
			payer, held, kind, amount, domain.ErrInsufficientFunds)
	}

	s.accounts[payer][kind] = units.Amount(safe.Sub(int64(held), int64(amount)))
	s.custody[kind] = units.Amount(safe.Add(int64(s.custody[kind]), int64(amount)))
	return nil
}

// Payout moves funds from custody to the recipient's account. A payout
// beyond custody is a ledger bug: panic, never fabricate funds.
func (s *SimSettlement) Payout(recipient domain.Address, kind domain.AssetKind, amount units.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.custody[kind] < amount {
		panic("SETTLEMENT_PAYOUT_EXCEEDS_CUSTODY")
	}

	s.custody[kind] = units.Amount(safe.Sub(int64(s.custody[kind]), int64(amount)))
	s.credit(recipient, kind, amount)
	return nil
}

func (s *SimSettlement) credit(addr domain.Address, kind domain.AssetKind, amount units.Amount) {
	acct, ok := s.accounts[addr]
	if !ok {
		acct = make(map[domain.AssetKind]units.Amount)
		s.accounts[addr] = acct
	}
	acct[kind] = units.Amount(safe.Add(int64(acct[kind]), int64(amount)))
}
