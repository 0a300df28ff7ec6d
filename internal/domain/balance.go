package domain

import (
	"sort"

	"escrow_go/pkg/safe"
	"escrow_go/pkg/units"
)

// Balance tracks the vault's custody of a single asset kind.
// Held is the current custodial balance; Deposited is the cumulative inflow
// and only ever grows. Conservation: released funds (payouts + refunds) equal
// Deposited - Held at all times.
type Balance struct {
	Kind      AssetKind    `json:"kind"`
	Held      units.Amount `json:"held"`
	Deposited units.Amount `json:"deposited"`
}

// Credit records an inflow into custody.
func (b *Balance) Credit(amount units.Amount) {
	b.Held = units.Amount(safe.Add(int64(b.Held), int64(amount)))
	b.Deposited = units.Amount(safe.Add(int64(b.Deposited), int64(amount)))
	b.VerifyInvariant()
}

// Debit records an outflow from custody. A debit beyond the held balance is
// a ledger bug, not a caller error: panic.
func (b *Balance) Debit(amount units.Amount) {
	if amount > b.Held {
		panic("VAULT_BALANCE_DEBIT_EXCEEDS_CUSTODY")
	}
	b.Held = units.Amount(safe.Sub(int64(b.Held), int64(amount)))
	b.VerifyInvariant()
}

// VerifyInvariant panics if the balance bookkeeping has gone negative or
// claims more custody than was ever deposited.
func (b *Balance) VerifyInvariant() {
	if b.Held < 0 {
		panic("VAULT_BALANCE_NEGATIVE")
	}
	if b.Deposited < 0 {
		panic("VAULT_BALANCE_DEPOSITED_NEGATIVE")
	}
	if b.Held > b.Deposited {
		panic("VAULT_BALANCE_EXCEEDS_DEPOSITS")
	}
}

// BalanceBook holds one Balance per asset kind the vault has ever touched.
type BalanceBook struct {
	balances map[AssetKind]*Balance
}

// NewBalanceBook creates an empty balance book.
func NewBalanceBook() *BalanceBook {
	return &BalanceBook{balances: make(map[AssetKind]*Balance)}
}

// Get returns the balance for kind, creating a zero entry if absent.
func (bb *BalanceBook) Get(kind AssetKind) *Balance {
	b, ok := bb.balances[kind]
	if !ok {
		b = &Balance{Kind: kind}
		bb.balances[kind] = b
	}
	return b
}

// Held returns the current custodial balance for kind without creating an entry.
func (bb *BalanceBook) Held(kind AssetKind) units.Amount {
	if b, ok := bb.balances[kind]; ok {
		return b.Held
	}
	return 0
}

// Export returns a copy of every tracked balance, keyed by kind.
// Used by snapshots; mutations to the copy do not touch the book.
func (bb *BalanceBook) Export() map[AssetKind]Balance {
	out := make(map[AssetKind]Balance, len(bb.balances))
	for k, b := range bb.balances {
		out[k] = *b
	}
	return out
}

// NewBalanceBookFrom restores a book from exported balances.
func NewBalanceBookFrom(balances map[AssetKind]Balance) *BalanceBook {
	bb := NewBalanceBook()
	for k, b := range balances {
		cp := b
		cp.VerifyInvariant()
		bb.balances[k] = &cp
	}
	return bb
}

// Kinds returns every tracked asset kind in deterministic order.
func (bb *BalanceBook) Kinds() []AssetKind {
	kinds := make([]AssetKind, 0, len(bb.balances))
	for k := range bb.balances {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
