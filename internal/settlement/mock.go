package settlement

import (
	"log/slog"

	"escrow_go/internal/domain"
	"escrow_go/pkg/units"
)

// Call records one settlement invocation for test assertions.
type Call struct {
	Op     string // "DEPOSIT" or "PAYOUT"
	Addr   domain.Address
	Kind   domain.AssetKind
	Amount units.Amount
}

// MockSettlement logs and captures calls. Tests can force failures through
// the error fields.
type MockSettlement struct {
	Calls      []Call
	DepositErr error
	PayoutErr  error
}

func NewMockSettlement() *MockSettlement {
	return &MockSettlement{}
}

func (m *MockSettlement) Deposit(payer domain.Address, kind domain.AssetKind, amount units.Amount) error {
	if m.DepositErr != nil {
		return m.DepositErr
	}
	slog.Info("MOCK SETTLEMENT: Deposit",
		slog.String("payer", string(payer)),
		slog.String("kind", string(kind)),
		slog.Int64("amount", int64(amount)),
	)
	m.Calls = append(m.Calls, Call{Op: "DEPOSIT", Addr: payer, Kind: kind, Amount: amount})
	return nil
}

func (m *MockSettlement) Payout(recipient domain.Address, kind domain.AssetKind, amount units.Amount) error {
	if m.PayoutErr != nil {
		return m.PayoutErr
	}
	slog.Info("MOCK SETTLEMENT: Payout",
		slog.String("recipient", string(recipient)),
		slog.String("kind", string(kind)),
		slog.Int64("amount", int64(amount)),
	)
	m.Calls = append(m.Calls, Call{Op: "PAYOUT", Addr: recipient, Kind: kind, Amount: amount})
	return nil
}
