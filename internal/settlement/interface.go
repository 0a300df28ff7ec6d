package settlement

import (
	"escrow_go/internal/domain"
	"escrow_go/pkg/units"
)

// Settlement is the conduit through which funds actually move. The ledger
// does the accounting; the settlement layer does the transfer. Both happen
// inside one vault operation or not at all.
type Settlement interface {
	// Deposit pulls funds from the payer into vault custody.
	Deposit(payer domain.Address, kind domain.AssetKind, amount units.Amount) error

	// Payout releases funds from vault custody to the recipient.
	Payout(recipient domain.Address, kind domain.AssetKind, amount units.Amount) error
}
