package settlement

import (
	"log/slog"

	"escrow_go/internal/domain"
	"escrow_go/pkg/units"
)

// HostSettlement delegates fund movement to the hosting environment.
// Each call is logged for the host's reconciliation process; the host
// is trusted to have already validated available funds for deposits.
type HostSettlement struct {
	logger *slog.Logger
}

func NewHostSettlement(logger *slog.Logger) *HostSettlement {
	return &HostSettlement{logger: logger}
}

func (h *HostSettlement) Deposit(payer domain.Address, kind domain.AssetKind, amount units.Amount) error {
	h.logger.Info("HOST DEPOSIT",
		"payer", string(payer),
		"kind", string(kind),
		"amount", amount.String())
	return nil
}

func (h *HostSettlement) Payout(recipient domain.Address, kind domain.AssetKind, amount units.Amount) error {
	h.logger.Info("HOST PAYOUT",
		"recipient", string(recipient),
		"kind", string(kind),
		"amount", amount.String())
	return nil
}
