package settlement

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"escrow_go/internal/infra"
)

// NewSettlement creates a settlement conduit based on the configured mode.
// Mode "sim" keeps all fund movement in memory; mode "host" hands fund
// movement to the hosting environment and requires an explicit latch.
func NewSettlement(cfg *infra.Config, logger *slog.Logger) (Settlement, error) {
	mode := strings.ToLower(cfg.Vault.Mode)

	switch mode {
	case "sim":
		logger.Info("settlement mode: simulated (in-memory accounts)")
		return NewSimSettlement(), nil

	case "host":
		// Safety latch: host custody moves real funds.
		if os.Getenv("VAULT_CONFIRM_HOST_CUSTODY") != "YES" {
			return nil, fmt.Errorf("host custody requires VAULT_CONFIRM_HOST_CUSTODY=YES")
		}
		logger.Warn("settlement mode: HOST CUSTODY (real funds)")
		return NewHostSettlement(logger), nil

	default:
		return nil, fmt.Errorf("unknown settlement mode: %s", cfg.Vault.Mode)
	}
}
