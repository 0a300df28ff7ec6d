package infra

import (
	"fmt"
	"strings"
)

// ANSI Color Codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

// PrintBanner displays the startup banner with mode-specific warnings.
func PrintBanner(cfg *Config) {
	mode := strings.ToUpper(cfg.Vault.Mode)
	version := cfg.App.Version

	color := ColorCyan
	modeDesc := "SIMULATED SETTLEMENT"

	if mode == "HOST" {
		color = ColorRed
		modeDesc = "HOST CUSTODY (REAL FUNDS)"
	}

	fmt.Println()
	fmt.Printf("%s###########################################################%s\n", color, ColorReset)
	fmt.Printf("%s#                                                         #%s\n", color, ColorReset)
	fmt.Printf("%s#               🔐 Escrow Vault Service                   #%s\n", color, ColorReset)
	fmt.Printf("%s#                                                         #%s\n", color, ColorReset)
	fmt.Printf("%s#   MODE:    %-36s #%s\n", color, mode, ColorReset)
	fmt.Printf("%s#   TYPE:    %-36s #%s\n", color, modeDesc, ColorReset)
	fmt.Printf("%s#   VERSION: %-36s #%s\n", color, version, ColorReset)
	fmt.Printf("%s#                                                         #%s\n", color, ColorReset)

	if mode == "HOST" {
		fmt.Printf("%s#   ⚠️  WARNING: CUSTODY MOVES REAL FUNDS  ⚠️             #%s\n", ColorRed, ColorReset)
		fmt.Printf("%s#   VERIFY ROLE ASSIGNMENTS BEFORE ACCEPTING DEPOSITS     #%s\n", ColorRed, ColorReset)
	}

	fmt.Printf("%s###########################################################%s\n", color, ColorReset)
	fmt.Println()
}
