package safe

import (
	"math"
)

// Add performs int64 addition and panics on overflow/underflow.
// Custody balances must never wrap silently.
func Add(a, b int64) int64 {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		panic("VAULT_SAFE_ADD_OVERFLOW")
	}
	return a + b
}

// Sub performs int64 subtraction and panics on overflow/underflow.
func Sub(a, b int64) int64 {
	if (b > 0 && a < math.MinInt64+b) || (b < 0 && a > math.MaxInt64+b) {
		panic("VAULT_SAFE_SUB_OVERFLOW")
	}
	return a - b
}
