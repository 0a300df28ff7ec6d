package domain

import (
	"testing"
)

func TestRoleSet_Predicates(t *testing.T) {
	r := NewRoleSet("owner", "escape", "recovery")
	r.SecurityGuard = "guard"

	t.Run("IsOwner", func(t *testing.T) {
		if !r.IsOwner("owner") {
			t.Error("owner should be owner")
		}
		if r.IsOwner("escape") || r.IsOwner("other") {
			t.Error("non-owner passed owner check")
		}
	})

	t.Run("IsEscapeCallerOrOwner", func(t *testing.T) {
		if !r.IsEscapeCallerOrOwner("owner") || !r.IsEscapeCallerOrOwner("escape") {
			t.Error("owner and escape caller should pass")
		}
		if r.IsEscapeCallerOrOwner("guard") || r.IsEscapeCallerOrOwner("other") {
			t.Error("guard/other passed escape check")
		}
	})

	t.Run("CanViewLedger", func(t *testing.T) {
		for _, addr := range []Address{"owner", "escape", "guard"} {
			if !r.CanViewLedger(addr) {
				t.Errorf("%s should view ledger", addr)
			}
		}
		if r.CanViewLedger("other") {
			t.Error("other passed ledger view check")
		}
	})

	t.Run("Zero address never holds a role", func(t *testing.T) {
		empty := NewRoleSet(ZeroAddress, ZeroAddress, ZeroAddress)
		if empty.IsOwner(ZeroAddress) || empty.IsEscapeCallerOrOwner(ZeroAddress) || empty.CanViewLedger(ZeroAddress) {
			t.Error("zero address must not satisfy any role predicate")
		}
	})
}

func TestRoleSet_MarketplaceToggle(t *testing.T) {
	r := NewRoleSet("owner", "escape", "recovery")

	if r.IsAuthorizedMarketplace("market") {
		t.Error("marketplace authorized before any call")
	}

	r.SetMarketplace("market", true)
	if !r.IsAuthorizedMarketplace("market") {
		t.Error("marketplace not authorized after enable")
	}

	// Same call, false flag: removal is symmetric
	r.SetMarketplace("market", false)
	if r.IsAuthorizedMarketplace("market") {
		t.Error("marketplace still authorized after disable")
	}
}
