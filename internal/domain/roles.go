package domain

// RoleSet holds the vault's role assignments. One instance per vault;
// mutated only through owner/escape-caller gated operations.
type RoleSet struct {
	Owner             Address          `json:"owner"`
	EscapeHatchCaller Address          `json:"escape_hatch_caller"`
	SecurityGuard     Address          `json:"security_guard"`
	RecoveryRecipient Address          `json:"recovery_recipient"`
	Marketplaces      map[Address]bool `json:"marketplaces"`
}

// NewRoleSet creates a role set with the given initial assignments and an
// empty marketplace authorization set.
func NewRoleSet(owner, escapeCaller, recoveryRecipient Address) *RoleSet {
	return &RoleSet{
		Owner:             owner,
		EscapeHatchCaller: escapeCaller,
		RecoveryRecipient: recoveryRecipient,
		Marketplaces:      make(map[Address]bool),
	}
}

// IsOwner reports whether addr is the current owner.
// Evaluated against live role state; predicates are never cached.
func (r *RoleSet) IsOwner(addr Address) bool {
	return addr != ZeroAddress && addr == r.Owner
}

// IsEscapeCallerOrOwner reports whether addr may trigger or reassign the
// escape hatch.
func (r *RoleSet) IsEscapeCallerOrOwner(addr Address) bool {
	return r.IsOwner(addr) || (addr != ZeroAddress && addr == r.EscapeHatchCaller)
}

// IsAuthorizedMarketplace reports whether addr may create/collect payments
// and request transfers.
func (r *RoleSet) IsAuthorizedMarketplace(addr Address) bool {
	return r.Marketplaces[addr]
}

// CanViewLedger reports whether addr may read custody state. Deliberately
// excludes marketplaces: integrations get no visibility into balances.
func (r *RoleSet) CanViewLedger(addr Address) bool {
	return r.IsEscapeCallerOrOwner(addr) || (addr != ZeroAddress && addr == r.SecurityGuard)
}

// SetMarketplace toggles marketplace membership. Authorization and removal
// go through the same call with the enabled flag inverted.
func (r *RoleSet) SetMarketplace(addr Address, enabled bool) {
	if enabled {
		r.Marketplaces[addr] = true
	} else {
		delete(r.Marketplaces, addr)
	}
}
