package registry

import (
	"escrow_go/internal/domain"
)

// AssetRegistry is the external ownership registry the marketplace trades
// against. The vault never assumes a particular implementation; anything
// that tracks per-token ownership and transfer approvals satisfies it.
type AssetRegistry interface {
	// OwnerOf returns the current owner of a token, or an error if the
	// token does not exist.
	OwnerOf(id domain.TokenID) (domain.Address, error)

	// Approve grants a single-token transfer right. Only the token owner
	// may approve. Approving the zero address revokes.
	Approve(caller domain.Address, approved domain.Address, id domain.TokenID) error

	// IsApprovedFor reports whether operator may move the token.
	IsApprovedFor(operator domain.Address, id domain.TokenID) bool

	// TransferFrom moves a token. The caller must be the owner or hold an
	// approval for the token. Any approval is cleared on transfer.
	TransferFrom(caller, from, to domain.Address, id domain.TokenID) error
}
