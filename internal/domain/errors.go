package domain

import "errors"

// Precondition failures. Every mutating operation aborts with one of these
// and leaves no state change behind.
var (
	// ErrUnauthorized: caller lacks the required role for the attempted mutation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotAssetOwner: caller claims seller privileges over an NFT it does not own.
	ErrNotAssetOwner = errors.New("not NFT owner")

	// ErrCannotPurchaseOwnAsset: buyer and current owner coincide.
	ErrCannotPurchaseOwnAsset = errors.New("cannot purchase own NFT")

	// ErrInsufficientFunds: offer deposit is zero or absent.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidPaymentState: collection or cancellation attempted on a
	// nonexistent or already-settled payment.
	ErrInvalidPaymentState = errors.New("invalid payment state")
)
