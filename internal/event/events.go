package event

import (
	"escrow_go/internal/domain"
	"escrow_go/pkg/units"
)

// Type defines the type of notification event.
type Type uint16

const (
	EvNewOwner Type = iota + 1
	EvMarketplaceAuthorization
	EvSecurityGuardChanged
	EvEscapeCallerChanged
	EvPaymentAuthorized
	EvPaymentExecuted
	EvPaymentCanceled
	EvTradeConfirmed
	EvEscapeHatch
)

func (t Type) String() string {
	switch t {
	case EvNewOwner:
		return "NEW_OWNER"
	case EvMarketplaceAuthorization:
		return "MARKETPLACE_AUTHORIZATION"
	case EvSecurityGuardChanged:
		return "SECURITY_GUARD_CHANGED"
	case EvEscapeCallerChanged:
		return "ESCAPE_CALLER_CHANGED"
	case EvPaymentAuthorized:
		return "PAYMENT_AUTHORIZED"
	case EvPaymentExecuted:
		return "PAYMENT_EXECUTED"
	case EvPaymentCanceled:
		return "PAYMENT_CANCELED"
	case EvTradeConfirmed:
		return "TRADE_CONFIRMED"
	case EvEscapeHatch:
		return "ESCAPE_HATCH"
	default:
		return "UNKNOWN"
	}
}

// Event is the interface for all vault notifications. Events are the durable
// audit trail: the full vault state is reconstructible by replaying them.
type Event interface {
	GetSeq() uint64
	GetTs() units.TimeStamp
	GetType() Type
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	Seq uint64          `json:"seq"`
	Ts  units.TimeStamp `json:"ts"`
}

func (e BaseEvent) GetSeq() uint64         { return e.Seq }
func (e BaseEvent) GetTs() units.TimeStamp { return e.Ts }

// SetSeq and SetTs are used by the journal recorder to stamp an event at
// commit time. Never called after persistence.
func (e *BaseEvent) SetSeq(seq uint64)        { e.Seq = seq }
func (e *BaseEvent) SetTs(ts units.TimeStamp) { e.Ts = ts }

// NewOwnerEvent: the vault owner changed. The old owner loses all
// owner-only rights atomically with this event.
type NewOwnerEvent struct {
	BaseEvent
	OldOwner domain.Address `json:"old_owner"`
	NewOwner domain.Address `json:"new_owner"`
}

func (e NewOwnerEvent) GetType() Type { return EvNewOwner }

// MarketplaceAuthorizationEvent: marketplace membership toggled.
type MarketplaceAuthorizationEvent struct {
	BaseEvent
	Marketplace domain.Address `json:"marketplace"`
	Enabled     bool           `json:"enabled"`
}

func (e MarketplaceAuthorizationEvent) GetType() Type { return EvMarketplaceAuthorization }

// SecurityGuardChangedEvent: read-only oversight role reassigned.
type SecurityGuardChangedEvent struct {
	BaseEvent
	OldGuard domain.Address `json:"old_guard"`
	NewGuard domain.Address `json:"new_guard"`
}

func (e SecurityGuardChangedEvent) GetType() Type { return EvSecurityGuardChanged }

// EscapeCallerChangedEvent: escape hatch trigger role reassigned.
type EscapeCallerChangedEvent struct {
	BaseEvent
	OldCaller domain.Address `json:"old_caller"`
	NewCaller domain.Address `json:"new_caller"`
}

func (e EscapeCallerChangedEvent) GetType() Type { return EvEscapeCallerChanged }

// PaymentAuthorizedEvent: a new payment record was appended and its funds
// entered custody.
type PaymentAuthorizedEvent struct {
	BaseEvent
	PaymentID domain.PaymentID `json:"payment_id"`
	Payer     domain.Address   `json:"payer"`
	Recipient domain.Address   `json:"recipient"`
	Kind      domain.AssetKind `json:"kind"`
	Amount    units.Amount     `json:"amount"`
}

func (e PaymentAuthorizedEvent) GetType() Type { return EvPaymentAuthorized }

// PaymentExecutedEvent: an authorized payment was collected and its funds
// released to the recipient.
type PaymentExecutedEvent struct {
	BaseEvent
	PaymentID domain.PaymentID `json:"payment_id"`
	Recipient domain.Address   `json:"recipient"`
	Kind      domain.AssetKind `json:"kind"`
	Amount    units.Amount     `json:"amount"`
}

func (e PaymentExecutedEvent) GetType() Type { return EvPaymentExecuted }

// PaymentCanceledEvent: an authorized payment was canceled and its funds
// refunded to the payer.
type PaymentCanceledEvent struct {
	BaseEvent
	PaymentID domain.PaymentID `json:"payment_id"`
	Payer     domain.Address   `json:"payer"`
	Kind      domain.AssetKind `json:"kind"`
	Amount    units.Amount     `json:"amount"`
}

func (e PaymentCanceledEvent) GetType() Type { return EvPaymentCanceled }

// TradeConfirmedEvent: a trade settled; payment executed and NFT transferred.
type TradeConfirmedEvent struct {
	BaseEvent
	PaymentID domain.PaymentID `json:"payment_id"`
	NFTID     domain.TokenID   `json:"nft_id"`
	Seller    domain.Address   `json:"seller"`
}

func (e TradeConfirmedEvent) GetType() Type { return EvTradeConfirmed }

// EscapeHatchEvent: emergency recovery drained all custodial balances to the
// recovery recipient. Swept records the per-kind amounts that left custody.
type EscapeHatchEvent struct {
	BaseEvent
	Caller    domain.Address                    `json:"caller"`
	Recipient domain.Address                    `json:"recipient"`
	Swept     map[domain.AssetKind]units.Amount `json:"swept"`
}

func (e EscapeHatchEvent) GetType() Type { return EvEscapeHatch }
