package domain

import (
	"escrow_go/pkg/units"
)

// PaymentID is the index of a payment record in the append-only ledger.
// Assigned at creation, never reused.
type PaymentID uint64

// PaymentState tracks the lifecycle of an escrowed payment.
type PaymentState uint8

const (
	// PaymentAuthorized: funds are held in custody, committed to the recipient.
	PaymentAuthorized PaymentState = iota + 1
	// PaymentExecuted: funds have been released to the recipient. Terminal.
	PaymentExecuted
	// PaymentCanceled: funds have been refunded to the payer. Terminal.
	PaymentCanceled
)

func (s PaymentState) String() string {
	switch s {
	case PaymentAuthorized:
		return "AUTHORIZED"
	case PaymentExecuted:
		return "EXECUTED"
	case PaymentCanceled:
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

// Payment is one record of the append-only escrow ledger.
// Amount is the custody commitment and is immutable after creation.
type Payment struct {
	ID           PaymentID       `json:"id"`
	Payer        Address         `json:"payer"`
	Recipient    Address         `json:"recipient"`
	Kind         AssetKind       `json:"kind"`
	Amount       units.Amount    `json:"amount"`
	State        PaymentState    `json:"state"`
	CreatedUnixM units.TimeStamp `json:"created_unix"`
}

// IsAuthorized reports whether the payment is still collectable.
func (p *Payment) IsAuthorized() bool {
	return p.State == PaymentAuthorized
}

// Execute transitions Authorized -> Executed. Exactly once; a second call
// fails with ErrInvalidPaymentState so a replayed collection can never
// double-pay.
func (p *Payment) Execute() error {
	if p.State != PaymentAuthorized {
		return ErrInvalidPaymentState
	}
	p.State = PaymentExecuted
	return nil
}

// Cancel transitions Authorized -> Canceled.
func (p *Payment) Cancel() error {
	if p.State != PaymentAuthorized {
		return ErrInvalidPaymentState
	}
	p.State = PaymentCanceled
	return nil
}
