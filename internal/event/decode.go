package event

import (
	"encoding/json"
	"fmt"
)

// Decode unmarshals a stored payload back into its concrete event type.
// Used by the journal when replaying the audit trail.
func Decode(t Type, payload []byte) (Event, error) {
	var ev Event
	switch t {
	case EvNewOwner:
		ev = &NewOwnerEvent{}
	case EvMarketplaceAuthorization:
		ev = &MarketplaceAuthorizationEvent{}
	case EvSecurityGuardChanged:
		ev = &SecurityGuardChangedEvent{}
	case EvEscapeCallerChanged:
		ev = &EscapeCallerChangedEvent{}
	case EvPaymentAuthorized:
		ev = &PaymentAuthorizedEvent{}
	case EvPaymentExecuted:
		ev = &PaymentExecutedEvent{}
	case EvPaymentCanceled:
		ev = &PaymentCanceledEvent{}
	case EvTradeConfirmed:
		ev = &TradeConfirmedEvent{}
	case EvEscapeHatch:
		ev = &EscapeHatchEvent{}
	default:
		return nil, fmt.Errorf("unknown event type: %d", t)
	}

	if err := json.Unmarshal(payload, ev); err != nil {
		return nil, fmt.Errorf("failed to decode event type %d: %w", t, err)
	}
	return ev, nil
}
