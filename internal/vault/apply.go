package vault

import (
	"fmt"

	"escrow_go/internal/domain"
	"escrow_go/internal/event"
)

// Apply replays one committed event against the vault state. No role
// checks and no settlement calls: the event already happened, replay only
// reconstructs the bookkeeping it left behind.
func (v *Vault) Apply(ev event.Event) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch e := ev.(type) {
	case *event.NewOwnerEvent:
		v.roles.Owner = e.NewOwner

	case *event.MarketplaceAuthorizationEvent:
		v.roles.SetMarketplace(e.Marketplace, e.Enabled)

	case *event.SecurityGuardChangedEvent:
		v.roles.SecurityGuard = e.NewGuard

	case *event.EscapeCallerChangedEvent:
		v.roles.EscapeHatchCaller = e.NewCaller

	case *event.PaymentAuthorizedEvent:
		if int(e.PaymentID) != len(v.payments)+1 {
			return fmt.Errorf("replay payment %d onto ledger of length %d",
				e.PaymentID, len(v.payments))
		}
		v.payments = append(v.payments, &domain.Payment{
			ID:           e.PaymentID,
			Payer:        e.Payer,
			Recipient:    e.Recipient,
			Kind:         e.Kind,
			Amount:       e.Amount,
			State:        domain.PaymentAuthorized,
			CreatedUnixM: e.Ts,
		})
		v.balances.Get(e.Kind).Credit(e.Amount)

	case *event.PaymentExecutedEvent:
		p, err := v.payment(e.PaymentID)
		if err != nil {
			return err
		}
		if err := p.Execute(); err != nil {
			return fmt.Errorf("replay execute payment %d: %w", e.PaymentID, err)
		}
		v.balances.Get(p.Kind).Debit(p.Amount)

	case *event.PaymentCanceledEvent:
		p, err := v.payment(e.PaymentID)
		if err != nil {
			return err
		}
		if err := p.Cancel(); err != nil {
			return fmt.Errorf("replay cancel payment %d: %w", e.PaymentID, err)
		}
		v.balances.Get(p.Kind).Debit(p.Amount)

	case *event.TradeConfirmedEvent:
		// Audit trail only; the payment execution carries the state.

	case *event.EscapeHatchEvent:
		for kind, amount := range e.Swept {
			v.balances.Get(kind).Debit(amount)
		}

	default:
		return fmt.Errorf("replay of unknown event type %d", ev.GetType())
	}

	return nil
}
