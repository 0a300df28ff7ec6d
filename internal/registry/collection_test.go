package registry

import (
	"errors"
	"testing"

	"escrow_go/internal/domain"
)

func TestTokenCollection_MintAndOwnership(t *testing.T) {
	c := NewTokenCollection("FlowInsight")
	alice := domain.Address("0xALICE")

	id, err := c.Mint(alice)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	owner, err := c.OwnerOf(id)
	if err != nil {
		t.Fatalf("OwnerOf failed: %v", err)
	}
	if owner != alice {
		t.Errorf("owner = %s, want %s", owner, alice)
	}

	if _, err := c.OwnerOf(999); err == nil {
		t.Error("OwnerOf should fail for unknown token")
	}
	if _, err := c.Mint(domain.ZeroAddress); err == nil {
		t.Error("Mint to zero address should fail")
	}
}

func TestTokenCollection_Approvals(t *testing.T) {
	c := NewTokenCollection("FlowInsight")
	alice := domain.Address("0xALICE")
	market := domain.Address("0xMARKET")
	mallory := domain.Address("0xMALLORY")

	id, _ := c.Mint(alice)

	t.Run("only owner can approve", func(t *testing.T) {
		err := c.Approve(mallory, mallory, id)
		if !errors.Is(err, domain.ErrNotAssetOwner) {
			t.Errorf("err = %v, want ErrNotAssetOwner", err)
		}
	})

	t.Run("owner approval grants transfer right", func(t *testing.T) {
		if err := c.Approve(alice, market, id); err != nil {
			t.Fatalf("Approve failed: %v", err)
		}
		if !c.IsApprovedFor(market, id) {
			t.Error("market should be approved")
		}
		if c.IsApprovedFor(mallory, id) {
			t.Error("mallory should not be approved")
		}
	})

	t.Run("owner is always approved", func(t *testing.T) {
		if !c.IsApprovedFor(alice, id) {
			t.Error("owner should be approved for own token")
		}
	})

	t.Run("zero address revokes", func(t *testing.T) {
		if err := c.Approve(alice, domain.ZeroAddress, id); err != nil {
			t.Fatalf("revoke failed: %v", err)
		}
		if c.IsApprovedFor(market, id) {
			t.Error("approval should be revoked")
		}
	})
}

func TestTokenCollection_TransferFrom(t *testing.T) {
	alice := domain.Address("0xALICE")
	bob := domain.Address("0xBOB")
	market := domain.Address("0xMARKET")

	t.Run("owner can transfer", func(t *testing.T) {
		c := NewTokenCollection("FlowInsight")
		id, _ := c.Mint(alice)

		if err := c.TransferFrom(alice, alice, bob, id); err != nil {
			t.Fatalf("TransferFrom failed: %v", err)
		}
		owner, _ := c.OwnerOf(id)
		if owner != bob {
			t.Errorf("owner = %s, want %s", owner, bob)
		}
	})

	t.Run("approved operator can transfer", func(t *testing.T) {
		c := NewTokenCollection("FlowInsight")
		id, _ := c.Mint(alice)
		c.Approve(alice, market, id)

		if err := c.TransferFrom(market, alice, bob, id); err != nil {
			t.Fatalf("TransferFrom failed: %v", err)
		}
		owner, _ := c.OwnerOf(id)
		if owner != bob {
			t.Errorf("owner = %s, want %s", owner, bob)
		}
	})

	t.Run("approval cleared on transfer", func(t *testing.T) {
		c := NewTokenCollection("FlowInsight")
		id, _ := c.Mint(alice)
		c.Approve(alice, market, id)
		c.TransferFrom(market, alice, bob, id)

		if c.IsApprovedFor(market, id) {
			t.Error("approval should be cleared after transfer")
		}
		err := c.TransferFrom(market, bob, alice, id)
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("stale operator transfer: err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("stranger cannot transfer", func(t *testing.T) {
		c := NewTokenCollection("FlowInsight")
		id, _ := c.Mint(alice)

		err := c.TransferFrom(bob, alice, bob, id)
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("wrong from rejected", func(t *testing.T) {
		c := NewTokenCollection("FlowInsight")
		id, _ := c.Mint(alice)

		err := c.TransferFrom(alice, bob, alice, id)
		if !errors.Is(err, domain.ErrNotAssetOwner) {
			t.Errorf("err = %v, want ErrNotAssetOwner", err)
		}
	})

	t.Run("transfer to zero address rejected", func(t *testing.T) {
		c := NewTokenCollection("FlowInsight")
		id, _ := c.Mint(alice)

		if err := c.TransferFrom(alice, alice, domain.ZeroAddress, id); err == nil {
			t.Error("transfer to zero address should fail")
		}
	})
}
