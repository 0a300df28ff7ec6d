package registry

import (
	"fmt"
	"sync"

	"escrow_go/internal/domain"
)

// TokenCollection is an in-memory ownership registry with single-token
// transfer approvals. It mirrors the approval discipline of on-chain
// token registries: one approved address per token, cleared on transfer.
type TokenCollection struct {
	mu        sync.RWMutex
	name      string
	owners    map[domain.TokenID]domain.Address
	approvals map[domain.TokenID]domain.Address
	nextID    domain.TokenID
}

// NewTokenCollection creates an empty collection.
func NewTokenCollection(name string) *TokenCollection {
	return &TokenCollection{
		name:      name,
		owners:    make(map[domain.TokenID]domain.Address),
		approvals: make(map[domain.TokenID]domain.Address),
		nextID:    1,
	}
}

// Name returns the collection's display name.
func (c *TokenCollection) Name() string {
	return c.name
}

// Mint creates a new token owned by to and returns its id.
func (c *TokenCollection) Mint(to domain.Address) (domain.TokenID, error) {
	if to == domain.ZeroAddress {
		return 0, fmt.Errorf("mint to zero address: %w", domain.ErrUnauthorized)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.owners[id] = to
	return id, nil
}

// OwnerOf returns the owner of a token.
func (c *TokenCollection) OwnerOf(id domain.TokenID) (domain.Address, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	owner, ok := c.owners[id]
	if !ok {
		return domain.ZeroAddress, fmt.Errorf("token %d does not exist", id)
	}
	return owner, nil
}

// Approve grants approved the right to move the token. Only the token
// owner may call this; passing the zero address revokes any approval.
func (c *TokenCollection) Approve(caller domain.Address, approved domain.Address, id domain.TokenID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	owner, ok := c.owners[id]
	if !ok {
		return fmt.Errorf("token %d does not exist", id)
	}
	if caller != owner {
		return fmt.Errorf("approve by %s on token %d owned by %s: %w",
			caller, id, owner, domain.ErrNotAssetOwner)
	}

	if approved == domain.ZeroAddress {
		delete(c.approvals, id)
	} else {
		c.approvals[id] = approved
	}
	return nil
}

// IsApprovedFor reports whether operator holds an approval for the token.
// The owner is always approved for their own tokens.
func (c *TokenCollection) IsApprovedFor(operator domain.Address, id domain.TokenID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.owners[id] == operator {
		return true
	}
	return c.approvals[id] == operator
}

// TransferFrom moves a token from from to to. The caller must be the
// owner or hold the token's approval. The approval is cleared so a past
// operator cannot move the token again after it changes hands.
func (c *TokenCollection) TransferFrom(caller, from, to domain.Address, id domain.TokenID) error {
	if to == domain.ZeroAddress {
		return fmt.Errorf("transfer to zero address")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	owner, ok := c.owners[id]
	if !ok {
		return fmt.Errorf("token %d does not exist", id)
	}
	if owner != from {
		return fmt.Errorf("token %d owned by %s, not %s: %w",
			id, owner, from, domain.ErrNotAssetOwner)
	}
	if caller != owner && c.approvals[id] != caller {
		return fmt.Errorf("%s has no transfer right on token %d: %w",
			caller, id, domain.ErrUnauthorized)
	}

	delete(c.approvals, id)
	c.owners[id] = to
	return nil
}
