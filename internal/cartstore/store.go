package cartstore

import (
	"context"
)

// SelectedAddress is the stored address-book selection for a session.
// Fields mirror the address-book record verbatim.
type SelectedAddress struct {
	AddressID  string `json:"addressId"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

// Store is the injected session-state store for carts and address
// selections. Implementations must return an empty cart, not an error,
// for sessions with no stored cart.
type Store interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	Set(ctx context.Context, sessionID string, cart *Cart) error
	Clear(ctx context.Context, sessionID string) error

	GetSelectedAddress(ctx context.Context, sessionID string) (*SelectedAddress, error)
	SetSelectedAddress(ctx context.Context, sessionID string, addr *SelectedAddress) error
	ClearSelectedAddress(ctx context.Context, sessionID string) error
}
