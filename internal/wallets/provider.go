// Package wallets contains the provider-specific connection routines the
// wallet connector dispatches to. Each provider is an opaque capability
// behind the models.WalletType enum: asked for a connection, it either
// returns an address or fails with a provider-specific error.
package wallets

import (
	"context"

	"trustpeer/internal/models"
)

// Provider is a single wallet/identity integration.
type Provider interface {
	Type() models.WalletType
	// Available reports whether the provider is installed/reachable.
	Available() bool
	// Connect establishes a session and returns the resulting connection.
	Connect(ctx context.Context) (*models.WalletConnection, error)
}

// IdentityProvider is a provider that owns an authentication session of its
// own and must be logged out when disconnected.
type IdentityProvider interface {
	Provider
	Logout(ctx context.Context) error
}

// DefaultProviders returns the standard provider set. Stoic ships as a
// declared-but-unavailable provider, matching its unreleased integration.
func DefaultProviders() []Provider {
	return []Provider{
		NewInternetIdentityProvider(),
		NewPlugProvider(),
		NewEVMProvider(models.WalletTypeMetaMask, ChainEthereumMainnet),
		NewEVMProvider(models.WalletTypeTrustWallet, ChainBSCMainnet),
		NewStoicProvider(),
	}
}
