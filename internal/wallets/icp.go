package wallets

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	"trustpeer/internal/models"
)

const icpNetwork = "ICP"

// newPrincipal generates an ICP-style principal identifier: base58 text
// grouped into dash-separated blocks.
func newPrincipal() (string, error) {
	buf := make([]byte, 29)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate principal: %w", err)
	}
	encoded := strings.ToLower(base58.Encode(buf))
	var groups []string
	for len(encoded) > 5 {
		groups = append(groups, encoded[:5])
		encoded = encoded[5:]
	}
	groups = append(groups, encoded)
	return strings.Join(groups, "-"), nil
}

// InternetIdentityProvider simulates the Internet Identity login flow. It is
// the identity provider: disconnecting it must also log the session out.
type InternetIdentityProvider struct {
	loggedIn bool
}

func NewInternetIdentityProvider() *InternetIdentityProvider {
	return &InternetIdentityProvider{}
}

func (p *InternetIdentityProvider) Type() models.WalletType {
	return models.WalletTypeInternetIdentity
}

// Available always reports true: the login flow is hosted, not installed.
func (p *InternetIdentityProvider) Available() bool { return true }

func (p *InternetIdentityProvider) Connect(ctx context.Context) (*models.WalletConnection, error) {
	if err := ctx.Err(); err != nil {
		return nil, &models.ConnectionError{Provider: p.Type(), Reason: "login cancelled", Err: err}
	}
	principal, err := newPrincipal()
	if err != nil {
		return nil, &models.ConnectionError{Provider: p.Type(), Reason: "login failed", Err: err}
	}
	p.loggedIn = true
	return &models.WalletConnection{
		Type:    p.Type(),
		Address: principal,
		Network: icpNetwork,
	}, nil
}

// Logout ends the identity session.
func (p *InternetIdentityProvider) Logout(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.loggedIn = false
	return nil
}

// LoggedIn reports whether an identity session is active.
func (p *InternetIdentityProvider) LoggedIn() bool { return p.loggedIn }

// PlugProvider simulates the Plug wallet browser extension.
type PlugProvider struct {
	installed bool
}

func NewPlugProvider() *PlugProvider {
	return &PlugProvider{installed: true}
}

// SetInstalled toggles extension availability.
func (p *PlugProvider) SetInstalled(installed bool) { p.installed = installed }

func (p *PlugProvider) Type() models.WalletType { return models.WalletTypePlug }

func (p *PlugProvider) Available() bool { return p.installed }

func (p *PlugProvider) Connect(ctx context.Context) (*models.WalletConnection, error) {
	if err := ctx.Err(); err != nil {
		return nil, &models.ConnectionError{Provider: p.Type(), Reason: "request cancelled", Err: err}
	}
	if !p.installed {
		return nil, &models.ConnectionError{Provider: p.Type(), Reason: "extension not installed"}
	}
	principal, err := newPrincipal()
	if err != nil {
		return nil, &models.ConnectionError{Provider: p.Type(), Reason: "agent error", Err: err}
	}
	return &models.WalletConnection{
		Type:    p.Type(),
		Address: principal,
		Network: icpNetwork,
	}, nil
}

// StoicProvider is declared but has no integration yet. Every connect
// attempt fails.
type StoicProvider struct{}

func NewStoicProvider() *StoicProvider { return &StoicProvider{} }

func (p *StoicProvider) Type() models.WalletType { return models.WalletTypeStoic }

func (p *StoicProvider) Available() bool { return false }

func (p *StoicProvider) Connect(ctx context.Context) (*models.WalletConnection, error) {
	return nil, &models.ConnectionError{Provider: p.Type(), Reason: "integration not available"}
}
