package wallets

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"trustpeer/internal/models"
)

var evmAddressPattern = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

func TestEVMProviderConnect(t *testing.T) {
	provider := NewEVMProvider(models.WalletTypeMetaMask, ChainEthereumMainnet)

	conn, err := provider.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if conn.Type != models.WalletTypeMetaMask {
		t.Errorf("expected metamask connection, got %s", conn.Type)
	}
	if !evmAddressPattern.MatchString(conn.Address) {
		t.Errorf("malformed EVM address %q", conn.Address)
	}
	if conn.Network != "Ethereum Mainnet" {
		t.Errorf("expected Ethereum Mainnet, got %q", conn.Network)
	}
}

func TestEVMProviderNotInstalled(t *testing.T) {
	provider := NewEVMProvider(models.WalletTypeTrustWallet, ChainBSCMainnet)
	provider.SetInstalled(false)

	if provider.Available() {
		t.Error("expected provider unavailable")
	}
	_, err := provider.Connect(context.Background())
	var connErr *models.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	if connErr.Provider != models.WalletTypeTrustWallet {
		t.Errorf("error names wrong provider: %s", connErr.Provider)
	}
}

func TestNetworkName(t *testing.T) {
	tests := []struct {
		chainID string
		want    string
	}{
		{ChainEthereumMainnet, "Ethereum Mainnet"},
		{ChainPolygonMainnet, "Polygon Mainnet"},
		{ChainBSCMainnet, "BSC Mainnet"},
		{"0xdead", "Chain 0xdead"},
	}
	for _, tt := range tests {
		if got := NetworkName(tt.chainID); got != tt.want {
			t.Errorf("NetworkName(%s): expected %q, got %q", tt.chainID, tt.want, got)
		}
	}
}

func TestPrincipalFormat(t *testing.T) {
	principal, err := newPrincipal()
	if err != nil {
		t.Fatalf("newPrincipal failed: %v", err)
	}
	if principal != strings.ToLower(principal) {
		t.Errorf("principal not lowercase: %q", principal)
	}
	for _, group := range strings.Split(principal, "-") {
		if len(group) == 0 || len(group) > 5 {
			t.Errorf("bad principal group %q in %q", group, principal)
		}
	}
}

func TestInternetIdentitySession(t *testing.T) {
	provider := NewInternetIdentityProvider()
	ctx := context.Background()

	if provider.LoggedIn() {
		t.Error("expected logged out before connect")
	}
	conn, err := provider.Connect(ctx)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if conn.Network != icpNetwork {
		t.Errorf("expected ICP network, got %q", conn.Network)
	}
	if !provider.LoggedIn() {
		t.Error("expected active session after connect")
	}
	if err := provider.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if provider.LoggedIn() {
		t.Error("expected session closed after logout")
	}
}

func TestStoicAlwaysFails(t *testing.T) {
	provider := NewStoicProvider()
	if provider.Available() {
		t.Error("stoic must report unavailable")
	}
	_, err := provider.Connect(context.Background())
	var connErr *models.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
}

func TestConnectCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	providers := DefaultProviders()
	for _, p := range providers {
		if p.Type() == models.WalletTypeStoic {
			continue
		}
		if _, err := p.Connect(ctx); err == nil {
			t.Errorf("%s: expected error on cancelled context", p.Type())
		}
	}
}

func TestDefaultProvidersCoverAllTypes(t *testing.T) {
	providers := DefaultProviders()
	seen := make(map[models.WalletType]bool)
	for _, p := range providers {
		seen[p.Type()] = true
	}
	for _, wt := range models.AllWalletTypes {
		if !seen[wt] {
			t.Errorf("no provider registered for %s", wt)
		}
	}
}
