package services

import (
	"context"
	"errors"
	"testing"

	"trustpeer/internal/models"
)

// fakeProvider is a scriptable wallet provider for connector tests.
type fakeProvider struct {
	walletType models.WalletType
	address    string
	installed  bool
	connectErr error
	connects   int
	logouts    int
}

func (p *fakeProvider) Type() models.WalletType { return p.walletType }

func (p *fakeProvider) Available() bool { return p.installed }

func (p *fakeProvider) Connect(ctx context.Context) (*models.WalletConnection, error) {
	p.connects++
	if p.connectErr != nil {
		return nil, p.connectErr
	}
	return &models.WalletConnection{
		Type:    p.walletType,
		Address: p.address,
		Network: "Testnet",
	}, nil
}

func (p *fakeProvider) Logout(ctx context.Context) error {
	p.logouts++
	return nil
}

func newTestWalletService() (*WalletService, *fakeProvider, *fakeProvider) {
	metamask := &fakeProvider{walletType: models.WalletTypeMetaMask, address: "0xAAA", installed: true}
	plug := &fakeProvider{walletType: models.WalletTypePlug, address: "plug-principal", installed: true}
	return NewWalletService(metamask, plug), metamask, plug
}

func TestConnectFirstWalletBecomesPrimary(t *testing.T) {
	svc, _, _ := newTestWalletService()

	conn, err := svc.ConnectWallet(context.Background(), models.WalletTypeMetaMask)
	if err != nil {
		t.Fatalf("ConnectWallet failed: %v", err)
	}
	if conn.Address != "0xAAA" {
		t.Errorf("expected address 0xAAA, got %s", conn.Address)
	}

	state := svc.GetState()
	if !state.IsConnected {
		t.Error("expected IsConnected to be true")
	}
	if state.PrimaryWallet == nil || state.PrimaryWallet.Type != models.WalletTypeMetaMask {
		t.Errorf("expected primary wallet metamask, got %+v", state.PrimaryWallet)
	}
	if len(state.ConnectedWallets) != 1 {
		t.Fatalf("expected 1 connected wallet, got %d", len(state.ConnectedWallets))
	}
}

func TestPrimaryPromotionOnDisconnect(t *testing.T) {
	svc, _, _ := newTestWalletService()
	ctx := context.Background()

	if _, err := svc.ConnectWallet(ctx, models.WalletTypeMetaMask); err != nil {
		t.Fatalf("connect metamask: %v", err)
	}
	if _, err := svc.ConnectWallet(ctx, models.WalletTypePlug); err != nil {
		t.Fatalf("connect plug: %v", err)
	}

	state := svc.GetState()
	if state.PrimaryWallet.Type != models.WalletTypeMetaMask {
		t.Errorf("expected primary to stay metamask after second connect, got %s", state.PrimaryWallet.Type)
	}

	if err := svc.DisconnectWallet(ctx, models.WalletTypeMetaMask); err != nil {
		t.Fatalf("disconnect metamask: %v", err)
	}

	state = svc.GetState()
	if state.PrimaryWallet == nil || state.PrimaryWallet.Type != models.WalletTypePlug {
		t.Errorf("expected plug promoted to primary, got %+v", state.PrimaryWallet)
	}
	if !state.IsConnected {
		t.Error("expected still connected")
	}
}

func TestDisconnectAll(t *testing.T) {
	svc, _, _ := newTestWalletService()
	ctx := context.Background()

	if _, err := svc.ConnectWallet(ctx, models.WalletTypeMetaMask); err != nil {
		t.Fatalf("connect metamask: %v", err)
	}
	if _, err := svc.ConnectWallet(ctx, models.WalletTypePlug); err != nil {
		t.Fatalf("connect plug: %v", err)
	}

	if err := svc.DisconnectAll(ctx); err != nil {
		t.Fatalf("DisconnectAll failed: %v", err)
	}

	state := svc.GetState()
	if state.IsConnected {
		t.Error("expected IsConnected false")
	}
	if state.PrimaryWallet != nil {
		t.Errorf("expected nil primary wallet, got %+v", state.PrimaryWallet)
	}
	if len(state.ConnectedWallets) != 0 {
		t.Errorf("expected no connected wallets, got %d", len(state.ConnectedWallets))
	}

	// Calling again on an empty connector is a no-op.
	if err := svc.DisconnectAll(ctx); err != nil {
		t.Fatalf("DisconnectAll on empty state failed: %v", err)
	}
}

func TestConnectFailureLeavesStateUntouched(t *testing.T) {
	broken := &fakeProvider{
		walletType: models.WalletTypeMetaMask,
		connectErr: &models.ConnectionError{Provider: models.WalletTypeMetaMask, Reason: "extension not installed"},
	}
	svc := NewWalletService(broken)

	_, err := svc.ConnectWallet(context.Background(), models.WalletTypeMetaMask)
	var connErr *models.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	if connErr.Provider != models.WalletTypeMetaMask {
		t.Errorf("expected provider metamask in error, got %s", connErr.Provider)
	}

	state := svc.GetState()
	if state.IsConnected || len(state.ConnectedWallets) != 0 {
		t.Errorf("expected untouched state, got %+v", state)
	}
}

func TestUnsupportedWalletType(t *testing.T) {
	svc, _, _ := newTestWalletService()

	_, err := svc.ConnectWallet(context.Background(), models.WalletType("ledger"))
	var connErr *models.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
}

func TestReconnectReplacesExistingConnection(t *testing.T) {
	svc, metamask, _ := newTestWalletService()
	ctx := context.Background()

	if _, err := svc.ConnectWallet(ctx, models.WalletTypeMetaMask); err != nil {
		t.Fatalf("first connect: %v", err)
	}
	metamask.address = "0xBBB"
	if _, err := svc.ConnectWallet(ctx, models.WalletTypeMetaMask); err != nil {
		t.Fatalf("second connect: %v", err)
	}

	state := svc.GetState()
	if len(state.ConnectedWallets) != 1 {
		t.Fatalf("expected 1 connection after reconnect, got %d", len(state.ConnectedWallets))
	}
	if state.ConnectedWallets[0].Address != "0xBBB" {
		t.Errorf("expected replaced address 0xBBB, got %s", state.ConnectedWallets[0].Address)
	}
	if state.PrimaryWallet.Address != "0xBBB" {
		t.Errorf("expected primary updated to 0xBBB, got %s", state.PrimaryWallet.Address)
	}
}

func TestIdentityProviderLogoutOnDisconnect(t *testing.T) {
	identity := &fakeProvider{walletType: models.WalletTypeInternetIdentity, address: "ii-principal", installed: true}
	svc := NewWalletService(identity)
	ctx := context.Background()

	if _, err := svc.ConnectWallet(ctx, models.WalletTypeInternetIdentity); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := svc.DisconnectWallet(ctx, models.WalletTypeInternetIdentity); err != nil {
		t.Fatalf("disconnect: %v", err)
	}

	if identity.logouts != 1 {
		t.Errorf("expected 1 logout call, got %d", identity.logouts)
	}
}

func TestQueriesAndSnapshotIsolation(t *testing.T) {
	svc, _, _ := newTestWalletService()
	ctx := context.Background()

	if _, err := svc.ConnectWallet(ctx, models.WalletTypePlug); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if !svc.IsWalletConnected(models.WalletTypePlug) {
		t.Error("expected plug to be connected")
	}
	if svc.IsWalletConnected(models.WalletTypeMetaMask) {
		t.Error("expected metamask to be disconnected")
	}
	if conn := svc.GetWalletConnection(models.WalletTypePlug); conn == nil || conn.Address != "plug-principal" {
		t.Errorf("unexpected connection: %+v", conn)
	}
	if conn := svc.GetWalletConnection(models.WalletTypeMetaMask); conn != nil {
		t.Errorf("expected nil connection, got %+v", conn)
	}

	// Mutating a snapshot must not touch engine state.
	state := svc.GetState()
	state.ConnectedWallets[0].Address = "tampered"
	state.PrimaryWallet.Address = "tampered"
	fresh := svc.GetState()
	if fresh.ConnectedWallets[0].Address != "plug-principal" {
		t.Error("snapshot mutation leaked into engine state")
	}
	if fresh.PrimaryWallet.Address != "plug-principal" {
		t.Error("primary wallet mutation leaked into engine state")
	}
}

func TestAvailableWallets(t *testing.T) {
	metamask := &fakeProvider{walletType: models.WalletTypeMetaMask, installed: false}
	plug := &fakeProvider{walletType: models.WalletTypePlug, installed: true}
	svc := NewWalletService(metamask, plug)

	available := svc.AvailableWallets()
	if len(available) != 1 || available[0] != models.WalletTypePlug {
		t.Errorf("expected only plug available, got %v", available)
	}
}

func TestNotificationsInCommitOrder(t *testing.T) {
	svc, _, _ := newTestWalletService()
	ctx := context.Background()

	var counts []int
	unsubscribe := svc.Subscribe(func(state models.MultiWalletState) {
		counts = append(counts, len(state.ConnectedWallets))
	})
	defer unsubscribe()

	if _, err := svc.ConnectWallet(ctx, models.WalletTypeMetaMask); err != nil {
		t.Fatalf("connect metamask: %v", err)
	}
	if _, err := svc.ConnectWallet(ctx, models.WalletTypePlug); err != nil {
		t.Fatalf("connect plug: %v", err)
	}
	if err := svc.DisconnectAll(ctx); err != nil {
		t.Fatalf("disconnect all: %v", err)
	}

	want := []int{1, 2, 1, 0}
	if len(counts) != len(want) {
		t.Fatalf("expected %d notifications, got %d", len(want), len(counts))
	}
	for i, n := range want {
		if counts[i] != n {
			t.Errorf("notification %d: expected %d wallets, got %d", i, n, counts[i])
		}
	}
}
