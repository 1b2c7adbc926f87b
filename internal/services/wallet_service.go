package services

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"trustpeer/internal/models"
	"trustpeer/internal/wallets"
)

// WalletService owns the set of connected wallet providers and designates
// which connection represents the current user. Reconnecting an
// already-connected provider type replaces the existing connection in place.
type WalletService struct {
	mu       sync.Mutex
	notifyMu sync.Mutex

	providers map[models.WalletType]wallets.Provider
	order     []models.WalletType
	state     models.MultiWalletState
	listeners map[int]func(models.MultiWalletState)
	nextSub   int

	log *logrus.Entry
}

// NewWalletService builds a connector over the given providers.
func NewWalletService(providers ...wallets.Provider) *WalletService {
	s := &WalletService{
		providers: make(map[models.WalletType]wallets.Provider, len(providers)),
		listeners: make(map[int]func(models.MultiWalletState)),
		log:       logrus.WithField("service", "wallet"),
	}
	for _, p := range providers {
		if _, ok := s.providers[p.Type()]; !ok {
			s.order = append(s.order, p.Type())
		}
		s.providers[p.Type()] = p
	}
	return s
}

// Subscribe registers a listener for state-change notifications, delivered in
// commit order. The returned function unsubscribes. Listeners must not call
// mutating operations synchronously.
func (s *WalletService) Subscribe(fn func(models.MultiWalletState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// commit publishes the current state to all listeners. Called with s.mu held;
// releases it. Taking notifyMu before releasing mu keeps delivery in commit
// order.
func (s *WalletService) commit() {
	snap := s.state.Clone()
	fns := make([]func(models.MultiWalletState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// ConnectWallet dispatches to the provider-specific connection routine. On
// failure no state changes. On success the connection joins the connected
// set; the first connection becomes primary.
func (s *WalletService) ConnectWallet(ctx context.Context, walletType models.WalletType) (*models.WalletConnection, error) {
	provider, ok := s.providerFor(walletType)
	if !ok {
		return nil, &models.ConnectionError{Provider: walletType, Reason: "unsupported wallet type"}
	}

	// Provider interaction happens outside the lock; it may block on user
	// approval.
	conn, err := provider.Connect(ctx)
	if err != nil {
		s.log.WithFields(logrus.Fields{"type": walletType, "error": err}).Warn("wallet connection failed")
		return nil, err
	}

	s.mu.Lock()
	replaced := false
	for i := range s.state.ConnectedWallets {
		if s.state.ConnectedWallets[i].Type == walletType {
			s.state.ConnectedWallets[i] = *conn
			replaced = true
			break
		}
	}
	if !replaced {
		s.state.ConnectedWallets = append(s.state.ConnectedWallets, *conn)
	}
	if s.state.PrimaryWallet == nil || s.state.PrimaryWallet.Type == walletType {
		c := *conn
		s.state.PrimaryWallet = &c
	}
	s.state.IsConnected = true
	result := *conn
	s.log.WithFields(logrus.Fields{"type": walletType, "address": conn.Address}).Info("wallet connected")
	s.commit()

	return &result, nil
}

// DisconnectWallet removes every connection of the given provider type,
// promoting the next remaining connection to primary if needed. If the
// provider owns an identity session, it is logged out as well.
func (s *WalletService) DisconnectWallet(ctx context.Context, walletType models.WalletType) error {
	s.mu.Lock()
	kept := s.state.ConnectedWallets[:0]
	removed := false
	for _, conn := range s.state.ConnectedWallets {
		if conn.Type == walletType {
			removed = true
			continue
		}
		kept = append(kept, conn)
	}
	if !removed {
		s.mu.Unlock()
		return nil
	}
	s.state.ConnectedWallets = kept
	if s.state.PrimaryWallet != nil && s.state.PrimaryWallet.Type == walletType {
		if len(kept) > 0 {
			c := kept[0]
			s.state.PrimaryWallet = &c
		} else {
			s.state.PrimaryWallet = nil
		}
	}
	s.state.IsConnected = len(kept) > 0
	s.log.WithField("type", walletType).Info("wallet disconnected")
	s.commit()

	if provider, ok := s.providerFor(walletType); ok {
		if identity, ok := provider.(wallets.IdentityProvider); ok {
			if err := identity.Logout(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// DisconnectAll disconnects every connected provider. Safe to call when
// already disconnected.
func (s *WalletService) DisconnectAll(ctx context.Context) error {
	for {
		s.mu.Lock()
		if len(s.state.ConnectedWallets) == 0 {
			s.mu.Unlock()
			return nil
		}
		walletType := s.state.ConnectedWallets[0].Type
		s.mu.Unlock()
		if err := s.DisconnectWallet(ctx, walletType); err != nil {
			return err
		}
	}
}

// GetState returns a defensive snapshot of the connection set.
func (s *WalletService) GetState() models.MultiWalletState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// IsWalletConnected reports whether a connection of the given type exists.
func (s *WalletService) IsWalletConnected(walletType models.WalletType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.state.ConnectedWallets {
		if conn.Type == walletType {
			return true
		}
	}
	return false
}

// GetWalletConnection returns the connection of the given type, or nil.
func (s *WalletService) GetWalletConnection(walletType models.WalletType) *models.WalletConnection {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.state.ConnectedWallets {
		if conn.Type == walletType {
			c := conn
			return &c
		}
	}
	return nil
}

// AvailableWallets lists the provider types that report themselves
// installed/reachable.
func (s *WalletService) AvailableWallets() []models.WalletType {
	var available []models.WalletType
	for _, walletType := range s.order {
		if s.providers[walletType].Available() {
			available = append(available, walletType)
		}
	}
	return available
}

// PrimaryAddress returns the current user's address, or ErrNotConnected.
func (s *WalletService) PrimaryAddress() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.PrimaryWallet == nil {
		return "", models.ErrNotConnected
	}
	return s.state.PrimaryWallet.Address, nil
}

func (s *WalletService) providerFor(walletType models.WalletType) (wallets.Provider, bool) {
	p, ok := s.providers[walletType]
	return p, ok
}
