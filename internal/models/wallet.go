package models

// WalletType identifies a supported wallet/identity provider.
type WalletType string

const (
	WalletTypeInternetIdentity WalletType = "internet-identity"
	WalletTypePlug             WalletType = "plug"
	WalletTypeMetaMask         WalletType = "metamask"
	WalletTypeTrustWallet      WalletType = "trust-wallet"
	WalletTypeStoic            WalletType = "stoic"
)

// AllWalletTypes lists every provider type in display order.
var AllWalletTypes = []WalletType{
	WalletTypeInternetIdentity,
	WalletTypePlug,
	WalletTypeMetaMask,
	WalletTypeTrustWallet,
	WalletTypeStoic,
}

// Valid reports whether the wallet type is a supported provider.
func (t WalletType) Valid() bool {
	switch t {
	case WalletTypeInternetIdentity, WalletTypePlug, WalletTypeMetaMask,
		WalletTypeTrustWallet, WalletTypeStoic:
		return true
	default:
		return false
	}
}

// WalletConnection is an active session with a single provider.
type WalletConnection struct {
	Type    WalletType `json:"type"`
	Address string     `json:"address"`
	Network string     `json:"network,omitempty"`
	Balance string     `json:"balance,omitempty"`
}

// MultiWalletState is a snapshot of every connected provider. PrimaryWallet
// is nil exactly when ConnectedWallets is empty.
type MultiWalletState struct {
	IsConnected      bool               `json:"is_connected"`
	PrimaryWallet    *WalletConnection  `json:"primary_wallet"`
	ConnectedWallets []WalletConnection `json:"connected_wallets"`
}

// Clone returns a deep copy so callers can never mutate engine state through
// a snapshot.
func (s MultiWalletState) Clone() MultiWalletState {
	out := MultiWalletState{IsConnected: s.IsConnected}
	if s.PrimaryWallet != nil {
		p := *s.PrimaryWallet
		out.PrimaryWallet = &p
	}
	if s.ConnectedWallets != nil {
		out.ConnectedWallets = make([]WalletConnection, len(s.ConnectedWallets))
		copy(out.ConnectedWallets, s.ConnectedWallets)
	}
	return out
}

// ConnectWalletRequest is the payload for POST /api/wallet/connect.
type ConnectWalletRequest struct {
	Type WalletType `json:"type" binding:"required"`
}

// DisconnectWalletRequest is the payload for POST /api/wallet/disconnect.
type DisconnectWalletRequest struct {
	Type WalletType `json:"type" binding:"required"`
}
