package wallets

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"trustpeer/internal/models"
)

// EVM chain ids, as reported by eth_chainId.
const (
	ChainEthereumMainnet = "0x1"
	ChainGoerliTestnet   = "0x5"
	ChainSepoliaTestnet  = "0xaa36a7"
	ChainPolygonMainnet  = "0x89"
	ChainBSCMainnet      = "0x38"
)

// NetworkName maps an EVM chain id to its display label.
func NetworkName(chainID string) string {
	switch chainID {
	case ChainEthereumMainnet:
		return "Ethereum Mainnet"
	case ChainGoerliTestnet:
		return "Goerli Testnet"
	case ChainSepoliaTestnet:
		return "Sepolia Testnet"
	case ChainPolygonMainnet:
		return "Polygon Mainnet"
	case ChainBSCMainnet:
		return "BSC Mainnet"
	default:
		return fmt.Sprintf("Chain %s", chainID)
	}
}

// EVMProvider simulates a browser-extension Ethereum wallet (MetaMask, Trust
// Wallet). Connecting yields a fresh account on the configured chain.
type EVMProvider struct {
	walletType models.WalletType
	chainID    string
	installed  bool
}

// NewEVMProvider builds an installed EVM provider for the given wallet type.
func NewEVMProvider(walletType models.WalletType, chainID string) *EVMProvider {
	return &EVMProvider{walletType: walletType, chainID: chainID, installed: true}
}

// SetInstalled toggles provider availability, used to exercise the
// not-installed failure path.
func (p *EVMProvider) SetInstalled(installed bool) { p.installed = installed }

func (p *EVMProvider) Type() models.WalletType { return p.walletType }

func (p *EVMProvider) Available() bool { return p.installed }

// Connect requests an account from the extension. Fails when the extension
// is not installed.
func (p *EVMProvider) Connect(ctx context.Context) (*models.WalletConnection, error) {
	if err := ctx.Err(); err != nil {
		return nil, &models.ConnectionError{Provider: p.walletType, Reason: "request cancelled", Err: err}
	}
	if !p.installed {
		return nil, &models.ConnectionError{Provider: p.walletType, Reason: "extension not installed"}
	}
	address, err := newEVMAddress()
	if err != nil {
		return nil, &models.ConnectionError{Provider: p.walletType, Reason: "account request failed", Err: err}
	}
	return &models.WalletConnection{
		Type:    p.walletType,
		Address: address,
		Network: NetworkName(p.chainID),
	}, nil
}

func newEVMAddress() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate address: %w", err)
	}
	return "0x" + hex.EncodeToString(buf), nil
}
