// Package wallet holds the signing identity and its balance queries.
// The raw secret is never logged, stored, or exposed after loading.
package wallet

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"titan-sniper/internal/solana"
)

// Wallet is the trading identity: an ed25519 keypair plus read access to its
// on-chain balances.
type Wallet struct {
	priv   ed25519.PrivateKey
	pubkey string
	rpc    solana.BalanceReader
}

// Load decodes a base58-encoded 64-byte secret key and validates the derived
// public key is a canonical curve point. A missing or malformed key is fatal
// to the caller: no trading is possible without it.
func Load(secretBase58 string, rpc solana.BalanceReader) (*Wallet, error) {
	if secretBase58 == "" {
		return nil, fmt.Errorf("signing key is empty")
	}

	raw, err := base58.Decode(secretBase58)
	if err != nil {
		return nil, fmt.Errorf("decode signing key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("signing key must be %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}

	priv := ed25519.PrivateKey(raw)
	pub := priv.Public().(ed25519.PublicKey)

	// The trailing 32 bytes of the secret must match the derived public key.
	if !pub.Equal(ed25519.PublicKey(raw[32:])) {
		return nil, fmt.Errorf("signing key public half does not match derived public key")
	}

	if _, err := new(edwards25519.Point).SetBytes(pub); err != nil {
		return nil, fmt.Errorf("public key is not a canonical curve point: %w", err)
	}

	return &Wallet{
		priv:   priv,
		pubkey: base58.Encode(pub),
		rpc:    rpc,
	}, nil
}

// PublicKey returns the wallet address in base58.
func (w *Wallet) PublicKey() string {
	return w.pubkey
}

// Sign produces an ed25519 signature over message.
func (w *Wallet) Sign(message []byte) []byte {
	return ed25519.Sign(w.priv, message)
}

// BalanceLamports returns the wallet's native balance.
func (w *Wallet) BalanceLamports(ctx context.Context) (uint64, error) {
	return w.rpc.GetBalance(ctx, w.pubkey)
}

// TokenBalanceRaw returns the wallet's total holding of one mint in raw
// integer units, summed across token accounts. Zero when none exist.
func (w *Wallet) TokenBalanceRaw(ctx context.Context, mint string) (uint64, error) {
	holdings, err := w.rpc.GetTokenHoldings(ctx, w.pubkey, mint)
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, h := range holdings {
		total += h.AmountRaw
	}
	return total, nil
}
