package solana

import "context"

// AccountReader reads on-chain account state. The safety validator depends on
// this and nothing else from the RPC surface.
type AccountReader interface {
	// GetMintAccount decodes a token mint account. Returns nil when the
	// account does not exist or is not a token mint.
	GetMintAccount(ctx context.Context, mint string) (*MintAccount, error)
}

// BalanceReader exposes wallet balance queries.
type BalanceReader interface {
	// GetBalance returns the lamport balance of an account.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)

	// GetTokenHoldings returns the wallet's token accounts for one mint.
	GetTokenHoldings(ctx context.Context, owner, mint string) ([]TokenHolding, error)
}

// BlockhashProvider supplies a recent blockhash for transaction assembly.
type BlockhashProvider interface {
	GetLatestBlockhash(ctx context.Context) (string, error)
}
