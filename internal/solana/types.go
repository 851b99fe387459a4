package solana

// Well-known addresses.
const (
	// WSOLMint is the wrapped SOL mint, the currency leg of every pair traded here.
	WSOLMint = "So11111111111111111111111111111111111111112"
	// SystemProgram is the native transfer program.
	SystemProgram = "11111111111111111111111111111111"
	// ComputeBudgetProgram prices and bounds transaction compute.
	ComputeBudgetProgram = "ComputeBudget111111111111111111111111111111"
	// TokenProgram is the SPL token program.
	TokenProgram = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
)

// MintAccount is the decoded state of a token mint account. A non-nil
// MintAuthority or FreezeAuthority means the issuer can still dilute or
// freeze holder balances.
type MintAccount struct {
	Program         string  // owning token program ("spl-token" or "spl-token-2022")
	MintAuthority   *string // nil when revoked
	FreezeAuthority *string // nil when revoked
	Decimals        int
	Supply          string // raw integer string
}

// TokenHolding is one token account balance owned by the wallet.
type TokenHolding struct {
	Account   string // token account address
	Mint      string
	AmountRaw uint64 // raw integer units
}
