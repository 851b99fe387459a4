// Package safety judges whether a candidate token is safe and economically
// viable to trade. Every check fails closed: inability to positively confirm
// safety rejects the candidate.
package safety

import (
	"context"
	"fmt"
	"log"
	"time"

	"titan-sniper/internal/domain"
	"titan-sniper/internal/retry"
	"titan-sniper/internal/solana"
)

// Authority-read retry schedule.
const (
	AccountReadAttempts = 3
	AccountReadDelay    = 350 * time.Millisecond
)

// Config holds the validation policy thresholds.
type Config struct {
	MinLiquidityUSD  float64
	MinMarketCapUSD  float64
	MinTxCountM5     int
	MinMomentumRatio float64 // 0 disables the momentum gate
	MaxRiskScore     float64
}

// Validator runs the three-stage validation pipeline.
type Validator struct {
	cfg      Config
	score    ScoreClient
	accounts solana.AccountReader
	policy   retry.Policy
	logger   *log.Logger
}

// NewValidator creates a Validator. score may be nil to skip the external
// check entirely (the authority check still gates acceptance).
func NewValidator(cfg Config, score ScoreClient, accounts solana.AccountReader, logger *log.Logger) *Validator {
	if logger == nil {
		logger = log.Default()
	}
	return &Validator{
		cfg:      cfg,
		score:    score,
		accounts: accounts,
		policy:   retry.Fixed(AccountReadAttempts, AccountReadDelay),
		logger:   logger,
	}
}

// Validate runs the checks in order: financial metrics (no I/O), external
// risk score (bounded, inconclusive on failure), then the on-chain authority
// read. Any check can short-circuit with a rejection.
func (v *Validator) Validate(ctx context.Context, sig domain.TokenSignal) domain.SafetyVerdict {
	if verdict := v.checkFinancialMetrics(sig); !verdict.Safe {
		return verdict
	}

	if v.score != nil {
		if verdict := v.checkRiskScore(ctx, sig.Mint); !verdict.Safe {
			return verdict
		}
	}

	return v.checkAuthorities(ctx, sig.Mint)
}

// checkFinancialMetrics applies the policy minimums. Synchronous, no I/O.
func (v *Validator) checkFinancialMetrics(sig domain.TokenSignal) domain.SafetyVerdict {
	if sig.LiquidityUSD < v.cfg.MinLiquidityUSD {
		return domain.Reject(domain.ReasonFinancialMetrics,
			fmt.Sprintf("liquidity $%.0f below minimum $%.0f", sig.LiquidityUSD, v.cfg.MinLiquidityUSD))
	}
	if sig.MarketCapUSD < v.cfg.MinMarketCapUSD {
		return domain.Reject(domain.ReasonFinancialMetrics,
			fmt.Sprintf("market cap $%.0f below minimum $%.0f", sig.MarketCapUSD, v.cfg.MinMarketCapUSD))
	}
	if sig.TxCountM5 < v.cfg.MinTxCountM5 {
		return domain.Reject(domain.ReasonFinancialMetrics,
			fmt.Sprintf("tx count %d below minimum %d", sig.TxCountM5, v.cfg.MinTxCountM5))
	}

	ratio := sig.MomentumRatio()
	v.logger.Printf("[safety] %s momentum ratio %.2f (mc $%.0f, liq $%.0f)",
		sig.Mint, ratio, sig.MarketCapUSD, sig.LiquidityUSD)
	if v.cfg.MinMomentumRatio > 0 && ratio < v.cfg.MinMomentumRatio {
		return domain.Reject(domain.ReasonFinancialMetrics,
			fmt.Sprintf("momentum ratio %.2f below minimum %.2f", ratio, v.cfg.MinMomentumRatio))
	}

	return domain.Accept()
}

// checkRiskScore queries the external scoring service. A conclusive high
// score rejects; an inconclusive answer falls through to the authority check
// rather than failing open.
func (v *Validator) checkRiskScore(ctx context.Context, mint string) domain.SafetyVerdict {
	scoreCtx, cancel := context.WithTimeout(ctx, DefaultScoreTimeout)
	defer cancel()

	score, err := v.score.GetScore(scoreCtx, mint)
	if err != nil {
		v.logger.Printf("[safety] %s score inconclusive (%v), deferring to authority check", mint, err)
		return domain.Accept()
	}

	if score > v.cfg.MaxRiskScore {
		return domain.Reject(domain.ReasonExternalScore,
			fmt.Sprintf("risk score %.0f above threshold %.0f", score, v.cfg.MaxRiskScore))
	}
	return domain.Accept()
}

// checkAuthorities reads the mint account with bounded retry. A present
// mint or freeze authority lets the issuer dilute or freeze holders after
// entry; an unreadable account is treated as unsafe.
func (v *Validator) checkAuthorities(ctx context.Context, mint string) domain.SafetyVerdict {
	var acct *solana.MintAccount
	err := v.policy.Do(ctx, func(ctx context.Context) error {
		var readErr error
		acct, readErr = v.accounts.GetMintAccount(ctx, mint)
		return readErr
	})
	if err != nil {
		return domain.Reject(domain.ReasonRPCUnavailable,
			fmt.Sprintf("mint account unreadable after %d attempts: %v", AccountReadAttempts, err))
	}
	if acct == nil {
		return domain.Reject(domain.ReasonRPCUnavailable, "mint account not found")
	}
	if acct.Program != "spl-token" && acct.Program != "spl-token-2022" {
		return domain.Reject(domain.ReasonRPCUnavailable,
			fmt.Sprintf("account owned by unexpected program %q", acct.Program))
	}
	if acct.MintAuthority != nil {
		return domain.Reject(domain.ReasonAuthorityPresent, "mint authority not revoked")
	}
	if acct.FreezeAuthority != nil {
		return domain.Reject(domain.ReasonAuthorityPresent, "freeze authority not revoked")
	}

	return domain.Accept()
}
