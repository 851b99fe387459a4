package executor

import (
	"context"
	"encoding/binary"
	"errors"
	"log"
	"math/rand"

	"titan-sniper/internal/domain"
	"titan-sniper/internal/solana"
)

// TipAccounts are the relay's published tip destinations. One is picked at
// random per bundle to spread load.
var TipAccounts = []string{
	"96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5",
	"Hf3aaSbmJf8cxXHXpH37UYoY81af7yyPWWb5XtwYHMx7",
	"Cw8CFyM9FkoMi7K7Crf6HNQqf4uEMzpKw6QNghXLvLkY",
	"ADaUMid9yfUytqMBgopwjb2DTLSokTSzL1zt6iGPaS49",
}

// Side identifies the trade direction.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Executor turns a trade decision into a signed bundle and submits it.
type Executor struct {
	signer      Signer
	quoter      Quoter
	relay       Relay
	blockhashes solana.BlockhashProvider
	tipLamports uint64
	logger      *log.Logger
}

func New(signer Signer, quoter Quoter, relay Relay, blockhashes solana.BlockhashProvider, tipLamports uint64, logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.Default()
	}
	return &Executor{
		signer:      signer,
		quoter:      quoter,
		relay:       relay,
		blockhashes: blockhashes,
		tipLamports: tipLamports,
		logger:      logger,
	}
}

// ExecuteBuy swaps SOL into the token using the routed path.
func (e *Executor) ExecuteBuy(ctx context.Context, mint string, cfg domain.TradeConfiguration) domain.ExecutionResult {
	return e.executeRouted(ctx, SideBuy, solana.WSOLMint, mint, cfg.EntrySizeLamports, cfg.SlippageBps)
}

// ExecuteSell swaps the given raw token amount back into SOL.
func (e *Executor) ExecuteSell(ctx context.Context, mint string, amountRaw uint64, slippageBps int) domain.ExecutionResult {
	return e.executeRouted(ctx, SideSell, mint, solana.WSOLMint, amountRaw, slippageBps)
}

func (e *Executor) executeRouted(ctx context.Context, side Side, inputMint, outputMint string, amountRaw uint64, slippageBps int) domain.ExecutionResult {
	quote, err := e.quoter.GetQuote(ctx, inputMint, outputMint, amountRaw, slippageBps)
	if err != nil {
		e.logger.Printf("[executor] %s quote failed: %v", side, err)
		return domain.ExecFailure(domain.ExecNoQuote)
	}
	if quote == nil {
		e.logger.Printf("[executor] %s: no route for %s -> %s", side, inputMint, outputMint)
		return domain.ExecFailure(domain.ExecNoRoute)
	}

	txBytes, err := e.quoter.BuildSwapTransaction(ctx, quote, e.signer.PublicKey())
	if err != nil {
		e.logger.Printf("[executor] %s swap build failed: %v", side, err)
		return domain.ExecFailure(domain.ExecNoQuote)
	}

	signed, err := SignPrebuilt(txBytes, e.signer)
	if err != nil {
		e.logger.Printf("[executor] %s signing failed: %v", side, err)
		return domain.ExecFailure(domain.ExecSigning)
	}

	return e.submit(ctx, side, signed)
}

// ExecuteCurveBuy buys directly against a bonding-curve program, bypassing
// the aggregator. Reserves come from the caller's pool snapshot.
func (e *Executor) ExecuteCurveBuy(ctx context.Context, params CurveBuyParams) domain.ExecutionResult {
	expected := ExpectedCurveOut(params.TokenReserve, params.CurrencyReserve, params.AmountLamports)
	minOut := ApplyBps(expected, MinOutFloorBps)
	maxCost := ApplyBps(params.AmountLamports, MaxCostCapBps)

	instrs := []Instruction{
		NewComputeUnitLimitInstruction(params.ComputeUnitLimit),
		NewComputeUnitPriceInstruction(params.ComputeUnitPrice),
		NewCurveBuyInstruction(params.Program, params.Accounts, minOut, maxCost),
	}

	blockhash, err := e.blockhashes.GetLatestBlockhash(ctx)
	if err != nil {
		e.logger.Printf("[executor] curve buy blockhash failed: %v", err)
		return domain.ExecFailure(domain.ExecSigning)
	}

	msg, err := BuildLegacyMessage(e.signer.PublicKey(), blockhash, instrs)
	if err != nil {
		e.logger.Printf("[executor] curve buy message failed: %v", err)
		return domain.ExecFailure(domain.ExecSigning)
	}

	return e.submit(ctx, SideBuy, SignMessage(msg, e.signer))
}

// submit wraps the trade transaction with a tip payment and sends the pair
// as one atomic bundle.
func (e *Executor) submit(ctx context.Context, side Side, signedTx []byte) domain.ExecutionResult {
	blockhash, err := e.blockhashes.GetLatestBlockhash(ctx)
	if err != nil {
		e.logger.Printf("[executor] %s blockhash failed: %v", side, err)
		return domain.ExecFailure(domain.ExecSigning)
	}

	tipAccount := TipAccounts[rand.Intn(len(TipAccounts))]
	tipTx, err := BuildTipTransaction(e.signer, tipAccount, e.tipLamports, blockhash)
	if err != nil {
		e.logger.Printf("[executor] %s tip build failed: %v", side, err)
		return domain.ExecFailure(domain.ExecSigning)
	}

	bundleID, err := e.relay.SubmitBundle(ctx, [][]byte{signedTx, tipTx})
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			e.logger.Printf("[executor] %s bundle rate limited", side)
			return domain.ExecFailure(domain.ExecRateLimited)
		}
		e.logger.Printf("[executor] %s bundle rejected: %v", side, err)
		return domain.ExecFailure(domain.ExecRelayRejected)
	}

	e.logger.Printf("[executor] %s bundle accepted: %s (tip %d lamports to %s)", side, bundleID, e.tipLamports, tipAccount)
	return domain.ExecSuccess(bundleID)
}

// CurveBuyParams describes a direct bonding-curve purchase.
type CurveBuyParams struct {
	Program          string
	Accounts         []AccountMeta
	TokenReserve     uint64
	CurrencyReserve  uint64
	AmountLamports   uint64
	ComputeUnitLimit uint32
	ComputeUnitPrice uint64
}

// NewCurveBuyInstruction encodes a curve buy: 8-byte method discriminator
// followed by the minimum token output and maximum lamport cost.
func NewCurveBuyInstruction(program string, accounts []AccountMeta, minOut, maxCost uint64) Instruction {
	data := make([]byte, 24)
	copy(data[0:8], curveBuyDiscriminator[:])
	binary.LittleEndian.PutUint64(data[8:16], minOut)
	binary.LittleEndian.PutUint64(data[16:24], maxCost)
	return Instruction{ProgramID: program, Accounts: accounts, Data: data}
}

var curveBuyDiscriminator = [8]byte{0x66, 0x06, 0x3d, 0x12, 0x01, 0xda, 0xeb, 0xea}
