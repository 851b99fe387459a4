package executor

import "math/big"

// Slippage bounds for direct curve swaps, in basis points.
const (
	// MinOutFloorBps accepts as little as half the expected output, so a
	// transient price move between computation and confirmation does not
	// fail the transaction.
	MinOutFloorBps = 5000
	// MaxCostCapBps bounds the currency actually paid to a small premium
	// over the intended spend.
	MaxCostCapBps = 12000
)

// ExpectedCurveOut computes the constant-product swap output for a buy
// against virtual reserves: tokenReserve * amountIn / (currencyReserve +
// amountIn). All arithmetic is exact integer math; transferable amounts
// never pass through floats.
func ExpectedCurveOut(tokenReserve, currencyReserve, amountIn uint64) uint64 {
	if amountIn == 0 || tokenReserve == 0 {
		return 0
	}

	num := new(big.Int).Mul(
		new(big.Int).SetUint64(tokenReserve),
		new(big.Int).SetUint64(amountIn),
	)
	den := new(big.Int).Add(
		new(big.Int).SetUint64(currencyReserve),
		new(big.Int).SetUint64(amountIn),
	)

	return new(big.Int).Div(num, den).Uint64()
}

// ApplyBps scales an integer amount by basis points, rounding down.
func ApplyBps(amount uint64, bps uint64) uint64 {
	product := new(big.Int).Mul(
		new(big.Int).SetUint64(amount),
		new(big.Int).SetUint64(bps),
	)
	return product.Div(product, big.NewInt(10_000)).Uint64()
}
