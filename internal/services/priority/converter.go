// Package priority handles amount/fee unit conversions and compute budget
// estimation for swap transactions.
package priority

import (
	"errors"
	"math"
	"math/big"

	"github.com/hxuan190/swap-executor/internal/common"
)

var (
	ErrAmountNotFinite = errors.New("amount is not a finite number")
	ErrAmountNegative  = errors.New("amount is negative")
	ErrAmountOverflow  = errors.New("amount overflows uint64")
)

// ToBaseUnits converts a UI amount into base units for a token with the given
// number of decimals. The conversion runs through big.Float so amounts near
// the uint64 boundary do not lose integer precision in float64 space.
// Fractional remainders below one base unit are truncated.
func ToBaseUnits(amount float64, decimals uint8) (uint64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, ErrAmountNotFinite
	}
	if amount < 0 {
		return 0, ErrAmountNegative
	}

	scaled := new(big.Float).SetFloat64(amount)
	scaled.Mul(scaled, new(big.Float).SetInt(pow10(decimals)))

	return bigFloatToUint64(scaled)
}

// FromBaseUnits converts base units back into a UI amount.
func FromBaseUnits(base uint64, decimals uint8) float64 {
	f := new(big.Float).SetUint64(base)
	f.Quo(f, new(big.Float).SetInt(pow10(decimals)))
	out, _ := f.Float64()
	return out
}

// MicroLamportsFromSOL converts a priority fee expressed in SOL into
// micro-lamports, the unit the compute budget program prices in.
func MicroLamportsFromSOL(sol float64) (uint64, error) {
	if math.IsNaN(sol) || math.IsInf(sol, 0) {
		return 0, ErrAmountNotFinite
	}
	if sol < 0 {
		return 0, ErrAmountNegative
	}

	scaled := new(big.Float).SetFloat64(sol)
	scaled.Mul(scaled, new(big.Float).SetUint64(common.MicroLamportsPerSOL))

	return bigFloatToUint64(scaled)
}

// SOLFromMicroLamports is the inverse of MicroLamportsFromSOL.
func SOLFromMicroLamports(microLamports uint64) float64 {
	f := new(big.Float).SetUint64(microLamports)
	f.Quo(f, new(big.Float).SetUint64(common.MicroLamportsPerSOL))
	out, _ := f.Float64()
	return out
}

// LamportsFromSOL converts a SOL amount into lamports.
func LamportsFromSOL(sol float64) (uint64, error) {
	return ToBaseUnits(sol, 9)
}

func pow10(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

func bigFloatToUint64(f *big.Float) (uint64, error) {
	i, _ := f.Int(nil)
	if i.Sign() < 0 {
		return 0, ErrAmountNegative
	}
	if !i.IsUint64() {
		return 0, ErrAmountOverflow
	}
	return i.Uint64(), nil
}
