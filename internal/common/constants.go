// Package common contains common constants and variables used across services
package common

import "github.com/gagliardetto/solana-go"

const (
	LamportsPerSOL      = uint64(1_000_000_000)
	MicroLamportsPerSOL = uint64(1_000_000_000_000_000)

	DefaultSlippageBps = uint16(50)
)

var (
	WSOLMint        = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	TokenProgramID  = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	Token2022ID     = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	SystemProgramID = solana.SystemProgramID
)
