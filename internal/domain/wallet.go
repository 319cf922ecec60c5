package domain

import "github.com/gagliardetto/solana-go"

// Wallet is a custodial wallet held for one user. PrivateKey must never be
// logged or serialized into API responses.
type Wallet struct {
	UserID string `json:"userId"`

	PublicKey solana.PublicKey `json:"publicKey"`

	PrivateKey solana.PrivateKey `json:"-"`

	// Last known SOL balance, refreshed on demand.
	BalanceLamports uint64 `json:"balanceLamports"`

	// Per-wallet priority fee preference used for swap transactions.
	PriorityFeeMicroLamports uint64 `json:"priorityFeeMicroLamports"`
}
