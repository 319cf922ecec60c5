// Package wallet manages custodial wallets: key custody, balances, priority
// fee preferences and SOL withdrawals.
package wallet

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/swap-executor/internal/adapters/persistence"
	"github.com/hxuan190/swap-executor/internal/common"
	"github.com/hxuan190/swap-executor/internal/config"
	"github.com/hxuan190/swap-executor/internal/domain"
	"github.com/hxuan190/swap-executor/internal/metrics"
	"github.com/hxuan190/swap-executor/internal/services/priority"
)

const WALLET_SERVICE = "wallet-service"

// FeePresets maps preset names to priority fees in SOL.
var FeePresets = map[string]float64{
	"medium":    0.001,
	"high":      0.005,
	"very_high": 0.01,
}

// Lamports kept back on withdraw to cover the base transaction fee.
const withdrawFeeReserve = uint64(5000)

var ErrUnknownFeePreset = errors.New("unknown fee preset")

// ChainRPC is the slice of the RPC client the wallet service needs.
type ChainRPC interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

type Service struct {
	container.BaseDIInstance

	store     *persistence.Storage
	rpcClient ChainRPC
}

// NewService builds a service outside the container, mainly for tests.
func NewService(store *persistence.Storage, rpcClient ChainRPC) *Service {
	return &Service{store: store, rpcClient: rpcClient}
}

func (svc *Service) ID() string {
	return WALLET_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	walletConf := c.GetConfig(config.WALLET_CONFIG_KEY).(*config.WalletConfig)
	rpcConf := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)

	store, err := persistence.NewStorage(walletConf.DBPath)
	if err != nil {
		return err
	}
	svc.store = store
	svc.rpcClient = rpc.New(rpcConf.Endpoint())

	if count, err := svc.store.WalletCount(); err == nil {
		metrics.WalletCount.Set(float64(count))
	}

	return nil
}

func (svc *Service) Start() error {
	return nil
}

func (svc *Service) Stop() error {
	return svc.store.Close()
}

// CreateWallet generates a fresh keypair for the user. Each user holds at
// most one wallet.
func (svc *Service) CreateWallet(userID string) (*domain.Wallet, error) {
	if _, err := svc.store.GetWallet(userID); err == nil {
		return nil, common.ErrWalletExists
	} else if !errors.Is(err, common.ErrWalletNotFound) {
		return nil, err
	}

	keypair := solana.NewWallet()
	defaultFee, err := priority.MicroLamportsFromSOL(FeePresets["medium"])
	if err != nil {
		return nil, err
	}

	wallet := &domain.Wallet{
		UserID:                   userID,
		PublicKey:                keypair.PublicKey(),
		PrivateKey:               keypair.PrivateKey,
		PriorityFeeMicroLamports: defaultFee,
	}

	if err := svc.store.SaveWallet(wallet); err != nil {
		return nil, err
	}

	if count, err := svc.store.WalletCount(); err == nil {
		metrics.WalletCount.Set(float64(count))
	}

	log.Info().Str("userId", userID).Str("publicKey", wallet.PublicKey.String()).Msg("[wallet] created wallet")
	return wallet, nil
}

func (svc *Service) GetWallet(userID string) (*domain.Wallet, error) {
	return svc.store.GetWallet(userID)
}

// ExportSecret returns the hex-encoded secret key. The caller is responsible
// for delivering it over a private channel; it is never logged here.
func (svc *Service) ExportSecret(userID string) (string, error) {
	wallet, err := svc.store.GetWallet(userID)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString([]byte(wallet.PrivateKey)), nil
}

// RefreshBalance fetches the current SOL balance and persists it.
func (svc *Service) RefreshBalance(ctx context.Context, userID string) (uint64, error) {
	wallet, err := svc.store.GetWallet(userID)
	if err != nil {
		return 0, err
	}

	result, err := svc.rpcClient.GetBalance(ctx, wallet.PublicKey, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch balance: %w", err)
	}

	wallet.BalanceLamports = result.Value
	if err := svc.store.SaveWallet(wallet); err != nil {
		return 0, err
	}

	return wallet.BalanceLamports, nil
}

// SetFeePreset stores a named priority fee preference and returns the
// resulting fee in micro-lamports.
func (svc *Service) SetFeePreset(userID string, preset string) (uint64, error) {
	sol, ok := FeePresets[preset]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownFeePreset, preset)
	}
	return svc.setFee(userID, sol)
}

// SetFeeSOL stores an explicit priority fee in SOL.
func (svc *Service) SetFeeSOL(userID string, sol float64) (uint64, error) {
	return svc.setFee(userID, sol)
}

func (svc *Service) setFee(userID string, sol float64) (uint64, error) {
	microLamports, err := priority.MicroLamportsFromSOL(sol)
	if err != nil {
		return 0, err
	}

	wallet, err := svc.store.GetWallet(userID)
	if err != nil {
		return 0, err
	}

	wallet.PriorityFeeMicroLamports = microLamports
	if err := svc.store.SaveWallet(wallet); err != nil {
		return 0, err
	}

	log.Info().Str("userId", userID).Uint64("microLamports", microLamports).Msg("[wallet] fee preference updated")
	return microLamports, nil
}

// Withdraw transfers SOL from the custodial wallet to an external address and
// returns the transaction signature.
func (svc *Service) Withdraw(ctx context.Context, userID string, to solana.PublicKey, amountSOL float64) (solana.Signature, error) {
	lamports, err := priority.LamportsFromSOL(amountSOL)
	if err != nil {
		metrics.WithdrawRequests.WithLabelValues("error").Inc()
		return solana.Signature{}, err
	}
	if lamports == 0 {
		metrics.WithdrawRequests.WithLabelValues("error").Inc()
		return solana.Signature{}, fmt.Errorf("withdraw amount too small")
	}

	wallet, err := svc.store.GetWallet(userID)
	if err != nil {
		metrics.WithdrawRequests.WithLabelValues("error").Inc()
		return solana.Signature{}, err
	}

	balance, err := svc.rpcClient.GetBalance(ctx, wallet.PublicKey, rpc.CommitmentConfirmed)
	if err != nil {
		metrics.WithdrawRequests.WithLabelValues("error").Inc()
		return solana.Signature{}, fmt.Errorf("failed to fetch balance: %w", err)
	}
	if balance.Value < lamports+withdrawFeeReserve {
		metrics.WithdrawRequests.WithLabelValues("insufficient").Inc()
		return solana.Signature{}, fmt.Errorf("%w: have %d lamports, need %d", common.ErrInsufficientBalance, balance.Value, lamports+withdrawFeeReserve)
	}

	blockhash, err := svc.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		metrics.WithdrawRequests.WithLabelValues("error").Inc()
		return solana.Signature{}, fmt.Errorf("failed to fetch blockhash: %w", err)
	}

	transferIx := system.NewTransferInstruction(lamports, wallet.PublicKey, to).Build()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{transferIx},
		blockhash.Value.Blockhash,
		solana.TransactionPayer(wallet.PublicKey),
	)
	if err != nil {
		metrics.WithdrawRequests.WithLabelValues("error").Inc()
		return solana.Signature{}, fmt.Errorf("%w: %v", common.ErrTransactionBuildFailed, err)
	}

	signer := wallet.PrivateKey
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(wallet.PublicKey) {
			return &signer
		}
		return nil
	})
	if err != nil {
		metrics.WithdrawRequests.WithLabelValues("error").Inc()
		return solana.Signature{}, fmt.Errorf("%w: %v", common.ErrSigningFailed, err)
	}

	sig, err := svc.rpcClient.SendTransaction(ctx, tx)
	if err != nil {
		metrics.WithdrawRequests.WithLabelValues("error").Inc()
		return solana.Signature{}, fmt.Errorf("failed to submit withdraw transaction: %w", err)
	}

	// The transfer is in flight; keep the cached balance from showing funds
	// that just left. The next refresh corrects any drift.
	wallet.BalanceLamports = balance.Value - lamports - withdrawFeeReserve
	if err := svc.store.SaveWallet(wallet); err != nil {
		log.Error().Str("userId", userID).Err(err).Msg("[wallet] failed to persist balance after withdraw")
	}

	metrics.WithdrawRequests.WithLabelValues("success").Inc()
	log.Info().
		Str("userId", userID).
		Str("to", to.String()).
		Uint64("lamports", lamports).
		Str("signature", sig.String()).
		Msg("[wallet] withdraw submitted")

	return sig, nil
}
