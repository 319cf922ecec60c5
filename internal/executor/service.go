// Package executor drives a swap through its full pipeline: quote, fetch and
// decode instructions, resolve lookup tables, estimate the compute budget,
// build and sign the transaction, submit the bundle.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/swap-executor/internal/common"
	"github.com/hxuan190/swap-executor/internal/config"
	"github.com/hxuan190/swap-executor/internal/domain"
	"github.com/hxuan190/swap-executor/internal/metrics"
	"github.com/hxuan190/swap-executor/internal/services/builder"
	"github.com/hxuan190/swap-executor/internal/services/jito"
	"github.com/hxuan190/swap-executor/internal/services/jupiter"
	"github.com/hxuan190/swap-executor/internal/services/priority"
	"github.com/hxuan190/swap-executor/internal/services/wallet"
)

const EXECUTOR_SERVICE = "executor-service"

// The pipeline depends on its collaborators through these narrow interfaces
// so tests can substitute each stage independently.

type walletStore interface {
	GetWallet(userID string) (*domain.Wallet, error)
}

type quoteAPI interface {
	GetQuote(ctx context.Context, req *jupiter.QuoteRequest) (*jupiter.Quote, error)
	GetSwapInstructions(ctx context.Context, quote *jupiter.Quote, userPublicKey solana.PublicKey) (*jupiter.SwapInstructionsResponse, error)
}

type transactionBuilder interface {
	ResolveLookupTables(ctx context.Context, addresses []solana.PublicKey) (map[solana.PublicKey]solana.PublicKeySlice, error)
	BuildTransaction(params *builder.BuildParams) (*solana.Transaction, error)
	SignTransaction(tx *solana.Transaction, signer solana.PrivateKey) error
}

type bundleRelay interface {
	BuildTipTransaction(payer solana.PrivateKey, blockhash solana.Hash) (*solana.Transaction, error)
	SubmitBundle(ctx context.Context, transactions []*solana.Transaction) (string, error)
}

type computeEstimator interface {
	Estimate(ctx context.Context, instructions []solana.Instruction, payer solana.PublicKey, tables map[solana.PublicKey]solana.PublicKeySlice) uint32
}

type blockhashRPC interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
}

type Service struct {
	container.BaseDIInstance

	wallets   walletStore
	quotes    quoteAPI
	builder   transactionBuilder
	relay     bundleRelay
	estimator computeEstimator
	rpcClient blockhashRPC
}

func (svc *Service) ID() string {
	return EXECUTOR_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	rpcConf := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	client := rpc.New(rpcConf.Endpoint())

	svc.wallets = c.Instance(wallet.WALLET_SERVICE).(*wallet.Service)
	svc.quotes = c.Instance(jupiter.JUPITER_SERVICE).(*jupiter.Service)
	svc.builder = c.Instance(builder.BUILDER_SERVICE).(*builder.BuilderService)
	svc.relay = c.Instance(jito.JITO_SERVICE).(*jito.Service)
	svc.estimator = priority.NewCUEstimator(client)
	svc.rpcClient = client

	return nil
}

func (svc *Service) Start() error {
	return nil
}

func (svc *Service) Stop() error {
	return nil
}

type blockhashResult struct {
	hash solana.Hash
	err  error
}

// ExecuteSwap runs the full pipeline for one swap. It either returns a result
// with the bundle id and transaction signature, or a *domain.PipelineError
// naming the stage that stopped it.
func (svc *Service) ExecuteSwap(ctx context.Context, params *domain.SwapParams) (*domain.SwapResult, error) {
	start := time.Now()
	defer func() {
		metrics.SwapDuration.Observe(time.Since(start).Seconds())
	}()

	userWallet, err := svc.wallets.GetWallet(params.UserID)
	if err != nil {
		return nil, err
	}

	amount, err := priority.ToBaseUnits(params.Amount, params.InputDecimals)
	if err != nil {
		return nil, err
	}

	slippageBps := params.SlippageBps
	if slippageBps == 0 {
		slippageBps = common.DefaultSlippageBps
	}

	log.Info().
		Str("userId", params.UserID).
		Str("inputMint", params.InputMint.String()).
		Str("outputMint", params.OutputMint.String()).
		Uint64("amount", amount).
		Uint16("slippageBps", slippageBps).
		Msg("[executor] swap started")

	// Stage: quoting
	quote, err := svc.quotes.GetQuote(ctx, &jupiter.QuoteRequest{
		InputMint:   params.InputMint.String(),
		OutputMint:  params.OutputMint.String(),
		Amount:      amount,
		SlippageBps: slippageBps,
	})
	if err != nil {
		return svc.fail(domain.StageQuoting, err)
	}
	if quote == nil {
		return svc.fail(domain.StageQuoting, common.ErrNoRouteAvailable)
	}

	// Stage: instructions fetched
	resp, err := svc.quotes.GetSwapInstructions(ctx, quote, userWallet.PublicKey)
	if err != nil {
		return svc.fail(domain.StageInstructionsFetched, err)
	}

	// Stage: instructions decoded
	set, err := decodeInstructionSet(resp)
	if err != nil {
		return svc.fail(domain.StageInstructionsDecoded, err)
	}

	// Stage: lookup tables resolved
	var tables map[solana.PublicKey]solana.PublicKeySlice
	if len(set.LookupTableAddresses) > 0 {
		tables, err = svc.builder.ResolveLookupTables(ctx, set.LookupTableAddresses)
		if err != nil {
			return svc.fail(domain.StageTablesResolved, err)
		}
	}

	// Stage: budget estimated. The blockhash fetch runs alongside the
	// simulation; neither needs the other's result.
	blockhashCh := make(chan blockhashResult, 1)
	go func() {
		res, err := svc.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
		if err != nil {
			blockhashCh <- blockhashResult{err: err}
			return
		}
		blockhashCh <- blockhashResult{hash: res.Value.Blockhash}
	}()

	flat := set.Flatten()
	budget := domain.ComputeBudget{
		UnitLimit:              svc.estimator.Estimate(ctx, flat, userWallet.PublicKey, tables),
		UnitPriceMicroLamports: userWallet.PriorityFeeMicroLamports,
	}
	if budget.UnitLimit == 0 {
		log.Warn().Str("userId", params.UserID).Msg("[executor] no compute unit estimate, using runtime default limit")
	}

	bh := <-blockhashCh
	if bh.err != nil {
		return svc.fail(domain.StageTransactionBuilt, fmt.Errorf("%w: fetch blockhash: %v", common.ErrTransactionBuildFailed, bh.err))
	}

	// Stage: transaction built
	tx, err := svc.builder.BuildTransaction(&builder.BuildParams{
		Instructions: flat,
		Payer:        userWallet.PublicKey,
		Blockhash:    bh.hash,
		Tables:       tables,
		Budget:       budget,
	})
	if err != nil {
		return svc.fail(domain.StageTransactionBuilt, err)
	}

	// Stage: signed
	if err := svc.builder.SignTransaction(tx, userWallet.PrivateKey); err != nil {
		return svc.fail(domain.StageSigned, err)
	}
	tipTx, err := svc.relay.BuildTipTransaction(userWallet.PrivateKey, bh.hash)
	if err != nil {
		return svc.fail(domain.StageSigned, err)
	}

	// Stage: bundle submitted. Tip first so the relay sees payment before
	// the swap.
	bundleID, err := svc.relay.SubmitBundle(ctx, []*solana.Transaction{tipTx, tx})
	if err != nil {
		return svc.fail(domain.StageBundleSubmitted, err)
	}

	signature := tx.Signatures[0].String()
	metrics.SwapRequests.WithLabelValues("success").Inc()
	log.Info().
		Str("userId", params.UserID).
		Str("signature", signature).
		Str("bundleId", bundleID).
		Uint32("computeUnitLimit", budget.UnitLimit).
		Msg("[executor] swap submitted")

	return &domain.SwapResult{
		Signature:                signature,
		BundleID:                 bundleID,
		InAmount:                 quote.InAmount,
		OutAmount:                quote.OutAmount,
		ComputeUnitLimit:         budget.UnitLimit,
		PriorityFeeMicroLamports: budget.UnitPriceMicroLamports,
	}, nil
}

func decodeInstructionSet(resp *jupiter.SwapInstructionsResponse) (*domain.InstructionSet, error) {
	// The API's own compute budget instructions are discarded; the pipeline
	// sets its budget from simulation and the wallet's fee preference.
	setup, err := builder.DecodeInstructions(resp.SetupInstructions)
	if err != nil {
		return nil, err
	}

	swapIx, err := builder.DecodeInstruction(&resp.SwapInstruction)
	if err != nil {
		return nil, err
	}

	set := &domain.InstructionSet{
		Setup: setup,
		Swap:  *swapIx,
	}

	if resp.CleanupInstruction != nil {
		cleanup, err := builder.DecodeInstruction(resp.CleanupInstruction)
		if err != nil {
			return nil, err
		}
		set.Cleanup = cleanup
	}

	lutAddresses := make([]solana.PublicKey, 0, len(resp.AddressLookupTableAddresses))
	for _, raw := range resp.AddressLookupTableAddresses {
		addr, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid lookup table address %q: %v", common.ErrDecode, raw, err)
		}
		lutAddresses = append(lutAddresses, addr)
	}
	set.LookupTableAddresses = lutAddresses

	return set, nil
}

func (svc *Service) fail(stage domain.Stage, err error) (*domain.SwapResult, error) {
	kind := errorKind(err)
	metrics.StageFailures.WithLabelValues(string(stage), kind).Inc()
	metrics.SwapRequests.WithLabelValues("error").Inc()
	log.Error().
		Str("stage", string(stage)).
		Str("kind", kind).
		Err(err).
		Msg("[executor] swap pipeline failed")
	return nil, &domain.PipelineError{Stage: stage, Err: err}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, common.ErrNoRouteAvailable):
		return "no_route"
	case errors.Is(err, common.ErrInstructionFetchFailed):
		return "instruction_fetch"
	case errors.Is(err, common.ErrDecode):
		return "decode"
	case errors.Is(err, common.ErrLookupTableUnavailable):
		return "lookup_table"
	case errors.Is(err, common.ErrTransactionBuildFailed):
		return "build"
	case errors.Is(err, common.ErrSigningFailed):
		return "signing"
	case errors.Is(err, common.ErrBundleRejected):
		return "bundle_rejected"
	case errors.Is(err, common.ErrSubmissionTransport):
		return "submission_transport"
	default:
		return "internal"
	}
}
