package priority

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/swap-executor/internal/metrics"
)

const (
	ComputeUnitBuffer = 1.1 // 10% buffer
	MaxComputeUnits   = 1400000

	DefaultSimulationAttempts = 5
)

// SimulationRPC is the slice of the RPC client the estimator needs.
type SimulationRPC interface {
	SimulateTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts *rpc.SimulateTransactionOpts) (*rpc.SimulateTransactionResponse, error)
}

// CUEstimator estimates compute units by simulating the swap instructions.
// Estimation is advisory: every failure path degrades to a zero limit so the
// pipeline keeps going without a SetComputeUnitLimit instruction.
type CUEstimator struct {
	rpcClient SimulationRPC
	attempts  int
}

// NewCUEstimator creates a new compute unit estimator.
func NewCUEstimator(rpcClient SimulationRPC) *CUEstimator {
	return &CUEstimator{
		rpcClient: rpcClient,
		attempts:  DefaultSimulationAttempts,
	}
}

// Estimate simulates the instructions and returns the consumed compute units
// with a safety buffer, capped at the runtime maximum. Returns 0 when no
// usable estimate could be obtained.
func (e *CUEstimator) Estimate(
	ctx context.Context,
	instructions []solana.Instruction,
	payer solana.PublicKey,
	tables map[solana.PublicKey]solana.PublicKeySlice,
) uint32 {
	// The blockhash is replaced server-side, a zero placeholder is enough.
	tx, err := solana.NewTransaction(
		instructions,
		solana.Hash{},
		solana.TransactionPayer(payer),
		solana.TransactionAddressTables(tables),
	)
	if err != nil {
		log.Warn().Err(err).Msg("[cuEstimator] failed to assemble simulation transaction")
		metrics.SimulationFailures.WithLabelValues("assemble").Inc()
		return 0
	}
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)

	opts := rpc.SimulateTransactionOpts{
		SigVerify:              false,
		Commitment:             rpc.CommitmentProcessed,
		ReplaceRecentBlockhash: true,
	}

	for attempt := 1; attempt <= e.attempts; attempt++ {
		metrics.SimulationRequests.Inc()

		result, err := e.rpcClient.SimulateTransactionWithOpts(ctx, tx, &opts)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("[cuEstimator] simulation request failed")
			metrics.SimulationFailures.WithLabelValues("transport").Inc()
			continue
		}
		if result.Value.Err != nil {
			log.Warn().
				Interface("simulationError", result.Value.Err).
				Int("attempt", attempt).
				Msg("[cuEstimator] simulation returned program error")
			metrics.SimulationFailures.WithLabelValues("program_error").Inc()
			continue
		}
		if result.Value.UnitsConsumed == nil || *result.Value.UnitsConsumed == 0 {
			metrics.SimulationFailures.WithLabelValues("no_units").Inc()
			continue
		}

		consumed := *result.Value.UnitsConsumed
		metrics.SimulationSuccess.Inc()
		metrics.ComputeUnits.Observe(float64(consumed))

		buffered := uint64(float64(consumed) * ComputeUnitBuffer)
		if buffered > MaxComputeUnits {
			buffered = MaxComputeUnits
		}
		return uint32(buffered)
	}

	log.Warn().Int("attempts", e.attempts).Msg("[cuEstimator] estimation exhausted, proceeding without compute unit limit")
	return 0
}
