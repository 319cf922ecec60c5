package domain

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Stage identifies how far a swap made it through the pipeline.
type Stage string

const (
	StageQuoting             Stage = "quoting"
	StageInstructionsFetched Stage = "instructions_fetched"
	StageInstructionsDecoded Stage = "instructions_decoded"
	StageTablesResolved      Stage = "tables_resolved"
	StageBudgetEstimated     Stage = "budget_estimated"
	StageTransactionBuilt    Stage = "transaction_built"
	StageSigned              Stage = "signed"
	StageBundleSubmitted     Stage = "bundle_submitted"
)

type SwapParams struct {
	UserID string

	InputMint solana.PublicKey

	OutputMint solana.PublicKey

	// Amount in UI units of the input token (e.g. 1.5 SOL).
	Amount float64

	InputDecimals uint8

	SlippageBps uint16
}

type SwapResult struct {
	// First signature of the swap transaction, base58.
	Signature string `json:"signature"`

	BundleID string `json:"bundleId"`

	InAmount string `json:"inAmount"`

	OutAmount string `json:"outAmount"`

	// Compute unit limit set on the transaction. Zero means the limit
	// instruction was omitted and the runtime default applied.
	ComputeUnitLimit uint32 `json:"computeUnitLimit"`

	PriorityFeeMicroLamports uint64 `json:"priorityFeeMicroLamports"`
}

// PipelineError wraps a stage failure so callers see both where the pipeline
// stopped and which error kind stopped it.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("swap pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
