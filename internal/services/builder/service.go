// Package builder decodes swap instructions, resolves address lookup tables
// and assembles signed v0 transactions.
package builder

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/swap-executor/internal/common"
	"github.com/hxuan190/swap-executor/internal/config"
	"github.com/hxuan190/swap-executor/internal/domain"
)

const BUILDER_SERVICE = "builder-service"

// BuildParams carries everything needed to assemble one swap transaction.
type BuildParams struct {
	Instructions []solana.Instruction
	Payer        solana.PublicKey
	Blockhash    solana.Hash
	Tables       map[solana.PublicKey]solana.PublicKeySlice
	Budget       domain.ComputeBudget
}

type BuilderService struct {
	container.BaseDIInstance

	rpcClient *rpc.Client
	resolver  *LookupTableResolver
}

func (svc *BuilderService) ID() string {
	return BUILDER_SERVICE
}

func (svc *BuilderService) Configure(c container.IContainer) error {
	rpcConf := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	svc.rpcClient = rpc.New(rpcConf.Endpoint())
	svc.resolver = NewLookupTableResolver(svc.rpcClient)
	return nil
}

func (svc *BuilderService) Start() error {
	return nil
}

func (svc *BuilderService) Stop() error {
	return nil
}

// ResolveLookupTables resolves the lookup tables referenced by a swap,
// fetching fresh state for each address.
func (svc *BuilderService) ResolveLookupTables(ctx context.Context, addresses []solana.PublicKey) (map[solana.PublicKey]solana.PublicKeySlice, error) {
	return svc.resolver.Resolve(ctx, addresses)
}

// BuildTransaction assembles a v0 transaction. Compute budget instructions go
// first: SetComputeUnitLimit (skipped when the limit is zero), then
// SetComputeUnitPrice, then the swap instructions in their original order.
func (svc *BuilderService) BuildTransaction(params *BuildParams) (*solana.Transaction, error) {
	budgetInstructions, err := buildBudgetInstructions(params.Budget)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrTransactionBuildFailed, err)
	}

	instructions := make([]solana.Instruction, 0, len(budgetInstructions)+len(params.Instructions))
	instructions = append(instructions, budgetInstructions...)
	instructions = append(instructions, params.Instructions...)

	tx, err := solana.NewTransaction(
		instructions,
		params.Blockhash,
		solana.TransactionPayer(params.Payer),
		solana.TransactionAddressTables(params.Tables),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrTransactionBuildFailed, err)
	}

	return tx, nil
}

// SignTransaction signs the transaction with the given key. The key must
// cover every required signer; swap transactions here are single-signer.
func (svc *BuilderService) SignTransaction(tx *solana.Transaction, signer solana.PrivateKey) error {
	signerKey := signer.PublicKey()
	_, err := tx.Sign(
		func(key solana.PublicKey) *solana.PrivateKey {
			if key.Equals(signerKey) {
				return &signer
			}
			return nil
		},
	)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrSigningFailed, err)
	}

	log.Debug().Str("payer", signerKey.String()).Msg("[builder] transaction signed")
	return nil
}

func buildBudgetInstructions(budget domain.ComputeBudget) ([]solana.Instruction, error) {
	out := make([]solana.Instruction, 0, 2)

	if budget.UnitLimit > 0 {
		limitIx, err := computebudget.NewSetComputeUnitLimitInstruction(budget.UnitLimit).ValidateAndBuild()
		if err != nil {
			return nil, fmt.Errorf("build compute unit limit instruction: %w", err)
		}
		out = append(out, limitIx)
	}

	priceIx, err := computebudget.NewSetComputeUnitPriceInstruction(budget.UnitPriceMicroLamports).ValidateAndBuild()
	if err != nil {
		return nil, fmt.Errorf("build compute unit price instruction: %w", err)
	}
	out = append(out, priceIx)

	return out, nil
}
