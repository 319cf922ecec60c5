package executor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/hxuan190/swap-executor/internal/common"
	"github.com/hxuan190/swap-executor/internal/domain"
	"github.com/hxuan190/swap-executor/internal/services/builder"
	"github.com/hxuan190/swap-executor/internal/services/jupiter"
)

type stubWalletStore struct {
	wallet *domain.Wallet
}

func (s *stubWalletStore) GetWallet(userID string) (*domain.Wallet, error) {
	if s.wallet == nil || s.wallet.UserID != userID {
		return nil, common.ErrWalletNotFound
	}
	return s.wallet, nil
}

type stubQuoteAPI struct {
	quote           *jupiter.Quote
	quoteErr        error
	instructions    *jupiter.SwapInstructionsResponse
	instructionsErr error

	quoteCalls        int
	instructionsCalls int
}

func (s *stubQuoteAPI) GetQuote(ctx context.Context, req *jupiter.QuoteRequest) (*jupiter.Quote, error) {
	s.quoteCalls++
	return s.quote, s.quoteErr
}

func (s *stubQuoteAPI) GetSwapInstructions(ctx context.Context, quote *jupiter.Quote, userPublicKey solana.PublicKey) (*jupiter.SwapInstructionsResponse, error) {
	s.instructionsCalls++
	if s.instructionsErr != nil {
		return nil, s.instructionsErr
	}
	return s.instructions, nil
}

// stubBuilder delegates build/sign to the real builder and stubs only table
// resolution.
type stubBuilder struct {
	real       builder.BuilderService
	tables     map[solana.PublicKey]solana.PublicKeySlice
	resolveErr error

	resolveCalls int
}

func (s *stubBuilder) ResolveLookupTables(ctx context.Context, addresses []solana.PublicKey) (map[solana.PublicKey]solana.PublicKeySlice, error) {
	s.resolveCalls++
	if s.resolveErr != nil {
		return nil, s.resolveErr
	}
	return s.tables, nil
}

func (s *stubBuilder) BuildTransaction(params *builder.BuildParams) (*solana.Transaction, error) {
	return s.real.BuildTransaction(params)
}

func (s *stubBuilder) SignTransaction(tx *solana.Transaction, signer solana.PrivateKey) error {
	return s.real.SignTransaction(tx, signer)
}

type stubRelay struct {
	submitted []*solana.Transaction
	submitErr error
	payer     solana.PrivateKey
}

func (s *stubRelay) BuildTipTransaction(payer solana.PrivateKey, blockhash solana.Hash) (*solana.Transaction, error) {
	ix := &domain.Instruction{
		ProgramID: solana.SystemProgramID,
		Accounts: solana.AccountMetaSlice{
			{PublicKey: payer.PublicKey(), IsSigner: true, IsWritable: true},
		},
		Data: []byte{0x02},
	}
	tx, err := solana.NewTransaction([]solana.Instruction{ix.Compile()}, blockhash, solana.TransactionPayer(payer.PublicKey()))
	if err != nil {
		return nil, err
	}
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		return &payer
	})
	return tx, err
}

func (s *stubRelay) SubmitBundle(ctx context.Context, transactions []*solana.Transaction) (string, error) {
	if s.submitErr != nil {
		return "", s.submitErr
	}
	s.submitted = transactions
	return "bundle-7f3a", nil
}

type stubEstimator struct {
	units uint32
}

func (s *stubEstimator) Estimate(ctx context.Context, instructions []solana.Instruction, payer solana.PublicKey, tables map[solana.PublicKey]solana.PublicKeySlice) uint32 {
	return s.units
}

type stubBlockhashRPC struct{}

func (s *stubBlockhashRPC) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{
			Blockhash:            solana.Hash{0x0a},
			LastValidBlockHeight: 5000,
		},
	}, nil
}

func serializedIx(programID solana.PublicKey, signer solana.PublicKey) domain.SerializedInstruction {
	return domain.SerializedInstruction{
		ProgramID: programID.String(),
		Accounts: []domain.SerializedAccount{
			{Pubkey: signer.String(), IsSigner: true, IsWritable: true},
			{Pubkey: solana.NewWallet().PublicKey().String(), IsSigner: false, IsWritable: true},
		},
		Data: base64.StdEncoding.EncodeToString([]byte{0xaa, 0xbb}),
	}
}

type testFixture struct {
	svc     *Service
	wallets *stubWalletStore
	quotes  *stubQuoteAPI
	build   *stubBuilder
	relay   *stubRelay
}

func newFixture(t *testing.T, estimateUnits uint32) *testFixture {
	t.Helper()

	keypair := solana.NewWallet()
	userWallet := &domain.Wallet{
		UserID:                   "user-1",
		PublicKey:                keypair.PublicKey(),
		PrivateKey:               keypair.PrivateKey,
		PriorityFeeMicroLamports: 1_000_000_000_000,
	}

	table := solana.NewWallet().PublicKey()
	quoteJSON := `{"inAmount": "1000000000", "outAmount": "145320000", "routePlan": [{"percent": 100}]}`

	wallets := &stubWalletStore{wallet: userWallet}
	quotes := &stubQuoteAPI{
		quote: &jupiter.Quote{
			Raw:       json.RawMessage(quoteJSON),
			InAmount:  "1000000000",
			OutAmount: "145320000",
			RouteHops: 1,
		},
		instructions: &jupiter.SwapInstructionsResponse{
			SetupInstructions:           []domain.SerializedInstruction{serializedIx(solana.NewWallet().PublicKey(), keypair.PublicKey())},
			SwapInstruction:             serializedIx(solana.NewWallet().PublicKey(), keypair.PublicKey()),
			AddressLookupTableAddresses: []string{table.String()},
		},
	}
	build := &stubBuilder{
		tables: map[solana.PublicKey]solana.PublicKeySlice{
			table: {solana.NewWallet().PublicKey()},
		},
	}
	relay := &stubRelay{payer: keypair.PrivateKey}

	svc := &Service{
		wallets:   wallets,
		quotes:    quotes,
		builder:   build,
		relay:     relay,
		estimator: &stubEstimator{units: estimateUnits},
		rpcClient: &stubBlockhashRPC{},
	}

	return &testFixture{svc: svc, wallets: wallets, quotes: quotes, build: build, relay: relay}
}

func swapParams() *domain.SwapParams {
	return &domain.SwapParams{
		UserID:        "user-1",
		InputMint:     solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112"),
		OutputMint:    solana.NewWallet().PublicKey(),
		Amount:        1.0,
		InputDecimals: 9,
	}
}

func TestExecuteSwapHappyPath(t *testing.T) {
	f := newFixture(t, 110_000)

	result, err := f.svc.ExecuteSwap(context.Background(), swapParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.BundleID != "bundle-7f3a" {
		t.Errorf("bundle id = %s, want bundle-7f3a", result.BundleID)
	}
	if result.Signature == "" {
		t.Error("missing transaction signature")
	}
	if result.ComputeUnitLimit != 110_000 {
		t.Errorf("compute unit limit = %d, want 110000", result.ComputeUnitLimit)
	}
	if result.PriorityFeeMicroLamports != 1_000_000_000_000 {
		t.Errorf("priority fee = %d, want wallet preference", result.PriorityFeeMicroLamports)
	}
	if result.InAmount != "1000000000" || result.OutAmount != "145320000" {
		t.Errorf("amounts = %s/%s, want quote amounts", result.InAmount, result.OutAmount)
	}

	// Bundle carries the tip transaction first, then the swap.
	if len(f.relay.submitted) != 2 {
		t.Fatalf("bundle size = %d, want 2", len(f.relay.submitted))
	}
	swapTx := f.relay.submitted[1]

	// Limit + price + setup + swap = 4 instructions.
	if got := len(swapTx.Message.Instructions); got != 4 {
		t.Fatalf("swap transaction instruction count = %d, want 4", got)
	}
	for i := 0; i < 2; i++ {
		program, err := swapTx.Message.Program(swapTx.Message.Instructions[i].ProgramIDIndex)
		if err != nil {
			t.Fatalf("resolve program: %v", err)
		}
		if !program.Equals(computebudget.ProgramID) {
			t.Errorf("instruction %d program = %s, want compute budget", i, program)
		}
	}

	if len(swapTx.Signatures) != 1 || swapTx.Signatures[0].IsZero() {
		t.Error("swap transaction not signed")
	}
	if f.build.resolveCalls != 1 {
		t.Errorf("resolve calls = %d, want 1", f.build.resolveCalls)
	}
}

func TestExecuteSwapNoRoute(t *testing.T) {
	f := newFixture(t, 110_000)
	f.quotes.quote = nil

	_, err := f.svc.ExecuteSwap(context.Background(), swapParams())
	if !errors.Is(err, common.ErrNoRouteAvailable) {
		t.Fatalf("error = %v, want ErrNoRouteAvailable", err)
	}

	var pipeErr *domain.PipelineError
	if !errors.As(err, &pipeErr) {
		t.Fatal("error is not a PipelineError")
	}
	if pipeErr.Stage != domain.StageQuoting {
		t.Errorf("stage = %s, want %s", pipeErr.Stage, domain.StageQuoting)
	}

	// Pipeline must stop before fetching instructions.
	if f.quotes.instructionsCalls != 0 {
		t.Errorf("instructions fetched %d times after no-route", f.quotes.instructionsCalls)
	}
	if f.relay.submitted != nil {
		t.Error("bundle submitted after no-route")
	}
}

func TestExecuteSwapInstructionFetchFailure(t *testing.T) {
	f := newFixture(t, 110_000)
	f.quotes.instructionsErr = fmt.Errorf("%w: status 502", common.ErrInstructionFetchFailed)

	_, err := f.svc.ExecuteSwap(context.Background(), swapParams())
	if !errors.Is(err, common.ErrInstructionFetchFailed) {
		t.Fatalf("error = %v, want ErrInstructionFetchFailed", err)
	}

	var pipeErr *domain.PipelineError
	if !errors.As(err, &pipeErr) {
		t.Fatal("error is not a PipelineError")
	}
	if pipeErr.Stage != domain.StageInstructionsFetched {
		t.Errorf("stage = %s, want %s", pipeErr.Stage, domain.StageInstructionsFetched)
	}
}

// A malformed instruction payload is a decode failure, not a fetch failure:
// the API answered, the payload just cannot be turned into instructions.
func TestExecuteSwapDecodeFailure(t *testing.T) {
	f := newFixture(t, 110_000)
	f.quotes.instructions.SwapInstruction.Data = "not base64!"

	_, err := f.svc.ExecuteSwap(context.Background(), swapParams())
	if !errors.Is(err, common.ErrDecode) {
		t.Fatalf("error = %v, want ErrDecode", err)
	}

	var pipeErr *domain.PipelineError
	if !errors.As(err, &pipeErr) {
		t.Fatal("error is not a PipelineError")
	}
	if pipeErr.Stage != domain.StageInstructionsDecoded {
		t.Errorf("stage = %s, want %s", pipeErr.Stage, domain.StageInstructionsDecoded)
	}
	if f.build.resolveCalls != 0 {
		t.Errorf("lookup tables resolved %d times after decode failure", f.build.resolveCalls)
	}
	if f.relay.submitted != nil {
		t.Error("bundle submitted after decode failure")
	}
}

// An unparseable lookup table address fails decoding the same way a bad
// instruction does.
func TestExecuteSwapBadLookupTableAddress(t *testing.T) {
	f := newFixture(t, 110_000)
	f.quotes.instructions.AddressLookupTableAddresses = []string{"l1l1l1"}

	_, err := f.svc.ExecuteSwap(context.Background(), swapParams())
	if !errors.Is(err, common.ErrDecode) {
		t.Fatalf("error = %v, want ErrDecode", err)
	}

	var pipeErr *domain.PipelineError
	if !errors.As(err, &pipeErr) {
		t.Fatal("error is not a PipelineError")
	}
	if pipeErr.Stage != domain.StageInstructionsDecoded {
		t.Errorf("stage = %s, want %s", pipeErr.Stage, domain.StageInstructionsDecoded)
	}
}

func TestExecuteSwapLookupTableFailure(t *testing.T) {
	f := newFixture(t, 110_000)
	f.build.resolveErr = fmt.Errorf("%w: account missing", common.ErrLookupTableUnavailable)

	_, err := f.svc.ExecuteSwap(context.Background(), swapParams())
	if !errors.Is(err, common.ErrLookupTableUnavailable) {
		t.Fatalf("error = %v, want ErrLookupTableUnavailable", err)
	}

	var pipeErr *domain.PipelineError
	if !errors.As(err, &pipeErr) {
		t.Fatal("error is not a PipelineError")
	}
	if pipeErr.Stage != domain.StageTablesResolved {
		t.Errorf("stage = %s, want %s", pipeErr.Stage, domain.StageTablesResolved)
	}
	if f.relay.submitted != nil {
		t.Error("bundle submitted despite unresolved tables")
	}
}

// Estimation failure degrades the budget instead of stopping the pipeline:
// the swap still submits, with the limit instruction omitted.
func TestExecuteSwapEstimationDegrades(t *testing.T) {
	f := newFixture(t, 0)

	result, err := f.svc.ExecuteSwap(context.Background(), swapParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ComputeUnitLimit != 0 {
		t.Errorf("compute unit limit = %d, want 0", result.ComputeUnitLimit)
	}

	if len(f.relay.submitted) != 2 {
		t.Fatalf("bundle size = %d, want 2", len(f.relay.submitted))
	}
	swapTx := f.relay.submitted[1]

	// Price + setup + swap = 3 instructions, no limit instruction.
	if got := len(swapTx.Message.Instructions); got != 3 {
		t.Fatalf("swap transaction instruction count = %d, want 3", got)
	}
	data := []byte(swapTx.Message.Instructions[0].Data)
	if len(data) == 0 || data[0] != 3 {
		t.Errorf("first instruction is not SetComputeUnitPrice: %v", data)
	}
}

func TestExecuteSwapBundleRejected(t *testing.T) {
	f := newFixture(t, 110_000)
	f.relay.submitErr = fmt.Errorf("%w: tip too low", common.ErrBundleRejected)

	_, err := f.svc.ExecuteSwap(context.Background(), swapParams())
	if !errors.Is(err, common.ErrBundleRejected) {
		t.Fatalf("error = %v, want ErrBundleRejected", err)
	}

	var pipeErr *domain.PipelineError
	if !errors.As(err, &pipeErr) {
		t.Fatal("error is not a PipelineError")
	}
	if pipeErr.Stage != domain.StageBundleSubmitted {
		t.Errorf("stage = %s, want %s", pipeErr.Stage, domain.StageBundleSubmitted)
	}
}

func TestExecuteSwapUnknownWallet(t *testing.T) {
	f := newFixture(t, 110_000)

	params := swapParams()
	params.UserID = "stranger"

	_, err := f.svc.ExecuteSwap(context.Background(), params)
	if !errors.Is(err, common.ErrWalletNotFound) {
		t.Fatalf("error = %v, want ErrWalletNotFound", err)
	}
	if f.quotes.quoteCalls != 0 {
		t.Error("quote requested for unknown wallet")
	}
}

func TestExecuteSwapRejectsBadAmount(t *testing.T) {
	f := newFixture(t, 110_000)

	params := swapParams()
	params.Amount = -5

	if _, err := f.svc.ExecuteSwap(context.Background(), params); err == nil {
		t.Fatal("expected error for negative amount")
	}
	if f.quotes.quoteCalls != 0 {
		t.Error("quote requested for invalid amount")
	}
}
