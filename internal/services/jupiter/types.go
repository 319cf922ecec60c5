package jupiter

import (
	"encoding/json"

	"github.com/hxuan190/swap-executor/internal/domain"
)

// QuoteRequest identifies a quote lookup. Amount is in base units of the
// input mint.
type QuoteRequest struct {
	InputMint   string
	OutputMint  string
	Amount      uint64
	SlippageBps uint16
}

// Quote is a priced route. Raw holds the full quote payload exactly as the
// API returned it; the swap instruction endpoint requires it verbatim, so it
// is never re-marshaled from parsed fields.
type Quote struct {
	Raw json.RawMessage

	InAmount  string
	OutAmount string
	RouteHops int
}

type quoteEnvelope struct {
	InAmount  string            `json:"inAmount"`
	OutAmount string            `json:"outAmount"`
	RoutePlan []json.RawMessage `json:"routePlan"`
}

// SwapInstructionsResponse mirrors the swap-instructions wire payload.
type SwapInstructionsResponse struct {
	TokenLedgerInstruction      *domain.SerializedInstruction  `json:"tokenLedgerInstruction"`
	ComputeBudgetInstructions   []domain.SerializedInstruction `json:"computeBudgetInstructions"`
	SetupInstructions           []domain.SerializedInstruction `json:"setupInstructions"`
	SwapInstruction             domain.SerializedInstruction   `json:"swapInstruction"`
	CleanupInstruction          *domain.SerializedInstruction  `json:"cleanupInstruction"`
	AddressLookupTableAddresses []string                       `json:"addressLookupTableAddresses"`
}

type swapInstructionsRequest struct {
	QuoteResponse json.RawMessage `json:"quoteResponse"`
	UserPublicKey string          `json:"userPublicKey"`
	WrapUnwrapSOL bool            `json:"wrapAndUnwrapSol"`
}
