package http

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/swap-executor/internal/common"
	"github.com/hxuan190/swap-executor/internal/domain"
	"github.com/hxuan190/swap-executor/internal/executor"
	"github.com/hxuan190/swap-executor/internal/http/httputil"
)

// SwapHandler handles HTTP requests for swap execution.
type SwapHandler struct {
	executorSvc *executor.Service
}

func NewSwapHandler(executorSvc *executor.Service) *SwapHandler {
	return &SwapHandler{executorSvc: executorSvc}
}

func (h *SwapHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("", h.executeSwap)
}

func (h *SwapHandler) Root() string {
	return "/swap"
}

// SwapHandlerRequest represents the parameters for executing a swap
type SwapHandlerRequest struct {
	// User whose custodial wallet signs and pays for the swap
	UserID string `json:"userId" binding:"required" example:"discord-81723491"`

	// Input token mint address (Solana base58 public key)
	InputMint string `json:"inputMint" binding:"required" example:"So11111111111111111111111111111111111111112"`

	// Output token mint address (Solana base58 public key)
	OutputMint string `json:"outputMint" binding:"required" example:"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"`

	// Amount in UI units of the input token (e.g. 1.5 for 1.5 SOL)
	Amount float64 `json:"amount" binding:"required" example:"1.5"`

	// Decimals of the input token mint
	// Default: 9 (SOL) if not specified
	InputDecimals *uint8 `json:"inputDecimals" example:"9"`

	// Slippage tolerance in basis points (1 bps = 0.01%)
	// Default: 50 bps (0.5%) if not specified
	SlippageBps uint16 `json:"slippageBps" example:"50"`
}

// @Summary Execute swap
// @Description Run the full swap pipeline for a user's custodial wallet: quote the pair,
// @Description fetch and decode the swap instructions, resolve address lookup tables,
// @Description estimate the compute budget, build and sign a v0 transaction and submit
// @Description it as an atomic bundle together with a tip transaction.
// @Description
// @Description **Error Handling:**
// @Description - 400: Invalid parameters (bad addresses, amounts, etc.)
// @Description - 404: No route for the token pair, or wallet not found
// @Description - 502: Upstream API or relay failure (worth retrying)
// @Description - 500: Pipeline failure (decode, build, signing)
// @Tags swap
// @Accept json
// @Produce json
// @Param request body SwapHandlerRequest true "Swap request"
// @Success 200 {object} domain.SwapResult "Bundle submitted"
// @Failure 400 {object} map[string]string "Invalid request parameters"
// @Failure 404 {object} map[string]string "No route or unknown wallet"
// @Failure 502 {object} map[string]string "Upstream failure"
// @Router /api/v1/swap [post]
func (h *SwapHandler) executeSwap(c *gin.Context) {
	var req SwapHandlerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	inputMint, err := solana.PublicKeyFromBase58(req.InputMint)
	if err != nil {
		httputil.BadRequest(c, "invalid inputMint address")
		return
	}

	outputMint, err := solana.PublicKeyFromBase58(req.OutputMint)
	if err != nil {
		httputil.BadRequest(c, "invalid outputMint address")
		return
	}

	if req.Amount <= 0 {
		httputil.BadRequest(c, "invalid amount: must be positive")
		return
	}

	inputDecimals := uint8(9)
	if req.InputDecimals != nil {
		inputDecimals = *req.InputDecimals
	}

	params := &domain.SwapParams{
		UserID:        req.UserID,
		InputMint:     inputMint,
		OutputMint:    outputMint,
		Amount:        req.Amount,
		InputDecimals: inputDecimals,
		SlippageBps:   req.SlippageBps,
	}

	result, err := h.executorSvc.ExecuteSwap(c.Request.Context(), params)
	if err != nil {
		writeSwapError(c, err)
		return
	}

	httputil.Success(c, result)
}

func writeSwapError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrWalletNotFound):
		httputil.NotFound(c, "wallet not found")
	case errors.Is(err, common.ErrNoRouteAvailable):
		httputil.NotFound(c, "no route available for token pair")
	case common.IsTransient(err):
		httputil.BadGateway(c, "upstream failure, try again later")
	case errors.Is(err, common.ErrBundleRejected):
		httputil.BadGateway(c, "bundle rejected by block engine")
	default:
		httputil.InternalError(c, "swap failed: "+err.Error())
	}
}
