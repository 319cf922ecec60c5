package http

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/swap-executor/internal/common"
	"github.com/hxuan190/swap-executor/internal/http/httputil"
	"github.com/hxuan190/swap-executor/internal/services/wallet"
)

// WalletHandler handles HTTP requests for custodial wallet management.
type WalletHandler struct {
	walletSvc *wallet.Service
}

func NewWalletHandler(walletSvc *wallet.Service) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

func (h *WalletHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("", h.createWallet)
	pub.GET("/:userId", h.getWallet)
	pub.POST("/:userId/refresh", h.refreshBalance)
	pub.POST("/:userId/fee", h.setFee)
	pub.POST("/:userId/withdraw", h.withdraw)

	admin.GET("/:userId/export", h.exportSecret)
}

func (h *WalletHandler) Root() string {
	return "/wallet"
}

type CreateWalletRequest struct {
	UserID string `json:"userId" binding:"required" example:"discord-81723491"`
}

type WalletResponse struct {
	UserID                   string `json:"userId"`
	PublicKey                string `json:"publicKey"`
	BalanceLamports          uint64 `json:"balanceLamports"`
	PriorityFeeMicroLamports uint64 `json:"priorityFeeMicroLamports"`
}

// @Summary Create wallet
// @Description Generate a fresh custodial keypair for the user. Fails if the user already has one.
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body CreateWalletRequest true "Wallet request"
// @Success 200 {object} WalletResponse
// @Failure 409 {object} map[string]string "Wallet already exists"
// @Router /api/v1/wallet [post]
func (h *WalletHandler) createWallet(c *gin.Context) {
	var req CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	created, err := h.walletSvc.CreateWallet(req.UserID)
	if err != nil {
		if errors.Is(err, common.ErrWalletExists) {
			httputil.Conflict(c, "wallet already exists for user")
			return
		}
		httputil.InternalError(c, "failed to create wallet: "+err.Error())
		return
	}

	httputil.Success(c, WalletResponse{
		UserID:                   created.UserID,
		PublicKey:                created.PublicKey.String(),
		BalanceLamports:          created.BalanceLamports,
		PriorityFeeMicroLamports: created.PriorityFeeMicroLamports,
	})
}

// @Summary Get wallet
// @Tags wallet
// @Produce json
// @Param userId path string true "User id"
// @Success 200 {object} WalletResponse
// @Failure 404 {object} map[string]string "Wallet not found"
// @Router /api/v1/wallet/{userId} [get]
func (h *WalletHandler) getWallet(c *gin.Context) {
	found, err := h.walletSvc.GetWallet(c.Param("userId"))
	if err != nil {
		if errors.Is(err, common.ErrWalletNotFound) {
			httputil.NotFound(c, "wallet not found")
			return
		}
		httputil.InternalError(c, "failed to load wallet: "+err.Error())
		return
	}

	httputil.Success(c, WalletResponse{
		UserID:                   found.UserID,
		PublicKey:                found.PublicKey.String(),
		BalanceLamports:          found.BalanceLamports,
		PriorityFeeMicroLamports: found.PriorityFeeMicroLamports,
	})
}

// @Summary Refresh balance
// @Description Fetch the wallet's current SOL balance from the chain and persist it.
// @Tags wallet
// @Produce json
// @Param userId path string true "User id"
// @Success 200 {object} map[string]uint64
// @Failure 404 {object} map[string]string "Wallet not found"
// @Router /api/v1/wallet/{userId}/refresh [post]
func (h *WalletHandler) refreshBalance(c *gin.Context) {
	balance, err := h.walletSvc.RefreshBalance(c.Request.Context(), c.Param("userId"))
	if err != nil {
		if errors.Is(err, common.ErrWalletNotFound) {
			httputil.NotFound(c, "wallet not found")
			return
		}
		httputil.InternalError(c, "failed to refresh balance: "+err.Error())
		return
	}

	httputil.Success(c, gin.H{"balanceLamports": balance})
}

type SetFeeRequest struct {
	// Named preset: medium, high or very_high
	Preset string `json:"preset" example:"high"`

	// Explicit priority fee in SOL, used when no preset is given
	FeeSOL *float64 `json:"feeSol" example:"0.002"`
}

// @Summary Set priority fee preference
// @Description Store the wallet's priority fee, either as a named preset or an explicit SOL value.
// @Tags wallet
// @Accept json
// @Produce json
// @Param userId path string true "User id"
// @Param request body SetFeeRequest true "Fee preference"
// @Success 200 {object} map[string]uint64
// @Failure 400 {object} map[string]string "Unknown preset or bad value"
// @Router /api/v1/wallet/{userId}/fee [post]
func (h *WalletHandler) setFee(c *gin.Context) {
	var req SetFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	userID := c.Param("userId")

	var microLamports uint64
	var err error
	switch {
	case req.Preset != "":
		microLamports, err = h.walletSvc.SetFeePreset(userID, req.Preset)
	case req.FeeSOL != nil:
		microLamports, err = h.walletSvc.SetFeeSOL(userID, *req.FeeSOL)
	default:
		httputil.BadRequest(c, "either preset or feeSol is required")
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, common.ErrWalletNotFound):
			httputil.NotFound(c, "wallet not found")
		case errors.Is(err, wallet.ErrUnknownFeePreset):
			httputil.BadRequest(c, "unknown fee preset, use medium, high or very_high")
		default:
			httputil.BadRequest(c, "invalid fee: "+err.Error())
		}
		return
	}

	httputil.Success(c, gin.H{"priorityFeeMicroLamports": microLamports})
}

type WithdrawRequest struct {
	// Destination address (Solana base58 public key)
	To string `json:"to" binding:"required" example:"9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"`

	// Amount in SOL
	Amount float64 `json:"amount" binding:"required" example:"0.5"`
}

// @Summary Withdraw SOL
// @Description Transfer SOL from the custodial wallet to an external address.
// @Tags wallet
// @Accept json
// @Produce json
// @Param userId path string true "User id"
// @Param request body WithdrawRequest true "Withdraw request"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Invalid destination or insufficient balance"
// @Router /api/v1/wallet/{userId}/withdraw [post]
func (h *WalletHandler) withdraw(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	dest, err := solana.PublicKeyFromBase58(req.To)
	if err != nil {
		httputil.BadRequest(c, "invalid destination address")
		return
	}
	if req.Amount <= 0 {
		httputil.BadRequest(c, "invalid amount: must be positive")
		return
	}

	sig, err := h.walletSvc.Withdraw(c.Request.Context(), c.Param("userId"), dest, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrWalletNotFound):
			httputil.NotFound(c, "wallet not found")
		case errors.Is(err, common.ErrInsufficientBalance):
			httputil.BadRequest(c, "insufficient balance")
		default:
			httputil.InternalError(c, "withdraw failed: "+err.Error())
		}
		return
	}

	httputil.Success(c, gin.H{"signature": sig.String()})
}

// @Summary Export secret key
// @Description Return the hex-encoded secret key of the custodial wallet.
// @Tags wallet
// @Produce json
// @Param userId path string true "User id"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Wallet not found"
// @Router /api/v1/admin/wallet/{userId}/export [get]
func (h *WalletHandler) exportSecret(c *gin.Context) {
	secret, err := h.walletSvc.ExportSecret(c.Param("userId"))
	if err != nil {
		if errors.Is(err, common.ErrWalletNotFound) {
			httputil.NotFound(c, "wallet not found")
			return
		}
		httputil.InternalError(c, "failed to export secret: "+err.Error())
		return
	}

	httputil.Success(c, gin.H{"secretKey": secret})
}
