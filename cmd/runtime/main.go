package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/swap-executor/internal/common"
	"github.com/hxuan190/swap-executor/internal/config"
	"github.com/hxuan190/swap-executor/internal/executor"
	"github.com/hxuan190/swap-executor/internal/http"
	"github.com/hxuan190/swap-executor/internal/services/builder"
	"github.com/hxuan190/swap-executor/internal/services/jito"
	"github.com/hxuan190/swap-executor/internal/services/jupiter"
	"github.com/hxuan190/swap-executor/internal/services/wallet"
)

// @title Swap Executor API
// @version 1.0
// @description Custodial swap execution service for Solana. Quotes a token pair,
// @description fetches the swap instructions, resolves address lookup tables,
// @description estimates the compute budget, builds and signs a v0 transaction and
// @description submits it as an atomic bundle through a block engine relay.
// @description
// @description ## - Usage Tips
// @description - Amounts are in UI units of the input token (1.5 means 1.5 SOL)
// @description - SOL has 9 decimals, USDC has 6
// @description - Default slippage is 50 bps (0.5%)
// @description - Priority fee presets: medium 0.001 / high 0.005 / very_high 0.01 SOL
//
// @BasePath /
// @schemes https http
// @tag.name swap
// @tag.description Execute swaps through the full pipeline
// @tag.name wallet
// @tag.description Manage custodial wallets, balances and fee preferences

func main() {
	// load env
	err := godotenv.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load env")
		return
	}

	common.InitRuntime()

	// di container config
	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.RPCConfig{},
		&config.JupiterConfig{},
		&config.JitoConfig{},
		&config.WalletConfig{},
	)

	// di container
	dic, err := container.New(
		// config
		conf,

		// services
		&wallet.Service{},
		&jupiter.Service{},
		&jito.Service{},
		&builder.BuilderService{},
		&executor.Service{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
