package config

import (
	"errors"
	"strconv"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/gagliardetto/solana-go"
)

type JitoConfig struct {
	BlockEngineURL string
	TipAccount     string
	TipLamports    uint64
	TimeoutSeconds int
}

func (j *JitoConfig) Key() string {
	return JITO_CONFIG_KEY
}

func (j *JitoConfig) Load() error {
	j.BlockEngineURL = common.GetEnvOrDefault("JITO_BLOCK_ENGINE_URL", "https://mainnet.block-engine.jito.wtf/api/v1/bundles")
	j.TipAccount = common.GetEnvOrDefault("JITO_TIP_ACCOUNT", "96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5")
	j.TimeoutSeconds = common.GetEnvOrDefaultInt("JITO_TIMEOUT_SECONDS", 15)

	tip := common.GetEnvOrDefault("JITO_TIP_LAMPORTS", "100000")
	parsed, err := strconv.ParseUint(tip, 10, 64)
	if err != nil {
		return errors.New("invalid JITO_TIP_LAMPORTS")
	}
	j.TipLamports = parsed

	return j.Validate()
}

func (j *JitoConfig) Validate() error {
	if j.BlockEngineURL == "" {
		return errors.New("invalid jito config")
	}
	if _, err := solana.PublicKeyFromBase58(j.TipAccount); err != nil {
		return errors.New("invalid jito tip account")
	}
	if j.TimeoutSeconds <= 0 {
		return errors.New("invalid jito timeout")
	}
	return nil
}

func (j *JitoConfig) TipAccountKey() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(j.TipAccount)
}

func (j *JitoConfig) Timeout() time.Duration {
	return time.Duration(j.TimeoutSeconds) * time.Second
}
