package config

import (
	"errors"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
)

type JupiterConfig struct {
	QuoteURL            string
	SwapInstructionsURL string
	TimeoutSeconds      int
}

func (j *JupiterConfig) Key() string {
	return JUPITER_CONFIG_KEY
}

func (j *JupiterConfig) Load() error {
	j.QuoteURL = common.GetEnvOrDefault("JUPITER_QUOTE_URL", "https://quote-api.jup.ag/v6/quote")
	j.SwapInstructionsURL = common.GetEnvOrDefault("JUPITER_SWAP_INSTRUCTIONS_URL", "https://quote-api.jup.ag/v6/swap-instructions")
	j.TimeoutSeconds = common.GetEnvOrDefaultInt("JUPITER_TIMEOUT_SECONDS", 10)
	return j.Validate()
}

func (j *JupiterConfig) Validate() error {
	if j.QuoteURL == "" || j.SwapInstructionsURL == "" {
		return errors.New("invalid jupiter config")
	}
	if j.TimeoutSeconds <= 0 {
		return errors.New("invalid jupiter timeout")
	}
	return nil
}

func (j *JupiterConfig) Timeout() time.Duration {
	return time.Duration(j.TimeoutSeconds) * time.Second
}
