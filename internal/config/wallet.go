package config

import (
	"errors"

	"github.com/andrew-solarstorm/go-packages/common"
)

type WalletConfig struct {
	DBPath string
}

func (w *WalletConfig) Key() string {
	return WALLET_CONFIG_KEY
}

func (w *WalletConfig) Load() error {
	w.DBPath = common.GetEnvOrDefault("WALLET_DB_PATH", "./data/swap-executor.db")
	return w.Validate()
}

func (w *WalletConfig) Validate() error {
	if w.DBPath == "" {
		return errors.New("invalid wallet config")
	}
	return nil
}
