package persistence

import (
	"fmt"
	"os"
	"path/filepath"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/swap-executor/internal/common"
	"github.com/hxuan190/swap-executor/internal/domain"
)

const (
	WalletsBucket = "wallets"

	DefaultDBPath = "./data/swap-executor.db"
)

// StoredWallet is the persisted form of a custodial wallet. The secret key is
// stored base58-encoded; it never leaves this package except inside
// domain.Wallet, which excludes it from serialization.
type StoredWallet struct {
	UserID                   string `json:"userId"`
	PublicKey                string `json:"publicKey"`
	SecretKey                string `json:"secretKey"`
	BalanceLamports          uint64 `json:"balanceLamports"`
	PriorityFeeMicroLamports uint64 `json:"priorityFeeMicroLamports"`
}

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	os.MkdirAll(filepath.Dir(dbPath), 0755)

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[walletStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) SaveWallet(wallet *domain.Wallet) error {
	stored := walletToStored(wallet)
	data, err := sonic.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %w", err)
	}

	return s.db.Set(WalletsBucket, []byte(wallet.UserID), data)
}

func (s *Storage) GetWallet(userID string) (*domain.Wallet, error) {
	data, err := s.db.List(WalletsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}

	value, ok := data[userID]
	if !ok {
		return nil, common.ErrWalletNotFound
	}

	var stored StoredWallet
	if err := sonic.Unmarshal(value, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet %s: %w", userID, err)
	}

	return storedToWallet(&stored)
}

func (s *Storage) LoadAllWallets() ([]*domain.Wallet, error) {
	data, err := s.db.List(WalletsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}

	wallets := make([]*domain.Wallet, 0, len(data))
	failed := 0

	for userID, value := range data {
		var stored StoredWallet
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Error().Str("userId", userID).Err(err).Msg("[walletStorage] failed to unmarshal wallet, skipping")
			failed++
			continue
		}

		wallet, err := storedToWallet(&stored)
		if err != nil {
			log.Error().Str("userId", userID).Err(err).Msg("[walletStorage] failed to convert stored wallet, skipping")
			failed++
			continue
		}

		wallets = append(wallets, wallet)
	}

	if failed > 0 {
		log.Error().
			Int("total_in_db", len(data)).
			Int("loaded", len(wallets)).
			Int("failed", failed).
			Msg("[walletStorage] wallet loading completed with errors")
	}

	return wallets, nil
}

func (s *Storage) WalletCount() (int, error) {
	data, err := s.db.List(WalletsBucket)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

func walletToStored(wallet *domain.Wallet) *StoredWallet {
	return &StoredWallet{
		UserID:                   wallet.UserID,
		PublicKey:                wallet.PublicKey.String(),
		SecretKey:                wallet.PrivateKey.String(),
		BalanceLamports:          wallet.BalanceLamports,
		PriorityFeeMicroLamports: wallet.PriorityFeeMicroLamports,
	}
}

func storedToWallet(stored *StoredWallet) (*domain.Wallet, error) {
	publicKey, err := solana.PublicKeyFromBase58(stored.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("invalid publicKey: %w", err)
	}

	privateKey, err := solana.PrivateKeyFromBase58(stored.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("invalid secretKey: %w", err)
	}

	if !privateKey.PublicKey().Equals(publicKey) {
		return nil, fmt.Errorf("secret key does not match public key %s", stored.PublicKey)
	}

	return &domain.Wallet{
		UserID:                   stored.UserID,
		PublicKey:                publicKey,
		PrivateKey:               privateKey,
		BalanceLamports:          stored.BalanceLamports,
		PriorityFeeMicroLamports: stored.PriorityFeeMicroLamports,
	}, nil
}
