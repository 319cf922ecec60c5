package jito

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/swap-executor/internal/common"
	"github.com/hxuan190/swap-executor/internal/config"
)

func testConfig(serverURL string) *config.JitoConfig {
	return &config.JitoConfig{
		BlockEngineURL: serverURL,
		TipAccount:     "96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5",
		TipLamports:    100_000,
		TimeoutSeconds: 5,
	}
}

func signedTransfer(t *testing.T) *solana.Transaction {
	t.Helper()
	wallet := solana.NewWallet()
	ix := system.NewTransferInstruction(1_000, wallet.PublicKey(), solana.NewWallet().PublicKey()).Build()
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{0x01}, solana.TransactionPayer(wallet.PublicKey()))
	require.NoError(t, err)
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		return &wallet.PrivateKey
	})
	require.NoError(t, err)
	return tx
}

func TestSubmitBundle(t *testing.T) {
	var gotReq struct {
		JSONRPC string     `json:"jsonrpc"`
		Method  string     `json:"method"`
		Params  [][]string `json:"params"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{"jsonrpc": "2.0", "result": "a7c0d2f8e1b94d5f", "id": 1}`))
	}))
	defer server.Close()

	svc := NewClient(testConfig(server.URL), http.DefaultClient)
	tipTx := signedTransfer(t)
	swapTx := signedTransfer(t)

	bundleID, err := svc.SubmitBundle(context.Background(), []*solana.Transaction{tipTx, swapTx})
	require.NoError(t, err)
	assert.Equal(t, "a7c0d2f8e1b94d5f", bundleID)

	assert.Equal(t, "sendBundle", gotReq.Method)
	require.Len(t, gotReq.Params, 1)
	require.Len(t, gotReq.Params[0], 2)

	// Transactions travel base58-encoded in submission order.
	wantFirst, err := tipTx.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(wantFirst), gotReq.Params[0][0])
}

func TestSubmitBundleRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"jsonrpc": "2.0", "error": {"code": -32602, "message": "bundle exceeds tip floor"}, "id": 1}`))
	}))
	defer server.Close()

	svc := NewClient(testConfig(server.URL), http.DefaultClient)
	_, err := svc.SubmitBundle(context.Background(), []*solana.Transaction{signedTransfer(t)})

	assert.True(t, errors.Is(err, common.ErrBundleRejected), "error = %v", err)
	assert.False(t, errors.Is(err, common.ErrSubmissionTransport))
}

func TestSubmitBundleTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream timeout"))
	}))
	defer server.Close()

	svc := NewClient(testConfig(server.URL), http.DefaultClient)
	_, err := svc.SubmitBundle(context.Background(), []*solana.Transaction{signedTransfer(t)})

	assert.True(t, errors.Is(err, common.ErrSubmissionTransport), "error = %v", err)
}

func TestSubmitBundleConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	svc := NewClient(testConfig(server.URL), http.DefaultClient)
	_, err := svc.SubmitBundle(context.Background(), []*solana.Transaction{signedTransfer(t)})

	assert.True(t, errors.Is(err, common.ErrSubmissionTransport), "error = %v", err)
}

func TestBuildTipTransaction(t *testing.T) {
	svc := NewClient(testConfig("http://unused"), http.DefaultClient)
	payer := solana.NewWallet()

	tx, err := svc.BuildTipTransaction(payer.PrivateKey, solana.Hash{0x02})
	require.NoError(t, err)

	require.Len(t, tx.Signatures, 1)
	assert.False(t, tx.Signatures[0].IsZero())
	require.Len(t, tx.Message.Instructions, 1)

	program, err := tx.Message.Program(tx.Message.Instructions[0].ProgramIDIndex)
	require.NoError(t, err)
	assert.True(t, program.Equals(solana.SystemProgramID))
}
