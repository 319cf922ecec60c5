// Package jito submits signed transaction bundles to a block engine relay.
package jito

import (
	"bytes"
	"context"
	"fmt"
	"io"
	gohttp "net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/swap-executor/internal/common"
	"github.com/hxuan190/swap-executor/internal/config"
	"github.com/hxuan190/swap-executor/internal/metrics"
)

const JITO_SERVICE = "jito-service"

type Service struct {
	container.BaseDIInstance

	conf       *config.JitoConfig
	httpClient *gohttp.Client
}

// NewClient builds a service outside the container, mainly for tests.
func NewClient(conf *config.JitoConfig, httpClient *gohttp.Client) *Service {
	return &Service{conf: conf, httpClient: httpClient}
}

func (svc *Service) ID() string {
	return JITO_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.conf = c.GetConfig(config.JITO_CONFIG_KEY).(*config.JitoConfig)
	svc.httpClient = &gohttp.Client{Timeout: svc.conf.Timeout()}
	return nil
}

func (svc *Service) Start() error {
	return nil
}

func (svc *Service) Stop() error {
	return nil
}

// TipLamports returns the configured tip size.
func (svc *Service) TipLamports() uint64 {
	return svc.conf.TipLamports
}

// BuildTipTransaction builds and signs a one-instruction transfer to the
// relay tip account. The tip rides in its own transaction so the swap
// transaction itself stays untouched.
func (svc *Service) BuildTipTransaction(payer solana.PrivateKey, blockhash solana.Hash) (*solana.Transaction, error) {
	tipIx := system.NewTransferInstruction(svc.conf.TipLamports, payer.PublicKey(), svc.conf.TipAccountKey()).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{tipIx},
		blockhash,
		solana.TransactionPayer(payer.PublicKey()),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: build tip transaction: %v", common.ErrTransactionBuildFailed, err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer.PublicKey()) {
			return &payer
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: sign tip transaction: %v", common.ErrSigningFailed, err)
	}

	return tx, nil
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result string    `json:"result"`
	Error  *rpcError `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SubmitBundle sends the signed transactions as one atomic bundle and returns
// the relay's bundle id. A relay-side rejection surfaces as ErrBundleRejected,
// anything that prevented an answer as ErrSubmissionTransport.
func (svc *Service) SubmitBundle(ctx context.Context, transactions []*solana.Transaction) (string, error) {
	start := time.Now()
	defer func() {
		metrics.BundleSubmitDuration.Observe(time.Since(start).Seconds())
	}()

	encoded := make([]string, 0, len(transactions))
	for i, tx := range transactions {
		raw, err := tx.MarshalBinary()
		if err != nil {
			metrics.BundleSubmissions.WithLabelValues("error").Inc()
			return "", fmt.Errorf("%w: marshal transaction %d: %v", common.ErrSubmissionTransport, i, err)
		}
		encoded = append(encoded, base58.Encode(raw))
	}

	reqBody, err := sonic.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "sendBundle",
		Params:  []interface{}{encoded},
	})
	if err != nil {
		metrics.BundleSubmissions.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: marshal request: %v", common.ErrSubmissionTransport, err)
	}

	httpReq, err := gohttp.NewRequestWithContext(ctx, gohttp.MethodPost, svc.conf.BlockEngineURL, bytes.NewReader(reqBody))
	if err != nil {
		metrics.BundleSubmissions.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: build request: %v", common.ErrSubmissionTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := svc.httpClient.Do(httpReq)
	if err != nil {
		metrics.BundleSubmissions.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: %v", common.ErrSubmissionTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.BundleSubmissions.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: read response: %v", common.ErrSubmissionTransport, err)
	}

	var rpcResp rpcResponse
	if err := sonic.Unmarshal(body, &rpcResp); err != nil {
		metrics.BundleSubmissions.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: status %d: unparseable response: %v", common.ErrSubmissionTransport, resp.StatusCode, err)
	}

	if rpcResp.Error != nil {
		metrics.BundleSubmissions.WithLabelValues("rejected").Inc()
		return "", fmt.Errorf("%w: code %d: %s", common.ErrBundleRejected, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if resp.StatusCode != gohttp.StatusOK || rpcResp.Result == "" {
		metrics.BundleSubmissions.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: status %d: no bundle id in response", common.ErrSubmissionTransport, resp.StatusCode)
	}

	metrics.BundleSubmissions.WithLabelValues("success").Inc()
	log.Info().
		Str("bundleId", rpcResp.Result).
		Int("transactions", len(transactions)).
		Msg("[jito] bundle submitted")

	return rpcResp.Result, nil
}
