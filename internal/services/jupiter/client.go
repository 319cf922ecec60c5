// Package jupiter is the HTTP client for the quote and swap-instruction API.
package jupiter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	gohttp "net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/swap-executor/internal/common"
	"github.com/hxuan190/swap-executor/internal/config"
	"github.com/hxuan190/swap-executor/internal/metrics"
)

const JUPITER_SERVICE = "jupiter-service"

type Service struct {
	container.BaseDIInstance

	conf       *config.JupiterConfig
	httpClient *gohttp.Client
}

// NewClient builds a service outside the container, mainly for tests.
func NewClient(conf *config.JupiterConfig, httpClient *gohttp.Client) *Service {
	return &Service{conf: conf, httpClient: httpClient}
}

func (svc *Service) ID() string {
	return JUPITER_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.conf = c.GetConfig(config.JUPITER_CONFIG_KEY).(*config.JupiterConfig)
	svc.httpClient = &gohttp.Client{Timeout: svc.conf.Timeout()}
	return nil
}

func (svc *Service) Start() error {
	return nil
}

func (svc *Service) Stop() error {
	return nil
}

// GetQuote fetches the best route for the pair. Returns (nil, nil) when the
// API answers but has no route; that absence is a normal outcome, not a
// transport failure.
func (svc *Service) GetQuote(ctx context.Context, req *QuoteRequest) (*Quote, error) {
	start := time.Now()
	defer func() {
		metrics.QuoteDuration.Observe(time.Since(start).Seconds())
	}()

	params := url.Values{}
	params.Set("inputMint", req.InputMint)
	params.Set("outputMint", req.OutputMint)
	params.Set("amount", strconv.FormatUint(req.Amount, 10))
	params.Set("slippageBps", strconv.FormatUint(uint64(req.SlippageBps), 10))

	httpReq, err := gohttp.NewRequestWithContext(ctx, gohttp.MethodGet, svc.conf.QuoteURL+"?"+params.Encode(), nil)
	if err != nil {
		metrics.QuoteRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("build quote request: %w", err)
	}

	resp, err := svc.httpClient.Do(httpReq)
	if err != nil {
		metrics.QuoteRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.QuoteRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read quote response: %w", err)
	}

	if resp.StatusCode != gohttp.StatusOK {
		metrics.QuoteRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("quote API returned status %d: %s", resp.StatusCode, truncateBody(body))
	}

	var envelope quoteEnvelope
	if err := sonic.Unmarshal(body, &envelope); err != nil {
		metrics.QuoteRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("parse quote response: %w", err)
	}

	if len(envelope.RoutePlan) == 0 {
		metrics.QuoteRequests.WithLabelValues("no_route").Inc()
		log.Info().
			Str("inputMint", req.InputMint).
			Str("outputMint", req.OutputMint).
			Msg("[jupiter] no route for pair")
		return nil, nil
	}

	metrics.QuoteRequests.WithLabelValues("success").Inc()

	return &Quote{
		Raw:       body,
		InAmount:  envelope.InAmount,
		OutAmount: envelope.OutAmount,
		RouteHops: len(envelope.RoutePlan),
	}, nil
}

// GetSwapInstructions exchanges a quote for the instruction set that executes
// it. The quote payload is forwarded verbatim.
func (svc *Service) GetSwapInstructions(ctx context.Context, quote *Quote, userPublicKey solana.PublicKey) (*SwapInstructionsResponse, error) {
	reqBody, err := sonic.Marshal(swapInstructionsRequest{
		QuoteResponse: quote.Raw,
		UserPublicKey: userPublicKey.String(),
		WrapUnwrapSOL: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", common.ErrInstructionFetchFailed, err)
	}

	httpReq, err := gohttp.NewRequestWithContext(ctx, gohttp.MethodPost, svc.conf.SwapInstructionsURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", common.ErrInstructionFetchFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := svc.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInstructionFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", common.ErrInstructionFetchFailed, err)
	}

	if resp.StatusCode != gohttp.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", common.ErrInstructionFetchFailed, resp.StatusCode, truncateBody(body))
	}

	var out SwapInstructionsResponse
	if err := sonic.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", common.ErrInstructionFetchFailed, err)
	}

	if out.SwapInstruction.ProgramID == "" {
		return nil, fmt.Errorf("%w: response has no swap instruction", common.ErrInstructionFetchFailed)
	}

	return &out, nil
}

func truncateBody(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
