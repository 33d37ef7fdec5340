package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// Gateway submits deployments and token operations.
type Gateway interface {
	Deploy(ctx context.Context, req *DeployRequest) (*DeployResult, error)
	Execute(ctx context.Context, tokenRef string, op Operation, req *OperationRequest) (*OperationResult, error)
}

type httpGateway struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates an HTTP crypto operation gateway client.
func NewClient(cfg Config, logger *zap.Logger) Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &httpGateway{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (g *httpGateway) Deploy(ctx context.Context, req *DeployRequest) (*DeployResult, error) {
	var result DeployResult
	if err := g.post(ctx, "/v1/tokens/deploy", req, &result); err != nil {
		return nil, err
	}
	g.logger.Info("token deployed via gateway",
		zap.String("symbol", req.Symbol),
		zap.String("token_ref", result.TokenRef),
		zap.String("tx_hash", result.TransactionHash),
	)
	return &result, nil
}

func (g *httpGateway) Execute(ctx context.Context, tokenRef string, op Operation, req *OperationRequest) (*OperationResult, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("unknown gateway operation %q", op)
	}

	path := fmt.Sprintf("/v1/tokens/%s/%s", url.PathEscape(tokenRef), op)
	var result OperationResult
	if err := g.post(ctx, path, req, &result); err != nil {
		return nil, err
	}
	g.logger.Info("token operation submitted",
		zap.String("token_ref", tokenRef),
		zap.String("operation", string(op)),
		zap.String("tx_hash", result.TransactionHash),
	)
	return &result, nil
}

func (g *httpGateway) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<14))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, data)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}
