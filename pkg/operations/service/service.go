package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tokenforge/wizard-middleware/internal/metrics"
	apperrors "github.com/tokenforge/wizard-middleware/pkg/app/errors"
	"github.com/tokenforge/wizard-middleware/pkg/gateway"
	"github.com/tokenforge/wizard-middleware/pkg/operations"
	"github.com/tokenforge/wizard-middleware/pkg/policy"
	"github.com/tokenforge/wizard-middleware/pkg/tokenstore"
)

var ErrUnknownOperation = errors.New("unknown token operation")

// Store is the narrow token configuration read interface for the operations service.
type Store interface {
	GetTokenConfig(ctx context.Context, id uuid.UUID) (*tokenstore.TokenConfiguration, error)
	ListTokenConfigs(ctx context.Context) ([]*tokenstore.TokenConfiguration, error)
}

// Service defines the token operations business logic
type Service interface {
	ListTokens(ctx context.Context) ([]*tokenstore.TokenConfiguration, error)
	GetToken(ctx context.Context, id uuid.UUID) (*tokenstore.TokenConfiguration, error)
	Execute(ctx context.Context, id uuid.UUID, op gateway.Operation, req *operations.ExecuteRequest) (*operations.ExecuteResponse, error)
}

type operationsService struct {
	store   Store
	policy  policy.Client
	gateway gateway.Gateway
	logger  *zap.Logger
}

// NewService creates a new token operations service
func NewService(store Store, policyClient policy.Client, gw gateway.Gateway, logger *zap.Logger) Service {
	return &operationsService{
		store:   store,
		policy:  policyClient,
		gateway: gw,
		logger:  logger,
	}
}

// ListTokens returns all deployed token configurations, newest first.
func (s *operationsService) ListTokens(ctx context.Context) ([]*tokenstore.TokenConfiguration, error) {
	configs, err := s.store.ListTokenConfigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list token configurations: %w", err)
	}
	return configs, nil
}

// GetToken returns one token configuration by ID.
func (s *operationsService) GetToken(ctx context.Context, id uuid.UUID) (*tokenstore.TokenConfiguration, error) {
	cfg, err := s.store.GetTokenConfig(ctx, id)
	if err != nil {
		if errors.Is(err, tokenstore.ErrTokenConfigNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "token configuration not found")
		}
		return nil, fmt.Errorf("failed to load token configuration: %w", err)
	}
	return cfg, nil
}

// Execute runs one post-deployment operation on a deployed token. The
// operation is policy-checked first; a rejection is surfaced with the
// engine's itemized errors and nothing is submitted.
func (s *operationsService) Execute(
	ctx context.Context,
	id uuid.UUID,
	op gateway.Operation,
	req *operations.ExecuteRequest,
) (*operations.ExecuteResponse, error) {
	if !op.Valid() {
		return nil, apperrors.BadRequestError(ErrUnknownOperation, fmt.Sprintf("unknown operation %q", op))
	}

	cfg, err := s.GetToken(ctx, id)
	if err != nil {
		return nil, err
	}
	if cfg.TokenRef == "" {
		return nil, apperrors.ConflictError(nil, "token has no deployment reference")
	}

	verdict, err := s.policy.ValidateTransaction(ctx, &policy.ValidationRequest{
		Operation:      string(op),
		AssetClass:     string(cfg.AssetClass),
		InstrumentType: cfg.InstrumentType,
		Symbol:         cfg.Symbol,
		TokenRef:       cfg.TokenRef,
		Amount:         req.Amount,
		From:           req.From,
		To:             req.To,
	})
	if err != nil {
		return nil, apperrors.DependencyError(err, "policy engine unavailable")
	}
	if !verdict.Valid {
		metrics.OperationsTotal.WithLabelValues(string(op), "rejected").Inc()
		return nil, apperrors.ForbiddenError(
			errors.New("operation rejected by policy"),
			rejectionMessage(op, verdict))
	}

	result, err := s.gateway.Execute(ctx, cfg.TokenRef, op, &gateway.OperationRequest{
		Amount: req.Amount,
		From:   req.From,
		To:     req.To,
		Reason: req.Reason,
	})
	if err != nil {
		metrics.OperationsTotal.WithLabelValues(string(op), "failed").Inc()
		return nil, apperrors.DependencyError(err, "operation submission failed")
	}
	metrics.OperationsTotal.WithLabelValues(string(op), "submitted").Inc()

	return &operations.ExecuteResponse{
		TransactionHash: result.TransactionHash,
		Status:          result.Status,
		GasEstimate:     verdict.GasEstimate,
	}, nil
}

func rejectionMessage(op gateway.Operation, verdict *policy.ValidationResult) string {
	if len(verdict.Errors) == 0 {
		return fmt.Sprintf("%s rejected by policy", op)
	}
	return fmt.Sprintf("%s rejected by policy: %s", op, strings.Join(verdict.Errors, "; "))
}
