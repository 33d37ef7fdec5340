package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tokenforge/wizard-middleware/pkg/gateway"
	"github.com/tokenforge/wizard-middleware/pkg/operations"
	"github.com/tokenforge/wizard-middleware/pkg/tokenstore"
)

const serviceName = "OperationsService"

// logService wraps Service with automatic logging of operation submissions
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the operations Service.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) ListTokens(ctx context.Context) ([]*tokenstore.TokenConfiguration, error) {
	return ls.svc.ListTokens(ctx)
}

func (ls *logService) GetToken(ctx context.Context, id uuid.UUID) (*tokenstore.TokenConfiguration, error) {
	return ls.svc.GetToken(ctx, id)
}

func (ls *logService) Execute(
	ctx context.Context,
	id uuid.UUID,
	op gateway.Operation,
	req *operations.ExecuteRequest,
) (resp *operations.ExecuteResponse, err error) {
	start := time.Now()

	ls.logger.Info("Execute started",
		zap.String("service", serviceName),
		zap.String("method", "Execute"),
		zap.String("token_config_id", id.String()),
		zap.String("operation", string(op)),
		zap.String("amount", req.Amount),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Error("Execute failed",
				zap.String("service", serviceName),
				zap.String("method", "Execute"),
				zap.String("token_config_id", id.String()),
				zap.String("operation", string(op)),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("Execute completed",
				zap.String("service", serviceName),
				zap.String("method", "Execute"),
				zap.String("token_config_id", id.String()),
				zap.String("operation", string(op)),
				zap.String("tx_hash", resp.TransactionHash),
				zap.String("status", resp.Status),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.Execute(ctx, id, op, req)
}
