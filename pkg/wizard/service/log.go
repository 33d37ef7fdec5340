package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tokenforge/wizard-middleware/pkg/asset"
	"github.com/tokenforge/wizard-middleware/pkg/tokenstore"
	"github.com/tokenforge/wizard-middleware/pkg/wizard"
)

const serviceName = "WizardService"

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the wizard Service.
// It logs method entry/exit, duration and errors.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) CreateSession(ctx context.Context) (sess *wizard.Session, err error) {
	defer ls.log("CreateSession", time.Now(), func() []zap.Field {
		return []zap.Field{zap.String("session_id", sess.ID.String())}
	}, &err)()
	return ls.svc.CreateSession(ctx)
}

func (ls *logService) GetSession(ctx context.Context, id uuid.UUID) (*wizard.Session, error) {
	return ls.svc.GetSession(ctx, id)
}

func (ls *logService) SelectAssetClass(ctx context.Context, id uuid.UUID, class asset.Class) (sess *wizard.Session, err error) {
	defer ls.log("SelectAssetClass", time.Now(), func() []zap.Field {
		return []zap.Field{
			zap.String("session_id", id.String()),
			zap.String("asset_class", string(class)),
			zap.String("step", string(sess.Step)),
		}
	}, &err)()
	return ls.svc.SelectAssetClass(ctx, id, class)
}

func (ls *logService) SelectInstrumentType(ctx context.Context, id uuid.UUID, value string) (sess *wizard.Session, err error) {
	defer ls.log("SelectInstrumentType", time.Now(), func() []zap.Field {
		return []zap.Field{
			zap.String("session_id", id.String()),
			zap.String("instrument_type", value),
		}
	}, &err)()
	return ls.svc.SelectInstrumentType(ctx, id, value)
}

func (ls *logService) UpdateFormData(ctx context.Context, id uuid.UUID, data map[string]any) (sess *wizard.Session, err error) {
	defer ls.log("UpdateFormData", time.Now(), func() []zap.Field {
		return []zap.Field{
			zap.String("session_id", id.String()),
			zap.Int("field_count", len(data)),
		}
	}, &err)()
	return ls.svc.UpdateFormData(ctx, id, data)
}

func (ls *logService) Next(ctx context.Context, id uuid.UUID) (sess *wizard.Session, err error) {
	defer ls.log("Next", time.Now(), func() []zap.Field {
		return []zap.Field{
			zap.String("session_id", id.String()),
			zap.String("step", string(sess.Step)),
		}
	}, &err)()
	return ls.svc.Next(ctx, id)
}

func (ls *logService) Back(ctx context.Context, id uuid.UUID) (sess *wizard.Session, err error) {
	defer ls.log("Back", time.Now(), func() []zap.Field {
		return []zap.Field{
			zap.String("session_id", id.String()),
			zap.String("step", string(sess.Step)),
			zap.String("status", string(sess.Status)),
		}
	}, &err)()
	return ls.svc.Back(ctx, id)
}

func (ls *logService) Preview(ctx context.Context, id uuid.UUID) (*PreviewData, error) {
	return ls.svc.Preview(ctx, id)
}

func (ls *logService) Complete(ctx context.Context, id uuid.UUID) (cfg *tokenstore.TokenConfiguration, err error) {
	defer ls.log("Complete", time.Now(), func() []zap.Field {
		return []zap.Field{
			zap.String("session_id", id.String()),
			zap.String("symbol", cfg.Symbol),
			zap.String("token_ref", cfg.TokenRef),
			zap.String("tx_hash", cfg.TransactionHash),
		}
	}, &err)()
	return ls.svc.Complete(ctx, id)
}

func (ls *logService) Cancel(ctx context.Context, id uuid.UUID) (err error) {
	defer ls.log("Cancel", time.Now(), func() []zap.Field {
		return []zap.Field{zap.String("session_id", id.String())}
	}, &err)()
	return ls.svc.Cancel(ctx, id)
}

func (ls *logService) AssetClasses(ctx context.Context) []ClassRouting {
	return ls.svc.AssetClasses(ctx)
}

// log returns a deferred exit logger. successFields is only evaluated on
// success, after the wrapped call has filled the named results.
func (ls *logService) log(method string, start time.Time, successFields func() []zap.Field, err *error) func() {
	return func() {
		duration := time.Since(start)
		if *err != nil {
			ls.logger.Error(method+" failed",
				zap.String("service", serviceName),
				zap.String("method", method),
				zap.Duration("duration", duration),
				zap.Error(*err),
			)
			return
		}
		fields := append([]zap.Field{
			zap.String("service", serviceName),
			zap.String("method", method),
			zap.Duration("duration", duration),
		}, successFields()...)
		ls.logger.Info(method+" completed", fields...)
	}
}
