// Package tokenstore persists completed token configurations: the wizard's
// output payload plus the deployment reference handed back by the crypto
// operation gateway.
package tokenstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tokenforge/wizard-middleware/pkg/asset"
	"github.com/tokenforge/wizard-middleware/pkg/metadata"
)

// ErrTokenConfigNotFound is returned when a configuration lookup finds no record.
var ErrTokenConfigNotFound = errors.New("token configuration not found")

// TokenConfiguration is a deployed (or deploying) token produced by a
// completed wizard session.
type TokenConfiguration struct {
	ID              uuid.UUID
	SessionID       uuid.UUID
	AssetClass      asset.Class
	InstrumentType  string
	Name            string
	Symbol          string
	URI             string
	Metadata        *metadata.Result
	TokenRef        string
	TransactionHash string
	CreatedAt       time.Time
}

// Store defines token configuration persistence.
type Store interface {
	CreateTokenConfig(ctx context.Context, cfg *TokenConfiguration) error
	GetTokenConfig(ctx context.Context, id uuid.UUID) (*TokenConfiguration, error)
	ListTokenConfigs(ctx context.Context) ([]*TokenConfiguration, error)
}
