package tokenstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/tokenforge/wizard-middleware/pkg/asset"
	"github.com/tokenforge/wizard-middleware/pkg/metadata"
)

// TokenConfigDao is a data access object that maps directly to the
// 'token_configurations' table in PostgreSQL.
type TokenConfigDao struct {
	bun.BaseModel   `bun:"table:token_configurations,alias:tc"`
	ID              uuid.UUID       `bun:"id,pk,type:uuid"`
	SessionID       uuid.UUID       `bun:"session_id,notnull,type:uuid"`
	AssetClass      string          `bun:"asset_class,notnull,type:varchar(32)"`
	InstrumentType  string          `bun:"instrument_type,notnull,type:varchar(64)"`
	Name            string          `bun:"name,notnull,type:varchar(64)"`
	Symbol          string          `bun:"symbol,notnull,type:varchar(16)"`
	URI             *string         `bun:"uri,type:varchar(255)"`
	Metadata        json.RawMessage `bun:"metadata,type:jsonb"`
	TokenRef        *string         `bun:"token_ref,type:varchar(128)"`
	TransactionHash *string         `bun:"transaction_hash,type:varchar(128)"`
	CreatedAt       time.Time       `bun:"created_at,nullzero,default:current_timestamp"`
}

func toTokenConfigDao(cfg *TokenConfiguration) (*TokenConfigDao, error) {
	dao := &TokenConfigDao{
		ID:             cfg.ID,
		SessionID:      cfg.SessionID,
		AssetClass:     string(cfg.AssetClass),
		InstrumentType: cfg.InstrumentType,
		Name:           cfg.Name,
		Symbol:         cfg.Symbol,
		CreatedAt:      cfg.CreatedAt,
	}

	if cfg.URI != "" {
		dao.URI = &cfg.URI
	}
	if cfg.TokenRef != "" {
		dao.TokenRef = &cfg.TokenRef
	}
	if cfg.TransactionHash != "" {
		dao.TransactionHash = &cfg.TransactionHash
	}
	if cfg.Metadata != nil {
		data, err := json.Marshal(cfg.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		dao.Metadata = data
	}

	return dao, nil
}

func toTokenConfig(dao *TokenConfigDao) (*TokenConfiguration, error) {
	cfg := &TokenConfiguration{
		ID:             dao.ID,
		SessionID:      dao.SessionID,
		AssetClass:     asset.Class(dao.AssetClass),
		InstrumentType: dao.InstrumentType,
		Name:           dao.Name,
		Symbol:         dao.Symbol,
		CreatedAt:      dao.CreatedAt,
	}

	if dao.URI != nil {
		cfg.URI = *dao.URI
	}
	if dao.TokenRef != nil {
		cfg.TokenRef = *dao.TokenRef
	}
	if dao.TransactionHash != nil {
		cfg.TransactionHash = *dao.TransactionHash
	}
	if len(dao.Metadata) > 0 {
		cfg.Metadata = &metadata.Result{}
		if err := json.Unmarshal(dao.Metadata, cfg.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}

	return cfg, nil
}
