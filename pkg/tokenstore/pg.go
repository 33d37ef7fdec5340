package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates the postgres implementation of the token configuration store.
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) CreateTokenConfig(ctx context.Context, cfg *TokenConfiguration) error {
	dao, err := toTokenConfigDao(cfg)
	if err != nil {
		return err
	}

	if _, err := s.db.NewInsert().Model(dao).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create token configuration: %w", err)
	}
	return nil
}

func (s *pgStore) GetTokenConfig(ctx context.Context, id uuid.UUID) (*TokenConfiguration, error) {
	dao := new(TokenConfigDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token configuration: %w", err)
	}
	return toTokenConfig(dao)
}

func (s *pgStore) ListTokenConfigs(ctx context.Context) ([]*TokenConfiguration, error) {
	var daos []*TokenConfigDao
	err := s.db.NewSelect().
		Model(&daos).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list token configurations: %w", err)
	}

	configs := make([]*TokenConfiguration, 0, len(daos))
	for _, dao := range daos {
		cfg, err := toTokenConfig(dao)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}
