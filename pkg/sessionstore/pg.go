package sessionstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/tokenforge/wizard-middleware/pkg/wizard"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates the postgres implementation of the session store.
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) CreateSession(ctx context.Context, session *wizard.Session) error {
	dao, err := toSessionDao(session)
	if err != nil {
		return err
	}

	if _, err := s.db.NewInsert().Model(dao).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *pgStore) GetSession(ctx context.Context, id uuid.UUID) (*wizard.Session, error) {
	dao := new(SessionDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return toSession(dao)
}

func (s *pgStore) UpdateSession(ctx context.Context, session *wizard.Session) error {
	dao, err := toSessionDao(session)
	if err != nil {
		return err
	}

	res, err := s.db.NewUpdate().
		Model(dao).
		// The generating column is owned by BeginGeneration/EndGeneration; a
		// stale session snapshot must not clobber it.
		Column("step", "status", "asset_class", "instrument_type", "form_data", "metadata", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *pgStore) BeginGeneration(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.NewUpdate().
		Model((*SessionDao)(nil)).
		Set("generating = TRUE").
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Where("generating = FALSE").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark generation start: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows > 0 {
		return nil
	}

	// No row flipped: either the session is missing or a generation is
	// already running. Distinguish the two for the caller.
	exists, err := s.db.NewSelect().
		Model((*SessionDao)(nil)).
		Where("id = ?", id).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if !exists {
		return ErrSessionNotFound
	}
	return ErrGenerationInFlight
}

func (s *pgStore) EndGeneration(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.NewUpdate().
		Model((*SessionDao)(nil)).
		Set("generating = FALSE").
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear generation flag: %w", err)
	}
	return nil
}
