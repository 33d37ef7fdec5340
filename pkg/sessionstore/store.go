// Package sessionstore persists wizard sessions in PostgreSQL.
package sessionstore

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tokenforge/wizard-middleware/pkg/wizard"
)

var (
	// ErrSessionNotFound is returned when a session lookup finds no record.
	ErrSessionNotFound = errors.New("wizard session not found")

	// ErrGenerationInFlight is returned by BeginGeneration when a metadata
	// generation is already running for the session. Enforces the
	// one-user-action-in-flight rule at the persistence layer.
	ErrGenerationInFlight = errors.New("metadata generation already in flight")
)

// Store defines wizard session persistence.
type Store interface {
	CreateSession(ctx context.Context, s *wizard.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*wizard.Session, error)
	UpdateSession(ctx context.Context, s *wizard.Session) error

	// BeginGeneration atomically flips the generating flag on. It fails with
	// ErrGenerationInFlight when already set, and ErrSessionNotFound when
	// the session does not exist.
	BeginGeneration(ctx context.Context, id uuid.UUID) error

	// EndGeneration clears the generating flag without touching other state.
	EndGeneration(ctx context.Context, id uuid.UUID) error
}
