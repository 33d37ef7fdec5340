package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tokenforge/wizard-middleware/internal/metrics"
	apperrors "github.com/tokenforge/wizard-middleware/pkg/app/errors"
	"github.com/tokenforge/wizard-middleware/pkg/asset"
	"github.com/tokenforge/wizard-middleware/pkg/forms"
	"github.com/tokenforge/wizard-middleware/pkg/gateway"
	"github.com/tokenforge/wizard-middleware/pkg/metadata"
	"github.com/tokenforge/wizard-middleware/pkg/policy"
	"github.com/tokenforge/wizard-middleware/pkg/sessionstore"
	"github.com/tokenforge/wizard-middleware/pkg/tokenstore"
	"github.com/tokenforge/wizard-middleware/pkg/wizard"
)

var (
	ErrNoFormComponent   = errors.New("no form component registered for instrument type")
	ErrNoGeneratedResult = errors.New("no generated metadata to preview")
	ErrPolicyRejected    = errors.New("policy validation rejected deployment")
)

// SessionStore is the narrow session persistence interface for the wizard service.
// Defined here to keep the service decoupled from sessionstore implementation details.
type SessionStore interface {
	CreateSession(ctx context.Context, s *wizard.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*wizard.Session, error)
	UpdateSession(ctx context.Context, s *wizard.Session) error
	BeginGeneration(ctx context.Context, id uuid.UUID) error
	EndGeneration(ctx context.Context, id uuid.UUID) error
}

// TokenStore persists completed token configurations.
type TokenStore interface {
	CreateTokenConfig(ctx context.Context, cfg *tokenstore.TokenConfiguration) error
}

// Router is the routing-table seam: instrument type options per asset class
// and the form component behind each option.
type Router interface {
	Classes() []asset.Class
	InstrumentTypes(class asset.Class) []asset.InstrumentOption
	HasMultipleTypes(class asset.Class) bool
	FormComponent(class asset.Class, value string) string
}

// FormRegistry resolves and validates form payloads by component name.
type FormRegistry interface {
	Has(component string) bool
	Decode(component string, raw map[string]any) (*forms.Decoded, error)
}

// PreviewData pairs a generation result with its display projection.
type PreviewData struct {
	Result  *metadata.Result
	Preview metadata.Preview
}

// ClassRouting is one asset class entry of the routing listing.
type ClassRouting struct {
	Class           asset.Class              `json:"asset_class"`
	InstrumentTypes []asset.InstrumentOption `json:"instrument_types"`
	SingleType      bool                     `json:"single_type"`
}

// Service defines the wizard session business logic
type Service interface {
	CreateSession(ctx context.Context) (*wizard.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*wizard.Session, error)
	SelectAssetClass(ctx context.Context, id uuid.UUID, class asset.Class) (*wizard.Session, error)
	SelectInstrumentType(ctx context.Context, id uuid.UUID, value string) (*wizard.Session, error)
	UpdateFormData(ctx context.Context, id uuid.UUID, data map[string]any) (*wizard.Session, error)
	Next(ctx context.Context, id uuid.UUID) (*wizard.Session, error)
	Back(ctx context.Context, id uuid.UUID) (*wizard.Session, error)
	Preview(ctx context.Context, id uuid.UUID) (*PreviewData, error)
	Complete(ctx context.Context, id uuid.UUID) (*tokenstore.TokenConfiguration, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	AssetClasses(ctx context.Context) []ClassRouting
}

type wizardService struct {
	sessions SessionStore
	tokens   TokenStore
	router   Router
	forms    FormRegistry
	builder  metadata.Builder
	policy   policy.Client
	gateway  gateway.Gateway
	logger   *zap.Logger
}

// NewService creates a new wizard service
func NewService(
	sessions SessionStore,
	tokens TokenStore,
	router Router,
	formRegistry FormRegistry,
	builder metadata.Builder,
	policyClient policy.Client,
	gw gateway.Gateway,
	logger *zap.Logger,
) Service {
	return &wizardService{
		sessions: sessions,
		tokens:   tokens,
		router:   router,
		forms:    formRegistry,
		builder:  builder,
		policy:   policyClient,
		gateway:  gw,
		logger:   logger,
	}
}

// CreateSession starts a new wizard session on the asset-class step.
func (s *wizardService) CreateSession(ctx context.Context) (*wizard.Session, error) {
	sess := wizard.NewSession()
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	metrics.SessionsTotal.WithLabelValues("created").Inc()
	return sess, nil
}

// GetSession returns the current session state.
func (s *wizardService) GetSession(ctx context.Context, id uuid.UUID) (*wizard.Session, error) {
	return s.load(ctx, id)
}

// SelectAssetClass records the class choice and advances the session,
// skipping the instrument-type step for single-type classes.
func (s *wizardService) SelectAssetClass(ctx context.Context, id uuid.UUID, class asset.Class) (*wizard.Session, error) {
	return s.mutate(ctx, id, func(sess *wizard.Session) error {
		return sess.SelectAssetClass(s.router, class)
	})
}

// SelectInstrumentType records the type choice and advances to the form step.
func (s *wizardService) SelectInstrumentType(ctx context.Context, id uuid.UUID, value string) (*wizard.Session, error) {
	return s.mutate(ctx, id, func(sess *wizard.Session) error {
		return sess.SelectInstrumentType(s.router, value)
	})
}

// UpdateFormData replaces the session's form payload. Any previously
// generated metadata is discarded.
func (s *wizardService) UpdateFormData(ctx context.Context, id uuid.UUID, data map[string]any) (*wizard.Session, error) {
	return s.mutate(ctx, id, func(sess *wizard.Session) error {
		return sess.SetFormData(data)
	})
}

// Next advances the session. On the form step this runs metadata generation;
// on the preview step it completes the session and deploys the token.
func (s *wizardService) Next(ctx context.Context, id uuid.UUID) (*wizard.Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	switch sess.Step {
	case wizard.StepMetadataForm:
		return s.generate(ctx, sess)
	case wizard.StepPreview:
		if _, err := s.Complete(ctx, id); err != nil {
			return nil, err
		}
		return s.load(ctx, id)
	default:
		return nil, apperrors.BadRequestError(
			fmt.Errorf("%w: next on %s", wizard.ErrInvalidTransition, sess.Step),
			"step has no forward action; submit the step's selection instead")
	}
}

// generate runs one metadata generation for a session sitting on the form
// step. The generating flag is flipped in the store first so a second
// concurrent request fails fast; no session state is written until the
// builder has returned.
func (s *wizardService) generate(ctx context.Context, sess *wizard.Session) (*wizard.Session, error) {
	if len(sess.FormData) == 0 {
		return nil, apperrors.BadRequestError(wizard.ErrEmptyFormData, "submit form data before generating")
	}

	component := s.router.FormComponent(sess.AssetClass, sess.InstrumentType)
	if component == "" {
		return nil, apperrors.NotSupportedError(ErrNoFormComponent,
			fmt.Sprintf("instrument type %q has no form component", sess.InstrumentType))
	}

	if err := s.sessions.BeginGeneration(ctx, sess.ID); err != nil {
		return nil, mapStoreError(err)
	}
	// Clear the flag even when the request context is already gone.
	defer func() {
		if err := s.sessions.EndGeneration(context.WithoutCancel(ctx), sess.ID); err != nil {
			s.logger.Error("failed to clear generating flag",
				zap.String("session_id", sess.ID.String()), zap.Error(err))
		}
	}()

	start := time.Now()

	decoded, err := s.forms.Decode(component, sess.FormData)
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues("invalid_form").Inc()
		return nil, apperrors.BadRequestError(err, "form validation failed")
	}

	result, err := s.builder.Build(ctx, metadata.BuildInput{
		AssetClass:     sess.AssetClass,
		InstrumentType: sess.InstrumentType,
		Form:           decoded,
	})
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues("error").Inc()
		return nil, apperrors.GeneralError(fmt.Errorf("metadata generation failed: %w", err))
	}

	from := sess.Step
	if err := sess.ApplyMetadata(result); err != nil {
		return nil, mapWizardError(err)
	}
	if err := s.sessions.UpdateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	metrics.GenerationsTotal.WithLabelValues(generationOutcome(result)).Inc()
	metrics.MetadataSize.Observe(float64(result.Validation.EstimatedSize))
	metrics.StepTransitions.WithLabelValues(string(from), string(sess.Step)).Inc()
	return sess, nil
}

// Back moves the session to the previous step, mirroring the single-type
// skip. Backing out of the first step cancels the session.
func (s *wizardService) Back(ctx context.Context, id uuid.UUID) (*wizard.Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	from := sess.Step
	cancelled, err := sess.Back(s.router)
	if err != nil {
		return nil, mapWizardError(err)
	}
	if err := s.sessions.UpdateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	if cancelled {
		metrics.SessionsTotal.WithLabelValues("cancelled").Inc()
	} else {
		metrics.StepTransitions.WithLabelValues(string(from), string(sess.Step)).Inc()
	}
	return sess, nil
}

// Preview returns the generated metadata with its display projection.
func (s *wizardService) Preview(ctx context.Context, id uuid.UUID) (*PreviewData, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Metadata == nil {
		return nil, apperrors.ConflictError(ErrNoGeneratedResult, "generate metadata before previewing")
	}
	return &PreviewData{
		Result:  sess.Metadata,
		Preview: metadata.Render(sess.Metadata),
	}, nil
}

// Complete finishes a session sitting on the preview step with a valid
// generation: the deployment is policy-checked, submitted through the
// gateway and recorded as a token configuration. The session only flips to
// completed after all of that succeeds, so a failed deploy leaves it on the
// preview step for a retry.
func (s *wizardService) Complete(ctx context.Context, id uuid.UUID) (*tokenstore.TokenConfiguration, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Step != wizard.StepPreview || sess.Metadata == nil {
		return nil, apperrors.BadRequestError(
			fmt.Errorf("%w: complete on %s", wizard.ErrInvalidTransition, sess.Step),
			"session is not on the preview step")
	}
	if !sess.Metadata.Validation.Valid {
		return nil, apperrors.BadRequestError(
			errors.New("metadata validation has errors"),
			"fix validation errors before completing")
	}

	res := sess.Metadata

	verdict, err := s.policy.ValidateTransaction(ctx, &policy.ValidationRequest{
		Operation:      "deploy",
		AssetClass:     string(sess.AssetClass),
		InstrumentType: sess.InstrumentType,
		Symbol:         res.Symbol,
		Metadata:       metadataMap(res),
	})
	if err != nil {
		return nil, apperrors.DependencyError(err, "policy engine unavailable")
	}
	if !verdict.Valid {
		return nil, apperrors.ForbiddenError(ErrPolicyRejected, policyRejectionMessage(verdict))
	}

	deployed, err := s.gateway.Deploy(ctx, &gateway.DeployRequest{
		AssetClass:     string(sess.AssetClass),
		InstrumentType: sess.InstrumentType,
		Name:           res.Name,
		Symbol:         res.Symbol,
		URI:            res.URI,
		Metadata:       res.AdditionalMetadata,
	})
	if err != nil {
		metrics.DeploysTotal.WithLabelValues("failed").Inc()
		return nil, apperrors.DependencyError(err, "token deployment failed")
	}
	metrics.DeploysTotal.WithLabelValues("submitted").Inc()

	cfg := &tokenstore.TokenConfiguration{
		ID:              uuid.New(),
		SessionID:       sess.ID,
		AssetClass:      sess.AssetClass,
		InstrumentType:  sess.InstrumentType,
		Name:            res.Name,
		Symbol:          res.Symbol,
		URI:             res.URI,
		Metadata:        res,
		TokenRef:        deployed.TokenRef,
		TransactionHash: deployed.TransactionHash,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.tokens.CreateTokenConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to save token configuration: %w", err)
	}

	if err := sess.Complete(); err != nil {
		return nil, mapWizardError(err)
	}
	if err := s.sessions.UpdateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	metrics.SessionsTotal.WithLabelValues("completed").Inc()
	return cfg, nil
}

// Cancel marks the session cancelled.
func (s *wizardService) Cancel(ctx context.Context, id uuid.UUID) error {
	sess, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := sess.Cancel(); err != nil {
		return mapWizardError(err)
	}
	if err := s.sessions.UpdateSession(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	metrics.SessionsTotal.WithLabelValues("cancelled").Inc()
	return nil
}

// AssetClasses lists the routing table: every asset class with its
// instrument type options.
func (s *wizardService) AssetClasses(_ context.Context) []ClassRouting {
	classes := s.router.Classes()
	out := make([]ClassRouting, 0, len(classes))
	for _, class := range classes {
		options := s.router.InstrumentTypes(class)
		out = append(out, ClassRouting{
			Class:           class,
			InstrumentTypes: options,
			SingleType:      len(options) == 1,
		})
	}
	return out
}

// Helper methods

func (s *wizardService) load(ctx context.Context, id uuid.UUID) (*wizard.Session, error) {
	sess, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return sess, nil
}

// mutate applies one state-machine step and persists the result. Mutations
// are refused while a generation is in flight for the session.
func (s *wizardService) mutate(ctx context.Context, id uuid.UUID, fn func(*wizard.Session) error) (*wizard.Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Generating {
		return nil, apperrors.ConflictError(sessionstore.ErrGenerationInFlight,
			"metadata generation in progress; retry when it finishes")
	}

	from := sess.Step
	if err := fn(sess); err != nil {
		return nil, mapWizardError(err)
	}
	if err := s.sessions.UpdateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	if sess.Step != from {
		metrics.StepTransitions.WithLabelValues(string(from), string(sess.Step)).Inc()
	}
	return sess, nil
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, sessionstore.ErrSessionNotFound):
		return apperrors.ResourceNotFoundError(err, "wizard session not found")
	case errors.Is(err, sessionstore.ErrGenerationInFlight):
		return apperrors.ConflictError(err, "metadata generation in progress; retry when it finishes")
	default:
		return fmt.Errorf("session store: %w", err)
	}
}

func mapWizardError(err error) error {
	switch {
	case errors.Is(err, wizard.ErrSessionClosed):
		return apperrors.ConflictError(err, "wizard session is no longer active")
	case errors.Is(err, wizard.ErrInvalidTransition),
		errors.Is(err, wizard.ErrUnknownAssetClass),
		errors.Is(err, wizard.ErrNoInstrumentTypes),
		errors.Is(err, wizard.ErrUnknownInstrument),
		errors.Is(err, wizard.ErrEmptyFormData):
		return apperrors.BadRequestError(err, err.Error())
	default:
		return err
	}
}

func generationOutcome(res *metadata.Result) string {
	if res.Validation.Valid {
		return "valid"
	}
	return "invalid"
}

func metadataMap(res *metadata.Result) map[string]string {
	m := make(map[string]string, len(res.AdditionalMetadata))
	for _, f := range res.AdditionalMetadata {
		m[f.Key] = f.Value
	}
	return m
}

func policyRejectionMessage(verdict *policy.ValidationResult) string {
	if len(verdict.Errors) == 0 {
		return "deployment rejected by policy"
	}
	return "deployment rejected by policy: " + strings.Join(verdict.Errors, "; ")
}
