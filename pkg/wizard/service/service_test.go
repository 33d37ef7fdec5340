package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

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

// memSessionStore is an in-memory SessionStore with the same generating-flag
// semantics as the PostgreSQL implementation.
type memSessionStore struct {
	sessions map[uuid.UUID]*wizard.Session
	beginErr error
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[uuid.UUID]*wizard.Session)}
}

func (m *memSessionStore) CreateSession(_ context.Context, s *wizard.Session) error {
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memSessionStore) GetSession(_ context.Context, id uuid.UUID) (*wizard.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, sessionstore.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessionStore) UpdateSession(_ context.Context, s *wizard.Session) error {
	if _, ok := m.sessions[s.ID]; !ok {
		return sessionstore.ErrSessionNotFound
	}
	cp := *s
	cp.Generating = m.sessions[s.ID].Generating
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memSessionStore) BeginGeneration(_ context.Context, id uuid.UUID) error {
	if m.beginErr != nil {
		return m.beginErr
	}
	s, ok := m.sessions[id]
	if !ok {
		return sessionstore.ErrSessionNotFound
	}
	if s.Generating {
		return sessionstore.ErrGenerationInFlight
	}
	s.Generating = true
	return nil
}

func (m *memSessionStore) EndGeneration(_ context.Context, id uuid.UUID) error {
	s, ok := m.sessions[id]
	if !ok {
		return sessionstore.ErrSessionNotFound
	}
	s.Generating = false
	return nil
}

type memTokenStore struct {
	created []*tokenstore.TokenConfiguration
}

func (m *memTokenStore) CreateTokenConfig(_ context.Context, cfg *tokenstore.TokenConfiguration) error {
	m.created = append(m.created, cfg)
	return nil
}

type fakeRouter struct{}

func (fakeRouter) Classes() []asset.Class {
	return []asset.Class{asset.ClassEquity, asset.ClassCommodity}
}

func (fakeRouter) InstrumentTypes(c asset.Class) []asset.InstrumentOption {
	switch c {
	case asset.ClassEquity:
		return []asset.InstrumentOption{
			{Value: "common_stock", FormComponent: "CommonStockForm"},
			{Value: "private_equity", FormComponent: "PrivateEquityForm"},
		}
	case asset.ClassCommodity:
		return []asset.InstrumentOption{
			{Value: "commodity_spot", FormComponent: "CommoditySpotForm"},
		}
	}
	return nil
}

func (r fakeRouter) HasMultipleTypes(c asset.Class) bool {
	return len(r.InstrumentTypes(c)) > 1
}

func (r fakeRouter) FormComponent(c asset.Class, value string) string {
	for _, opt := range r.InstrumentTypes(c) {
		if opt.Value == value {
			return opt.FormComponent
		}
	}
	return ""
}

type fakePolicy struct {
	fn    func(*policy.ValidationRequest) (*policy.ValidationResult, error)
	calls []*policy.ValidationRequest
}

func (f *fakePolicy) ValidateTransaction(_ context.Context, req *policy.ValidationRequest) (*policy.ValidationResult, error) {
	f.calls = append(f.calls, req)
	if f.fn != nil {
		return f.fn(req)
	}
	return &policy.ValidationResult{Valid: true}, nil
}

type fakeGateway struct {
	deployFn func(*gateway.DeployRequest) (*gateway.DeployResult, error)
	deploys  []*gateway.DeployRequest
}

func (f *fakeGateway) Deploy(_ context.Context, req *gateway.DeployRequest) (*gateway.DeployResult, error) {
	f.deploys = append(f.deploys, req)
	if f.deployFn != nil {
		return f.deployFn(req)
	}
	return &gateway.DeployResult{TokenRef: "token-ref-1", TransactionHash: "0xabc"}, nil
}

func (f *fakeGateway) Execute(context.Context, string, gateway.Operation, *gateway.OperationRequest) (*gateway.OperationResult, error) {
	return &gateway.OperationResult{TransactionHash: "0xdef", Status: "submitted"}, nil
}

type fixture struct {
	svc      Service
	sessions *memSessionStore
	tokens   *memTokenStore
	policy   *fakePolicy
	gateway  *fakeGateway
}

func newFixture() *fixture {
	f := &fixture{
		sessions: newMemSessionStore(),
		tokens:   &memTokenStore{},
		policy:   &fakePolicy{},
		gateway:  &fakeGateway{},
	}
	f.svc = NewService(
		f.sessions,
		f.tokens,
		fakeRouter{},
		forms.NewRegistry(),
		metadata.NewBuilder(zap.NewNop()),
		f.policy,
		f.gateway,
		zap.NewNop(),
	)
	return f
}

func commodityForm() map[string]any {
	return map[string]any{
		"name":           "Gold Spot Claim",
		"symbol":         "XAU",
		"uri":            "https://example.com/xau.json",
		"commodity_code": "XAU",
	}
}

// advanceToPreview walks a fresh session through the commodity flow up to a
// generated preview.
func advanceToPreview(t *testing.T, f *fixture) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	sess, err := f.svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	if _, err := f.svc.SelectAssetClass(ctx, sess.ID, asset.ClassCommodity); err != nil {
		t.Fatalf("SelectAssetClass() failed: %v", err)
	}
	if _, err := f.svc.UpdateFormData(ctx, sess.ID, commodityForm()); err != nil {
		t.Fatalf("UpdateFormData() failed: %v", err)
	}
	if _, err := f.svc.Next(ctx, sess.ID); err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	return sess.ID
}

func TestFullFlow_SingleTypeSkipAndDeploy(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	id := advanceToPreview(t, f)

	sess, err := f.svc.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession() failed: %v", err)
	}
	if sess.Step != wizard.StepPreview {
		t.Fatalf("expected preview step, got %s", sess.Step)
	}
	if sess.InstrumentType != "commodity_spot" {
		t.Fatalf("expected auto-assigned commodity_spot, got %q", sess.InstrumentType)
	}
	if sess.Generating {
		t.Fatal("generating flag must be cleared after generation")
	}

	data, err := f.svc.Preview(ctx, id)
	if err != nil {
		t.Fatalf("Preview() failed: %v", err)
	}
	if data.Preview.Status != metadata.StatusPassed {
		t.Fatalf("expected passed preview, got %s", data.Preview.Status)
	}

	cfg, err := f.svc.Complete(ctx, id)
	if err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	if cfg.TokenRef != "token-ref-1" {
		t.Fatalf("expected gateway token ref, got %q", cfg.TokenRef)
	}
	if len(f.tokens.created) != 1 {
		t.Fatalf("expected 1 stored token config, got %d", len(f.tokens.created))
	}
	if len(f.gateway.deploys) != 1 {
		t.Fatalf("expected 1 deploy, got %d", len(f.gateway.deploys))
	}

	sess, err = f.svc.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession() failed: %v", err)
	}
	if sess.Status != wizard.StatusCompleted {
		t.Fatalf("expected completed session, got %s", sess.Status)
	}
}

func TestNext_RegenerationReplacesResult(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	id := advanceToPreview(t, f)

	first, err := f.svc.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession() failed: %v", err)
	}

	// Back to the form, edit, regenerate.
	if _, err := f.svc.Back(ctx, id); err != nil {
		t.Fatalf("Back() failed: %v", err)
	}
	form := commodityForm()
	form["name"] = "Silver Spot Claim"
	form["symbol"] = "XAG"
	if _, err := f.svc.UpdateFormData(ctx, id, form); err != nil {
		t.Fatalf("UpdateFormData() failed: %v", err)
	}
	if _, err := f.svc.Next(ctx, id); err != nil {
		t.Fatalf("Next() failed: %v", err)
	}

	second, err := f.svc.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession() failed: %v", err)
	}
	if second.Metadata.Symbol != "XAG" {
		t.Fatalf("expected regenerated symbol XAG, got %q", second.Metadata.Symbol)
	}
	if second.Metadata.Symbol == first.Metadata.Symbol {
		t.Fatal("regeneration must replace the previous result")
	}
}

func TestNext_GenerationInFlightIsConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sess, err := f.svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	if _, err := f.svc.SelectAssetClass(ctx, sess.ID, asset.ClassCommodity); err != nil {
		t.Fatalf("SelectAssetClass() failed: %v", err)
	}
	if _, err := f.svc.UpdateFormData(ctx, sess.ID, commodityForm()); err != nil {
		t.Fatalf("UpdateFormData() failed: %v", err)
	}

	f.sessions.beginErr = sessionstore.ErrGenerationInFlight

	_, err = f.svc.Next(ctx, sess.ID)
	if !apperrors.Is(err, apperrors.CategoryDataConflict) {
		t.Fatalf("expected CategoryDataConflict, got %v", err)
	}
}

func TestNext_InvalidFormClearsGeneratingFlag(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sess, err := f.svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	if _, err := f.svc.SelectAssetClass(ctx, sess.ID, asset.ClassCommodity); err != nil {
		t.Fatalf("SelectAssetClass() failed: %v", err)
	}
	// Missing required commodity_code.
	if _, err := f.svc.UpdateFormData(ctx, sess.ID, map[string]any{
		"name":   "Gold Spot Claim",
		"symbol": "XAU",
	}); err != nil {
		t.Fatalf("UpdateFormData() failed: %v", err)
	}

	_, err = f.svc.Next(ctx, sess.ID)
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected CategoryDataError, got %v", err)
	}

	stored, err := f.svc.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession() failed: %v", err)
	}
	if stored.Generating {
		t.Fatal("generating flag must be cleared after a failed generation")
	}
	if stored.Step != wizard.StepMetadataForm {
		t.Fatalf("failed generation must leave the session on the form step, got %s", stored.Step)
	}
}

type fakeBuilder struct {
	fn func(metadata.BuildInput) (*metadata.Result, error)
}

func (f *fakeBuilder) Build(_ context.Context, in metadata.BuildInput) (*metadata.Result, error) {
	return f.fn(in)
}

func TestNext_BuilderErrorLeavesSessionIntact(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.svc = NewService(
		f.sessions,
		f.tokens,
		fakeRouter{},
		forms.NewRegistry(),
		&fakeBuilder{fn: func(metadata.BuildInput) (*metadata.Result, error) {
			return nil, errors.New("keccak backend unavailable")
		}},
		f.policy,
		f.gateway,
		zap.NewNop(),
	)

	sess, err := f.svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	if _, err := f.svc.SelectAssetClass(ctx, sess.ID, asset.ClassCommodity); err != nil {
		t.Fatalf("SelectAssetClass() failed: %v", err)
	}
	if _, err := f.svc.UpdateFormData(ctx, sess.ID, commodityForm()); err != nil {
		t.Fatalf("UpdateFormData() failed: %v", err)
	}

	_, err = f.svc.Next(ctx, sess.ID)
	if !apperrors.Is(err, apperrors.CategoryGeneralError) {
		t.Fatalf("expected CategoryGeneralError, got %v", err)
	}

	stored, err := f.svc.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession() failed: %v", err)
	}
	if stored.Step != wizard.StepMetadataForm {
		t.Fatalf("builder failure must leave the session on the form step, got %s", stored.Step)
	}
	if stored.Metadata != nil {
		t.Fatal("builder failure must not store partial metadata")
	}
	if stored.Generating {
		t.Fatal("generating flag must be cleared after a builder failure")
	}
}

func TestMutationRejectedWhileGenerating(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sess, err := f.svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	f.sessions.sessions[sess.ID].Generating = true

	_, err = f.svc.SelectAssetClass(ctx, sess.ID, asset.ClassEquity)
	if !apperrors.Is(err, apperrors.CategoryDataConflict) {
		t.Fatalf("expected CategoryDataConflict, got %v", err)
	}
}

func TestComplete_PolicyRejectionLeavesSessionOnPreview(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	id := advanceToPreview(t, f)

	f.policy.fn = func(*policy.ValidationRequest) (*policy.ValidationResult, error) {
		return &policy.ValidationResult{
			Valid:  false,
			Errors: []string{"issuer not accredited"},
		}, nil
	}

	_, err := f.svc.Complete(ctx, id)
	if !apperrors.Is(err, apperrors.CategoryForbidden) {
		t.Fatalf("expected CategoryForbidden, got %v", err)
	}
	if len(f.gateway.deploys) != 0 {
		t.Fatal("rejected deployment must not reach the gateway")
	}
	if len(f.tokens.created) != 0 {
		t.Fatal("rejected deployment must not be recorded")
	}

	sess, err := f.svc.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession() failed: %v", err)
	}
	if sess.Status != wizard.StatusActive || sess.Step != wizard.StepPreview {
		t.Fatalf("session must stay on preview for a retry, got %s/%s", sess.Status, sess.Step)
	}
}

func TestComplete_GatewayFailureLeavesSessionOnPreview(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	id := advanceToPreview(t, f)

	f.gateway.deployFn = func(*gateway.DeployRequest) (*gateway.DeployResult, error) {
		return nil, errors.New("gateway returned 502")
	}

	_, err := f.svc.Complete(ctx, id)
	if !apperrors.Is(err, apperrors.CategoryDependencyFailure) {
		t.Fatalf("expected CategoryDependencyFailure, got %v", err)
	}

	sess, err := f.svc.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession() failed: %v", err)
	}
	if sess.Status != wizard.StatusActive || sess.Step != wizard.StepPreview {
		t.Fatalf("session must stay on preview for a retry, got %s/%s", sess.Status, sess.Step)
	}
}

func TestBack_FromFirstStepCancelsSession(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sess, err := f.svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}

	out, err := f.svc.Back(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Back() failed: %v", err)
	}
	if out.Status != wizard.StatusCancelled {
		t.Fatalf("expected cancelled session, got %s", out.Status)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetSession(context.Background(), uuid.New())
	if !apperrors.Is(err, apperrors.CategoryResourceNotFound) {
		t.Fatalf("expected CategoryResourceNotFound, got %v", err)
	}
}

func TestAssetClasses_ListsRoutingTable(t *testing.T) {
	f := newFixture()

	routing := f.svc.AssetClasses(context.Background())
	if len(routing) != 2 {
		t.Fatalf("expected 2 classes, got %d", len(routing))
	}

	byClass := map[asset.Class]ClassRouting{}
	for _, entry := range routing {
		byClass[entry.Class] = entry
	}
	if !byClass[asset.ClassCommodity].SingleType {
		t.Fatal("commodity must be flagged single-type")
	}
	if byClass[asset.ClassEquity].SingleType {
		t.Fatal("equity must not be flagged single-type")
	}
}

func TestComplete_PolicyRequestCarriesMetadata(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	id := advanceToPreview(t, f)

	if _, err := f.svc.Complete(ctx, id); err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	if len(f.policy.calls) != 1 {
		t.Fatalf("expected 1 policy call, got %d", len(f.policy.calls))
	}

	req := f.policy.calls[0]
	if req.Operation != "deploy" {
		t.Fatalf("expected deploy operation, got %q", req.Operation)
	}
	if req.Metadata["asset_class"] != "commodity" {
		t.Fatalf("expected asset_class in policy metadata, got %v", req.Metadata)
	}
}
