package service

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/tokenforge/wizard-middleware/pkg/app/errors"
	apphttp "github.com/tokenforge/wizard-middleware/pkg/app/http"
	"github.com/tokenforge/wizard-middleware/pkg/gateway"
	"github.com/tokenforge/wizard-middleware/pkg/metadata"
	"github.com/tokenforge/wizard-middleware/pkg/operations"
	"github.com/tokenforge/wizard-middleware/pkg/tokenstore"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes registers HTTP endpoints for token operations on the given chi router
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Route("/tokens", func(r chi.Router) {
		r.Get("/", apphttp.HandleError(h.listTokens))
		r.Route("/{tokenID}", func(r chi.Router) {
			r.Get("/", apphttp.HandleError(h.getToken))
			r.Post("/operations/{operation}", apphttp.HandleError(h.execute))
		})
	})
}

// tokenResponse is the wire shape of a deployed token configuration
type tokenResponse struct {
	ID              string           `json:"id"`
	SessionID       string           `json:"session_id"`
	AssetClass      string           `json:"asset_class"`
	InstrumentType  string           `json:"instrument_type"`
	Name            string           `json:"name"`
	Symbol          string           `json:"symbol"`
	URI             string           `json:"uri,omitempty"`
	Metadata        *metadata.Result `json:"metadata,omitempty"`
	TokenRef        string           `json:"token_ref"`
	TransactionHash string           `json:"transaction_hash"`
	CreatedAt       time.Time        `json:"created_at"`
}

func toTokenResponse(cfg *tokenstore.TokenConfiguration) *tokenResponse {
	return &tokenResponse{
		ID:              cfg.ID.String(),
		SessionID:       cfg.SessionID.String(),
		AssetClass:      string(cfg.AssetClass),
		InstrumentType:  cfg.InstrumentType,
		Name:            cfg.Name,
		Symbol:          cfg.Symbol,
		URI:             cfg.URI,
		Metadata:        cfg.Metadata,
		TokenRef:        cfg.TokenRef,
		TransactionHash: cfg.TransactionHash,
		CreatedAt:       cfg.CreatedAt,
	}
}

func (h *HTTP) listTokens(w http.ResponseWriter, r *http.Request) error {
	configs, err := h.service.ListTokens(r.Context())
	if err != nil {
		return err
	}
	out := make([]*tokenResponse, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, toTokenResponse(cfg))
	}
	h.writeJSON(w, http.StatusOK, out)
	return nil
}

func (h *HTTP) getToken(w http.ResponseWriter, r *http.Request) error {
	id, err := tokenID(r)
	if err != nil {
		return err
	}
	cfg, err := h.service.GetToken(r.Context(), id)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, toTokenResponse(cfg))
	return nil
}

func (h *HTTP) execute(w http.ResponseWriter, r *http.Request) error {
	id, err := tokenID(r)
	if err != nil {
		return err
	}
	op := gateway.Operation(chi.URLParam(r, "operation"))

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}

	req := &operations.ExecuteRequest{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, req); err != nil {
			return apperrors.BadRequestError(err, "invalid JSON")
		}
	}

	resp, err := h.service.Execute(r.Context(), id, op, req)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusAccepted, resp)
	return nil
}

func tokenID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "tokenID"))
	if err != nil {
		return uuid.Nil, apperrors.BadRequestError(err, "invalid token id")
	}
	return id, nil
}

func (h *HTTP) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
