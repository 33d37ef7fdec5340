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
	"github.com/tokenforge/wizard-middleware/pkg/asset"
	"github.com/tokenforge/wizard-middleware/pkg/metadata"
	"github.com/tokenforge/wizard-middleware/pkg/wizard"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes registers HTTP endpoints for the wizard service on the given chi router
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Route("/wizard/sessions", func(r chi.Router) {
		r.Post("/", apphttp.HandleError(h.createSession))
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", apphttp.HandleError(h.getSession))
			r.Delete("/", apphttp.HandleError(h.cancelSession))
			r.Post("/asset-class", apphttp.HandleError(h.selectAssetClass))
			r.Post("/instrument-type", apphttp.HandleError(h.selectInstrumentType))
			r.Put("/form", apphttp.HandleError(h.updateForm))
			r.Post("/next", apphttp.HandleError(h.next))
			r.Post("/back", apphttp.HandleError(h.back))
			r.Get("/preview", apphttp.HandleError(h.preview))
			r.Post("/complete", apphttp.HandleError(h.complete))
		})
	})

	r.Get("/routing/asset-classes", apphttp.HandleError(h.assetClasses))
}

// sessionResponse is the wire shape of a wizard session
type sessionResponse struct {
	ID             string           `json:"id"`
	Step           string           `json:"step"`
	Status         string           `json:"status"`
	AssetClass     string           `json:"asset_class,omitempty"`
	InstrumentType string           `json:"instrument_type,omitempty"`
	FormData       map[string]any   `json:"form_data,omitempty"`
	Metadata       *metadata.Result `json:"metadata,omitempty"`
	Generating     bool             `json:"generating"`
	CanGoNext      bool             `json:"can_go_next"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func toSessionResponse(s *wizard.Session) *sessionResponse {
	return &sessionResponse{
		ID:             s.ID.String(),
		Step:           string(s.Step),
		Status:         string(s.Status),
		AssetClass:     string(s.AssetClass),
		InstrumentType: s.InstrumentType,
		FormData:       s.FormData,
		Metadata:       s.Metadata,
		Generating:     s.Generating,
		CanGoNext:      s.CanGoNext(),
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

type selectAssetClassRequest struct {
	AssetClass string `json:"asset_class"`
}

type selectInstrumentTypeRequest struct {
	InstrumentType string `json:"instrument_type"`
}

type updateFormRequest struct {
	FormData map[string]any `json:"form_data"`
}

type previewResponse struct {
	Result  *metadata.Result `json:"result"`
	Preview metadata.Preview `json:"preview"`
}

type completeResponse struct {
	TokenConfigID   string `json:"token_config_id"`
	TokenRef        string `json:"token_ref"`
	TransactionHash string `json:"transaction_hash"`
}

func (h *HTTP) createSession(w http.ResponseWriter, r *http.Request) error {
	sess, err := h.service.CreateSession(r.Context())
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusCreated, toSessionResponse(sess))
	return nil
}

func (h *HTTP) getSession(w http.ResponseWriter, r *http.Request) error {
	id, err := sessionID(r)
	if err != nil {
		return err
	}
	sess, err := h.service.GetSession(r.Context(), id)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, toSessionResponse(sess))
	return nil
}

func (h *HTTP) cancelSession(w http.ResponseWriter, r *http.Request) error {
	id, err := sessionID(r)
	if err != nil {
		return err
	}
	if err := h.service.Cancel(r.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *HTTP) selectAssetClass(w http.ResponseWriter, r *http.Request) error {
	id, err := sessionID(r)
	if err != nil {
		return err
	}
	var req selectAssetClassRequest
	if err := h.readJSON(r, &req); err != nil {
		return err
	}
	sess, err := h.service.SelectAssetClass(r.Context(), id, asset.Class(req.AssetClass))
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, toSessionResponse(sess))
	return nil
}

func (h *HTTP) selectInstrumentType(w http.ResponseWriter, r *http.Request) error {
	id, err := sessionID(r)
	if err != nil {
		return err
	}
	var req selectInstrumentTypeRequest
	if err := h.readJSON(r, &req); err != nil {
		return err
	}
	sess, err := h.service.SelectInstrumentType(r.Context(), id, req.InstrumentType)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, toSessionResponse(sess))
	return nil
}

func (h *HTTP) updateForm(w http.ResponseWriter, r *http.Request) error {
	id, err := sessionID(r)
	if err != nil {
		return err
	}
	var req updateFormRequest
	if err := h.readJSON(r, &req); err != nil {
		return err
	}
	sess, err := h.service.UpdateFormData(r.Context(), id, req.FormData)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, toSessionResponse(sess))
	return nil
}

func (h *HTTP) next(w http.ResponseWriter, r *http.Request) error {
	id, err := sessionID(r)
	if err != nil {
		return err
	}
	sess, err := h.service.Next(r.Context(), id)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, toSessionResponse(sess))
	return nil
}

func (h *HTTP) back(w http.ResponseWriter, r *http.Request) error {
	id, err := sessionID(r)
	if err != nil {
		return err
	}
	sess, err := h.service.Back(r.Context(), id)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, toSessionResponse(sess))
	return nil
}

func (h *HTTP) preview(w http.ResponseWriter, r *http.Request) error {
	id, err := sessionID(r)
	if err != nil {
		return err
	}
	data, err := h.service.Preview(r.Context(), id)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, &previewResponse{
		Result:  data.Result,
		Preview: data.Preview,
	})
	return nil
}

func (h *HTTP) complete(w http.ResponseWriter, r *http.Request) error {
	id, err := sessionID(r)
	if err != nil {
		return err
	}
	cfg, err := h.service.Complete(r.Context(), id)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, &completeResponse{
		TokenConfigID:   cfg.ID.String(),
		TokenRef:        cfg.TokenRef,
		TransactionHash: cfg.TransactionHash,
	})
	return nil
}

func (h *HTTP) assetClasses(w http.ResponseWriter, r *http.Request) error {
	h.writeJSON(w, http.StatusOK, h.service.AssetClasses(r.Context()))
	return nil
}

func sessionID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		return uuid.Nil, apperrors.BadRequestError(err, "invalid session id")
	}
	return id, nil
}

func (h *HTTP) readJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}
	return nil
}

func (h *HTTP) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
