package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newWizardTestServer(svc Service) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, svc, zap.NewNop())
	return r
}

func TestWizardHTTP_SessionLifecycle(t *testing.T) {
	f := newFixture()
	handler := newWizardTestServer(f.svc)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/wizard/sessions", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type %q, got %q", "application/json", ct)
	}

	var created sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if created.Step != "asset_class" || created.Status != "active" {
		t.Fatalf("unexpected new session: %+v", created)
	}

	base := "/wizard/sessions/" + created.ID

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, base+"/asset-class",
		bytes.NewBufferString(`{"asset_class":"commodity"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var selected sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &selected); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if selected.Step != "metadata_form" {
		t.Fatalf("single-type class must skip to the form step, got %q", selected.Step)
	}
	if selected.InstrumentType != "commodity_spot" {
		t.Fatalf("expected auto-assigned instrument type, got %q", selected.InstrumentType)
	}

	form, _ := json.Marshal(map[string]any{"form_data": commodityForm()})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, base+"/form", bytes.NewBuffer(form)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, base+"/next", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, base+"/preview", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var preview previewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &preview); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if preview.Result == nil || preview.Preview.Status != "passed" {
		t.Fatalf("unexpected preview: %+v", preview)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, base+"/complete", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var completed completeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &completed); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if completed.TokenRef != "token-ref-1" || completed.TransactionHash != "0xabc" {
		t.Fatalf("unexpected completion: %+v", completed)
	}
}

func TestWizardHTTP_CancelReturnsNoContent(t *testing.T) {
	f := newFixture()
	handler := newWizardTestServer(f.svc)

	sess, err := f.svc.CreateSession(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete,
		fmt.Sprintf("/wizard/sessions/%s", sess.ID), nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
}

func TestWizardHTTP_InvalidSessionID_ReturnsBadRequest(t *testing.T) {
	f := newFixture()
	handler := newWizardTestServer(f.svc)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wizard/sessions/not-a-uuid", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}

	var got struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if got.Error != "invalid session id" {
		t.Fatalf("expected error %q, got %q", "invalid session id", got.Error)
	}
	if got.Code != http.StatusBadRequest {
		t.Fatalf("expected code %d, got %d", http.StatusBadRequest, got.Code)
	}
}

func TestWizardHTTP_UnknownSession_ReturnsNotFound(t *testing.T) {
	f := newFixture()
	handler := newWizardTestServer(f.svc)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/wizard/sessions/6f1b0a52-16c1-4a80-9df2-55a3b0c6e7aa", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestWizardHTTP_InvalidJSON_ReturnsBadRequest(t *testing.T) {
	f := newFixture()
	handler := newWizardTestServer(f.svc)

	sess, err := f.svc.CreateSession(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/wizard/sessions/%s/asset-class", sess.ID),
		bytes.NewBufferString("{invalid")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}

	var got struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if got.Error != "invalid JSON" {
		t.Fatalf("expected error %q, got %q", "invalid JSON", got.Error)
	}
}

func TestWizardHTTP_RoutingListing(t *testing.T) {
	f := newFixture()
	handler := newWizardTestServer(f.svc)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/routing/asset-classes", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var got []ClassRouting
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 classes, got %d", len(got))
	}
}
