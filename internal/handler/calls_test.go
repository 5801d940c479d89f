package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"crm/internal/auth"
	"crm/internal/models"
	"crm/internal/repository"
)

type stubCallStore struct {
	repository.Repository

	call    *models.Call
	updates map[string]any
}

func (s *stubCallStore) GetCallByID(context.Context, string) (*models.Call, error) {
	return s.call, nil
}

func (s *stubCallStore) UpdateCall(_ context.Context, _ string, updates map[string]any) error {
	s.updates = updates
	return nil
}

func callRouter(store repository.Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(auth.Middleware(auth.JWT{}, true))
	h := &CallHandler{Repo: store}
	h.Register(r)
	return r
}

func inProgressCall() *models.Call {
	started := time.Now().UTC().Add(-time.Minute)
	return &models.Call{
		ID:        "c1",
		AgentID:   auth.DevClaims.AgentID,
		Status:    models.CallStatusInProgress,
		StartedAt: &started,
	}
}

func TestEnd_EmptyBody(t *testing.T) {
	// Outcome and notes are both optional, so an empty body is a valid way
	// to end a call.
	store := &stubCallStore{call: inProgressCall()}
	r := callRouter(store)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/calls/c1/end", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q, want %d", w.Code, w.Body.String(), http.StatusOK)
	}
	if store.updates["status"] != models.CallStatusCompleted {
		t.Fatalf("status update = %v, want %q", store.updates["status"], models.CallStatusCompleted)
	}
}

func TestEnd_MalformedBody(t *testing.T) {
	store := &stubCallStore{call: inProgressCall()}
	r := callRouter(store)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/calls/c1/end", strings.NewReader("{"))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestEnd_NotInProgress(t *testing.T) {
	store := &stubCallStore{call: &models.Call{ID: "c1", AgentID: auth.DevClaims.AgentID, Status: models.CallStatusPending}}
	r := callRouter(store)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/calls/c1/end", nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}
