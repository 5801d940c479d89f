package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crm/internal/auth"
	"crm/internal/bus"
	"crm/internal/models"
	"crm/internal/repository"
	syncengine "crm/internal/sync"
)

type CallHandler struct {
	Repo   repository.Repository
	Bus    bus.Bus
	Logger *zap.Logger
}

func (h *CallHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/calls")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/start", h.start)
	g.POST("/:id/end", h.end)
}

func (h *CallHandler) list(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return
	}
	agentID := claims.AgentID
	if v := strQueryPtr(c, "agent_id"); v != nil && claims.Role == "admin" {
		agentID = *v
	}
	params := repository.ListCallsParams{
		AgentID: &agentID,
		LeadID:  strQueryPtr(c, "lead_id"),
		Status:  strQueryPtr(c, "status"),
		Since:   timeQueryPtr(c, "since"),
		Until:   timeQueryPtr(c, "until"),
		Limit:   intQuery(c, "limit", 50),
		Offset:  intQuery(c, "offset", 0),
		OrderBy: "created_at",
		Asc:     boolPtr(false),
	}
	items, err := h.Repo.ListCalls(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountCalls(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}

type createCallRequest struct {
	LeadID      *string `json:"lead_id"`
	PhoneNumber string  `json:"phone_number"`
	Direction   string  `json:"direction"`
	Notes       string  `json:"notes"`
}

func (h *CallHandler) create(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return
	}
	var req createCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.PhoneNumber == "" {
		Error(c, http.StatusBadRequest, "phone_number required", nil)
		return
	}
	direction := strings.TrimSpace(req.Direction)
	if direction == "" {
		direction = "outbound"
	}
	item := &models.Call{
		AgentID:     claims.AgentID,
		LeadID:      req.LeadID,
		PhoneNumber: req.PhoneNumber,
		Direction:   direction,
		Status:      models.CallStatusPending,
		Notes:       req.Notes,
		SyncStatus:  models.SyncStatusSynced,
	}
	if err := h.Repo.CreateCall(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

func (h *CallHandler) get(c *gin.Context) {
	item, ok := h.ownedCall(c)
	if !ok {
		return
	}
	Ok(c, item, nil)
}

func (h *CallHandler) update(c *gin.Context) {
	item, ok := h.ownedCall(c)
	if !ok {
		return
	}
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	fields, err := syncengine.SanitizeFields(models.EntityCalls, body)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	// Direct edits never move a call between agents.
	delete(fields, "agent_id")
	if err := h.Repo.UpdateCall(c.Request.Context(), item.ID, fields); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	updated, _ := h.Repo.GetCallByID(c.Request.Context(), item.ID)
	h.publishChanged(c, updated)
	Ok(c, updated, nil)
}

func (h *CallHandler) delete(c *gin.Context) {
	item, ok := h.ownedCall(c)
	if !ok {
		return
	}
	if err := h.Repo.UpdateCall(c.Request.Context(), item.ID, map[string]any{"status": models.StatusDeleted}); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"id": item.ID, "status": models.StatusDeleted}, nil)
}

func (h *CallHandler) start(c *gin.Context) {
	item, ok := h.ownedCall(c)
	if !ok {
		return
	}
	if item.Status != models.CallStatusPending {
		Error(c, http.StatusConflict, "call not in pending state", nil)
		return
	}
	now := time.Now().UTC()
	updates := map[string]any{
		"status":     models.CallStatusInProgress,
		"started_at": now,
	}
	if err := h.Repo.UpdateCall(c.Request.Context(), item.ID, updates); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	updated, _ := h.Repo.GetCallByID(c.Request.Context(), item.ID)
	Ok(c, updated, nil)
}

type endCallRequest struct {
	Outcome string `json:"outcome"`
	Notes   string `json:"notes"`
}

func (h *CallHandler) end(c *gin.Context) {
	item, ok := h.ownedCall(c)
	if !ok {
		return
	}
	if item.Status != models.CallStatusInProgress {
		Error(c, http.StatusConflict, "call not in progress", nil)
		return
	}
	// Both fields are optional, so an empty body ends the call too.
	var req endCallRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	now := time.Now().UTC()
	updates := map[string]any{
		"status":   models.CallStatusCompleted,
		"ended_at": now,
	}
	if item.StartedAt != nil {
		updates["duration_seconds"] = int(now.Sub(*item.StartedAt).Seconds())
	}
	if strings.TrimSpace(req.Outcome) != "" {
		updates["outcome"] = strings.TrimSpace(req.Outcome)
	}
	if req.Notes != "" {
		updates["notes"] = req.Notes
	}
	if err := h.Repo.UpdateCall(c.Request.Context(), item.ID, updates); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	updated, _ := h.Repo.GetCallByID(c.Request.Context(), item.ID)
	if h.Bus != nil && updated != nil {
		payload := map[string]any{
			"call_id":  updated.ID,
			"agent_id": updated.AgentID,
			"outcome":  updated.Outcome,
		}
		if updated.LeadID != nil {
			payload["lead_id"] = *updated.LeadID
		}
		h.Bus.Publish(c.Request.Context(), bus.Event{
			Name:    bus.EventCallCompleted,
			AgentID: updated.AgentID,
			Payload: payload,
		})
	}
	Ok(c, updated, nil)
}

func (h *CallHandler) publishChanged(c *gin.Context, item *models.Call) {
	if h.Bus == nil || item == nil {
		return
	}
	h.Bus.Publish(c.Request.Context(), bus.Event{
		Name:    bus.EventCallChanged,
		AgentID: item.AgentID,
		Payload: map[string]any{"call_id": item.ID, "status": item.Status},
	})
}

// ownedCall loads the call and enforces that the caller owns it (admins see
// everything). Writes the error response itself on failure.
func (h *CallHandler) ownedCall(c *gin.Context) (*models.Call, bool) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return nil, false
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return nil, false
	}
	item, err := h.Repo.GetCallByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return nil, false
	}
	if item == nil {
		Error(c, http.StatusNotFound, "call not found", nil)
		return nil, false
	}
	if item.AgentID != claims.AgentID && claims.Role != "admin" {
		Error(c, http.StatusForbidden, "not your call", nil)
		return nil, false
	}
	return item, true
}
