package handler

import (
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

type ReminderHandler struct {
	Repo   repository.Repository
	Bus    bus.Bus
	Logger *zap.Logger
}

func (h *ReminderHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/reminders")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/due", h.due)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/complete", h.complete)
}

func (h *ReminderHandler) list(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return
	}
	agentID := claims.AgentID
	params := repository.ListRemindersParams{
		AgentID: &agentID,
		LeadID:  strQueryPtr(c, "lead_id"),
		Status:  strQueryPtr(c, "status"),
		DueBy:   timeQueryPtr(c, "due_by"),
		Limit:   intQuery(c, "limit", 50),
		Offset:  intQuery(c, "offset", 0),
		OrderBy: "due_at",
		Asc:     boolPtr(true),
	}
	items, err := h.Repo.ListReminders(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountReminders(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}

func (h *ReminderHandler) due(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return
	}
	agentID := claims.AgentID
	now := time.Now().UTC()
	status := models.ReminderStatusPending
	params := repository.ListRemindersParams{
		AgentID: &agentID,
		Status:  &status,
		DueBy:   &now,
		Limit:   intQuery(c, "limit", 50),
		OrderBy: "due_at",
		Asc:     boolPtr(true),
	}
	items, err := h.Repo.ListReminders(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

type createReminderRequest struct {
	LeadID *string    `json:"lead_id"`
	Title  string     `json:"title"`
	Notes  string     `json:"notes"`
	DueAt  *time.Time `json:"due_at"`
}

func (h *ReminderHandler) create(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return
	}
	var req createReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		Error(c, http.StatusBadRequest, "title required", nil)
		return
	}
	item := &models.Reminder{
		AgentID:    claims.AgentID,
		LeadID:     req.LeadID,
		Title:      req.Title,
		Notes:      req.Notes,
		DueAt:      req.DueAt,
		Status:     models.ReminderStatusPending,
		SyncStatus: models.SyncStatusSynced,
	}
	if err := h.Repo.CreateReminder(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

func (h *ReminderHandler) get(c *gin.Context) {
	item, ok := h.ownedReminder(c)
	if !ok {
		return
	}
	Ok(c, item, nil)
}

func (h *ReminderHandler) update(c *gin.Context) {
	item, ok := h.ownedReminder(c)
	if !ok {
		return
	}
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	fields, err := syncengine.SanitizeFields(models.EntityReminders, body)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	delete(fields, "agent_id")
	if err := h.Repo.UpdateReminder(c.Request.Context(), item.ID, fields); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	updated, _ := h.Repo.GetReminderByID(c.Request.Context(), item.ID)
	h.publishChanged(c, updated)
	Ok(c, updated, nil)
}

func (h *ReminderHandler) delete(c *gin.Context) {
	item, ok := h.ownedReminder(c)
	if !ok {
		return
	}
	if err := h.Repo.UpdateReminder(c.Request.Context(), item.ID, map[string]any{"status": models.StatusDeleted}); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"id": item.ID, "status": models.StatusDeleted}, nil)
}

func (h *ReminderHandler) complete(c *gin.Context) {
	item, ok := h.ownedReminder(c)
	if !ok {
		return
	}
	if item.Status == models.ReminderStatusCompleted {
		Ok(c, item, nil)
		return
	}
	now := time.Now().UTC()
	updates := map[string]any{
		"status":       models.ReminderStatusCompleted,
		"completed_at": now,
	}
	if err := h.Repo.UpdateReminder(c.Request.Context(), item.ID, updates); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	updated, _ := h.Repo.GetReminderByID(c.Request.Context(), item.ID)
	h.publishChanged(c, updated)
	Ok(c, updated, nil)
}

func (h *ReminderHandler) publishChanged(c *gin.Context, item *models.Reminder) {
	if h.Bus == nil || item == nil {
		return
	}
	h.Bus.Publish(c.Request.Context(), bus.Event{
		Name:    bus.EventReminderChanged,
		AgentID: item.AgentID,
		Payload: map[string]any{"reminder_id": item.ID, "status": item.Status},
	})
}

func (h *ReminderHandler) ownedReminder(c *gin.Context) (*models.Reminder, bool) {
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
	item, err := h.Repo.GetReminderByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return nil, false
	}
	if item == nil {
		Error(c, http.StatusNotFound, "reminder not found", nil)
		return nil, false
	}
	if item.AgentID != claims.AgentID && claims.Role != "admin" {
		Error(c, http.StatusForbidden, "not your reminder", nil)
		return nil, false
	}
	return item, true
}
