package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"crm/internal/auth"
	"crm/internal/models"
	"crm/internal/repository"
)

type AutomationHandler struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (h *AutomationHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/automation/rules")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

var validTriggers = map[string]bool{
	models.TriggerLeadStatusChanged: true,
	models.TriggerCallCompleted:     true,
	models.TriggerReminderDue:       true,
}

var validActions = map[string]bool{
	models.ActionCreateReminder: true,
	models.ActionNotify:         true,
}

func (h *AutomationHandler) list(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	items, err := h.Repo.ListAutomationRules(c.Request.Context(), c.Query("enabled") == "true")
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

type ruleRequest struct {
	Name         string          `json:"name"`
	Enabled      *bool           `json:"enabled"`
	Trigger      string          `json:"trigger"`
	Match        json.RawMessage `json:"match"`
	Action       string          `json:"action"`
	ActionParams json.RawMessage `json:"action_params"`
}

func (h *AutomationHandler) create(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		Error(c, http.StatusBadRequest, "name required", nil)
		return
	}
	if !validTriggers[req.Trigger] {
		Error(c, http.StatusBadRequest, "unknown trigger", nil)
		return
	}
	if !validActions[req.Action] {
		Error(c, http.StatusBadRequest, "unknown action", nil)
		return
	}
	item := &models.AutomationRule{
		Name:         req.Name,
		Enabled:      true,
		Trigger:      req.Trigger,
		Match:        datatypes.JSON(req.Match),
		Action:       req.Action,
		ActionParams: datatypes.JSON(req.ActionParams),
	}
	if req.Enabled != nil {
		item.Enabled = *req.Enabled
	}
	if err := h.Repo.CreateAutomationRule(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

func (h *AutomationHandler) get(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	id, ok := h.ruleID(c)
	if !ok {
		return
	}
	item, err := h.Repo.GetAutomationRuleByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "rule not found", nil)
		return
	}
	Ok(c, item, nil)
}

func (h *AutomationHandler) update(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	id, ok := h.ruleID(c)
	if !ok {
		return
	}
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	updates := map[string]any{}
	if name := strings.TrimSpace(req.Name); name != "" {
		updates["name"] = name
	}
	if req.Enabled != nil {
		updates["enabled"] = *req.Enabled
	}
	if req.Trigger != "" {
		if !validTriggers[req.Trigger] {
			Error(c, http.StatusBadRequest, "unknown trigger", nil)
			return
		}
		updates["trigger"] = req.Trigger
	}
	if req.Action != "" {
		if !validActions[req.Action] {
			Error(c, http.StatusBadRequest, "unknown action", nil)
			return
		}
		updates["action"] = req.Action
	}
	if len(req.Match) > 0 {
		updates["match"] = datatypes.JSON(req.Match)
	}
	if len(req.ActionParams) > 0 {
		updates["action_params"] = datatypes.JSON(req.ActionParams)
	}
	if len(updates) == 0 {
		Error(c, http.StatusBadRequest, "nothing to update", nil)
		return
	}
	if err := h.Repo.UpdateAutomationRule(c.Request.Context(), id, updates); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	item, _ := h.Repo.GetAutomationRuleByID(c.Request.Context(), id)
	Ok(c, item, nil)
}

func (h *AutomationHandler) delete(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	id, ok := h.ruleID(c)
	if !ok {
		return
	}
	if err := h.Repo.DeleteAutomationRule(c.Request.Context(), id); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"id": id, "deleted": true}, nil)
}

func (h *AutomationHandler) requireAdmin(c *gin.Context) bool {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return false
	}
	if claims.Role != "admin" {
		Error(c, http.StatusForbidden, "admin only", nil)
		return false
	}
	return true
}

func (h *AutomationHandler) ruleID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return 0, false
	}
	return id, true
}
