package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"crm/internal/auth"
	"crm/internal/bus"
	"crm/internal/models"
	"crm/internal/repository"
	syncengine "crm/internal/sync"
)

type LeadHandler struct {
	Repo   repository.Repository
	Bus    bus.Bus
	Logger *zap.Logger
}

func (h *LeadHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/leads")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/claim", h.claim)
	g.POST("/:id/assign", h.assign)
}

func (h *LeadHandler) list(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return
	}
	agentID := claims.AgentID
	params := repository.ListLeadsParams{
		AssignedTo:        &agentID,
		IncludeUnassigned: true,
		Status:            strQueryPtr(c, "status"),
		Source:            strQueryPtr(c, "source"),
		Limit:             intQuery(c, "limit", 50),
		Offset:            intQuery(c, "offset", 0),
		OrderBy:           "updated_at",
		Asc:               boolPtr(false),
	}
	if claims.Role == "admin" && c.Query("all") == "true" {
		params.AssignedTo = nil
	}
	items, err := h.Repo.ListLeads(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountLeads(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}

type createLeadRequest struct {
	Name      string  `json:"name"`
	Company   string  `json:"company"`
	Phone     string  `json:"phone"`
	Email     string  `json:"email"`
	Source    string  `json:"source"`
	DealValue *string `json:"deal_value"`
	Notes     string  `json:"notes"`
	Claim     bool    `json:"claim"`
}

func (h *LeadHandler) create(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return
	}
	var req createLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		Error(c, http.StatusBadRequest, "name required", nil)
		return
	}
	item := &models.Lead{
		Name:       req.Name,
		Company:    strings.TrimSpace(req.Company),
		Phone:      strings.TrimSpace(req.Phone),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Source:     strings.TrimSpace(req.Source),
		Status:     models.LeadStatusNew,
		Notes:      req.Notes,
		SyncStatus: models.SyncStatusSynced,
	}
	if req.DealValue != nil {
		v, err := decimal.NewFromString(*req.DealValue)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid deal_value", nil)
			return
		}
		item.DealValue = v
	}
	if req.Claim {
		agentID := claims.AgentID
		item.AssignedTo = &agentID
	}
	if err := h.Repo.CreateLead(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

func (h *LeadHandler) get(c *gin.Context) {
	item, _, ok := h.visibleLead(c)
	if !ok {
		return
	}
	Ok(c, item, nil)
}

func (h *LeadHandler) update(c *gin.Context) {
	item, claims, ok := h.visibleLead(c)
	if !ok {
		return
	}
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	fields, err := syncengine.SanitizeFields(models.EntityLeads, body)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	// Reassignment goes through /assign or /claim, not a blanket update.
	delete(fields, "assigned_to")
	if err := h.Repo.UpdateLead(c.Request.Context(), item.ID, fields); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	updated, _ := h.Repo.GetLeadByID(c.Request.Context(), item.ID)
	if updated != nil && updated.Status != item.Status {
		h.publishStatusChanged(c, claims.AgentID, updated, item.Status)
	}
	Ok(c, updated, nil)
}

func (h *LeadHandler) delete(c *gin.Context) {
	item, _, ok := h.visibleLead(c)
	if !ok {
		return
	}
	if err := h.Repo.UpdateLead(c.Request.Context(), item.ID, map[string]any{"status": models.StatusDeleted}); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"id": item.ID, "status": models.StatusDeleted}, nil)
}

// claim takes an unclaimed lead for the calling agent. First writer wins: the
// update is conditional on assigned_to still being NULL.
func (h *LeadHandler) claim(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Repo.GetLeadByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "lead not found", nil)
		return
	}
	claimed, err := h.Repo.ClaimLead(c.Request.Context(), id, claims.AgentID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if !claimed {
		Error(c, http.StatusConflict, "lead already claimed", nil)
		return
	}
	updated, _ := h.Repo.GetLeadByID(c.Request.Context(), id)
	h.publishChanged(c, claims.AgentID, updated)
	Ok(c, updated, nil)
}

type assignLeadRequest struct {
	AgentID string `json:"agent_id"`
}

func (h *LeadHandler) assign(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return
	}
	if claims.Role != "admin" {
		Error(c, http.StatusForbidden, "admin only", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	var req assignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	req.AgentID = strings.TrimSpace(req.AgentID)
	if id == "" || req.AgentID == "" {
		Error(c, http.StatusBadRequest, "id and agent_id required", nil)
		return
	}
	target, err := h.Repo.GetAgentByID(c.Request.Context(), req.AgentID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if target == nil {
		Error(c, http.StatusNotFound, "agent not found", nil)
		return
	}
	item, err := h.Repo.GetLeadByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "lead not found", nil)
		return
	}
	if err := h.Repo.UpdateLead(c.Request.Context(), id, map[string]any{"assigned_to": req.AgentID}); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	updated, _ := h.Repo.GetLeadByID(c.Request.Context(), id)
	h.publishChanged(c, req.AgentID, updated)
	Ok(c, updated, nil)
}

func (h *LeadHandler) publishChanged(c *gin.Context, agentID string, item *models.Lead) {
	if h.Bus == nil || item == nil {
		return
	}
	h.Bus.Publish(c.Request.Context(), bus.Event{
		Name:    bus.EventLeadChanged,
		AgentID: agentID,
		Payload: map[string]any{"lead_id": item.ID, "status": item.Status},
	})
}

func (h *LeadHandler) publishStatusChanged(c *gin.Context, agentID string, item *models.Lead, from string) {
	if h.Bus == nil || item == nil {
		return
	}
	h.Bus.Publish(c.Request.Context(), bus.Event{
		Name:    bus.EventLeadStatusChanged,
		AgentID: agentID,
		Payload: map[string]any{
			"lead_id":     item.ID,
			"agent_id":    agentID,
			"from_status": from,
			"to_status":   item.Status,
		},
	})
}

// visibleLead loads the lead and checks visibility: unclaimed leads are open
// to every agent, claimed leads only to their owner or an admin.
func (h *LeadHandler) visibleLead(c *gin.Context) (*models.Lead, auth.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return nil, auth.Claims{}, false
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return nil, claims, false
	}
	item, err := h.Repo.GetLeadByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return nil, claims, false
	}
	if item == nil {
		Error(c, http.StatusNotFound, "lead not found", nil)
		return nil, claims, false
	}
	if item.AssignedTo != nil && *item.AssignedTo != claims.AgentID && claims.Role != "admin" {
		Error(c, http.StatusForbidden, "not your lead", nil)
		return nil, claims, false
	}
	return item, claims, true
}
