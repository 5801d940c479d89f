package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crm/internal/auth"
	"crm/internal/models"
	"crm/internal/repository"
	"crm/internal/service"
	syncengine "crm/internal/sync"
)

type SyncHandler struct {
	Sync   *service.SyncService
	Repo   repository.Repository
	Logger *zap.Logger
}

func (h *SyncHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/sync")
	g.POST("/push", h.push)
	g.GET("/pull", h.pull)
	g.POST("/full", h.full)
	g.GET("/status", h.status)
	g.GET("/logs", h.logs)
}

type pushRequest struct {
	DataType string           `json:"data_type"`
	Records  []map[string]any `json:"records"`
	SyncType string           `json:"sync_type"`
}

func (h *SyncHandler) push(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return
	}
	var req pushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	result, err := h.Sync.Push(c.Request.Context(), claims.AgentID, models.EntityType(req.DataType), req.Records, req.SyncType)
	if err != nil {
		Error(c, syncStatusCode(err), err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

func (h *SyncHandler) pull(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return
	}
	entity := models.EntityType(strings.TrimSpace(c.DefaultQuery("type", string(models.EntityAll))))
	since := time.Time{}
	if t := timeQueryPtr(c, "since"); t != nil {
		since = *t
	}
	result, err := h.Sync.Pull(c.Request.Context(), claims.AgentID, entity, since)
	if err != nil {
		Error(c, syncStatusCode(err), err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

type fullSyncRequest struct {
	LastSync *time.Time `json:"last_sync"`
}

func (h *SyncHandler) full(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return
	}
	var req fullSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	lastSync := time.Time{}
	if req.LastSync != nil {
		lastSync = req.LastSync.UTC()
	}
	result, err := h.Sync.FullSync(c.Request.Context(), claims.AgentID, lastSync)
	if err != nil {
		Error(c, syncStatusCode(err), err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

func (h *SyncHandler) status(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return
	}
	dataType := strings.TrimSpace(c.Query("type"))
	entry, err := h.Sync.LastSync(c.Request.Context(), claims.AgentID, dataType)
	if err != nil {
		Error(c, syncStatusCode(err), err.Error(), nil)
		return
	}
	Ok(c, entry, nil)
}

func (h *SyncHandler) logs(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return
	}
	agentID := claims.AgentID
	params := repository.ListSyncLogsParams{
		AgentID:  &agentID,
		DataType: strQueryPtr(c, "type"),
		Status:   strQueryPtr(c, "status"),
		Limit:    intQuery(c, "limit", 50),
		Offset:   intQuery(c, "offset", 0),
	}
	if claims.Role == "admin" {
		if v := strQueryPtr(c, "agent_id"); v != nil {
			params.AgentID = v
		}
	}
	items, err := h.Repo.ListSyncLogs(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

// Validation failures are the caller's fault; everything else is a store
// failure surfaced as a gateway error.
func syncStatusCode(err error) int {
	switch {
	case errors.Is(err, syncengine.ErrScopeRequired),
		errors.Is(err, syncengine.ErrEmptyBatch),
		errors.Is(err, syncengine.ErrUnknownEntity),
		errors.Is(err, service.ErrBatchTooLarge):
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
