package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crm/internal/auth"
	"crm/internal/repository"
)

type NotificationHandler struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (h *NotificationHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/notifications")
	g.GET("", h.list)
	g.POST("/:id/read", h.markRead)
	g.POST("/read-all", h.markAllRead)
}

func (h *NotificationHandler) list(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return
	}
	params := repository.ListNotificationsParams{
		AgentID:    claims.AgentID,
		UnreadOnly: c.Query("unread") == "true",
		Limit:      intQuery(c, "limit", 50),
		Offset:     intQuery(c, "offset", 0),
	}
	items, err := h.Repo.ListNotifications(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountNotifications(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}

func (h *NotificationHandler) markRead(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	if err := h.Repo.MarkNotificationRead(c.Request.Context(), claims.AgentID, id); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"id": id, "read": true}, nil)
}

func (h *NotificationHandler) markAllRead(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return
	}
	n, err := h.Repo.MarkAllNotificationsRead(c.Request.Context(), claims.AgentID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"updated": n}, nil)
}
