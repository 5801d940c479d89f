package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crm/internal/auth"
	"crm/internal/repository"
)

type AnalyticsHandler struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (h *AnalyticsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/analytics")
	g.GET("/summary", h.summary)
	g.GET("/calls-per-day", h.callsPerDay)
	g.GET("/leads-by-status", h.leadsByStatus)
}

// scopedAgentID returns the agent whose numbers are being asked for. Admins
// may query any agent via ?agent_id=, everyone else gets their own.
func (h *AnalyticsHandler) scopedAgentID(c *gin.Context) (string, bool) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return "", false
	}
	if v := strQueryPtr(c, "agent_id"); v != nil && claims.Role == "admin" {
		return *v, true
	}
	return claims.AgentID, true
}

func (h *AnalyticsHandler) summary(c *gin.Context) {
	agentID, ok := h.scopedAgentID(c)
	if !ok {
		return
	}
	out, err := h.Repo.AnalyticsSummary(c.Request.Context(), agentID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, out, nil)
}

func (h *AnalyticsHandler) callsPerDay(c *gin.Context) {
	agentID, ok := h.scopedAgentID(c)
	if !ok {
		return
	}
	days := intQuery(c, "days", 30)
	if days < 1 || days > 365 {
		days = 30
	}
	out, err := h.Repo.CallsPerDay(c.Request.Context(), agentID, days)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, out, nil)
}

func (h *AnalyticsHandler) leadsByStatus(c *gin.Context) {
	agentID, ok := h.scopedAgentID(c)
	if !ok {
		return
	}
	out, err := h.Repo.LeadsByStatus(c.Request.Context(), agentID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, out, nil)
}
