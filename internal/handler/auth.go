package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crm/internal/auth"
	"crm/internal/models"
	"crm/internal/repository"
)

type AuthHandler struct {
	Repo   repository.Repository
	JWT    auth.JWT
	Logger *zap.Logger
}

func (h *AuthHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/auth")
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.GET("/me", h.me)
	r.GET("/api/v1/agents", h.listAgents)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Agent     *models.Agent `json:"agent"`
}

func (h *AuthHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" {
		Error(c, http.StatusBadRequest, "name and email required", nil)
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	existing, err := h.Repo.GetAgentByEmail(c.Request.Context(), req.Email)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if existing != nil {
		Error(c, http.StatusConflict, "email already registered", nil)
		return
	}

	salt, err := auth.NewSalt()
	if err != nil {
		Error(c, http.StatusInternalServerError, "salt generation failed", nil)
		return
	}
	agent := &models.Agent{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       strings.TrimSpace(req.Phone),
		Role:        "agent",
		Status:      "active",
		SaltHex:     salt,
		PassHashHex: auth.HashPassword(salt, req.Password),
	}
	if err := h.Repo.CreateAgent(c.Request.Context(), agent); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	h.issueToken(c, agent)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	agent, err := h.Repo.GetAgentByEmail(c.Request.Context(), req.Email)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if agent == nil || !auth.VerifyPassword(agent.SaltHex, agent.PassHashHex, req.Password) {
		Error(c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	if agent.Status != "active" {
		Error(c, http.StatusForbidden, "agent disabled", nil)
		return
	}
	now := time.Now().UTC()
	if err := h.Repo.UpdateAgent(c.Request.Context(), agent.ID, map[string]any{"last_login_at": now}); err != nil && h.Logger != nil {
		h.Logger.Warn("last login update failed", zap.String("agent_id", agent.ID), zap.Error(err))
	}
	h.issueToken(c, agent)
}

func (h *AuthHandler) me(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return
	}
	agent, err := h.Repo.GetAgentByID(c.Request.Context(), claims.AgentID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if agent == nil {
		Error(c, http.StatusNotFound, "agent not found", nil)
		return
	}
	Ok(c, agent, nil)
}

// listAgents is the assignment roster for /leads/:id/assign.
func (h *AuthHandler) listAgents(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing claims", nil)
		return
	}
	if claims.Role != "admin" {
		Error(c, http.StatusForbidden, "admin only", nil)
		return
	}
	items, err := h.Repo.ListAgents(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

func (h *AuthHandler) issueToken(c *gin.Context, agent *models.Agent) {
	token, expiresAt, err := h.JWT.Sign(auth.Claims{AgentID: agent.ID, Role: agent.Role})
	if err != nil {
		Error(c, http.StatusInternalServerError, "token signing failed", nil)
		return
	}
	Ok(c, tokenResponse{Token: token, ExpiresAt: expiresAt, Agent: agent}, nil)
}
