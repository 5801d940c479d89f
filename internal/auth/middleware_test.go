package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func whoamiRouter(j JWT, disabled bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(j, disabled))
	r.GET("/api/v1/whoami", func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			c.String(http.StatusInternalServerError, "no claims")
			return
		}
		c.String(http.StatusOK, claims.AgentID)
	})
	return r
}

func TestMiddleware_DisabledStillProvidesClaims(t *testing.T) {
	r := whoamiRouter(JWT{}, true)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q, want %d", w.Code, w.Body.String(), http.StatusOK)
	}
	if got := w.Body.String(); got != DevClaims.AgentID {
		t.Fatalf("agent = %q, want %q", got, DevClaims.AgentID)
	}
}

func TestMiddleware_MissingToken(t *testing.T) {
	r := whoamiRouter(JWT{Secret: []byte("secret")}, false)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestMiddleware_ValidToken(t *testing.T) {
	j := JWT{Secret: []byte("secret"), TokenTTL: time.Hour, Issuer: "crm"}
	token, _, err := j.Sign(Claims{AgentID: "a1", Role: "agent"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	r := whoamiRouter(j, false)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Body.String(); got != "a1" {
		t.Fatalf("agent = %q, want %q", got, "a1")
	}
}

func TestMiddleware_OpenPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(JWT{Secret: []byte("secret")}, false))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}
