package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignVerify_RoundTrip(t *testing.T) {
	j := JWT{Secret: []byte("test-secret"), TokenTTL: time.Hour, Issuer: "crm-backend"}
	token, expiresAt, err := j.Sign(Claims{AgentID: "agent-1", Role: "agent"})
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if time.Until(expiresAt) < 55*time.Minute {
		t.Fatalf("expiresAt=%v want ~1h out", expiresAt)
	}
	claims, err := j.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.AgentID != "agent-1" || claims.Role != "agent" {
		t.Fatalf("claims=%+v", claims)
	}
	if claims.Issuer != "crm-backend" {
		t.Fatalf("issuer=%q", claims.Issuer)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	j := JWT{Secret: []byte("secret-a"), TokenTTL: time.Hour}
	token, _, err := j.Sign(Claims{AgentID: "agent-1"})
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	other := JWT{Secret: []byte("secret-b"), TokenTTL: time.Hour}
	if _, err := other.Verify(token); err == nil {
		t.Fatalf("wrong secret must fail verification")
	}
}

func TestVerify_WrongMethod(t *testing.T) {
	// A token signed with none must be rejected even if the payload parses.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{AgentID: "agent-1"})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	j := JWT{Secret: []byte("secret"), TokenTTL: time.Hour}
	if _, err := j.Verify(token); err == nil {
		t.Fatalf("alg=none must fail verification")
	}
}

func TestVerify_Expired(t *testing.T) {
	j := JWT{Secret: []byte("secret"), TokenTTL: time.Hour}
	token, _, err := j.Sign(Claims{
		AgentID: "agent-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := j.Verify(token); err == nil {
		t.Fatalf("expired token must fail verification")
	}
}
