package ws

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bft-labs/scenevisor/internal/domain"
)

func TestVerifier_SignVerify(t *testing.T) {
	v := NewVerifier("s3cret")
	token, err := v.Sign("host", time.Minute)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	sub, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if sub != "host" {
		t.Errorf("subject = %q, want host", sub)
	}
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier("s3cret")

	expired, _ := v.Sign("host", -time.Minute)
	wrongKey, _ := NewVerifier("other").Sign("host", time.Minute)
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("s3cret"))
	wrongAlg, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject: "host",
	}).SignedString([]byte("s3cret"))

	tests := map[string]string{
		"expired":    expired,
		"wrong key":  wrongKey,
		"no subject": noSubject,
		"wrong alg":  wrongAlg,
		"garbage":    "not-a-token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := v.Verify(token); !errors.Is(err, domain.ErrUnauthorized) {
				t.Errorf("Verify() error = %v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?token=q", nil)
	if got := TokenFromRequest(r); got != "q" {
		t.Errorf("query token = %q, want q", got)
	}

	r.Header.Set("Authorization", "bearer h")
	if got := TokenFromRequest(r); got != "h" {
		t.Errorf("header token = %q, want h", got)
	}
}
