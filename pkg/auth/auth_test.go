package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dnghuy/vietcart-backend/pkg/config"
)

func TestMintGuestTokenIsOpaqueAndUnique(t *testing.T) {
	t.Parallel()

	first, err := MintGuestToken()
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	second, err := MintGuestToken()
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	if first == second {
		t.Fatal("expected distinct tokens")
	}
	// 32 bytes of entropy, raw url encoding.
	if len(first) != 43 {
		t.Fatalf("unexpected token length %d", len(first))
	}
	if strings.ContainsAny(first, "+/=") {
		t.Fatalf("token is not url safe: %q", first)
	}
}

func signTestToken(t *testing.T, secret, issuer string, userID uuid.UUID, method jwt.SigningMethod) string {
	t.Helper()

	claims := AccessTokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestParseAccessToken(t *testing.T) {
	t.Parallel()

	cfg := config.JWTConfig{Secret: "test-secret", Issuer: "vietcart"}
	userID := uuid.New()

	claims, err := ParseAccessToken(cfg, signTestToken(t, cfg.Secret, cfg.Issuer, userID, jwtSigningMethod))
	if err != nil {
		t.Fatalf("parse valid token: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("unexpected user id %s", claims.UserID)
	}
}

func TestParseAccessTokenRejections(t *testing.T) {
	t.Parallel()

	cfg := config.JWTConfig{Secret: "test-secret", Issuer: "vietcart"}
	userID := uuid.New()

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", signTestToken(t, "other-secret", cfg.Issuer, userID, jwtSigningMethod)},
		{"wrong issuer", signTestToken(t, cfg.Secret, "someone-else", userID, jwtSigningMethod)},
		{"wrong method", signTestToken(t, cfg.Secret, cfg.Issuer, userID, jwt.SigningMethodHS512)},
		{"missing user id", signTestToken(t, cfg.Secret, cfg.Issuer, uuid.Nil, jwtSigningMethod)},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAccessToken(cfg, tt.token); err == nil {
				t.Fatal("expected parse to fail")
			}
		})
	}
}

func TestParseAccessTokenRequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := ParseAccessToken(config.JWTConfig{Issuer: "vietcart"}, "whatever"); err == nil {
		t.Fatal("expected missing secret to fail")
	}
}
