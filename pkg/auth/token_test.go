package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dryd-travel/booking-backend/pkg/config"
	"github.com/dryd-travel/booking-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "dryd-accounts",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{
		UserID: userID,
		Email:  " guest@example.com ",
		Role:   enums.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.Email != "guest@example.com" {
		t.Fatalf("unexpected email %q", claims.Email)
	}
	if claims.Role != enums.RoleCustomer {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("unexpected issuer %s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti to be generated")
	}
}

func TestMintAccessTokenValidation(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()

	if _, err := MintAccessToken(cfg, now, AccessTokenPayload{Role: enums.RoleAdmin}); err == nil {
		t.Fatalf("expected error for missing user id")
	}
	if _, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: uuid.New(), Role: "owner"}); err == nil {
		t.Fatalf("expected error for invalid role")
	}
	bad := cfg
	bad.ExpirationMinutes = 0
	if _, err := MintAccessToken(bad, now, AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleAdmin}); err == nil {
		t.Fatalf("expected error for non-positive ttl")
	}
}

func TestParseAccessTokenRejectsExpiredAndForeignTokens(t *testing.T) {
	cfg := testJWTConfig()
	payload := AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleEmployee}

	expired, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), payload)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(cfg, expired); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	other := cfg
	other.Issuer = "someone-else"
	foreign, err := MintAccessToken(other, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(cfg, foreign); err == nil {
		t.Fatalf("expected issuer mismatch to be rejected")
	}

	valid, err := MintAccessToken(cfg, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	tampered := valid[:strings.LastIndex(valid, ".")+1] + "invalidsig"
	if _, err := ParseAccessToken(cfg, tampered); err == nil {
		t.Fatalf("expected tampered signature to be rejected")
	}
}

func TestSessionFromClaims(t *testing.T) {
	if s := SessionFromClaims(nil); s.Authenticated || s.UserIDPtr() != nil {
		t.Fatalf("nil claims must yield anonymous session")
	}

	id := uuid.New()
	s := SessionFromClaims(&AccessTokenClaims{UserID: id, Role: enums.RoleEmployee})
	if !s.Authenticated || !s.IsStaff() {
		t.Fatalf("expected authenticated staff session")
	}
	if p := s.UserIDPtr(); p == nil || *p != id {
		t.Fatalf("unexpected user id pointer")
	}
	if Anonymous().IsStaff() {
		t.Fatalf("anonymous session cannot be staff")
	}
}
