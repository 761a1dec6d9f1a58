package auth

import (
	"testing"
	"time"

	"callcenter-platform/internal/config"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:       "test-secret",
		JWTIssuer:       "callcenter",
		JWTAudience:     "console",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func TestIssuePair_VerifyRoundTrip(t *testing.T) {
	m := newTestManager(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	pair, err := m.IssuePair(now, "agent-1", "supervisor")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(pair.AccessToken, TokenTypeAccess, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if claims.AgentID != "agent-1" || claims.Role != "supervisor" {
		t.Fatalf("claims: %+v", claims)
	}

	refresh, err := m.Verify(pair.RefreshToken, TokenTypeRefresh, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if refresh.Role != "" {
		t.Fatalf("refresh token must not carry a role, got %q", refresh.Role)
	}
}

func TestVerify_TokenTypeMismatch(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()
	pair, _ := m.IssuePair(now, "agent-1", "agent")

	if _, err := m.Verify(pair.RefreshToken, TokenTypeAccess, now); err == nil {
		t.Fatalf("refresh token accepted as access token")
	}
	if _, err := m.Verify(pair.AccessToken, TokenTypeRefresh, now); err == nil {
		t.Fatalf("access token accepted as refresh token")
	}
}

func TestVerify_Expiry(t *testing.T) {
	m := newTestManager(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	pair, _ := m.IssuePair(now, "agent-1", "agent")

	if _, err := m.Verify(pair.AccessToken, TokenTypeAccess, now.Add(16*time.Minute)); err == nil {
		t.Fatalf("expired access token accepted")
	}
	// Inside leeway still passes.
	if _, err := m.Verify(pair.AccessToken, TokenTypeAccess, now.Add(15*time.Minute+10*time.Second)); err != nil {
		t.Fatalf("leeway not applied: %v", err)
	}
}

func TestVerify_WrongSecretRejected(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager(config.AuthConfig{
		JWTSecret:       "different-secret",
		JWTIssuer:       "callcenter",
		JWTAudience:     "console",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	now := time.Now()
	pair, _ := m.IssuePair(now, "agent-1", "agent")
	if _, err := other.Verify(pair.AccessToken, TokenTypeAccess, now); err == nil {
		t.Fatalf("token verified across secrets")
	}
}
