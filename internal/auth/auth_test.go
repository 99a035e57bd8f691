package auth

import (
	"testing"
	"time"
)

func testManager() *Manager {
	return &Manager{Secret: []byte("s3cret"), AccessTTL: time.Minute, RefreshTTL: time.Hour, Issuer: "ladla-backend"}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testManager()
	token, err := m.NewAccessToken("admin", RoleAdmin)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "admin" || claims.Role != RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, err := m.ParseRefresh(token); err == nil {
		t.Fatalf("access token must not be accepted as refresh token")
	}
}

func TestTokenRejectedWithOtherSecret(t *testing.T) {
	token, _ := testManager().NewRefreshToken("admin", RoleAdmin)
	other := testManager()
	other.Secret = []byte("different")
	if _, err := other.ParseRefresh(token); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestExpiredToken(t *testing.T) {
	m := testManager()
	m.AccessTTL = -time.Minute
	token, _ := m.NewAccessToken("admin", RoleAdmin)
	if _, err := m.Parse(token); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("lavage-2025")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := ComparePassword(hash, "lavage-2025"); err != nil {
		t.Fatalf("ComparePassword: %v", err)
	}
	if err := ComparePassword(hash, "wrong"); err == nil {
		t.Fatalf("expected mismatch")
	}
	if _, err := HashPassword(""); err == nil {
		t.Fatalf("expected empty password error")
	}
}
