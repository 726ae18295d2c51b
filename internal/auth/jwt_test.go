package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/renova/internal/model"
)

var testUser = model.User{ID: "u1", Name: "Admin", Username: "admin", Role: model.RoleAdmin}

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, testUser, 0)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.Subject != "u1" {
		t.Errorf("expected subject u1, got %q", claims.Subject)
	}
	if claims.Username != "admin" {
		t.Errorf("expected username 'admin', got %q", claims.Username)
	}
	if claims.Issuer != Issuer {
		t.Errorf("expected issuer %q, got %q", Issuer, claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("expected a JTI")
	}

	want := model.Actor{UserID: "u1", Name: "Admin", Role: model.RoleAdmin}
	if got := claims.Actor(); got != want {
		t.Errorf("Actor() = %+v, want %+v", got, want)
	}
}

func TestTokensAreUnique(t *testing.T) {
	a, _ := GenerateToken("s", testUser, 0)
	b, _ := GenerateToken("s", testUser, 0)
	ca, _ := ValidateToken("s", a)
	cb, _ := ValidateToken("s", b)
	if ca.ID == cb.ID {
		t.Error("expected distinct JTIs")
	}
}

func TestValidateTokenRejects(t *testing.T) {
	valid, _ := GenerateToken("secret", testUser, 0)

	foreign, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			Subject:   "u1",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ID: "x", Subject: "u1", Issuer: Issuer},
	}).SignedString([]byte("secret"))

	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))

	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			Subject:   "u1",
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))

	tests := []struct {
		name, secret, token string
	}{
		{"wrong secret", "other", valid},
		{"garbage", "secret", "not-a-token"},
		{"foreign issuer", "secret", foreign},
		{"no expiry", "secret", noExpiry},
		{"no subject", "secret", noSubject},
		{"other algorithm", "secret", hs512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateToken(tt.secret, tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestValidateTokenExpired(t *testing.T) {
	token, _ := GenerateToken("secret", testUser, -time.Hour)
	if _, err := ValidateToken("secret", token); err != nil {
		t.Fatalf("negative ttl should fall back to the default expiry: %v", err)
	}

	token, _ = GenerateToken("secret", testUser, time.Nanosecond)
	time.Sleep(1100 * time.Millisecond)
	if _, err := ValidateToken("secret", token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	token, _ := GenerateToken("test", testUser, 0)
	claims, _ := ValidateToken("test", token)

	diff := time.Until(claims.ExpiresAt.Time) - TokenExpiry
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}
