package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret"

	token, err := GenerateToken(secret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if !claims.Admin {
		t.Error("expected admin claim set")
	}
	if claims.ID == "" {
		t.Error("expected a JTI")
	}
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) > TokenExpiry {
		t.Errorf("unexpected expiry: %v", claims.ExpiresAt)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret-a")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := ValidateToken("secret-b", token); err == nil {
		t.Error("expected validation to fail with a different secret")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	if _, err := ValidateToken("secret", "not.a.token"); err == nil {
		t.Error("expected validation to fail for garbage input")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	secret := "test-secret"

	claims := Claims{
		Admin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "expired",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	if _, err := ValidateToken(secret, signed); err == nil {
		t.Error("expected validation to fail for an expired token")
	}
}

func TestJTIsAreUnique(t *testing.T) {
	secret := "test-secret"
	seen := make(map[string]bool)

	for i := 0; i < 10; i++ {
		token, err := GenerateToken(secret)
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		claims, err := ValidateToken(secret, token)
		if err != nil {
			t.Fatalf("ValidateToken: %v", err)
		}
		if seen[claims.ID] {
			t.Fatalf("duplicate JTI %q", claims.ID)
		}
		seen[claims.ID] = true
	}
}
