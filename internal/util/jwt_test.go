package util

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const testSecret = "secreto-de-pruebas"

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(42, RoleUser, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken returned error: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("expected user 42, got %d", claims.UserID)
	}
	if claims.Role != RoleUser {
		t.Errorf("expected role %q, got %q", RoleUser, claims.Role)
	}
}

func TestTokensUniquePerIssuance(t *testing.T) {
	// Dos emisiones consecutivas caen en el mismo segundo; el jti debe
	// diferenciarlas o la rotación devolvería el mismo token consumido
	first, err := GenerateToken(42, RoleUser, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	second, err := GenerateToken(42, RoleUser, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct tokens for back-to-back issuance")
	}

	p1, err := GeneratePurposeToken(42, TokenEmailVerification, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GeneratePurposeToken returned error: %v", err)
	}
	p2, err := GeneratePurposeToken(42, TokenEmailVerification, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GeneratePurposeToken returned error: %v", err)
	}
	if p1 == p2 {
		t.Fatal("expected distinct purpose tokens for back-to-back issuance")
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(1, RoleAdmin, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	if _, err := ParseToken(token, "otro-secreto"); err == nil {
		t.Fatal("expected signature error with wrong secret")
	}
}

func TestTokenExpired(t *testing.T) {
	token, err := GenerateToken(1, RoleUser, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	if _, err := ParseToken(token, testSecret); err == nil {
		t.Fatal("expected error parsing expired token")
	}
}

func TestPurposeTokenTypeCheck(t *testing.T) {
	token, err := GeneratePurposeToken(7, TokenEmailVerification, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GeneratePurposeToken returned error: %v", err)
	}

	claims, err := ParsePurposeToken(token, TokenEmailVerification, testSecret)
	if err != nil {
		t.Fatalf("ParsePurposeToken returned error: %v", err)
	}
	if claims.UserID != 7 {
		t.Errorf("expected user 7, got %d", claims.UserID)
	}

	// Un token de verificación no sirve como token de recuperación
	if _, err := ParsePurposeToken(token, TokenPasswordReset, testSecret); err == nil {
		t.Fatal("expected type mismatch error")
	}
}

func TestPurposeTokenNotInterchangeableWithSession(t *testing.T) {
	token, err := GeneratePurposeToken(7, TokenPasswordReset, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GeneratePurposeToken returned error: %v", err)
	}

	// Un token de propósito carece del claim "role"
	claims, err := ParseToken(token, testSecret)
	if err == nil && claims.Role != "" {
		t.Fatalf("expected no role in purpose token, got %q", claims.Role)
	}
}

func TestGetUserFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if got := GetUserFromContext(c); got != nil {
		t.Fatalf("expected nil without claims, got %+v", got)
	}

	c.Set("user", "no-son-claims")
	if got := GetUserFromContext(c); got != nil {
		t.Fatalf("expected nil with wrong type, got %+v", got)
	}

	want := &Claims{UserID: 9, Role: RoleAdmin}
	c.Set("user", want)
	got := GetUserFromContext(c)
	if got == nil || got.UserID != 9 || got.Role != RoleAdmin {
		t.Fatalf("expected stored claims, got %+v", got)
	}
}
