package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndValidateToken(t *testing.T) {
	svc, err := NewAuthService("test-secret", 24*time.Hour)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}

	token, err := svc.IssueToken(42, "recruiter")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != 42 || claims.Role != "recruiter" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Subject != "42" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 24*time.Hour {
		t.Fatalf("unexpected token lifetime %s", got)
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc, err := NewAuthService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	issuedAt := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.IssueToken(1, "candidate")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	svc.now = time.Now
	if _, err := svc.ValidateToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	issuer, _ := NewAuthService("secret-a", time.Hour)
	verifier, _ := NewAuthService("secret-b", time.Hour)

	token, err := issuer.IssueToken(1, "candidate")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := verifier.ValidateToken(token); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}

func TestValidateTokenRejectsNoneAlgorithm(t *testing.T) {
	svc, _ := NewAuthService("test-secret", time.Hour)
	claims := TokenClaims{UserID: 1, Role: "recruiter"}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}
	if _, err := svc.ValidateToken(unsigned); err == nil {
		t.Fatalf("expected alg=none token to be rejected")
	}
}

func TestNewAuthServiceRequiresSecret(t *testing.T) {
	if _, err := NewAuthService("  ", time.Hour); err == nil {
		t.Fatalf("expected error for blank secret")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if !CheckPasswordHash("s3cret-pass", hash) {
		t.Fatalf("expected password to match")
	}
	if CheckPasswordHash("other", hash) {
		t.Fatalf("expected wrong password to fail")
	}
}
