package auth

import (
	"strings"
	"testing"
	"time"
)

func TestIssueAndParseToken(t *testing.T) {
	secret := []byte("secret")
	issued, err := IssueToken(secret, Claims{
		Sub:  "profile-1",
		Name: "Mira",
		Role: "manager",
		JTI:  "jti-1",
		Exp:  time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	claims, err := ParseToken(secret, issued)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Sub != "profile-1" || claims.Name != "Mira" || claims.Role != "manager" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	secret := []byte("secret")
	issued, err := IssueToken(secret, Claims{
		Sub:  "profile-1",
		Name: "Mira",
		Role: "manager",
		JTI:  "jti-1",
		Exp:  time.Now().Add(-time.Minute).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if _, err := ParseToken(secret, issued); err != ErrExpiredToken {
		t.Fatalf("error = %v, want ErrExpiredToken", err)
	}
}

func TestParseTokenRejectsTampering(t *testing.T) {
	secret := []byte("secret")
	issued, err := IssueToken(secret, Claims{
		Sub:  "profile-1",
		Name: "Mira",
		Role: "viewer",
		JTI:  "jti-1",
		Exp:  time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	if _, err := ParseToken([]byte("other"), issued); err != ErrInvalidToken {
		t.Fatalf("wrong secret: error = %v, want ErrInvalidToken", err)
	}

	parts := strings.Split(issued, ".")
	forged := parts[0] + "x." + parts[1]
	if _, err := ParseToken(secret, forged); err != ErrInvalidToken {
		t.Fatalf("forged payload: error = %v, want ErrInvalidToken", err)
	}
}

func TestHashTokenIsStable(t *testing.T) {
	a := HashToken("portal-token")
	b := HashToken("portal-token")
	if a != b {
		t.Fatal("hash not deterministic")
	}
	if a == HashToken("other") {
		t.Fatal("distinct inputs collided")
	}
	if len(a) != 64 {
		t.Fatalf("digest length = %d, want 64 hex chars", len(a))
	}
}
