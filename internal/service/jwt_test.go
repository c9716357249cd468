package service

import (
	"os"
	"strings"
	"testing"
)

func TestJWTRoundTrip(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	token, err := GenerateJWT("user-123")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	sub, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sub != "user-123" {
		t.Fatalf("sub = %q, want user-123", sub)
	}
}

func TestJWTRejectsTampered(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	token, err := GenerateJWT("user-123")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// flip the signature
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape")
	}
	tampered := parts[0] + "." + parts[1] + "." + "AAAA" + parts[2][4:]

	if _, err := ParseJWT(tampered); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
}

func TestJWTRejectsGarbage(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	if _, err := ParseJWT("not-a-token"); err == nil {
		t.Fatal("expected garbage token to be rejected")
	}
}
