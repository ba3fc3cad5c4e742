package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssuer_RoundTrip(t *testing.T) {
	iss := NewIssuer("test-secret", time.Hour)

	token, err := iss.GenerateToken(42)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	userID, err := iss.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if userID != 42 {
		t.Fatalf("userID = %d, want 42", userID)
	}
}

func TestIssuer_Rejects(t *testing.T) {
	iss := NewIssuer("test-secret", time.Hour)
	token, _ := iss.GenerateToken(7)

	// Wrong key.
	if _, err := NewIssuer("other-secret", time.Hour).ValidateToken(token); err == nil {
		t.Fatalf("token signed with another key was accepted")
	}

	// Expired.
	late := NewIssuer("test-secret", time.Hour)
	late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := late.ValidateToken(token); err == nil {
		t.Fatalf("expired token was accepted")
	}

	// Unsigned.
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "7"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := iss.ValidateToken(none); err == nil {
		t.Fatalf("unsigned token was accepted")
	}

	if _, err := iss.ValidateToken("not.a.token"); err == nil {
		t.Fatalf("garbage was accepted")
	}
}
