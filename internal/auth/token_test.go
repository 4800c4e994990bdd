package auth

import (
	"strings"
	"testing"
)

func TestSignAndVerifyToken(t *testing.T) {
	secret := []byte("test-secret")

	token, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken() error = %v", err)
	}

	signed := SignToken(token, secret)
	if !strings.HasPrefix(signed, token+".") {
		t.Fatalf("SignToken() = %q, want prefix %q", signed, token+".")
	}

	got, err := VerifyToken(signed, secret)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if got != token {
		t.Errorf("VerifyToken() = %q, want %q", got, token)
	}
}

func TestVerifyToken_Rejects(t *testing.T) {
	secret := []byte("test-secret")
	signed := SignToken("sometoken", secret)

	tests := []struct {
		name  string
		value string
	}{
		{"empty value", ""},
		{"missing signature", "sometoken"},
		{"garbage signature", "sometoken.not-base64!!"},
		{"tampered token", "othertoken." + strings.SplitN(signed, ".", 2)[1]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := VerifyToken(tt.value, secret); err == nil {
				t.Errorf("VerifyToken(%q) should fail", tt.value)
			}
		})
	}

	t.Run("wrong secret", func(t *testing.T) {
		if _, err := VerifyToken(signed, []byte("other-secret")); err == nil {
			t.Error("VerifyToken() should fail with a different secret")
		}
	})
}

func TestNewToken_Unique(t *testing.T) {
	a, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken() error = %v", err)
	}
	b, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken() error = %v", err)
	}
	if a == b {
		t.Error("NewToken() returned the same token twice")
	}
}
