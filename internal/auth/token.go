package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrBadToken means a cookie value failed signature verification.
var ErrBadToken = errors.New("invalid session token")

// NewToken returns a random URL-safe session token.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// SignToken appends an HMAC-SHA256 signature so the cookie value is
// tamper-evident even though the token itself lives in the store.
func SignToken(token string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(token))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return token + "." + sig
}

// VerifyToken checks the signature on a cookie value and returns the
// bare token.
func VerifyToken(signed string, secret []byte) (string, error) {
	token, sig, ok := strings.Cut(signed, ".")
	if !ok || token == "" {
		return "", ErrBadToken
	}

	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", ErrBadToken
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(token))
	if !hmac.Equal(got, mac.Sum(nil)) {
		return "", ErrBadToken
	}
	return token, nil
}

// NewTempPassword returns a short random password for account recovery.
func NewTempPassword() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate temporary password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
