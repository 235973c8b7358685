package auth

import (
	"testing"

	"github.com/bestruirui/argus/internal/conf"
)

func TestJWTRoundTrip(t *testing.T) {
	conf.AppConfig.Auth.AccessPassword = "test-password"

	token, expire, err := GenerateJWTToken(0)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}
	if token == "" || expire == "" {
		t.Fatal("expected a token and an expiry")
	}
	if !VerifyJWTToken(token) {
		t.Error("freshly minted token must verify")
	}
	if VerifyJWTToken(token + "x") {
		t.Error("tampered token must not verify")
	}
	if VerifyJWTToken("") {
		t.Error("empty token must not verify")
	}

	// Changing the password invalidates outstanding sessions.
	conf.AppConfig.Auth.AccessPassword = "rotated"
	if VerifyJWTToken(token) {
		t.Error("token signed with the old password must not verify")
	}
}
