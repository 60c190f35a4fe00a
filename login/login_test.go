package login

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, exp, err := signToken("admin@example.com", time.Hour, false)
	if err != nil {
		t.Fatal(err)
	}
	if exp <= time.Now().Unix() {
		t.Fatal("expiry not in the future")
	}
	email, ok := GetEmailFromToken(token)
	if !ok || email != "admin@example.com" {
		t.Fatalf("round trip failed: %q %v", email, ok)
	}
}

func TestTokenTampered(t *testing.T) {
	token, _, _ := signToken("admin@example.com", time.Hour, false)
	if _, ok := GetEmailFromToken(token + "x"); ok {
		t.Fatal("tampered token accepted")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	token, _, _ := signToken("admin@example.com", -time.Minute, false)
	if _, ok := GetEmailFromToken(token); ok {
		t.Fatal("expired token accepted")
	}
}

func TestBlacklistedTokenRejected(t *testing.T) {
	token, exp, _ := signToken("admin@example.com", time.Hour, false)
	blacklist[token] = exp
	defer delete(blacklist, token)
	if _, ok := GetEmailFromToken(token); ok {
		t.Fatal("blacklisted token accepted")
	}
}
