package subscriptions

import (
	"strings"
	"testing"
)

func TestNewStripeFromEnvDisabledWithoutKey(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "")
	if s := NewStripeFromEnv(nil); s != nil {
		t.Fatalf("expected nil service without STRIPE_SECRET_KEY, got %+v", s)
	}
}

func TestNewStripeFromEnvDefaultURLs(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_dummy")
	t.Setenv("APP_BASE_URL", "")
	t.Setenv("STRIPE_SUCCESS_URL", "")
	t.Setenv("STRIPE_CANCEL_URL", "")
	s := NewStripeFromEnv(nil)
	if s == nil {
		t.Fatal("expected configured service")
	}
	if s.successURL != "http://localhost:8080/billing/success" {
		t.Fatalf("success URL = %q", s.successURL)
	}
	if s.cancelURL != "http://localhost:8080/billing/cancelled" {
		t.Fatalf("cancel URL = %q", s.cancelURL)
	}
}

func TestNewStripeFromEnvBaseURLOverride(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_dummy")
	t.Setenv("APP_BASE_URL", "https://app.famhealth.io")
	t.Setenv("STRIPE_SUCCESS_URL", "")
	t.Setenv("STRIPE_CANCEL_URL", "")
	s := NewStripeFromEnv(nil)
	if s == nil {
		t.Fatal("expected configured service")
	}
	if !strings.HasPrefix(s.successURL, "https://app.famhealth.io/") {
		t.Fatalf("success URL not derived from APP_BASE_URL: %q", s.successURL)
	}
	if s.cancelURL != "https://app.famhealth.io/billing/cancelled" {
		t.Fatalf("cancel URL = %q", s.cancelURL)
	}
}

func TestMaskKey(t *testing.T) {
	if got := maskKey("short"); got != "****" {
		t.Fatalf("maskKey(short) = %q", got)
	}
	got := maskKey("sk_test_1234567890abcd")
	if !strings.HasPrefix(got, "sk_test") || !strings.HasSuffix(got, "abcd") {
		t.Fatalf("maskKey long = %q", got)
	}
	if strings.Contains(got, "1234567890") {
		t.Fatalf("maskKey leaked middle: %q", got)
	}
}
