package chat

import (
	"strings"
	"testing"
)

func TestValidateRewritesDiagnosticAssertion(t *testing.T) {
	text, _, violations := validate("You have diabetes based on these results.", "medium")
	if strings.Contains(strings.ToLower(text), "you have diabetes") {
		t.Fatalf("diagnostic assertion survived: %q", text)
	}
	if !strings.Contains(text, "consult your doctor about diabetes") {
		t.Fatalf("expected redirect phrase, got %q", text)
	}
	if !strings.Contains(text, disclaimer) {
		t.Fatal("disclaimer missing")
	}
	if violations == 0 {
		t.Fatal("expected at least one rewrite")
	}
}

func TestValidateRewritesNegatedAssertion(t *testing.T) {
	text, _, _ := validate("You don't have anemia.", "medium")
	if strings.Contains(strings.ToLower(text), "don't have anemia") {
		t.Fatalf("negated assertion survived: %q", text)
	}
}

func TestValidateRewritesPrescriptiveLanguage(t *testing.T) {
	text, _, violations := validate("You should take ibuprofen for this.", "medium")
	if strings.Contains(strings.ToLower(text), "should take ibuprofen") {
		t.Fatalf("prescriptive phrase survived: %q", text)
	}
	if violations == 0 {
		t.Fatal("expected a rewrite")
	}
}

func TestValidateCleanTextUnchangedPlusDisclaimer(t *testing.T) {
	in := "Your hemoglobin was 13.5 g/dl on 2026-03-02."
	text, conf, violations := validate(in, "medium")
	if violations != 0 {
		t.Fatalf("unexpected rewrites: %d", violations)
	}
	if text != in+"\n\n"+disclaimer {
		t.Fatalf("got %q", text)
	}
	if conf != "medium" {
		t.Fatalf("confidence = %s", conf)
	}
	// idempotent formatting: same input, same output
	again, _, _ := validate(in, "medium")
	if again != text {
		t.Fatal("validate is not deterministic")
	}
}

func TestValidateConfidenceNoInfoWinsOverSource(t *testing.T) {
	_, conf, _ := validate("According to the records I cannot find that value.", "medium")
	if conf != "none" {
		t.Fatalf("confidence = %s, want none", conf)
	}
}

func TestValidateConfidenceSource(t *testing.T) {
	_, conf, _ := validate("According to your March report the value was 90.", "medium")
	if conf != "high" {
		t.Fatalf("confidence = %s, want high", conf)
	}
}

func TestValidateConfidenceFallback(t *testing.T) {
	_, conf, _ := validate("Eat more leafy greens and stay hydrated.", "low")
	if conf != "low" {
		t.Fatalf("confidence = %s, want low", conf)
	}
}
