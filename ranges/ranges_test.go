package ranges

import "testing"

func TestGetExactAndFuzzy(t *testing.T) {
	rg := Get("Hemoglobin", "female")
	if rg == nil {
		t.Fatal("expected range for Hemoglobin")
	}
	if rg.Min != 12.0 || rg.Max != 15.0 || rg.Unit != "g/dl" {
		t.Errorf("unexpected female hemoglobin range: %+v", rg)
	}
	// Partial match: real reports print decorated names.
	rg2 := Get("Hemoglobin (Hb)", "female")
	if rg2 == nil || rg2.Min != 12.0 {
		t.Errorf("fuzzy lookup failed: %+v", rg2)
	}
	// Normalization strips colons/parens and collapses spaces.
	if Get("  HEMOGLOBIN:  ", "female") == nil {
		t.Error("normalized lookup failed")
	}
}

func TestGetDeterministic(t *testing.T) {
	for i := 0; i < 5; i++ {
		a := Get("platelet count", "male")
		b := Get("platelet count", "male")
		if a == nil || b == nil || *a != *b {
			t.Fatalf("lookup not deterministic: %+v vs %+v", a, b)
		}
	}
}

func TestGenderUnion(t *testing.T) {
	rg := Get("hemoglobin", "Other")
	if rg == nil {
		t.Fatal("expected union range")
	}
	// min(male,female) .. max(male,female)
	if rg.Min != 12.0 || rg.Max != 17.5 {
		t.Errorf("union range wrong: %+v", rg)
	}
}

func TestUnknownMarker(t *testing.T) {
	if Get("flux capacitance", "male") != nil {
		t.Error("unknown marker should have no range")
	}
	if IsAbnormal("flux capacitance", 99999, "male") {
		t.Error("unknown marker must never be abnormal")
	}
	if s := Status("flux capacitance", 1, "male"); s != StatusUnknown {
		t.Errorf("want unknown, got %s", s)
	}
	if FormatFor("flux capacitance", "male") != "N/A" {
		t.Error("unknown marker should format as N/A")
	}
}

func TestIsAbnormalBounds(t *testing.T) {
	// Exactly at a bound is still normal; abnormal is strictly outside.
	cases := []struct {
		value float64
		want  bool
	}{
		{12.0, false},
		{15.0, false},
		{11.99, true},
		{15.01, true},
		{13.4, false},
	}
	for _, c := range cases {
		if got := IsAbnormal("hemoglobin", c.value, "female"); got != c.want {
			t.Errorf("IsAbnormal(%.2f) = %v, want %v", c.value, got, c.want)
		}
	}
}

func TestStatus(t *testing.T) {
	if s := Status("hemoglobin", 10.0, "female"); s != StatusLow {
		t.Errorf("want low, got %s", s)
	}
	if s := Status("hemoglobin", 16.0, "female"); s != StatusHigh {
		t.Errorf("want high, got %s", s)
	}
	if s := Status("hemoglobin", 13.0, "female"); s != StatusNormal {
		t.Errorf("want normal, got %s", s)
	}
}

func TestSeverityThreshold(t *testing.T) {
	// Female hemoglobin 12.0-15.0. 20% below min = 9.6.
	if s := Severity("hemoglobin", 9.5, "female"); s != "significantly low" {
		t.Errorf("want significantly low, got %s", s)
	}
	if s := Severity("hemoglobin", 10.5, "female"); s != "slightly low" {
		t.Errorf("want slightly low, got %s", s)
	}
	// 20% above max = 18.0.
	if s := Severity("hemoglobin", 18.5, "female"); s != "significantly high" {
		t.Errorf("want significantly high, got %s", s)
	}
	if s := Severity("hemoglobin", 15.5, "female"); s != "slightly high" {
		t.Errorf("want slightly high, got %s", s)
	}
	if s := Severity("hemoglobin", 12.0, "female"); s != StatusNormal {
		t.Errorf("boundary value must be normal, got %s", s)
	}
}

func TestFormatIdempotent(t *testing.T) {
	a := FormatFor("hemoglobin", "female")
	b := FormatFor("hemoglobin", "female")
	if a != b {
		t.Errorf("format not idempotent: %q vs %q", a, b)
	}
	if a != "12 - 15 g/dl" {
		t.Errorf("unexpected format: %q", a)
	}
}

func TestAbsoluteCountsDoNotFallThrough(t *testing.T) {
	rg := Get("Absolute Neutrophil Count", "male")
	if rg == nil || rg.Unit != "10³/μL" {
		t.Errorf("absolute count resolved wrong range: %+v", rg)
	}
}
