package extract

import "testing"

const sampleReport = `LABORATORY TEST REPORT
TEST PARAMETER
RESULT
HEMOGLOBIN
14.2
TOTAL LEUCOCYTE COUNT
Method: Automated
8000
PLATELET COUNT
2.5
HEMOGLOBIN
14.2
ESR
Negative
12
Page 1 of 2
End Of Report`

func TestParseTextMultiline(t *testing.T) {
	markers := ParseText(sampleReport)
	want := map[string]float64{
		"HEMOGLOBIN":            14.2,
		"TOTAL LEUCOCYTE COUNT": 8000,
		"PLATELET COUNT":        2.5,
		"ESR":                   12,
	}
	if len(markers) != len(want) {
		t.Fatalf("got %d markers, want %d: %+v", len(markers), len(want), markers)
	}
	for _, m := range markers {
		v, ok := want[m.Name]
		if !ok {
			t.Errorf("unexpected marker %q", m.Name)
			continue
		}
		if m.Value != v {
			t.Errorf("%s = %v, want %v", m.Name, m.Value, v)
		}
	}
}

func TestParseTextSkipsBoilerplate(t *testing.T) {
	markers := ParseText("Report Status\nFinal\nCollected On\n12.5\n")
	if len(markers) != 0 {
		t.Errorf("boilerplate produced markers: %+v", markers)
	}
}

func TestParseTextDeduplicates(t *testing.T) {
	markers := ParseText("HEMOGLOBIN\n14.2\nHEMOGLOBIN\n14.2\n")
	if len(markers) != 1 {
		t.Errorf("duplicate not collapsed: %+v", markers)
	}
	// Same test with a different value is a distinct row.
	markers = ParseText("HEMOGLOBIN\n14.2\nHEMOGLOBIN\n13.9\n")
	if len(markers) != 2 {
		t.Errorf("distinct values collapsed: %+v", markers)
	}
}

func TestUnitFor(t *testing.T) {
	cases := []struct{ name, unit string }{
		{"HEMOGLOBIN", "gm/dl"},
		{"Hemoglobin:", "gm/dl"},
		{"R.B.C. COUNT", "million/cumm"},
		{"Absolute Neutrophil Count", "10³/μL"},
		{"GLUCOSE (FASTING)", "mg/dl"},
		{"MYSTERY ASSAY XYZQ", ""},
	}
	for _, c := range cases {
		if got := UnitFor(c.name); got != c.unit {
			t.Errorf("UnitFor(%q) = %q, want %q", c.name, got, c.unit)
		}
	}
}

func TestIsPotentialTestName(t *testing.T) {
	if !isPotentialTestName("HEMOGLOBIN") {
		t.Error("all-caps name rejected")
	}
	if isPotentialTestName("mostly lowercase commentary line") {
		t.Error("lowercase line accepted")
	}
	if isPotentialTestName("14") {
		t.Error("numeric line accepted")
	}
}
