package chat

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"famhealth-backend/members"
	"famhealth-backend/records"
)

func obs(date string, marker string, value float64, unit string) records.Observation {
	d, _ := time.Parse("2006-01-02", date)
	return records.Observation{Marker: marker, Value: value, Unit: unit, ObservedAt: d}
}

func TestBuildContextStatusComputedLive(t *testing.T) {
	m := &members.Member{Name: "Priya", Gender: "Female"}
	set := &ObservationSet{
		All:       []records.Observation{obs("2026-03-02", "Hemoglobin", 10.0, "g/dl")},
		TotalEver: 1,
	}
	out := buildContext(set, m, nil, testNow)
	if !strings.Contains(out, "Hemoglobin 10 g/dl") {
		t.Fatalf("value line missing: %s", out)
	}
	if !strings.Contains(out, "⚠ out of range (slightly low)") {
		t.Fatalf("expected graded out-of-range flag: %s", out)
	}
	if !strings.Contains(out, "normal range 12 - 15 g/dl") {
		t.Fatalf("expected range string: %s", out)
	}
}

func TestBuildContextSeverityGrading(t *testing.T) {
	m := &members.Member{Name: "Priya", Gender: "Female"}
	set := &ObservationSet{
		All: []records.Observation{
			obs("2026-03-02", "Hemoglobin", 9.0, "g/dl"),  // 25% below 12.0
			obs("2026-04-02", "Hemoglobin", 11.5, "g/dl"), // just under 12.0
		},
		TotalEver: 2,
	}
	out := buildContext(set, m, nil, testNow)
	if !strings.Contains(out, "⚠ out of range (significantly low)") {
		t.Fatalf("expected significantly low grading: %s", out)
	}
	if !strings.Contains(out, "⚠ out of range (slightly low)") {
		t.Fatalf("expected slightly low grading: %s", out)
	}
}

func TestBuildContextRelevantSubsetFirst(t *testing.T) {
	m := &members.Member{Name: "Priya", Gender: "Female"}
	topic := &topicTable[0] // anemia
	set := &ObservationSet{
		All: []records.Observation{
			obs("2026-03-02", "Glucose (Fasting)", 92, "mg/dl"),
			obs("2026-03-02", "Hemoglobin", 13.0, "g/dl"),
		},
		Relevant:  []records.Observation{obs("2026-03-02", "Hemoglobin", 13.0, "g/dl")},
		TotalEver: 2,
	}
	out := buildContext(set, m, topic, testNow)
	relIdx := strings.Index(out, "Results relevant to anemia")
	allIdx := strings.Index(out, "All available results")
	if relIdx < 0 || allIdx < 0 || relIdx > allIdx {
		t.Fatalf("relevant block must precede full set:\n%s", out)
	}
}

func TestBuildContextCapsFullSet(t *testing.T) {
	m := &members.Member{Name: "Ravi", Gender: "Male"}
	set := &ObservationSet{}
	for i := 0; i < 60; i++ {
		set.All = append(set.All, obs("2026-01-02", fmt.Sprintf("Marker %d", i), float64(i), "u"))
	}
	set.TotalEver = 60
	out := buildContext(set, m, nil, testNow)
	if !strings.Contains(out, "most recent 50") {
		t.Fatalf("expected capped heading: %s", out)
	}
	if strings.Contains(out, "Marker 3 ") || !strings.Contains(out, "Marker 59 ") {
		t.Fatal("cap should keep the most recent rows")
	}
	if strings.Count(out, "- 2026-01-02:") != 50 {
		t.Fatalf("expected exactly 50 rows, got %d", strings.Count(out, "- 2026-01-02:"))
	}
}

func TestBuildContextSubjectMetadataBlock(t *testing.T) {
	dob := time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC)
	m := &members.Member{Name: "Priya", Gender: "Female", DateOfBirth: &dob, ExistingConditions: "asthma"}
	set := &ObservationSet{All: []records.Observation{obs("2026-03-02", "Hemoglobin", 13.0, "g/dl")}, TotalEver: 1}
	out := buildContext(set, m, nil, testNow)
	if !strings.Contains(out, "Patient profile:") {
		t.Fatal("profile block missing")
	}
	if !strings.Contains(out, "- Age: 36") {
		t.Fatalf("expected age 36: %s", out)
	}
	if !strings.Contains(out, "- Known conditions: asthma") {
		t.Fatal("conditions missing")
	}
}
