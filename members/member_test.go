package members

import (
	"testing"
	"time"
)

func TestAge(t *testing.T) {
	now := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	dob := time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC)
	m := Member{DateOfBirth: &dob}
	if got := m.Age(now); got != 36 {
		t.Fatalf("age = %d, want 36", got)
	}

	// birthday later this year: not yet a full year older
	dob2 := time.Date(1990, 12, 1, 0, 0, 0, 0, time.UTC)
	m2 := Member{DateOfBirth: &dob2}
	if got := m2.Age(now); got != 35 {
		t.Fatalf("age = %d, want 35", got)
	}

	var m3 Member
	if got := m3.Age(now); got != -1 {
		t.Fatalf("unknown dob should be -1, got %d", got)
	}
}
