package chat

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)

func TestParseTimeRangeMonthName(t *testing.T) {
	w := parseTimeRange("summarize my March report", testNow)
	if w.From.Year() != 2026 || w.From.Month() != time.March || w.From.Day() != 1 {
		t.Fatalf("unexpected from: %v", w.From)
	}
	if w.To.Month() != time.March || w.To.Day() != 31 {
		t.Fatalf("unexpected to: %v", w.To)
	}
	if w.LatestOnly {
		t.Fatal("month window must not be latest-only")
	}
}

func TestParseTimeRangeMonthInFutureUsesPriorYear(t *testing.T) {
	w := parseTimeRange("what happened in December", testNow)
	if w.From.Year() != 2025 || w.From.Month() != time.December {
		t.Fatalf("unexpected from: %v", w.From)
	}
}

func TestParseTimeRangeNoFalseMonthMatch(t *testing.T) {
	// "mar" inside "summarize" must not count as March
	w := parseTimeRange("please summarize my results", testNow)
	if w.From.Year() != 2000 {
		t.Fatalf("expected epoch floor, got %v", w.From)
	}
	if !w.To.Equal(testNow) {
		t.Fatalf("expected to=now, got %v", w.To)
	}
}

func TestParseTimeRangeRelativePhrases(t *testing.T) {
	cases := []struct {
		msg  string
		from time.Time
	}{
		{"show everything from the past year", testNow.AddDate(-1, 0, 0)},
		{"my results this year", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"results from the last 6 months", testNow.AddDate(0, -6, 0)},
		{"past 3 months please", testNow.AddDate(0, -3, 0)},
		{"show my results from last month", testNow.AddDate(0, -1, 0)},
		{"what came in last week", testNow.AddDate(0, 0, -7)},
	}
	for _, c := range cases {
		w := parseTimeRange(c.msg, testNow)
		if !w.From.Equal(c.from) {
			t.Errorf("%q: from=%v want %v", c.msg, w.From, c.from)
		}
		if w.LatestOnly {
			t.Errorf("%q: unexpected latest-only", c.msg)
		}
	}
}

func TestParseTimeRangeLatest(t *testing.T) {
	for _, msg := range []string{"show my latest results", "most recent values", "my last report"} {
		w := parseTimeRange(msg, testNow)
		if !w.LatestOnly {
			t.Errorf("%q: expected latest-only", msg)
		}
	}
}

func TestParseTimeRangeDefault(t *testing.T) {
	w := parseTimeRange("how is my hemoglobin", testNow)
	if w.From.Year() != 2000 || w.LatestOnly {
		t.Fatalf("expected wide default window, got %+v", w)
	}
}

func TestDetectIntent(t *testing.T) {
	cases := []struct {
		msg  string
		want Intent
	}{
		{"Are any of my results abnormal?", IntentAbnormal},
		{"Summarize my results", IntentSummary},
		{"Do I have diabetes?", IntentInterpretation},
		{"How can I improve my iron levels?", IntentAdvice},
		{"hello there", IntentSummary},
	}
	for _, c := range cases {
		if got := detectIntent(c.msg); got != c.want {
			t.Errorf("%q: got %s want %s", c.msg, got, c.want)
		}
	}
}

func TestDetectIntentPrecedence(t *testing.T) {
	// abnormal beats summary even when both keyword families appear
	if got := detectIntent("summarize my abnormal results"); got != IntentAbnormal {
		t.Fatalf("got %s want %s", got, IntentAbnormal)
	}
}

func TestExtractHealthTopic(t *testing.T) {
	topic := extractHealthTopic("do I have anemia")
	if topic == nil || topic.Name != "anemia" {
		t.Fatalf("expected anemia topic, got %+v", topic)
	}
	found := false
	for _, kw := range topic.Markers {
		if kw == "hemoglobin" {
			found = true
		}
	}
	if !found {
		t.Fatal("anemia topic should include hemoglobin")
	}
	if extractHealthTopic("how are my results") != nil {
		t.Fatal("expected no topic")
	}
}

func TestExtractHealthTopicOrderTieBreak(t *testing.T) {
	// table order decides when several topics co-occur
	topic := extractHealthTopic("is this diabetes or anemia?")
	if topic == nil || topic.Name != "anemia" {
		t.Fatalf("expected anemia by table order, got %+v", topic)
	}
}
