package chat

import (
	"regexp"
	"strings"
	"time"
)

type Intent string

const (
	IntentSummary        Intent = "summary"
	IntentAbnormal       Intent = "abnormal"
	IntentInterpretation Intent = "interpretation"
	IntentAdvice         Intent = "advice"
)

// TimeWindow is the concrete date range derived from a chat message.
// LatestOnly marks limit-based retrieval ("show my latest results"): the
// window is wide and the retriever caps to the most recent entries instead
// of filtering by date.
type TimeWindow struct {
	From       time.Time
	To         time.Time
	LatestOnly bool
}

// epochFloor is the lower bound used when a message carries no temporal cue.
// Wide on purpose: a missing cue must never silently exclude old data.
var epochFloor = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// Word-boundary anchored so "march" never matches the "mar" in "summarize".
var monthRes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(monthNames))
	for i, m := range monthNames {
		res[i] = regexp.MustCompile(`\b` + m + `\b`)
	}
	return res
}()

type relativePhrase struct {
	phrases []string
	window  func(now time.Time) TimeWindow
}

// Ordered by precedence: longer spans first so "past 6 months" is not
// swallowed by the "month" rules.
var relativePhrases = []relativePhrase{
	{[]string{"past year", "last year"}, func(now time.Time) TimeWindow {
		return TimeWindow{From: now.AddDate(-1, 0, 0), To: now}
	}},
	{[]string{"this year"}, func(now time.Time) TimeWindow {
		return TimeWindow{From: time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location()), To: now}
	}},
	{[]string{"past 6 months", "last 6 months"}, func(now time.Time) TimeWindow {
		return TimeWindow{From: now.AddDate(0, -6, 0), To: now}
	}},
	{[]string{"past 3 months", "last 3 months"}, func(now time.Time) TimeWindow {
		return TimeWindow{From: now.AddDate(0, -3, 0), To: now}
	}},
	{[]string{"past 1 month", "last 1 month", "past month", "last month"}, func(now time.Time) TimeWindow {
		return TimeWindow{From: now.AddDate(0, -1, 0), To: now}
	}},
	{[]string{"past week", "last week"}, func(now time.Time) TimeWindow {
		return TimeWindow{From: now.AddDate(0, 0, -7), To: now}
	}},
}

var latestPhrases = []string{"latest", "most recent", "recent", "last report"}

// parseTimeRange converts a free-text message into a concrete date window.
func parseTimeRange(message string, now time.Time) TimeWindow {
	msg := strings.ToLower(message)

	for i, re := range monthRes {
		if re.MatchString(msg) {
			month := time.Month(i + 1)
			year := now.Year()
			// Most recent occurrence not in the future
			if month > now.Month() {
				year--
			}
			from := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
			to := from.AddDate(0, 1, 0).Add(-time.Second)
			return TimeWindow{From: from, To: to}
		}
	}

	for _, rp := range relativePhrases {
		for _, p := range rp.phrases {
			if strings.Contains(msg, p) {
				return rp.window(now)
			}
		}
	}

	for _, p := range latestPhrases {
		if strings.Contains(msg, p) {
			return TimeWindow{From: epochFloor, To: now, LatestOnly: true}
		}
	}

	return TimeWindow{From: epochFloor, To: now}
}

var (
	abnormalKeywords  = []string{"abnormal", "out of range", "outside the range", "outside range", "flagged", "anything wrong", "any issues"}
	summaryKeywords   = []string{"summary", "summarize", "summarise", "overview", "recap"}
	interpretKeywords = []string{"do i have", "do you think i have", "problem", "concern", "worried", "what does this mean", "is this serious"}
	adviceKeywords    = []string{"suggest", "advice", "improve", "how can i", "what should i", "recommend"}
)

// detectIntent classifies the message. Precedence is fixed: abnormal beats
// summary beats interpretation beats advice; everything else is a summary,
// the safe default.
func detectIntent(message string) Intent {
	msg := strings.ToLower(message)
	for _, k := range abnormalKeywords {
		if strings.Contains(msg, k) {
			return IntentAbnormal
		}
	}
	for _, k := range summaryKeywords {
		if strings.Contains(msg, k) {
			return IntentSummary
		}
	}
	for _, k := range interpretKeywords {
		if strings.Contains(msg, k) {
			return IntentInterpretation
		}
	}
	for _, k := range adviceKeywords {
		if strings.Contains(msg, k) {
			return IntentAdvice
		}
	}
	return IntentSummary
}

// Topic links a health subject mentioned in the message to the marker names
// it concerns, used to pull the relevant rows to the front of the context.
type Topic struct {
	Name    string
	Markers []string
}

// Iteration order is the tie-break when several topics co-occur.
var topicTable = []Topic{
	{"anemia", []string{"hemoglobin", "rbc", "red blood", "hematocrit", "mcv", "mch", "iron", "ferritin"}},
	{"diabetes", []string{"glucose", "hba1c", "sugar", "insulin"}},
	{"thyroid", []string{"tsh", "t3", "t4", "thyroid"}},
	{"liver", []string{"alt", "ast", "sgpt", "sgot", "bilirubin", "alkaline phosphatase", "albumin", "ggt"}},
	{"kidney", []string{"creatinine", "urea", "bun", "uric acid", "egfr"}},
	{"cholesterol", []string{"cholesterol", "ldl", "hdl", "triglyceride", "lipid"}},
	{"infection", []string{"wbc", "white blood", "leucocyte", "leukocyte", "neutrophil", "lymphocyte", "esr", "crp"}},
	{"vitamin", []string{"vitamin", "b12", "folate", "folic"}},
	{"platelet", []string{"platelet", "mpv"}},
}

// extractHealthTopic returns the first topic whose name appears in the
// message, or nil.
func extractHealthTopic(message string) *Topic {
	msg := strings.ToLower(message)
	for i := range topicTable {
		if strings.Contains(msg, topicTable[i].Name) {
			return &topicTable[i]
		}
	}
	return nil
}
