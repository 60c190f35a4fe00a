package chat

import (
	"fmt"
	"strings"
	"time"

	"famhealth-backend/members"
	"famhealth-backend/ranges"
	"famhealth-backend/records"
)

// Cap on the full result list so big histories fit the model context.
const maxContextRows = 50

// buildContext renders the retrieved observations for the model. Topic
// relevant rows go first under their own heading, then the full set capped
// to the most recent rows. Subject metadata is a separate labeled block,
// never interleaved with numbers.
func buildContext(set *ObservationSet, member *members.Member, topic *Topic, now time.Time) string {
	var b strings.Builder

	b.WriteString("Patient profile:\n")
	if age := member.Age(now); age >= 0 {
		fmt.Fprintf(&b, "- Age: %d\n", age)
	}
	fmt.Fprintf(&b, "- Gender: %s\n", member.Gender)
	if strings.TrimSpace(member.ExistingConditions) != "" {
		fmt.Fprintf(&b, "- Known conditions: %s\n", member.ExistingConditions)
	}

	if topic != nil && len(set.Relevant) > 0 {
		fmt.Fprintf(&b, "\nResults relevant to %s:\n", topic.Name)
		for _, o := range set.Relevant {
			b.WriteString(formatObservation(o, member.Gender))
			b.WriteByte('\n')
		}
	}

	all := set.All
	if len(all) > maxContextRows {
		all = all[len(all)-maxContextRows:]
	}
	fmt.Fprintf(&b, "\nAll available results (most recent %d):\n", len(all))
	for _, o := range all {
		b.WriteString(formatObservation(o, member.Gender))
		b.WriteByte('\n')
	}
	return b.String()
}

// formatObservation renders one row. The status suffix is recomputed from
// the live range table, never read from the stored snapshot.
func formatObservation(o records.Observation, gender string) string {
	line := fmt.Sprintf("- %s: %s %s %s (normal range %s)",
		o.ObservedAt.Format("2006-01-02"), o.Marker, trimValue(o.Value), o.Unit,
		ranges.FormatFor(o.Marker, gender))
	switch ranges.Status(o.Marker, o.Value, gender) {
	case ranges.StatusLow, ranges.StatusHigh:
		line += " ⚠ out of range (" + ranges.Severity(o.Marker, o.Value, gender) + ")"
	case ranges.StatusNormal:
		line += " ✓ normal"
	}
	return line
}

func trimValue(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
