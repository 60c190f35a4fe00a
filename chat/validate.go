package chat

import (
	"regexp"
	"strings"
)

const disclaimer = "This information is not a medical diagnosis. Please consult a licensed healthcare professional to interpret your results."

type rewriteRule struct {
	re          *regexp.Regexp
	replacement string
}

// Ordered: overlapping patterns resolve by position in this slice, so it
// must stay a slice, not a map. Negated assertions come before their
// positive counterparts.
var rewriteRules = []rewriteRule{
	{regexp.MustCompile(`(?i)you (?:do not|don't) have (?:a |an )?(\w[\w-]*)`), "consult your doctor about $1"},
	{regexp.MustCompile(`(?i)you have (?:a |an )?(\w[\w-]*)`), "consult your doctor about $1"},
	{regexp.MustCompile(`(?i)you are suffering from (?:a |an )?(\w[\w-]*)`), "consult your doctor about $1"},
	{regexp.MustCompile(`(?i)you are (?:perfectly )?healthy`), "your results should be reviewed by your doctor"},
	{regexp.MustCompile(`(?i)diagnosed with (?:a |an )?(\w[\w-]*)`), "worth discussing $1 with your doctor"},
	{regexp.MustCompile(`(?i)no indication of (?:a |an )?(\w[\w-]*)`), "a question about $1 for your doctor"},
	{regexp.MustCompile(`(?i)suggests? the presence of (?:a |an )?(\w[\w-]*)`), "is worth raising $1 with your doctor"},
	{regexp.MustCompile(`(?i)(?:this |these results? )confirms? (?:that )?(\w[\w-]*)`), "this should be confirmed by your doctor regarding $1"},
	{regexp.MustCompile(`(?i)(?:this |these results? )indicates? (?:that )?(\w[\w-]*)`), "ask your doctor what this means for $1"},
	{regexp.MustCompile(`(?i)take this medication`), "discuss medication options with your doctor"},
	{regexp.MustCompile(`(?i)you (?:need|should) (?:to )?(?:start )?tak(?:e|ing) (\w[\w-]*)`), "ask your doctor before taking $1"},
	{regexp.MustCompile(`(?i)start taking (\w[\w-]*)`), "ask your doctor before taking $1"},
	{regexp.MustCompile(`(?i)(?:was|were|has been) prescribed (\w[\w-]*)`), "discuss $1 with your doctor"},
}

var (
	noInfoPhrases = []string{"don't have enough information", "do not have enough information", "not mentioned", "cannot find"}
	sourcePhrases = []string{"according to", "source"}
)

// validate rewrites forbidden diagnostic or prescriptive phrasing in place,
// appends the mandatory disclaimer and assigns a confidence label. Returns
// the number of rewrites for audit logging.
func validate(raw string, fallbackConfidence string) (string, string, int) {
	text := raw
	violations := 0
	for _, r := range rewriteRules {
		if hits := r.re.FindAllStringIndex(text, -1); len(hits) > 0 {
			violations += len(hits)
			text = r.re.ReplaceAllString(text, r.replacement)
		}
	}

	confidence := fallbackConfidence
	lower := strings.ToLower(raw)
	switch {
	case containsAny(lower, noInfoPhrases):
		confidence = "none"
	case containsAny(lower, sourcePhrases):
		confidence = "high"
	}

	text = strings.TrimSpace(text) + "\n\n" + disclaimer
	return text, confidence, violations
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
